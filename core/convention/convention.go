// Package convention derives names from minimal collection definitions.
// Table names, foreign keys, join tables and generated identifiers all come
// from here so every component agrees on the same spelling.
package convention

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTablePrefix is prepended to every derived table name.
const DefaultTablePrefix = "lc_"

// TableName returns the physical table for a collection: prefix + snake_case name.
func TableName(prefix, name string) string {
	return prefix + SnakeCase(name)
}

// SnakeCase converts PascalCase, camelCase, kebab-case or spaced words to
// lower snake_case. "ProductItem" and "product-item" both yield "product_item".
func SnakeCase(s string) string {
	parts := Words(s)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, "_")
}

// PascalCase joins the words of s with each word title-cased.
// "product_item" yields "ProductItem"; "Product" is returned unchanged.
func PascalCase(s string) string {
	caser := cases.Title(language.English)
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// Words splits an identifier on separators and case boundaries.
// An upper-case run followed by a lower-case letter ends one rune early,
// so "APIKey" splits as "API", "Key".
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return words
}

// Pluralize returns the plural form of a word.
func Pluralize(word string) string {
	return inflection.Plural(word)
}

// Singularize returns the singular form of a word.
func Singularize(word string) string {
	return inflection.Singular(word)
}

// ForeignKey returns the column that references target, e.g. "categories" -> "category_id".
func ForeignKey(target string) string {
	return Singularize(SnakeCase(target)) + "_id"
}

// JoinTable returns the pivot table of a many-to-many pair. The two singular
// names are sorted so both sides derive the same table.
func JoinTable(prefix, a, b string) string {
	names := []string{Singularize(SnakeCase(a)), Singularize(SnakeCase(b))}
	sort.Strings(names)
	return prefix + names[0] + "_" + names[1]
}
