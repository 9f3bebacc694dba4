package codegen

import (
	"strconv"
	"strings"

	"github.com/artpar/lowcode/core/convention"
)

// Suffix is appended to every generated class name.
const Suffix = "Controller"

// ClassNameOf derives the controller name of a collection:
// PascalCase words plus Suffix. It is idempotent and never doubles the
// suffix, so "product", "Product" and "ProductController" all yield
// "ProductController".
func ClassNameOf(name string) string {
	base := convention.PascalCase(name)
	if base == "" {
		return ""
	}
	if strings.HasSuffix(base, Suffix) && base != Suffix {
		return base
	}
	return base + Suffix
}

// RenderFillable renders field names as comma-joined quoted literals,
// keeping the given order.
func RenderFillable(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// FileName returns the file the controller is written to,
// e.g. "product_item_controller.go".
func FileName(className string) string {
	return convention.SnakeCase(className) + ".go"
}
