package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/registry"
)

func TestParse_MappingFields(t *testing.T) {
	yaml := `
collection: product
fields:
  title:    { type: string, length: 120 }
  price:    { type: decimal, precision: 10, scale: 2, minimum: 0 }
  status:   { type: enum, values: [draft, published], default: draft }
  released: { type: date, nullable: true }
relationships:
  - { kind: belongs_to, target: category }
  - { kind: many-to-many, target: tag }
`
	c, err := Parse([]byte(yaml), registry.NewDefault())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if c.Name() != "product" || c.Table() != "lc_product" {
		t.Errorf("name/table = %s/%s", c.Name(), c.Table())
	}

	expected := []string{"title", "price", "status", "released"}
	got := c.FieldNames()
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("FieldNames() = %v, want %v", got, expected)
	}

	price, _ := c.Field("price")
	if price.Type() != field.TypeDecimal || price.Options().Scale != 2 {
		t.Errorf("price = %s %+v", price.Type(), price.Options())
	}
	if price.Validate(-1) {
		t.Error("price minimum not applied")
	}

	released, _ := c.Field("released")
	if !released.Options().Nullable || !released.Validate(nil) {
		t.Error("released should be nullable")
	}

	rels := c.Relationships()
	if len(rels) != 2 {
		t.Fatalf("Relationships() len = %d, want 2", len(rels))
	}
	if rels[1].Kind != ManyToMany || rels[1].JoinTable != "lc_product_tag" {
		t.Errorf("many-to-many = %+v", rels[1])
	}
}

func TestParse_SequenceFields(t *testing.T) {
	yaml := `
collection: customer
table: crm_customers
fields:
  - name: email
    type: email
    unique: true
  - name: age
    type: integer
    minimum: 0
    maximum: 120
`
	c, err := Parse([]byte(yaml), registry.NewDefault())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if c.Table() != "crm_customers" {
		t.Errorf("Table() = %s, want crm_customers", c.Table())
	}

	fields := c.Fields()
	if len(fields) != 2 || fields[0].Name() != "email" || fields[1].Name() != "age" {
		t.Fatalf("Fields() = %v", c.FieldNames())
	}
	if !fields[0].Options().Unique {
		t.Error("email should be unique")
	}
	if fields[1].Validate(121) || !fields[1].Validate(30) {
		t.Error("age bounds not applied")
	}
}

func TestParse_TablePrefixOption(t *testing.T) {
	yaml := `
collection: order_line
fields:
  qty: { type: integer }
`
	c, err := Parse([]byte(yaml), registry.NewDefault(), WithTablePrefix("shop_"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Table() != "shop_order_line" {
		t.Errorf("Table() = %s, want shop_order_line", c.Table())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(error) bool
	}{
		{
			name:  "invalid yaml",
			yaml:  "collection: [unclosed",
			check: errs.IsMalformedSchema,
		},
		{
			name:  "missing name",
			yaml:  "fields:\n  a: { type: string }\n",
			check: errs.IsMalformedSchema,
		},
		{
			name:  "no fields",
			yaml:  "collection: empty\n",
			check: errs.IsMalformedSchema,
		},
		{
			name:  "scalar fields",
			yaml:  "collection: bad\nfields: title\n",
			check: errs.IsMalformedSchema,
		},
		{
			name:  "missing type",
			yaml:  "collection: bad\nfields:\n  title: { length: 10 }\n",
			check: errs.IsMalformedSchema,
		},
		{
			name:  "duplicate field in list",
			yaml:  "collection: bad\nfields:\n  - { name: a, type: string }\n  - { name: a, type: text }\n",
			check: errs.IsMalformedSchema,
		},
		{
			name:  "unknown type",
			yaml:  "collection: bad\nfields:\n  cost: { type: money }\n",
			check: errs.IsUnknownFieldType,
		},
		{
			name:  "unknown relationship",
			yaml:  "collection: bad\nfields:\n  a: { type: string }\nrelationships:\n  - { kind: morph_to, target: x }\n",
			check: errs.IsInvalidRelationship,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), registry.NewDefault())
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error kind: %v", err)
			}
		})
	}
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "product.yaml", "collection: product\nfields:\n  title: { type: string }\n")
	writeFile(t, dir, "nested/category.yml", "collection: category\nfields:\n  name: { type: string }\n")
	writeFile(t, dir, "README.md", "not a collection")

	collections, err := ParseDir(dir, registry.NewDefault())
	if err != nil {
		t.Fatalf("ParseDir() error = %v", err)
	}

	if len(collections) != 2 {
		t.Fatalf("ParseDir() returned %d collections, want 2", len(collections))
	}

	names := map[string]bool{}
	for _, c := range collections {
		names[c.Name()] = true
	}
	if !names["product"] || !names["category"] {
		t.Errorf("ParseDir() names = %v", names)
	}
}

func TestParseDir_Duplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "collection: product\nfields:\n  title: { type: string }\n")
	writeFile(t, dir, "b.yaml", "collection: product\nfields:\n  name: { type: string }\n")

	if _, err := ParseDir(dir, registry.NewDefault()); err == nil {
		t.Error("expected error for duplicate collection")
	}

	dir = t.TempDir()
	writeFile(t, dir, "a.yaml", "collection: product\nfields:\n  title: { type: string }\n")
	writeFile(t, dir, "b.yaml", "collection: item\ntable: lc_product\nfields:\n  name: { type: string }\n")

	_, err := ParseDir(dir, registry.NewDefault())
	if err == nil || !strings.Contains(err.Error(), "lc_product") {
		t.Errorf("expected table conflict error, got %v", err)
	}
}

func TestParseFile_ReportsPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", "collection: broken\nfields:\n  x: { type: nope }\n")

	_, err := ParseFile(path, registry.NewDefault())
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Errorf("expected error mentioning file, got %v", err)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.yaml"), registry.NewDefault()); err == nil {
		t.Error("expected error for missing file")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
