package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/artpar/lowcode/core/registry"
	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/validation"
)

const productDef = `
collection: product
fields:
  title:  { type: string, length: 120 }
  price:  { type: decimal, precision: 10, scale: 2, minimum: 0 }
  status: { type: enum, values: [draft, published], default: draft }
relationships:
  - { kind: belongs_to, target: category }
`

func testCollection(t *testing.T) (*schema.Collection, *registry.Registry) {
	t.Helper()

	reg := registry.NewDefault()
	c, err := schema.Parse([]byte(productDef), reg)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return c, reg
}

func testRules(t *testing.T, c *schema.Collection) validation.RuleSet {
	t.Helper()

	rules, err := validation.RulesFor(c)
	if err != nil {
		t.Fatalf("RulesFor error: %v", err)
	}
	return rules
}

// ===========================================
// Registry Tests
// ===========================================

func TestNewDefault(t *testing.T) {
	r := NewDefault()

	got := r.List()
	want := []string{"json", "table", "yaml"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", got, want)
	}

	f, err := r.Get("")
	if err != nil {
		t.Fatalf("Get(\"\") error: %v", err)
	}
	if f.Name() != "table" {
		t.Errorf("default formatter = %q, want table", f.Name())
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(NewJSONFormatter()); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Register(NewJSONFormatter()); err == nil {
		t.Error("registering json twice should fail")
	}
}

func TestRegistry_Get_Unknown(t *testing.T) {
	r := NewDefault()

	_, err := r.Get("csv")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "json") {
		t.Errorf("error should list available formats, got %v", err)
	}
}

// ===========================================
// Table Formatter Tests
// ===========================================

func TestTableFormatter_FormatCollection(t *testing.T) {
	c, _ := testCollection(t)
	var buf bytes.Buffer

	if err := NewTableFormatter().FormatCollection(&buf, c.Descriptor()); err != nil {
		t.Fatalf("FormatCollection error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Collection: product",
		"Table:      lc_product",
		"FIELD",
		"length=120",
		"decimal(10,2) min=0",
		"values=draft,published",
		"RELATIONSHIP",
		"belongs_to",
		"category",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	lines := strings.Split(out, "\n")
	var order []string
	for _, line := range lines {
		for _, name := range []string{"title", "price", "status"} {
			if strings.HasPrefix(line, name+" ") {
				order = append(order, name)
			}
		}
	}
	if strings.Join(order, ",") != "title,price,status" {
		t.Errorf("fields printed in order %v, want insertion order", order)
	}
}

func TestTableFormatter_NoHeader(t *testing.T) {
	c, _ := testCollection(t)
	var buf bytes.Buffer

	f := &TableFormatter{NoHeader: true}
	if err := f.FormatCollection(&buf, c.Descriptor()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "CONSTRAINTS") {
		t.Errorf("header printed with NoHeader:\n%s", buf.String())
	}
}

func TestTableFormatter_FormatRules(t *testing.T) {
	c, _ := testCollection(t)
	rules := testRules(t, c)
	var buf bytes.Buffer

	if err := NewTableFormatter().FormatRules(&buf, "product", rules, c.FieldNames()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "required | string | max_length:120") {
		t.Errorf("title chain missing:\n%s", out)
	}
	if strings.Index(out, "title") > strings.Index(out, "price") {
		t.Errorf("rules should follow field order:\n%s", out)
	}
}

func TestTableFormatter_FormatRules_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTableFormatter().FormatRules(&buf, "note", nil, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No rules for note.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableFormatter_Truncate(t *testing.T) {
	f := &TableFormatter{MaxWidth: 8}

	tests := map[string]string{
		"short":           "short",
		"exactly8":        "exactly8",
		"much longer one": "much ...",
		"":                "-",
	}
	for in, want := range tests {
		if got := f.truncate(in); got != want {
			t.Errorf("truncate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTableFormatter_FormatValue(t *testing.T) {
	f := NewTableFormatter()

	tests := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"", "-"},
		{"draft", "draft"},
		{true, "yes"},
		{false, "no"},
		{1.5, "1.5"},
		{3, "3"},
		{[]string{"a"}, `["a"]`},
	}
	for _, tt := range tests {
		if got := f.formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ===========================================
// JSON Formatter Tests
// ===========================================

func TestJSONFormatter_FormatCollection(t *testing.T) {
	c, _ := testCollection(t)
	var buf bytes.Buffer

	if err := NewJSONFormatter().FormatCollection(&buf, c.Descriptor()); err != nil {
		t.Fatal(err)
	}

	var got schema.Descriptor
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Name != "product" || got.Table != "lc_product" || len(got.Fields) != 3 {
		t.Errorf("decoded descriptor = %+v", got)
	}
}

func TestJSONFormatter_Compact(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{Compact: true}

	if err := f.FormatRules(&buf, "x", validation.RuleSet{"a": {"required"}}, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `{"a":["required"]}`+"\n" {
		t.Errorf("compact output = %q", buf.String())
	}

	buf.Reset()
	if err := f.FormatRules(&buf, "x", nil, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{}\n" {
		t.Errorf("nil rules output = %q", buf.String())
	}
}

func TestJSONFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter().FormatError(&buf, errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["error"] != "boom" {
		t.Errorf("error = %q", got["error"])
	}
}

// ===========================================
// YAML Formatter Tests
// ===========================================

func TestYAMLFormatter_CollectionRoundTrip(t *testing.T) {
	c, reg := testCollection(t)
	var buf bytes.Buffer

	if err := NewYAMLFormatter().FormatCollection(&buf, c.Descriptor()); err != nil {
		t.Fatal(err)
	}

	back, err := schema.Parse(buf.Bytes(), reg)
	if err != nil {
		t.Fatalf("output does not parse as a definition: %v\n%s", err, buf.String())
	}
	if back.Table() != c.Table() {
		t.Errorf("table = %q, want %q", back.Table(), c.Table())
	}
	if strings.Join(back.FieldNames(), ",") != strings.Join(c.FieldNames(), ",") {
		t.Errorf("fields = %v, want %v", back.FieldNames(), c.FieldNames())
	}
	if len(back.Relationships()) != 1 {
		t.Errorf("relationships = %v", back.Relationships())
	}
}

func TestYAMLFormatter_FormatRules(t *testing.T) {
	c, _ := testCollection(t)
	rules := testRules(t, c)
	var buf bytes.Buffer

	if err := NewYAMLFormatter().FormatRules(&buf, "product", rules, c.FieldNames()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "title:") {
		t.Errorf("rules should start with the first field:\n%s", out)
	}

	var got map[string][]string
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if strings.Join(got["title"], ",") != strings.Join(rules["title"], ",") {
		t.Errorf("title rules = %v, want %v", got["title"], rules["title"])
	}
}

func TestOrderedFields(t *testing.T) {
	rules := validation.RuleSet{"b": {"x"}, "a": {"x"}, "c": {"x"}}

	got := orderedFields(rules, []string{"c", "missing", "c"})
	if strings.Join(got, ",") != "c,a,b" {
		t.Errorf("orderedFields = %v, want [c a b]", got)
	}
}
