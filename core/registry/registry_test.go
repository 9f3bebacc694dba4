package registry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
)

func TestNewDefault_Types(t *testing.T) {
	reg := NewDefault()

	want := []field.Type{
		field.TypeBoolean, field.TypeDate, field.TypeDateTime, field.TypeDecimal, field.TypeEmail,
		field.TypeEnum, field.TypeInteger, field.TypeJSON, field.TypeString, field.TypeText,
	}
	got := reg.Types()
	if len(got) != len(want) {
		t.Fatalf("Types() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreate_EveryRegisteredTag(t *testing.T) {
	reg := NewDefault()

	for _, typ := range reg.Types() {
		f, err := reg.Create(typ, "subject", field.Options{Values: []string{"a", "b"}})
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", typ, err)
		}
		if f.Type() != typ {
			t.Errorf("Create(%q).Type() = %q", typ, f.Type())
		}
		if f.Name() != "subject" {
			t.Errorf("Create(%q).Name() = %q, want subject", typ, f.Name())
		}
	}
}

func TestCreate_UnknownType(t *testing.T) {
	reg := NewDefault()

	for _, tag := range []field.Type{"money", "", "STRING", "varchar"} {
		_, err := reg.Create(tag, "price", field.Options{})
		if !errs.IsUnknownFieldType(err) {
			t.Fatalf("Create(%q) error = %v, want unknown field type", tag, err)
		}
		var e *errs.Error
		if !errors.As(err, &e) || e.Subject != string(tag) {
			t.Errorf("Create(%q) error subject = %v, want the tag", tag, err)
		}
	}
}

func TestCreate_ConstructorErrorIsWrapped(t *testing.T) {
	reg := NewDefault()

	_, err := reg.Create(field.TypeEnum, "status", field.Options{})
	if err == nil {
		t.Fatal("expected error for enum without values")
	}
	if !errs.IsMalformedSchema(err) {
		t.Errorf("error kind = %v, want malformed schema", errs.KindOf(err))
	}
}

func TestRegister_ExtensionType(t *testing.T) {
	reg := NewDefault()

	err := reg.Register("slug", func(name string, opts field.Options) (field.Field, error) {
		opts.Pattern = `^[a-z0-9-]+$`
		return field.NewString(name, opts)
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !reg.Has("slug") {
		t.Fatal("Has(slug) = false after Register")
	}

	f, err := reg.Create("slug", "handle", field.Options{})
	if err != nil {
		t.Fatalf("Create(slug) failed: %v", err)
	}
	if !f.Validate("my-post-1") {
		t.Error("slug should accept my-post-1")
	}
	if f.Validate("My Post") {
		t.Error("slug should reject My Post")
	}
}

func TestRegister_Guards(t *testing.T) {
	reg := NewDefault()
	noop := func(name string, opts field.Options) (field.Field, error) { return field.NewText(name, opts) }

	if err := reg.Register(field.TypeString, noop); err == nil {
		t.Error("re-registering a built-in should fail")
	}
	if err := reg.Register("", noop); err == nil {
		t.Error("registering an empty tag should fail")
	}
	if err := reg.Register("markdown", nil); err == nil {
		t.Error("registering a nil constructor should fail")
	}

	reg.Seal()
	if !reg.Sealed() {
		t.Fatal("Sealed() = false after Seal")
	}
	if err := reg.Register("markdown", noop); err == nil {
		t.Error("registering after Seal should fail")
	}

	// reads still work once sealed
	if _, err := reg.Create(field.TypeString, "title", field.Options{}); err != nil {
		t.Errorf("Create after Seal failed: %v", err)
	}
}

func TestFromDescriptor_RoundTrip(t *testing.T) {
	reg := NewDefault()

	tests := []struct {
		typ  field.Type
		opts field.Options
	}{
		{field.TypeString, field.Options{Nullable: true, Default: "draft", Length: 20}},
		{field.TypeInteger, field.Options{Default: 3, Minimum: field.Float(0), Maximum: field.Float(10)}},
		{field.TypeBoolean, field.Options{Default: true}},
		{field.TypeDate, field.Options{Nullable: true}},
		{field.TypeDecimal, field.Options{Precision: 10, Scale: 2, Default: "0.00"}},
		{field.TypeEnum, field.Options{Values: []string{"new", "paid"}, Default: "new"}},
	}

	for _, tt := range tests {
		f, err := reg.Create(tt.typ, "x", tt.opts)
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", tt.typ, err)
		}

		d := f.Descriptor()
		if d.Name != "x" || d.Type != tt.typ {
			t.Errorf("descriptor = %+v, want name x type %q", d, tt.typ)
		}
		if d.Nullable != tt.opts.Nullable {
			t.Errorf("%s: nullable = %v, want %v", tt.typ, d.Nullable, tt.opts.Nullable)
		}
		if d.Default != tt.opts.Default {
			t.Errorf("%s: default = %v, want %v", tt.typ, d.Default, tt.opts.Default)
		}

		again, err := reg.FromDescriptor(d)
		if err != nil {
			t.Fatalf("FromDescriptor(%+v) failed: %v", d, err)
		}
		if again.Type() != f.Type() || again.Name() != f.Name() {
			t.Errorf("rebuilt field = %s/%s, want %s/%s", again.Type(), again.Name(), f.Type(), f.Name())
		}
		if again.Descriptor().Nullable != d.Nullable || again.Descriptor().Default != d.Default {
			t.Errorf("%s: rebuilt descriptor differs: %+v vs %+v", tt.typ, again.Descriptor(), d)
		}
	}
}

func TestFromDescriptor_JSONRoundTrip(t *testing.T) {
	reg := NewDefault()

	tests := []struct {
		typ  field.Type
		opts field.Options
	}{
		{field.TypeInteger, field.Options{Default: 5, Minimum: field.Float(0)}},
		{field.TypeBoolean, field.Options{Default: 1}},
		{field.TypeBoolean, field.Options{Default: true}},
		{field.TypeDecimal, field.Options{Precision: 6, Scale: 2, Default: 9.5}},
		{field.TypeString, field.Options{Default: "draft", Length: 20}},
		{field.TypeJSON, field.Options{Nullable: true, Default: map[string]any{"n": 2}}},
	}

	for _, tt := range tests {
		f, err := reg.Create(tt.typ, "x", tt.opts)
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", tt.typ, err)
		}

		data, err := json.Marshal(f.Descriptor())
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", tt.typ, err)
		}

		var d field.Descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			t.Fatalf("%s: unmarshal failed: %v", tt.typ, err)
		}
		again, err := reg.FromDescriptor(d)
		if err != nil {
			t.Fatalf("%s: FromDescriptor(%s) failed: %v", tt.typ, data, err)
		}

		back, err := json.Marshal(again.Descriptor())
		if err != nil {
			t.Fatal(err)
		}
		if string(back) != string(data) {
			t.Errorf("%s: JSON round trip = %s, want %s", tt.typ, back, data)
		}
	}
}
