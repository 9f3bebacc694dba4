// Package field defines the typed field variants of a collection schema.
//
// A Field is the type-specific validation and serialization behavior bound to
// one schema entry. The built-in variants form a closed set (string, text,
// integer, boolean, date, datetime, decimal, email, enum, json); additional
// variants are added by embedding Base and registering a constructor with the
// registry package.
package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/artpar/lowcode/core/errs"
)

// Type is the tag that selects a field variant.
type Type string

const (
	TypeString   Type = "string"
	TypeText     Type = "text"
	TypeInteger  Type = "integer"
	TypeBoolean  Type = "boolean"
	TypeDate     Type = "date"
	TypeDateTime Type = "datetime"
	TypeDecimal  Type = "decimal"
	TypeEmail    Type = "email"
	TypeEnum     Type = "enum"
	TypeJSON     Type = "json"
)

// CurrentTimestamp is the default token understood by datetime fields and the
// storage dialects.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// Field is one typed, validating schema entry.
type Field interface {
	// Name returns the field name, unique within its collection.
	Name() string

	// Type returns the tag the field was created from.
	Type() Type

	// Options returns a copy of the options the field was created with.
	Options() Options

	// Descriptor returns the serialized form of the field.
	// Creating a field from the descriptor yields an equivalent field.
	Descriptor() Descriptor

	// Validate reports whether value is acceptable for this field.
	Validate(value any) bool
}

// Options are the type-specific constraints of a field.
type Options struct {
	// Nullable allows nil values.
	Nullable bool `yaml:"nullable,omitempty" json:"nullable"`

	// Default value used when none is supplied.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Length is the maximum character length for string-like fields.
	Length int `yaml:"length,omitempty" json:"length,omitempty"`

	// Precision and Scale bound the total and fractional digits of decimals.
	Precision int `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale     int `yaml:"scale,omitempty" json:"scale,omitempty"`

	// Pattern is a regular expression string values must match.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Values lists the allowed values of an enum field.
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`

	// Minimum and Maximum are inclusive numeric bounds.
	Minimum *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`

	// Unique and Index are storage hints.
	Unique bool `yaml:"unique,omitempty" json:"unique,omitempty"`
	Index  bool `yaml:"index,omitempty" json:"index,omitempty"`

	Comment string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// clone returns a deep copy so fields never share slices or bound pointers.
func (o Options) clone() Options {
	c := o
	if o.Values != nil {
		c.Values = append([]string(nil), o.Values...)
	}
	if o.Minimum != nil {
		v := *o.Minimum
		c.Minimum = &v
	}
	if o.Maximum != nil {
		v := *o.Maximum
		c.Maximum = &v
	}
	return c
}

// Descriptor is the serialized form of a field: name, type and options.
type Descriptor struct {
	Name    string `yaml:"name" json:"name"`
	Type    Type   `yaml:"type" json:"type"`
	Options `yaml:",inline"`
}

// UnmarshalJSON decodes numbers as json.Number, so integer and boolean
// defaults survive a JSON round trip instead of turning into float64.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	type plain Descriptor
	var p plain

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*d = Descriptor(p)
	return nil
}

// Float returns a pointer to v, for use in Options bounds.
func Float(v float64) *float64 {
	return &v
}

// Base carries the name, tag and options shared by every variant.
// Extension variants embed it and implement Validate.
type Base struct {
	name string
	typ  Type
	opts Options
}

// NewBase creates the shared part of a field.
func NewBase(name string, typ Type, opts Options) Base {
	return Base{name: name, typ: typ, opts: opts.clone()}
}

func (b Base) Name() string { return b.name }

func (b Base) Type() Type { return b.typ }

func (b Base) Options() Options { return b.opts.clone() }

func (b Base) Nullable() bool { return b.opts.Nullable }

func (b Base) Default() any { return b.opts.Default }

// Descriptor returns the serialized form of the field.
func (b Base) Descriptor() Descriptor {
	return Descriptor{Name: b.name, Type: b.typ, Options: b.opts.clone()}
}

// inBounds applies the inclusive Minimum/Maximum options.
func (b Base) inBounds(v float64) bool {
	if b.opts.Minimum != nil && v < *b.opts.Minimum {
		return false
	}
	if b.opts.Maximum != nil && v > *b.opts.Maximum {
		return false
	}
	return true
}

// checkDefault rejects a default value the field itself would not accept.
func checkDefault(f Field) error {
	def := f.Options().Default
	if def == nil {
		return nil
	}
	if !f.Validate(def) {
		return errs.Malformed(f.Name(), "default %v is not a valid %s value", def, f.Type())
	}
	return nil
}

func checkBounds(name string, opts Options) error {
	if opts.Minimum != nil && opts.Maximum != nil && *opts.Minimum > *opts.Maximum {
		return errs.Malformed(name, "minimum %v is greater than maximum %v", *opts.Minimum, *opts.Maximum)
	}
	return nil
}

func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedSchema, name, fmt.Sprintf("invalid pattern %q", pattern), err)
	}
	return re, nil
}
