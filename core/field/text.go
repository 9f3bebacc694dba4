package field

import (
	"net/mail"
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/artpar/lowcode/core/errs"
)

// StringField accepts Go strings, bounded by Length and Pattern.
// It backs both the string and text tags.
type StringField struct {
	Base
	pattern *regexp.Regexp
}

// NewString creates a string field.
func NewString(name string, opts Options) (Field, error) {
	return newStringField(name, TypeString, opts)
}

// NewText creates a text field: a string stored without a length-bounded column.
func NewText(name string, opts Options) (Field, error) {
	return newStringField(name, TypeText, opts)
}

func newStringField(name string, typ Type, opts Options) (*StringField, error) {
	if opts.Length < 0 {
		return nil, errs.Malformed(name, "length must not be negative")
	}
	re, err := compilePattern(name, opts.Pattern)
	if err != nil {
		return nil, err
	}
	f := &StringField{Base: NewBase(name, typ, opts), pattern: re}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate requires a string; nil only when the field is nullable.
func (f *StringField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return f.accepts(s)
}

func (f *StringField) accepts(s string) bool {
	if f.opts.Length > 0 && utf8.RuneCountInString(s) > f.opts.Length {
		return false
	}
	if f.pattern != nil && !f.pattern.MatchString(s) {
		return false
	}
	return true
}

// EmailField accepts a single bare address.
type EmailField struct {
	StringField
}

// NewEmail creates an email field.
func NewEmail(name string, opts Options) (Field, error) {
	if opts.Length < 0 {
		return nil, errs.Malformed(name, "length must not be negative")
	}
	re, err := compilePattern(name, opts.Pattern)
	if err != nil {
		return nil, err
	}
	f := &EmailField{StringField{Base: NewBase(name, TypeEmail, opts), pattern: re}}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate accepts strings that net/mail parses back to the same address.
func (f *EmailField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	s, ok := value.(string)
	if !ok || !f.accepts(s) {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// EnumField accepts one of a fixed list of strings.
type EnumField struct {
	Base
}

// NewEnum creates an enum field. Values must not be empty.
func NewEnum(name string, opts Options) (Field, error) {
	if len(opts.Values) == 0 {
		return nil, errs.Malformed(name, "enum type requires values")
	}
	f := &EnumField{Base: NewBase(name, TypeEnum, opts)}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate reports whether value is one of the allowed strings.
func (f *EnumField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return slices.Contains(f.opts.Values, s)
}
