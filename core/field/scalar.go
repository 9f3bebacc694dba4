package field

import (
	"encoding/json"
	"time"
)

// BooleanField accepts exactly true, false, 1, 0, "1" and "0".
// Strings such as "true" or "yes" and every other number are rejected.
type BooleanField struct {
	Base
}

// NewBoolean creates a boolean field.
func NewBoolean(name string, opts Options) (Field, error) {
	f := &BooleanField{Base: NewBase(name, TypeBoolean, opts)}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *BooleanField) Validate(value any) bool {
	switch v := value.(type) {
	case nil:
		return f.opts.Nullable
	case bool:
		return true
	case string:
		return v == "1" || v == "0"
	case json.Number:
		return v == "1" || v == "0"
	default:
		n, ok := intKind(value)
		return ok && (n == 0 || n == 1)
	}
}

// DateLayout is the canonical calendar date form.
const DateLayout = "2006-01-02"

// DateTimeLayout is accepted by datetime fields besides RFC 3339.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateField accepts YYYY-MM-DD strings naming a real calendar day.
type DateField struct {
	Base
}

// NewDate creates a date field.
func NewDate(name string, opts Options) (Field, error) {
	f := &DateField{Base: NewBase(name, TypeDate, opts)}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *DateField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	s, ok := value.(string)
	if !ok || len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DateTimeField accepts RFC 3339 or "YYYY-MM-DD HH:MM:SS" strings.
type DateTimeField struct {
	Base
}

// NewDateTime creates a datetime field. CurrentTimestamp is allowed as default.
func NewDateTime(name string, opts Options) (Field, error) {
	f := &DateTimeField{Base: NewBase(name, TypeDateTime, opts)}
	if opts.Default == CurrentTimestamp {
		return f, nil
	}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *DateTimeField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	_, err := time.Parse(DateTimeLayout, s)
	return err == nil
}

// JSONField accepts JSON text or any value that encodes to JSON.
type JSONField struct {
	Base
}

// NewJSON creates a json field.
func NewJSON(name string, opts Options) (Field, error) {
	f := &JSONField{Base: NewBase(name, TypeJSON, opts)}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *JSONField) Validate(value any) bool {
	switch v := value.(type) {
	case nil:
		return f.opts.Nullable
	case string:
		return json.Valid([]byte(v))
	case []byte:
		return json.Valid(v)
	default:
		_, err := json.Marshal(v)
		return err == nil
	}
}
