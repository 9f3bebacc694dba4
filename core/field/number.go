package field

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/artpar/lowcode/core/errs"
)

// IntegerField accepts Go integers and digit-only strings.
// Floats are rejected even when they hold an integral value.
type IntegerField struct {
	Base
}

// NewInteger creates an integer field.
func NewInteger(name string, opts Options) (Field, error) {
	if err := checkBounds(name, opts); err != nil {
		return nil, err
	}
	f := &IntegerField{Base: NewBase(name, TypeInteger, opts)}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate reports whether value is an integer within the configured bounds.
func (f *IntegerField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	n, ok := integerValue(value)
	if !ok {
		return false
	}
	return f.inBounds(float64(n))
}

// integerValue converts integer kinds, integral json.Number and digit-only
// strings. Everything else, including every float, is rejected.
func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case string:
		if !isDigits(v) {
			return 0, false
		}
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return intKind(value)
	}
}

// intKind converts Go integer kinds only.
func intKind(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt(v)
	default:
		return 0, false
	}
}

func uintToInt(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var decimalPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// DecimalField accepts numbers and numeric strings bounded by Precision and Scale.
type DecimalField struct {
	Base
}

// NewDecimal creates a decimal field.
func NewDecimal(name string, opts Options) (Field, error) {
	if opts.Precision < 0 || opts.Scale < 0 {
		return nil, errs.Malformed(name, "precision and scale must not be negative")
	}
	if opts.Precision > 0 && opts.Scale > opts.Precision {
		return nil, errs.Malformed(name, "scale %d exceeds precision %d", opts.Scale, opts.Precision)
	}
	if err := checkBounds(name, opts); err != nil {
		return nil, err
	}
	f := &DecimalField{Base: NewBase(name, TypeDecimal, opts)}
	if err := checkDefault(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate reports whether value is a number that fits the declared digits and bounds.
func (f *DecimalField) Validate(value any) bool {
	if value == nil {
		return f.opts.Nullable
	}
	text, ok := decimalText(value)
	if !ok {
		return false
	}
	if !f.fits(text) {
		return false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return false
	}
	return f.inBounds(n)
}

func (f *DecimalField) fits(text string) bool {
	if f.opts.Precision == 0 {
		return true
	}
	text = strings.TrimLeft(text, "+-")
	intPart, frac, _ := strings.Cut(text, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if len(frac) > f.opts.Scale {
		return false
	}
	return len(intPart) <= f.opts.Precision-f.opts.Scale
}

// decimalText renders an accepted numeric value in plain positional notation.
func decimalText(value any) (string, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return decimalText(float64(v))
	case json.Number:
		return decimalText(string(v))
	case string:
		if !decimalPattern.MatchString(v) {
			return "", false
		}
		return v, true
	default:
		n, ok := intKind(value)
		if !ok {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	}
}
