package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/registry"
)

// Observer is told about every failed rule.
type Observer interface {
	ObserveValidationFailure(rule string)
}

// typeRules maps type rules to the field variants that decide them, so
// request validation agrees with the field definitions.
var typeRules = map[string]field.Type{
	RuleString:   field.TypeString,
	RuleInteger:  field.TypeInteger,
	RuleNumeric:  field.TypeDecimal,
	RuleBoolean:  field.TypeBoolean,
	RuleDate:     field.TypeDate,
	RuleDateTime: field.TypeDateTime,
	RuleEmail:    field.TypeEmail,
}

// Validator evaluates rule sets against input data.
// Each chain runs left to right and stops at its first failing rule.
type Validator struct {
	types    map[string]field.Field
	observer Observer

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New creates a validator whose type rules resolve through reg.
// The registry must provide every built-in type rule.
func New(reg *registry.Registry, observer Observer) (*Validator, error) {
	v := &Validator{
		types:    make(map[string]field.Field, len(typeRules)),
		observer: observer,
		patterns: make(map[string]*regexp.Regexp),
	}

	for rule, t := range typeRules {
		f, err := reg.Create(t, rule, field.Options{})
		if err != nil {
			return nil, fmt.Errorf("type rule %s: %w", rule, err)
		}
		v.types[rule] = f
	}
	return v, nil
}

// Validate checks data against rules. A field absent from data (or nil) is
// only checked for required. Failures are returned as one
// errs.KindValidation error listing every failing field in name order.
func (v *Validator) Validate(data map[string]any, rules RuleSet) error {
	var failures []errs.FieldError

	for _, name := range rules.Fields() {
		chain := rules[name]

		value, present := data[name]
		if !present || value == nil {
			if slices.Contains(chain, RuleRequired) {
				failures = append(failures, v.fail(name, RuleRequired, nil))
			}
			continue
		}

		for _, rule := range chain {
			ruleName, param := splitRule(rule)

			ok, err := v.check(ruleName, param, value)
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			if !ok {
				failures = append(failures, v.fail(name, rule, value))
				break
			}
		}
	}

	if len(failures) > 0 {
		return errs.Validation(failures)
	}
	return nil
}

func (v *Validator) fail(name, rule string, value any) errs.FieldError {
	if v.observer != nil {
		ruleName, _ := splitRule(rule)
		v.observer.ObserveValidationFailure(ruleName)
	}
	return errs.FieldError{Field: name, Rule: rule, Value: value}
}

// check evaluates one rule against a present, non-nil value.
func (v *Validator) check(rule, param string, value any) (bool, error) {
	if f, ok := v.types[rule]; ok {
		return f.Validate(value), nil
	}

	switch rule {
	case RuleRequired:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s) != "", nil
		}
		return true, nil

	case RuleArray:
		k := reflect.ValueOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array, nil

	case RuleObject:
		return reflect.ValueOf(value).Kind() == reflect.Map, nil

	case RuleMinLength, RuleMaxLength:
		limit, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return false, errs.Malformed(rule, "invalid length %q", param)
		}
		n, ok := length(value)
		if !ok {
			return false, nil
		}
		if rule == RuleMinLength {
			return float64(n) >= limit, nil
		}
		return float64(n) <= limit, nil

	case RuleRegex:
		re, err := v.pattern(param)
		if err != nil {
			return false, err
		}
		s, ok := value.(string)
		return ok && re.MatchString(s), nil

	case RuleMin, RuleMax:
		limit, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return false, errs.Malformed(rule, "invalid bound %q", param)
		}
		n, ok := numeric(value)
		if !ok {
			return false, nil
		}
		if rule == RuleMin {
			return n >= limit, nil
		}
		return n <= limit, nil

	case RuleIn:
		values, err := inValues(param)
		if err != nil {
			return false, err
		}
		return slices.Contains(values, fmt.Sprint(value)), nil

	default:
		return false, errs.Malformed(rule, "unknown rule")
	}
}

func (v *Validator) pattern(p string) (*regexp.Regexp, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if re, ok := v.patterns[p]; ok {
		return re, nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedSchema, p, "invalid regex rule", err)
	}
	v.patterns[p] = re
	return re, nil
}

// length is the rune count of a string or the size of a list or map.
func length(value any) (int, bool) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func numeric(value any) (float64, bool) {
	switch n := value.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
