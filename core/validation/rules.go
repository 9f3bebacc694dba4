// Package validation derives input rules from a schema description and
// evaluates them against request data.
//
// Rules are plain strings composed left to right per field:
//
//	required → type → min_length / max_length / regex → min / max → in
//
// The order is fixed because the engine stops at the first failing rule.
package validation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/lowcode/core/errs"
)

// Rule names.
const (
	RuleRequired  = "required"
	RuleString    = "string"
	RuleInteger   = "integer"
	RuleNumeric   = "numeric"
	RuleBoolean   = "boolean"
	RuleArray     = "array"
	RuleObject    = "object"
	RuleDate      = "date"
	RuleDateTime  = "date_time"
	RuleEmail     = "email"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleRegex     = "regex"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleIn        = "in"
)

// RuleSet maps a field name to its ordered rule chain.
type RuleSet map[string][]string

// Fields returns the field names in sorted order.
func (rs RuleSet) Fields() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var baseTypes = map[string]string{
	"string":  RuleString,
	"integer": RuleInteger,
	"number":  RuleNumeric,
	"boolean": RuleBoolean,
	"array":   RuleArray,
	"object":  RuleObject,
}

var formats = map[string]string{
	"date":      RuleDate,
	"date-time": RuleDateTime,
	"email":     RuleEmail,
}

// GenerateRules derives a RuleSet from a schema of the form
//
//	{"properties": {name: {type, format, minLength, maxLength, pattern,
//	                       minimum, maximum, enum}},
//	 "required": [name, ...]}
//
// Absent keys produce no rules. Fields without any rule are omitted.
// A properties value that is not a mapping, a property that is not a mapping,
// a required value that is not a list of names or a non-numeric bound fails
// with errs.KindMalformedSchema.
func GenerateRules(schema map[string]any) (RuleSet, error) {
	rules := make(RuleSet)

	required, err := requiredSet(schema["required"])
	if err != nil {
		return nil, err
	}

	props, err := asMap("properties", schema["properties"])
	if err != nil {
		return nil, err
	}

	for name, raw := range props {
		prop, err := asMap("properties."+name, raw)
		if err != nil {
			return nil, err
		}

		chain, err := propertyRules(name, prop)
		if err != nil {
			return nil, err
		}
		if required[name] {
			chain = append([]string{RuleRequired}, chain...)
		}
		if len(chain) > 0 {
			rules[name] = chain
		}
	}

	// Required names without a property still get their required rule.
	for name := range required {
		if _, ok := props[name]; !ok {
			rules[name] = []string{RuleRequired}
		}
	}

	return rules, nil
}

func propertyRules(name string, prop map[string]any) ([]string, error) {
	var chain []string

	if t, ok := prop["type"]; ok {
		rule, err := typeRule(name, t)
		if err != nil {
			return nil, err
		}
		if rule != "" {
			chain = append(chain, rule)
		}
	}

	if f, ok := prop["format"].(string); ok {
		if rule, ok := formats[f]; ok {
			chain = append(chain, rule)
		}
	}

	for _, b := range []struct{ key, rule string }{
		{"minLength", RuleMinLength},
		{"maxLength", RuleMaxLength},
	} {
		if v, ok := prop[b.key]; ok {
			n, err := number(name+"."+b.key, v)
			if err != nil {
				return nil, err
			}
			chain = append(chain, b.rule+":"+formatNumber(n))
		}
	}

	if v, ok := prop["pattern"]; ok {
		p, ok := v.(string)
		if !ok {
			return nil, errs.Malformed(name+".pattern", "pattern must be a string, got %T", v)
		}
		chain = append(chain, RuleRegex+":"+p)
	}

	for _, b := range []struct{ key, rule string }{
		{"minimum", RuleMin},
		{"maximum", RuleMax},
	} {
		if v, ok := prop[b.key]; ok {
			n, err := number(name+"."+b.key, v)
			if err != nil {
				return nil, err
			}
			chain = append(chain, b.rule+":"+formatNumber(n))
		}
	}

	if v, ok := prop["enum"]; ok {
		values, err := stringList(name+".enum", v)
		if err != nil {
			return nil, err
		}
		chain = append(chain, InRule(values))
	}

	return chain, nil
}

// typeRule maps a JSON schema type to its rule. A type list uses its first
// non-null entry. Unrecognised type names produce no rule.
func typeRule(name string, t any) (string, error) {
	switch v := t.(type) {
	case string:
		return baseTypes[v], nil
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return "", errs.Malformed(name+".type", "type list entries must be strings, got %T", item)
			}
			if s != "null" {
				return baseTypes[s], nil
			}
		}
		return "", nil
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return typeRule(name, items)
	default:
		return "", errs.Malformed(name+".type", "type must be a string or a list, got %T", t)
	}
}

func requiredSet(v any) (map[string]bool, error) {
	set := make(map[string]bool)
	if v == nil {
		return set, nil
	}
	names, err := stringList("required", v)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func asMap(subject string, v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return m, nil
	}

	// Typed mappings such as map[string]map[string]any.
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, errs.Malformed(subject, "expected a mapping, got %T", v)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

func stringList(subject string, v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			switch s := item.(type) {
			case string:
				out[i] = s
			case nil:
				return nil, errs.Malformed(subject, "list entry %d is null", i)
			default:
				out[i] = fmt.Sprint(s)
			}
		}
		return out, nil
	default:
		return nil, errs.Malformed(subject, "expected a list, got %T", v)
	}
}

func number(subject string, v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errs.Wrap(errs.KindMalformedSchema, subject, "bound must be numeric", err)
		}
		return f, nil
	default:
		return 0, errs.Malformed(subject, "bound must be numeric, got %T", v)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// InRule renders an in rule. Values are written as one CSV record, so plain
// values read "in:a,b,c" and a value holding a comma or quote is quoted:
// in:"red, dark",blue.
func InRule(values []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	// Writing to a strings.Builder cannot fail.
	_ = w.Write(values)
	w.Flush()
	return RuleIn + ":" + strings.TrimSuffix(b.String(), "\n")
}

// inValues parses the parameter of an in rule written by InRule.
func inValues(param string) ([]string, error) {
	if param == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(param))
	r.FieldsPerRecord = -1
	values, err := r.Read()
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformedSchema, RuleIn, "invalid value list", err)
	}
	return values, nil
}

// splitRule separates a rule into its name and parameter.
func splitRule(rule string) (string, string) {
	name, param, _ := strings.Cut(rule, ":")
	return name, param
}
