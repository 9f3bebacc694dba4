package validation

import (
	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/schema"
)

// SchemaOf describes a collection in the properties/required shape read by
// GenerateRules. A field is required when it is neither nullable nor
// defaulted.
func SchemaOf(c *schema.Collection) map[string]any {
	props := make(map[string]any)
	var required []any

	for _, f := range c.Fields() {
		opts := f.Options()
		prop := make(map[string]any)

		switch f.Type() {
		case field.TypeString, field.TypeText:
			prop["type"] = "string"
		case field.TypeEmail:
			prop["type"] = "string"
			prop["format"] = "email"
		case field.TypeInteger:
			prop["type"] = "integer"
		case field.TypeDecimal:
			prop["type"] = "number"
		case field.TypeBoolean:
			prop["type"] = "boolean"
		case field.TypeDate:
			prop["type"] = "string"
			prop["format"] = "date"
		case field.TypeDateTime:
			prop["type"] = "string"
			prop["format"] = "date-time"
		case field.TypeEnum:
			prop["type"] = "string"
			values := make([]any, len(opts.Values))
			for i, v := range opts.Values {
				values[i] = v
			}
			prop["enum"] = values
		case field.TypeJSON:
			// any JSON value
		default:
			prop["type"] = "string"
		}

		if opts.Length > 0 {
			prop["maxLength"] = opts.Length
		}
		if opts.Pattern != "" {
			prop["pattern"] = opts.Pattern
		}
		if opts.Minimum != nil {
			prop["minimum"] = *opts.Minimum
		}
		if opts.Maximum != nil {
			prop["maximum"] = *opts.Maximum
		}

		props[f.Name()] = prop
		if !opts.Nullable && opts.Default == nil {
			required = append(required, f.Name())
		}
	}

	out := map[string]any{"properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// RulesFor derives the rule set of a collection.
func RulesFor(c *schema.Collection) (RuleSet, error) {
	return GenerateRules(SchemaOf(c))
}
