package formatter

import (
	"encoding/json"
	"io"

	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/validation"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	// Compact disables indentation.
	Compact bool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatCollection formats a collection definition as JSON.
func (f *JSONFormatter) FormatCollection(w io.Writer, d schema.Descriptor) error {
	return f.encode(w, d)
}

// FormatRules formats a rule set as a JSON object keyed by field name.
func (f *JSONFormatter) FormatRules(w io.Writer, collection string, rules validation.RuleSet, order []string) error {
	if rules == nil {
		rules = validation.RuleSet{}
	}
	return f.encode(w, rules)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output)
}

func (f *JSONFormatter) encode(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if !f.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}
