package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/validation"
)

// YAMLFormatter formats output as YAML. Collections are written in the
// definition file format, so the output can be parsed back.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML output format"
}

// FormatCollection formats a collection definition as YAML.
func (f *YAMLFormatter) FormatCollection(w io.Writer, d schema.Descriptor) error {
	return f.encode(w, d)
}

// FormatRules formats a rule set as a YAML mapping in field order.
func (f *YAMLFormatter) FormatRules(w io.Writer, collection string, rules validation.RuleSet, order []string) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range orderedFields(rules, order) {
		chain := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, rule := range rules[name] {
			chain.Content = append(chain.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rule})
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			chain,
		)
	}
	return f.encode(w, doc)
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output)
}

func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}
