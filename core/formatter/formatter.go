// Package formatter renders collection definitions and validation rules
// for the command line in table, json or yaml form.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/artpar/lowcode/core/schema"
	"github.com/artpar/lowcode/core/validation"
)

// Formatter converts collection metadata to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatCollection formats a collection definition.
	FormatCollection(w io.Writer, d schema.Descriptor) error

	// FormatRules formats the rule chains of a collection. Order lists the
	// field names in display order; fields missing from it follow sorted.
	FormatRules(w io.Writer, collection string, rules validation.RuleSet, order []string) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
}

// NewDefault creates a registry holding the table, json and yaml formatters.
func NewDefault() *Registry {
	r := NewRegistry()
	for _, f := range []Formatter{NewTableFormatter(), NewJSONFormatter(), NewYAMLFormatter()} {
		// Names are distinct, Register cannot fail here.
		_ = r.Register(f)
	}
	return r
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name. An empty name selects the default.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultFmt
	}
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.names())
	}
	return f, nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// orderedFields returns the rule fields following order, then any
// remaining fields sorted.
func orderedFields(rules validation.RuleSet, order []string) []string {
	seen := make(map[string]bool, len(rules))
	out := make([]string, 0, len(rules))
	for _, name := range order {
		if _, ok := rules[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range rules.Fields() {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}
