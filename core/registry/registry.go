// Package registry resolves field type tags to field constructors.
// A registry is populated once at startup, sealed, and then shared read-only
// by every collection, rule engine and generator that needs to build fields.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
)

// Constructor builds a field variant from a name and options.
type Constructor func(name string, opts field.Options) (field.Field, error)

// Registry maps type tags to constructors.
type Registry struct {
	mu sync.RWMutex

	// constructors by type tag
	constructors map[field.Type]Constructor

	// sealed rejects further registration
	sealed bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		constructors: make(map[field.Type]Constructor),
	}
}

// NewDefault creates a registry holding the built-in variants.
// It is left unsealed so callers can add extension types before sealing.
func NewDefault() *Registry {
	r := New()
	builtins := map[field.Type]Constructor{
		field.TypeString:   field.NewString,
		field.TypeText:     field.NewText,
		field.TypeInteger:  field.NewInteger,
		field.TypeBoolean:  field.NewBoolean,
		field.TypeDate:     field.NewDate,
		field.TypeDateTime: field.NewDateTime,
		field.TypeDecimal:  field.NewDecimal,
		field.TypeEmail:    field.NewEmail,
		field.TypeEnum:     field.NewEnum,
		field.TypeJSON:     field.NewJSON,
	}
	for t, c := range builtins {
		r.constructors[t] = c
	}
	return r
}

// Register adds a constructor for a type tag.
// A tag can be registered once; registering after Seal is an error.
func (r *Registry) Register(t field.Type, c Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register field type %q: registry is sealed", t)
	}
	if t == "" {
		return fmt.Errorf("register field type: empty type tag")
	}
	if c == nil {
		return fmt.Errorf("register field type %q: nil constructor", t)
	}
	if _, exists := r.constructors[t]; exists {
		return fmt.Errorf("field type %q already registered", t)
	}

	r.constructors[t] = c
	return nil
}

// Seal marks population as complete. Subsequent Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Has reports whether a type tag is registered.
func (r *Registry) Has(t field.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[t]
	return ok
}

// Create resolves a type tag and builds the field.
// Unregistered tags fail with an errs.KindUnknownFieldType error carrying the tag.
func (r *Registry) Create(t field.Type, name string, opts field.Options) (field.Field, error) {
	r.mu.RLock()
	c, ok := r.constructors[t]
	r.mu.RUnlock()

	if !ok {
		return nil, errs.UnknownFieldType(string(t))
	}

	f, err := c(name, opts)
	if err != nil {
		return nil, fmt.Errorf("create %s field %q: %w", t, name, err)
	}
	return f, nil
}

// FromDescriptor rebuilds a field from its serialized form.
func (r *Registry) FromDescriptor(d field.Descriptor) (field.Field, error) {
	return r.Create(d.Type, d.Name, d.Options)
}

// Types returns all registered tags sorted for consistent ordering.
func (r *Registry) Types() []field.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]field.Type, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})

	return types
}
