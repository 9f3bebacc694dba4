package schema

import (
	"fmt"

	"github.com/artpar/lowcode/core/convention"
	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/registry"
)

// Collection aggregates named fields and relationships for one entity.
// Field order is insertion order and is preserved in every derived artifact.
type Collection struct {
	name   string
	table  string
	prefix string

	registry *registry.Registry

	// fields by name, order holds insertion order
	fields map[string]field.Field
	order  []string

	relationships []Relationship
}

// Option configures a collection.
type Option func(*Collection)

// WithTable overrides the derived table name.
func WithTable(table string) Option {
	return func(c *Collection) {
		if table != "" {
			c.table = table
		}
	}
}

// WithTablePrefix changes the prefix used to derive the table name
// (and join tables). It has no effect on an explicit WithTable.
func WithTablePrefix(prefix string) Option {
	return func(c *Collection) {
		c.prefix = prefix
	}
}

// New creates an empty collection whose fields resolve through reg.
func New(name string, reg *registry.Registry, opts ...Option) (*Collection, error) {
	if reg == nil {
		return nil, fmt.Errorf("collection %q: nil field registry", name)
	}
	if !IsValidIdentifier(name) {
		return nil, errs.New(errs.KindInvalidIdentifier, name, "collection name is not a valid identifier")
	}

	c := &Collection{
		name:     name,
		prefix:   convention.DefaultTablePrefix,
		registry: reg,
		fields:   make(map[string]field.Field),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.table == "" {
		c.table = convention.TableName(c.prefix, name)
	}
	if !IsValidIdentifier(c.table) {
		return nil, errs.New(errs.KindInvalidIdentifier, c.table, "table name is not a valid identifier")
	}

	return c, nil
}

// Name returns the logical collection name.
func (c *Collection) Name() string { return c.name }

// Table returns the physical table name.
func (c *Collection) Table() string { return c.table }

// TablePrefix returns the prefix used for derived table names.
func (c *Collection) TablePrefix() string { return c.prefix }

// Registry returns the field registry the collection resolves types through.
func (c *Collection) Registry() *registry.Registry { return c.registry }

// AddField resolves t through the registry and appends the field.
// Names must be unique; unknown types fail with errs.KindUnknownFieldType.
func (c *Collection) AddField(name string, t field.Type, opts field.Options) (field.Field, error) {
	if !IsValidIdentifier(name) {
		return nil, errs.New(errs.KindInvalidIdentifier, name, "field name is not a valid identifier")
	}
	if _, exists := c.fields[name]; exists {
		return nil, errs.Newf(errs.KindDuplicateField, name, "field already defined in collection %q", c.name)
	}

	f, err := c.registry.Create(t, name, opts)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", c.name, err)
	}

	c.fields[name] = f
	c.order = append(c.order, name)
	return f, nil
}

// Field returns a field by name.
func (c *Collection) Field(name string) (field.Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Fields returns the fields in insertion order.
func (c *Collection) Fields() []field.Field {
	out := make([]field.Field, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.fields[name])
	}
	return out
}

// FieldNames returns the field names in insertion order.
func (c *Collection) FieldNames() []string {
	return append([]string(nil), c.order...)
}

// AddRelationship validates the kind against the closed set, fills in
// conventional key names and appends the relationship.
func (c *Collection) AddRelationship(r Relationship) error {
	kind, err := ParseRelationKind(string(r.Kind))
	if err != nil {
		return fmt.Errorf("collection %q: %w", c.name, err)
	}
	r.Kind = kind

	if !IsValidIdentifier(r.Target) {
		return errs.New(errs.KindInvalidIdentifier, r.Target, "relationship target is not a valid identifier")
	}
	if r.Name == "" {
		r.Name = r.Target
	}
	for _, existing := range c.relationships {
		if existing.Name == r.Name {
			return errs.Newf(errs.KindInvalidRelationship, r.Name, "relationship already defined in collection %q", c.name)
		}
	}

	switch r.Kind {
	case BelongsTo:
		if r.ForeignKey == "" {
			r.ForeignKey = convention.ForeignKey(r.Target)
		}
	case HasOne, HasMany:
		if r.ForeignKey == "" {
			r.ForeignKey = convention.ForeignKey(c.name)
		}
	case ManyToMany:
		if r.ForeignKey == "" {
			r.ForeignKey = convention.ForeignKey(c.name)
		}
		if r.JoinTable == "" {
			r.JoinTable = convention.JoinTable(c.prefix, c.name, r.Target)
		}
		if r.OtherKey == "" {
			r.OtherKey = convention.ForeignKey(r.Target)
		}
	}

	for _, ident := range []string{r.ForeignKey, r.OtherKey, r.JoinTable} {
		if ident != "" && !IsValidIdentifier(ident) {
			return errs.New(errs.KindInvalidIdentifier, ident, "relationship key is not a valid identifier")
		}
	}

	c.relationships = append(c.relationships, r)
	return nil
}

// Relationships returns the relationships in insertion order.
func (c *Collection) Relationships() []Relationship {
	return append([]Relationship(nil), c.relationships...)
}

// Descriptor is the serialized form of a collection. It is the exchange
// format consumed by the storage builder, the rule generator and the
// controller generator.
type Descriptor struct {
	Name          string             `yaml:"collection" json:"name"`
	Table         string             `yaml:"table,omitempty" json:"table"`
	Fields        []field.Descriptor `yaml:"fields" json:"fields"`
	Relationships []Relationship     `yaml:"relationships,omitempty" json:"relationships,omitempty"`
}

// Descriptor serializes the collection, each field through its own Descriptor.
func (c *Collection) Descriptor() Descriptor {
	d := Descriptor{
		Name:          c.name,
		Table:         c.table,
		Fields:        make([]field.Descriptor, 0, len(c.order)),
		Relationships: c.Relationships(),
	}
	for _, f := range c.Fields() {
		d.Fields = append(d.Fields, f.Descriptor())
	}
	return d
}

// FromDescriptor rebuilds a collection. An empty Table derives the default.
func FromDescriptor(d Descriptor, reg *registry.Registry, opts ...Option) (*Collection, error) {
	opts = append(opts, WithTable(d.Table))

	c, err := New(d.Name, reg, opts...)
	if err != nil {
		return nil, err
	}

	for _, fd := range d.Fields {
		if _, err := c.AddField(fd.Name, fd.Type, fd.Options); err != nil {
			return nil, err
		}
	}

	for _, r := range d.Relationships {
		if err := c.AddRelationship(r); err != nil {
			return nil, err
		}
	}

	return c, nil
}
