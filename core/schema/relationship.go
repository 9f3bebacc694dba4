package schema

import (
	"github.com/artpar/lowcode/core/errs"
)

// RelationKind is one of the four supported relationship kinds.
type RelationKind string

const (
	HasOne     RelationKind = "has_one"      // one-to-one, key on the target
	HasMany    RelationKind = "has_many"     // one-to-many, key on the target
	BelongsTo  RelationKind = "belongs_to"   // belongs-to-one, key on this collection
	ManyToMany RelationKind = "many_to_many" // through a join table
)

// relationAliases maps accepted spellings to the canonical kinds.
var relationAliases = map[string]RelationKind{
	"has_one":        HasOne,
	"one-to-one":     HasOne,
	"one_to_one":     HasOne,
	"has_many":       HasMany,
	"one-to-many":    HasMany,
	"one_to_many":    HasMany,
	"belongs_to":     BelongsTo,
	"belongs-to-one": BelongsTo,
	"belongs_to_one": BelongsTo,
	"many_to_many":   ManyToMany,
	"many-to-many":   ManyToMany,
}

// ParseRelationKind resolves a tag to a RelationKind.
// Anything outside the closed set fails with errs.KindInvalidRelationship.
func ParseRelationKind(tag string) (RelationKind, error) {
	if k, ok := relationAliases[tag]; ok {
		return k, nil
	}
	return "", errs.New(errs.KindInvalidRelationship, tag, "unknown relationship kind")
}

// Relationship links a collection to a target collection.
type Relationship struct {
	// Name identifies the relationship within its collection. Defaults to Target.
	Name string `yaml:"name,omitempty" json:"name"`

	Kind RelationKind `yaml:"kind" json:"kind"`

	// Target is the related collection name.
	Target string `yaml:"target" json:"target"`

	// ForeignKey is the referencing column: on this collection for belongs_to,
	// on the target for has_one/has_many, on the join table for many_to_many.
	ForeignKey string `yaml:"foreign_key,omitempty" json:"foreign_key,omitempty"`

	// OtherKey is the join table column referencing the target (many_to_many).
	OtherKey string `yaml:"other_key,omitempty" json:"other_key,omitempty"`

	// JoinTable is the pivot table (many_to_many).
	JoinTable string `yaml:"join_table,omitempty" json:"join_table,omitempty"`
}
