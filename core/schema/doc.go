/*
Package schema defines collections: the metadata aggregate describing one
logical entity's fields, relationships and table mapping.

A collection is rebuilt from configuration on every use; it is never stored.
Its Descriptor is the exchange format read by the storage builder, the rule
generator and the controller generator.

# Collection Definition

A minimal collection definition in YAML:

	collection: product

	fields:
	  title:    { type: string, length: 120 }
	  price:    { type: decimal, precision: 10, scale: 2, minimum: 0 }
	  status:   { type: enum, values: [draft, published], default: draft }
	  released: { type: date, nullable: true }

	relationships:
	  - { kind: belongs_to, target: category }
	  - { kind: many_to_many, target: tag }

Fields may also be given as a list of descriptors with a name key. Either way
the document order is the field order.

# Table Names

The table defaults to the configured prefix plus the snake_case collection
name ("product" -> "lc_product"). A table key overrides it.

# Relationships

Supported kinds are has_one, has_many, belongs_to and many_to_many. The
spellings one-to-one, one-to-many, belongs-to-one and many-to-many are
accepted as aliases. Any other tag is rejected.

Foreign keys default to the singular snake_case name plus "_id". Join tables
default to the prefix plus both singular names in sorted order
("lc_product_tag").

# Parsing

	c, err := schema.ParseFile("collections/product.yaml", reg)
	all, err := schema.ParseDir("collections/", reg, schema.WithTablePrefix("app_"))
*/
package schema
