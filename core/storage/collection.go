package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/lowcode/core/field"
	"github.com/artpar/lowcode/core/schema"
)

// Implicit columns added to every collection table unless the collection
// defines a field of the same name.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Table is a table derived from a collection.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
	Options TableOptions
}

// ColumnsFor derives the main table of a collection: an auto-increment id,
// the fields in order, one key column per belongs_to relationship and the
// two timestamps.
func ColumnsFor(c *schema.Collection) (Table, error) {
	t := Table{Name: c.Table()}
	defined := make(map[string]bool)
	for _, f := range c.Fields() {
		defined[f.Name()] = true
	}

	if !defined[ColumnID] {
		t.Columns = append(t.Columns, Column{Name: ColumnID, Type: ColumnBigInt, Primary: true, AutoIncrement: true})
	}

	for _, f := range c.Fields() {
		col, err := columnFor(f)
		if err != nil {
			return Table{}, fmt.Errorf("collection %q: %w", c.Name(), err)
		}
		t.Columns = append(t.Columns, col)

		if f.Options().Index && !col.Unique {
			t.Indexes = append(t.Indexes, Index{Columns: []string{col.Name}})
		}
	}

	for _, r := range c.Relationships() {
		if r.Kind != schema.BelongsTo || defined[r.ForeignKey] {
			continue
		}
		defined[r.ForeignKey] = true
		t.Columns = append(t.Columns, Column{Name: r.ForeignKey, Type: ColumnBigInt, Nullable: true})
		t.Indexes = append(t.Indexes, Index{Columns: []string{r.ForeignKey}})
	}

	for _, name := range []string{ColumnCreatedAt, ColumnUpdatedAt} {
		if !defined[name] {
			t.Columns = append(t.Columns, Column{Name: name, Type: ColumnDateTime, Nullable: true, Default: field.CurrentTimestamp})
		}
	}

	return t, nil
}

// TablesFor returns the main table followed by one join table per
// many_to_many relationship.
func TablesFor(c *schema.Collection) ([]Table, error) {
	main, err := ColumnsFor(c)
	if err != nil {
		return nil, err
	}

	tables := []Table{main}
	for _, r := range c.Relationships() {
		if r.Kind != schema.ManyToMany {
			continue
		}
		tables = append(tables, Table{
			Name: r.JoinTable,
			Columns: []Column{
				{Name: r.ForeignKey, Type: ColumnBigInt, Primary: true},
				{Name: r.OtherKey, Type: ColumnBigInt, Primary: true},
			},
			Indexes: []Index{{Columns: []string{r.OtherKey}}},
		})
	}
	return tables, nil
}

// CreateCollection creates the tables of a collection. The main table must
// not exist; join tables are shared by both sides of a many_to_many and are
// skipped when already present. The calls are not transactional.
func (b *Builder) CreateCollection(ctx context.Context, c *schema.Collection, opts TableOptions) error {
	tables, err := TablesFor(c)
	if err != nil {
		return err
	}

	for i, t := range tables {
		if i > 0 {
			exists, err := b.HasTable(ctx, t.Name)
			if err != nil {
				return err
			}
			if exists {
				b.logger.Debug().Str("table", t.Name).Msg("join table exists, skipping")
				continue
			}
		}

		tableOpts := opts
		if i > 0 {
			tableOpts.Comment = ""
		}
		if err := b.CreateTable(ctx, t.Name, t.Columns, t.Indexes, tableOpts); err != nil {
			return fmt.Errorf("create collection %q: %w", c.Name(), err)
		}
	}

	b.logger.Info().Str("collection", c.Name()).Str("table", c.Table()).Int("tables", len(tables)).Msg("collection created")
	return nil
}

// DropCollection drops the join tables of a collection that still exist,
// then its main table.
func (b *Builder) DropCollection(ctx context.Context, c *schema.Collection) error {
	tables, err := TablesFor(c)
	if err != nil {
		return err
	}

	for i := len(tables) - 1; i >= 1; i-- {
		exists, err := b.HasTable(ctx, tables[i].Name)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := b.DropTable(ctx, tables[i].Name); err != nil {
			return fmt.Errorf("drop collection %q: %w", c.Name(), err)
		}
	}

	if err := b.DropTable(ctx, c.Table()); err != nil {
		return fmt.Errorf("drop collection %q: %w", c.Name(), err)
	}

	b.logger.Info().Str("collection", c.Name()).Str("table", c.Table()).Msg("collection dropped")
	return nil
}

// columnFor maps a field to its column.
func columnFor(f field.Field) (Column, error) {
	opts := f.Options()
	col := Column{
		Name:     f.Name(),
		Nullable: opts.Nullable,
		Unique:   opts.Unique,
		Comment:  opts.Comment,
		Default:  opts.Default,
	}

	switch f.Type() {
	case field.TypeString, field.TypeEmail:
		col.Type = ColumnString
		col.Length = opts.Length
	case field.TypeText:
		col.Type = ColumnText
	case field.TypeInteger:
		col.Type = ColumnInteger
	case field.TypeBoolean:
		col.Type = ColumnBoolean
	case field.TypeDate:
		col.Type = ColumnDate
	case field.TypeDateTime:
		col.Type = ColumnDateTime
	case field.TypeDecimal:
		col.Type = ColumnDecimal
		col.Precision = opts.Precision
		col.Scale = opts.Scale
	case field.TypeEnum:
		col.Type = ColumnString
		col.Length = opts.Length
		if col.Length == 0 {
			for _, v := range opts.Values {
				col.Length = max(col.Length, len(v))
			}
		}
	case field.TypeJSON:
		col.Type = ColumnJSON
		if opts.Default != nil {
			if _, ok := opts.Default.(string); !ok {
				data, err := json.Marshal(opts.Default)
				if err != nil {
					return Column{}, fmt.Errorf("field %s: encode default: %w", f.Name(), err)
				}
				col.Default = string(data)
			}
		}
	default:
		// Registered extension types store their text form.
		col.Type = ColumnText
		if opts.Length > 0 {
			col.Type = ColumnString
			col.Length = opts.Length
		}
	}

	return col, nil
}
