// Package storage realizes collections as physical tables.
// It builds DDL through a Dialect and sends it to an Executor; it never
// opens transactions or retries on its own.
package storage

import (
	"context"
	"fmt"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/schema"
)

// Executor runs statements against a relational engine.
// Failures are reported as returned errors; the builder adds no policy on top.
type Executor interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, stmt string, args ...any) error

	// Query runs a statement and returns every row keyed by column name.
	Query(ctx context.Context, stmt string, args ...any) ([]map[string]any, error)
}

// ColumnType is an abstract column type, mapped to engine syntax by a Dialect.
type ColumnType string

const (
	ColumnString   ColumnType = "string"
	ColumnText     ColumnType = "text"
	ColumnInteger  ColumnType = "integer"
	ColumnBigInt   ColumnType = "bigint"
	ColumnBoolean  ColumnType = "boolean"
	ColumnDate     ColumnType = "date"
	ColumnDateTime ColumnType = "datetime"
	ColumnDecimal  ColumnType = "decimal"
	ColumnFloat    ColumnType = "float"
	ColumnJSON     ColumnType = "json"
)

// DefaultStringLength is used for string columns without a length.
const DefaultStringLength = 255

// Column describes one table column.
type Column struct {
	Name string
	Type ColumnType

	Nullable bool

	// Length applies to string columns, Precision and Scale to decimals.
	Length    int
	Precision int
	Scale     int

	// Default is rendered as a literal by the dialect. field.CurrentTimestamp
	// is passed through as the engine's current timestamp expression.
	Default any

	Primary       bool
	AutoIncrement bool
	Unique        bool

	Comment string
}

// Index describes a secondary index. An empty Name is derived from the table
// and column names.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// TableOptions are engine-level table settings. Engines without the
// concept ignore them.
type TableOptions struct {
	Engine  string
	Comment string
}

const maxIdentifierLength = 64

// checkIdentifier rejects any name that is not a plain identifier before it
// reaches a statement.
func checkIdentifier(kind, name string) error {
	if !schema.IsValidIdentifier(name) {
		return errs.New(errs.KindInvalidIdentifier, name, fmt.Sprintf("%s name must match [A-Za-z_][A-Za-z0-9_]* (max %d)", kind, maxIdentifierLength))
	}
	return nil
}

// indexName derives the default name of an index.
func indexName(table string, idx Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	prefix := "idx_"
	if idx.Unique {
		prefix = "uniq_"
	}
	name := prefix + table
	for _, c := range idx.Columns {
		name += "_" + c
	}
	return name
}
