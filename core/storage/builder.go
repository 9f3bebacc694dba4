package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/lowcode/core/errs"
)

// Observer receives the outcome of every DDL operation.
type Observer interface {
	ObserveDDL(op string, elapsed time.Duration, err error)
}

// Config configures a Builder.
type Config struct {
	// Dialect renders engine syntax. Defaults to SQLite.
	Dialect Dialect

	// Logger receives every statement at debug and failures at warn.
	Logger zerolog.Logger

	// Observer is notified of each operation (optional).
	Observer Observer
}

// Builder executes the DDL operations against an Executor.
// Operations are independent: none checks existence first and no sequence
// of calls is wrapped in a transaction.
type Builder struct {
	exec     Executor
	dialect  Dialect
	logger   zerolog.Logger
	observer Observer
}

// NewBuilder creates a builder.
func NewBuilder(exec Executor, cfg Config) *Builder {
	if cfg.Dialect == nil {
		cfg.Dialect = SQLite{}
	}
	return &Builder{
		exec:     exec,
		dialect:  cfg.Dialect,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
}

// Dialect returns the dialect statements are rendered with.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// CreateTable creates a table with its indexes. It fails if the table
// already exists.
func (b *Builder) CreateTable(ctx context.Context, name string, cols []Column, indexes []Index, opts TableOptions) (err error) {
	defer b.observe("create_table", time.Now(), &err)

	stmts, err := b.createTableSQL(name, cols, indexes, opts)
	if err != nil {
		return err
	}
	if err := b.run(ctx, "create_table", name, stmts[0]); err != nil {
		return err
	}

	// Index and comment statements run against a table this call created.
	// On failure the table is dropped again and the error carries no
	// Reason: the table did not exist before.
	if err := b.run(ctx, "create_table", name, stmts[1:]...); err != nil {
		if derr := b.exec.Exec(ctx, "DROP TABLE "+b.dialect.Quote(name)); derr != nil {
			b.logger.Warn().Err(derr).Str("table", name).Msg("cannot drop partially created table")
		}
		return withoutReason(err)
	}
	return nil
}

// DropTable drops a table. It fails if the table does not exist.
func (b *Builder) DropTable(ctx context.Context, name string) (err error) {
	defer b.observe("drop_table", time.Now(), &err)

	if err := checkIdentifier("table", name); err != nil {
		return err
	}
	return b.run(ctx, "drop_table", name, "DROP TABLE "+b.dialect.Quote(name))
}

// HasTable reports whether a table exists.
func (b *Builder) HasTable(ctx context.Context, name string) (ok bool, err error) {
	defer b.observe("has_table", time.Now(), &err)

	if err := checkIdentifier("table", name); err != nil {
		return false, err
	}
	stmt, args := b.dialect.HasTableQuery(name)
	return b.exists(ctx, name, stmt, args)
}

// AddColumn adds one column in a single ALTER TABLE statement.
func (b *Builder) AddColumn(ctx context.Context, table string, col Column) (err error) {
	defer b.observe("add_column", time.Now(), &err)

	if err := checkIdentifier("table", table); err != nil {
		return err
	}
	if err := checkIdentifier("column", col.Name); err != nil {
		return err
	}
	if col.Primary || col.AutoIncrement {
		return errs.New(errs.KindMalformedSchema, col.Name, "primary key columns can only be created with the table")
	}

	def, err := b.dialect.ColumnDefinition(col)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", b.dialect.Quote(table), def)
	if err := b.run(ctx, "add_column", table+"."+col.Name, stmt); err != nil {
		return err
	}
	// Dialects without inline column comments emit them separately.
	return b.run(ctx, "add_column", table+"."+col.Name, b.dialect.AfterCreate(table, []Column{col}, TableOptions{})...)
}

// DropColumn drops one column in a single ALTER TABLE statement.
func (b *Builder) DropColumn(ctx context.Context, table, column string) (err error) {
	defer b.observe("drop_column", time.Now(), &err)

	if err := checkIdentifier("table", table); err != nil {
		return err
	}
	if err := checkIdentifier("column", column); err != nil {
		return err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", b.dialect.Quote(table), b.dialect.Quote(column))
	return b.run(ctx, "drop_column", table+"."+column, stmt)
}

// HasColumn reports whether a table has a column.
func (b *Builder) HasColumn(ctx context.Context, table, column string) (ok bool, err error) {
	defer b.observe("has_column", time.Now(), &err)

	if err := checkIdentifier("table", table); err != nil {
		return false, err
	}
	if err := checkIdentifier("column", column); err != nil {
		return false, err
	}
	stmt, args := b.dialect.HasColumnQuery(table, column)
	return b.exists(ctx, table+"."+column, stmt, args)
}

// createTableSQL renders CREATE TABLE followed by any index and comment
// statements. All identifiers are checked before anything is rendered.
func (b *Builder) createTableSQL(name string, cols []Column, indexes []Index, opts TableOptions) ([]string, error) {
	if err := checkIdentifier("table", name); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errs.New(errs.KindMalformedSchema, name, "table must have at least one column")
	}
	// Engine names are rendered unquoted.
	if opts.Engine != "" && !isWord(opts.Engine) {
		return nil, errs.New(errs.KindInvalidIdentifier, opts.Engine, "table engine must contain only letters, digits and underscores")
	}

	seen := make(map[string]bool, len(cols))
	var primary []string
	for _, c := range cols {
		if err := checkIdentifier("column", c.Name); err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, errs.Newf(errs.KindDuplicateField, c.Name, "column defined twice in table %s", name)
		}
		seen[c.Name] = true
		if c.Primary || c.AutoIncrement {
			primary = append(primary, c.Name)
		}
	}

	// Composite keys become a table constraint.
	composite := len(primary) > 1

	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		if composite {
			if c.AutoIncrement {
				return nil, errs.New(errs.KindMalformedSchema, c.Name, "auto increment column cannot be part of a composite key")
			}
			c.Primary = false
		}
		def, err := b.dialect.ColumnDefinition(c)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if composite {
		defs = append(defs, "PRIMARY KEY ("+b.quoteAll(primary)+")")
	}

	stmts := []string{fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)%s",
		b.dialect.Quote(name),
		strings.Join(defs, ",\n  "),
		b.dialect.TableSuffix(opts),
	)}

	for _, idx := range indexes {
		if len(idx.Columns) == 0 {
			return nil, errs.New(errs.KindMalformedSchema, idx.Name, "index must have at least one column")
		}
		for _, c := range idx.Columns {
			if !seen[c] {
				return nil, errs.Newf(errs.KindMalformedSchema, c, "index column not in table %s", name)
			}
		}
		idxName := indexName(name, idx)
		if err := checkIdentifier("index", idxName); err != nil {
			return nil, err
		}

		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE %sINDEX %s ON %s (%s)",
			unique, b.dialect.Quote(idxName), b.dialect.Quote(name), b.quoteAll(idx.Columns),
		))
	}

	stmts = append(stmts, b.dialect.AfterCreate(name, cols, opts)...)
	return stmts, nil
}

func (b *Builder) quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.dialect.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// run executes statements in order and stops at the first failure.
func (b *Builder) run(ctx context.Context, op, subject string, stmts ...string) error {
	for _, stmt := range stmts {
		b.logger.Debug().Str("op", op).Str("subject", subject).Str("sql", stmt).Msg("executing ddl")

		if err := b.exec.Exec(ctx, stmt); err != nil {
			b.logger.Warn().Err(err).Str("op", op).Str("subject", subject).Msg("ddl failed")
			return asSchemaError(subject, err)
		}
	}
	return nil
}

func (b *Builder) exists(ctx context.Context, subject, stmt string, args []any) (bool, error) {
	rows, err := b.exec.Query(ctx, stmt, args...)
	if err != nil {
		return false, asSchemaError(subject, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	n, err := countOf(rows[0]["n"])
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *Builder) observe(op string, start time.Time, err *error) {
	if b.observer != nil {
		b.observer.ObserveDDL(op, time.Since(start), *err)
	}
}

// asSchemaError sets the subject of executor errors and wraps anything
// that carries no kind yet.
func asSchemaError(subject string, err error) error {
	if e, ok := err.(*errs.Error); ok {
		if e.Subject == "" && subject != "" {
			cp := *e
			cp.Subject = subject
			return &cp
		}
		return err
	}
	if errs.KindOf(err) != errs.KindUnknown {
		return err
	}
	return errs.Wrap(errs.KindSchemaOperation, subject, "statement failed", err)
}

// withoutReason clears the Reason of a schema error.
func withoutReason(err error) error {
	e, ok := err.(*errs.Error)
	if !ok || e.Reason == errs.ReasonNone {
		return err
	}
	cp := *e
	cp.Reason = errs.ReasonNone
	return &cp
}

// countOf reads a count(*) column; drivers disagree on its Go type.
func countOf(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		var out int64
		if _, err := fmt.Sscan(n, &out); err != nil {
			return 0, fmt.Errorf("parse count %q: %w", n, err)
		}
		return out, nil
	case []byte:
		return countOf(string(n))
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", v)
	}
}
