package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/lowcode/core/errs"
	"github.com/artpar/lowcode/core/field"
)

// Dialect is the only place that knows engine syntax.
type Dialect interface {
	// Name returns the database/sql driver name the dialect targets.
	Name() string

	// Quote quotes an identifier that has already passed the allow-list.
	Quote(ident string) string

	// Placeholder returns the bind variable for the n-th argument (1-based).
	Placeholder(n int) string

	// ColumnDefinition renders a full column definition: name, type,
	// nullability, default, key and comment clauses.
	ColumnDefinition(c Column) (string, error)

	// DefaultLiteral renders a default value.
	DefaultLiteral(v any) (string, error)

	// TableSuffix is appended after the closing parenthesis of CREATE TABLE.
	TableSuffix(opts TableOptions) string

	// AfterCreate returns extra statements needed after CREATE TABLE, and
	// after ADD COLUMN for a single column.
	AfterCreate(table string, cols []Column, opts TableOptions) []string

	// HasTableQuery and HasColumnQuery return a statement selecting a
	// single count column named n.
	HasTableQuery(table string) (string, []any)
	HasColumnQuery(table, column string) (string, []any)
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	case "mysql":
		return MySQL{}, nil
	case "pgx", "postgres", "postgresql":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// common holds the syntax shared by all supported engines.
type common struct{}

func (common) Quote(ident string) string {
	return `"` + ident + `"`
}

func (common) Placeholder(int) string {
	return "?"
}

func (common) TableSuffix(TableOptions) string {
	return ""
}

func (common) AfterCreate(string, []Column, TableOptions) []string {
	return nil
}

func (common) literal(v any, trueLit, falseLit string) (string, error) {
	switch val := v.(type) {
	case string:
		if val == field.CurrentTimestamp {
			return "CURRENT_TIMESTAMP", nil
		}
		return quoteString(val), nil
	case bool:
		if val {
			return trueLit, nil
		}
		return falseLit, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		if _, err := val.Float64(); err != nil {
			return "", errs.Wrap(errs.KindMalformedSchema, val.String(), "invalid numeric default", err)
		}
		return val.String(), nil
	default:
		return "", errs.Newf(errs.KindMalformedSchema, fmt.Sprintf("%v", v), "unsupported default of type %T", v)
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func stringLength(c Column) int {
	if c.Length > 0 {
		return c.Length
	}
	return DefaultStringLength
}

func decimalSize(c Column) (int, int) {
	if c.Precision > 0 {
		return c.Precision, c.Scale
	}
	return 10, 2
}

// tail renders the clauses every engine writes the same way.
func tail(d Dialect, c Column) ([]string, error) {
	var parts []string
	if !c.Nullable && !c.Primary {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != nil {
		lit, err := d.DefaultLiteral(c.Default)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		parts = append(parts, "DEFAULT "+lit)
	}
	if c.Unique && !c.Primary {
		parts = append(parts, "UNIQUE")
	}
	return parts, nil
}

func unknownType(c Column) error {
	return errs.Newf(errs.KindMalformedSchema, c.Name, "unknown column type %q", c.Type)
}

// SQLite is the dialect for github.com/mattn/go-sqlite3.
type SQLite struct{ common }

func (SQLite) Name() string { return "sqlite3" }

func (d SQLite) DefaultLiteral(v any) (string, error) {
	return d.literal(v, "1", "0")
}

func (d SQLite) ColumnDefinition(c Column) (string, error) {
	if c.AutoIncrement {
		return d.Quote(c.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT", nil
	}

	var typ string
	switch c.Type {
	case ColumnString:
		typ = fmt.Sprintf("VARCHAR(%d)", stringLength(c))
	case ColumnText, ColumnJSON:
		typ = "TEXT"
	case ColumnInteger, ColumnBigInt:
		typ = "INTEGER"
	case ColumnBoolean:
		typ = "BOOLEAN"
	case ColumnDate:
		typ = "DATE"
	case ColumnDateTime:
		typ = "DATETIME"
	case ColumnDecimal:
		p, s := decimalSize(c)
		typ = fmt.Sprintf("DECIMAL(%d,%d)", p, s)
	case ColumnFloat:
		typ = "REAL"
	default:
		return "", unknownType(c)
	}

	parts := []string{d.Quote(c.Name), typ}
	if c.Primary {
		parts = append(parts, "PRIMARY KEY")
	}
	rest, err := tail(d, c)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, rest...), " "), nil
}

func (SQLite) HasTableQuery(table string) (string, []any) {
	return "SELECT count(*) AS n FROM sqlite_master WHERE type = 'table' AND name = ?", []any{table}
}

func (SQLite) HasColumnQuery(table, column string) (string, []any) {
	return "SELECT count(*) AS n FROM pragma_table_info(?) WHERE name = ?", []any{table, column}
}

// MySQL is the dialect for github.com/go-sql-driver/mysql.
type MySQL struct{ common }

func (MySQL) Name() string { return "mysql" }

func (MySQL) Quote(ident string) string {
	return "`" + ident + "`"
}

func (d MySQL) DefaultLiteral(v any) (string, error) {
	return d.literal(v, "1", "0")
}

func (d MySQL) ColumnDefinition(c Column) (string, error) {
	var typ string
	switch c.Type {
	case ColumnString:
		typ = fmt.Sprintf("VARCHAR(%d)", stringLength(c))
	case ColumnText:
		typ = "TEXT"
	case ColumnInteger:
		typ = "INT"
	case ColumnBigInt:
		typ = "BIGINT"
	case ColumnBoolean:
		typ = "TINYINT(1)"
	case ColumnDate:
		typ = "DATE"
	case ColumnDateTime:
		typ = "DATETIME"
	case ColumnDecimal:
		p, s := decimalSize(c)
		typ = fmt.Sprintf("DECIMAL(%d,%d)", p, s)
	case ColumnFloat:
		typ = "DOUBLE"
	case ColumnJSON:
		typ = "JSON"
	default:
		return "", unknownType(c)
	}

	parts := []string{d.Quote(c.Name), typ}
	if c.AutoIncrement {
		parts = append(parts, "NOT NULL AUTO_INCREMENT PRIMARY KEY")
	} else {
		if c.Primary {
			parts = append(parts, "NOT NULL PRIMARY KEY")
		}
		rest, err := tail(d, c)
		if err != nil {
			return "", err
		}
		parts = append(parts, rest...)
	}
	if c.Comment != "" {
		parts = append(parts, "COMMENT "+quoteString(c.Comment))
	}
	return strings.Join(parts, " "), nil
}

func (MySQL) TableSuffix(opts TableOptions) string {
	var parts []string
	if opts.Engine != "" {
		parts = append(parts, "ENGINE="+opts.Engine)
	}
	parts = append(parts, "DEFAULT CHARSET=utf8mb4")
	if opts.Comment != "" {
		parts = append(parts, "COMMENT="+quoteString(opts.Comment))
	}
	return " " + strings.Join(parts, " ")
}

func (MySQL) HasTableQuery(table string) (string, []any) {
	return "SELECT count(*) AS n FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", []any{table}
}

func (MySQL) HasColumnQuery(table, column string) (string, []any) {
	return "SELECT count(*) AS n FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?", []any{table, column}
}

// Postgres is the dialect for github.com/jackc/pgx/v5/stdlib.
type Postgres struct{ common }

func (Postgres) Name() string { return "pgx" }

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (d Postgres) DefaultLiteral(v any) (string, error) {
	return d.literal(v, "TRUE", "FALSE")
}

func (d Postgres) ColumnDefinition(c Column) (string, error) {
	if c.AutoIncrement {
		if c.Type == ColumnInteger {
			return d.Quote(c.Name) + " SERIAL PRIMARY KEY", nil
		}
		return d.Quote(c.Name) + " BIGSERIAL PRIMARY KEY", nil
	}

	var typ string
	switch c.Type {
	case ColumnString:
		typ = fmt.Sprintf("VARCHAR(%d)", stringLength(c))
	case ColumnText:
		typ = "TEXT"
	case ColumnInteger:
		typ = "INTEGER"
	case ColumnBigInt:
		typ = "BIGINT"
	case ColumnBoolean:
		typ = "BOOLEAN"
	case ColumnDate:
		typ = "DATE"
	case ColumnDateTime:
		typ = "TIMESTAMP"
	case ColumnDecimal:
		p, s := decimalSize(c)
		typ = fmt.Sprintf("NUMERIC(%d,%d)", p, s)
	case ColumnFloat:
		typ = "DOUBLE PRECISION"
	case ColumnJSON:
		typ = "JSONB"
	default:
		return "", unknownType(c)
	}

	parts := []string{d.Quote(c.Name), typ}
	if c.Primary {
		parts = append(parts, "PRIMARY KEY")
	}
	rest, err := tail(d, c)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, rest...), " "), nil
}

// AfterCreate emits COMMENT ON statements; postgres has no inline comments.
func (d Postgres) AfterCreate(table string, cols []Column, opts TableOptions) []string {
	var stmts []string
	if opts.Comment != "" {
		stmts = append(stmts, fmt.Sprintf("COMMENT ON TABLE %s IS %s", d.Quote(table), quoteString(opts.Comment)))
	}
	for _, c := range cols {
		if c.Comment != "" {
			stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", d.Quote(table), d.Quote(c.Name), quoteString(c.Comment)))
		}
	}
	return stmts
}

func (Postgres) HasTableQuery(table string) (string, []any) {
	return "SELECT count(*) AS n FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1", []any{table}
}

func (Postgres) HasColumnQuery(table, column string) (string, []any) {
	return "SELECT count(*) AS n FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2", []any{table, column}
}

func isWord(s string) bool {
	for _, c := range s {
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != '_' {
			return false
		}
	}
	return true
}
