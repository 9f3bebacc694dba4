package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// SQLExecutor implements Executor over database/sql.
type SQLExecutor struct {
	db     *sql.DB
	driver string
}

// Open connects to a database with one of the registered drivers
// (sqlite3, mysql, pgx).
func Open(driver, dsn string) (*SQLExecutor, error) {
	switch driver {
	case "postgres", "postgresql":
		driver = "pgx"
	case "sqlite":
		driver = "sqlite3"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite3" {
		// Schema changes on one connection must be visible to the next.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return NewSQLExecutor(db, driver), nil
}

// NewSQLExecutor wraps an existing connection. driver selects the error mapping.
func NewSQLExecutor(db *sql.DB, driver string) *SQLExecutor {
	return &SQLExecutor{db: db, driver: driver}
}

// DB returns the underlying connection.
func (e *SQLExecutor) DB() *sql.DB {
	return e.db
}

// Driver returns the database/sql driver name.
func (e *SQLExecutor) Driver() string {
	return e.driver
}

// Exec runs a statement that returns no rows.
func (e *SQLExecutor) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := e.db.ExecContext(ctx, stmt, args...); err != nil {
		return mapError(e.driver, stmt, err)
	}
	return nil
}

// Query runs a statement and returns every row keyed by column name.
// []byte values are returned as strings.
func (e *SQLExecutor) Query(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, mapError(e.driver, stmt, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanDest := make([]any, len(columns))
		for i := range values {
			scanDest[i] = &values[i]
		}

		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(e.driver, stmt, err)
	}
	return result, nil
}

// Close closes the connection.
func (e *SQLExecutor) Close() error {
	return e.db.Close()
}
