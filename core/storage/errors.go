package storage

import (
	"errors"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/artpar/lowcode/core/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	mysqlErrTableExists   = 1050
	mysqlErrUnknownTable  = 1051
	mysqlErrBadField      = 1054
	mysqlErrDupFieldName  = 1060
	mysqlErrDupKeyName    = 1061
	mysqlErrCantDropField = 1091
	mysqlErrNoSuchTable   = 1146
)

// PostgreSQL SQLSTATE codes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrDuplicateTable  = "42P07"
	pgErrDuplicateColumn = "42701"
	pgErrDuplicateObject = "42710"
	pgErrUndefinedTable  = "42P01"
	pgErrUndefinedColumn = "42703"
	pgErrUndefinedObject = "42704"
)

// mapError converts a driver error into a KindSchemaOperation error,
// setting the Reason when the engine reports a missing or existing object.
// The statement goes into the message; the Builder fills in the Subject.
func mapError(driver, stmt string, err error) error {
	if err == nil {
		return nil
	}

	return &errs.Error{
		Kind:    errs.KindSchemaOperation,
		Message: "statement failed: " + stmt,
		Reason:  reasonOf(driver, err),
		Cause:   err,
	}
}

func reasonOf(driver string, err error) errs.Reason {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrTableExists, mysqlErrDupFieldName, mysqlErrDupKeyName:
			return errs.ReasonAlreadyExists
		case mysqlErrUnknownTable, mysqlErrBadField, mysqlErrCantDropField, mysqlErrNoSuchTable:
			return errs.ReasonNotFound
		}
		return errs.ReasonNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDuplicateTable, pgErrDuplicateColumn, pgErrDuplicateObject:
			return errs.ReasonAlreadyExists
		case pgErrUndefinedTable, pgErrUndefinedColumn, pgErrUndefinedObject:
			return errs.ReasonNotFound
		}
		return errs.ReasonNone
	}

	// sqlite reports these as generic SQLITE_ERROR; only the message differs.
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) || driver == "sqlite3" {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "already exists"), strings.Contains(msg, "duplicate column name"):
			return errs.ReasonAlreadyExists
		case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"), strings.Contains(msg, "no such index"):
			return errs.ReasonNotFound
		}
	}

	return errs.ReasonNone
}
