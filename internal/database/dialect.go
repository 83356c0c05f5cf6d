package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dialect covers the SQL differences between the ledger backends.
type Dialect interface {
	// DriverName is the name registered with database/sql.
	DriverName() string

	// Placeholder is the bind parameter for 1-based position.
	Placeholder(position int) string

	// AutoIncrementKey is the column definition of a surrogate primary key.
	AutoIncrementKey() string

	// InitStatements run once on every new connection pool.
	InitStatements() []string

	// IsDuplicateKeyError reports a unique constraint violation.
	IsDuplicateKeyError(err error) bool
}

// DialectType identifies the database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the Dialect for dialectType, SQLite when unknown.
func NewDialect(dialectType DialectType) Dialect {
	if dialectType == DialectPostgres {
		return &PostgresDialect{}
	}
	return &SQLiteDialect{}
}

// SQLiteDialect is the modernc.org/sqlite ledger file.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(int) string { return "?" }

func (d *SQLiteDialect) AutoIncrementKey() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

// InitStatements enable WAL so that a status query can read the ledger while
// an import writes it.
func (d *SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

func (d *SQLiteDialect) IsDuplicateKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// PostgresDialect is a lib/pq connection, used both for the ledger and for
// loading data directly.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) Placeholder(position int) string { return fmt.Sprintf("$%d", position) }

func (d *PostgresDialect) AutoIncrementKey() string { return "BIGSERIAL PRIMARY KEY" }

func (d *PostgresDialect) InitStatements() []string { return nil }

func (d *PostgresDialect) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "duplicate key")
}
