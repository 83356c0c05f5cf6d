package pgsql

import (
	"fmt"

	"github.com/lib/pq"
)

// TableStatus is one line of the final status report.
type TableStatus struct {
	Table string
	Rows  int64

	// Size is pg_size_pretty of the table with its indexes and toast.
	Size string

	// Err is set when the table could not be inspected, usually because it
	// does not exist.
	Err error
}

// CountQuery counts the rows of table.
func CountQuery(table string) string {
	return "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table)
}

// StatusQuery returns the row count and pretty total size of table as two
// columns.
func StatusQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*), pg_size_pretty(pg_total_relation_size(%s::regclass)) FROM %s",
		pq.QuoteLiteral(pq.QuoteIdentifier(table)), pq.QuoteIdentifier(table))
}
