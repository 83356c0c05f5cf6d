// Package pgsql writes PostgreSQL load scripts. Rows are grouped into chunks;
// each chunk is one transaction with an idempotent INSERT and, for tables
// with a serial column, a sequence reset.
package pgsql

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/lib/pq"

	"github.com/Olivedu13/poke/pokemigrate/internal/schema"
)

// DefaultChunkSize is the number of rows per chunk when none is given.
const DefaultChunkSize = 50

// Chunk is a slice of one table's rows that is loaded in one transaction.
type Chunk struct {
	Table string
	Index int

	Columns     []string
	ConflictKey []string

	// Serial is the sequence-backed column, empty if none.
	Serial string

	// Rows are encoded PostgreSQL tuples, parentheses included.
	Rows []string
}

// Name identifies the chunk in logs and in the import ledger.
func (c *Chunk) Name() string {
	return fmt.Sprintf("%s#%03d", c.Table, c.Index)
}

// Insert renders the chunk's INSERT statement.
func (c *Chunk) Insert() string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(c.Table))
	b.WriteString(" (")
	b.WriteString(quoteAll(c.Columns))
	b.WriteString(") VALUES\n")
	for i, row := range c.Rows {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString(row)
	}
	b.WriteString("\nON CONFLICT ")
	if len(c.ConflictKey) > 0 {
		b.WriteString("(")
		b.WriteString(quoteAll(c.ConflictKey))
		b.WriteString(") ")
	}
	b.WriteString("DO NOTHING;\n")
	return b.String()
}

// SQL renders the whole chunk as a transaction.
func (c *Chunk) SQL() string {
	var b strings.Builder
	b.WriteString("BEGIN;\n")
	b.WriteString(c.Insert())
	if c.Serial != "" {
		b.WriteString(Setval(c.Table, c.Serial))
		b.WriteByte('\n')
	}
	b.WriteString("COMMIT;\n")
	return b.String()
}

// Checksum is the hex SHA-256 of SQL. The import ledger keys on it.
func (c *Chunk) Checksum() string {
	sum := sha256.Sum256([]byte(c.SQL()))
	return hex.EncodeToString(sum[:])
}

// Setval moves the sequence of table.column past the highest existing value.
func Setval(table, column string) string {
	seq := table + "_" + column + "_seq"
	return fmt.Sprintf("SELECT setval(%s, COALESCE((SELECT MAX(%s) FROM %s), 0) + 1, false);",
		pq.QuoteLiteral(seq), pq.QuoteIdentifier(column), pq.QuoteIdentifier(table))
}

// Script is everything loaded for one table.
type Script struct {
	Table  string
	Chunks []*Chunk
}

// Rows counts the rows across all chunks.
func (s *Script) Rows() int {
	n := 0
	for _, c := range s.Chunks {
		n += len(c.Rows)
	}
	return n
}

// WriteTo writes every chunk, separated by a comment naming it.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range s.Chunks {
		n, err := fmt.Fprintf(w, "-- %s (%d rows)\n%s\n", c.Name(), len(c.Rows), c.SQL())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Build splits rows into chunks of at most chunkSize. columns names the
// values of each row, in order. chunkSize <= 0 means DefaultChunkSize.
func Build(table *schema.Table, columns []string, rows []string, chunkSize int) *Script {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	// A serial column is only worth resetting when the inserts set it.
	serial := ""
	for _, c := range columns {
		if c == table.Serial {
			serial = c
			break
		}
	}

	s := &Script{Table: table.Name}
	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		s.Chunks = append(s.Chunks, &Chunk{
			Table:       table.Name,
			Index:       len(s.Chunks) + 1,
			Columns:     columns,
			ConflictKey: table.ConflictKey,
			Serial:      serial,
			Rows:        rows[start:end],
		})
	}
	return s
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}
