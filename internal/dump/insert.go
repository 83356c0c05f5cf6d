package dump

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// ErrNotInsert is returned by ParseInsert for any other kind of statement.
var ErrNotInsert = errors.New("not an INSERT statement")

var insertHead = regexp.MustCompile("(?is)^INSERT\\s+(IGNORE\\s+)?INTO\\s+" +
	"(?:(?:`[^`]+`|\\w+)\\.)?" + // optional schema qualifier
	"(`(?:[^`]|``)+`|\"[^\"]+\"|\\w+)\\s*" +
	"(?:\\(([^)]*)\\))?\\s*VALUES?\\s*")

// Insert is one parsed INSERT statement.
type Insert struct {
	Table   string
	Columns []string

	// Values is the raw VALUES list, e.g. "(1,'a'),(2,'b')".
	Values string

	Ignore bool

	// Line is where the statement started in the dump, 0 if unknown.
	Line int
}

// ParseInsert parses a statement as produced by Scanner.
func ParseInsert(stmt string) (*Insert, error) {
	stmt = strings.TrimSpace(stmt)
	m := insertHead.FindStringSubmatchIndex(stmt)
	if m == nil {
		return nil, ErrNotInsert
	}

	ins := &Insert{
		Table:  unquoteIdent(stmt[m[4]:m[5]]),
		Ignore: m[2] >= 0,
		Values: strings.TrimSuffix(strings.TrimSpace(stmt[m[1]:]), ";"),
	}
	if m[6] >= 0 {
		for _, col := range strings.Split(stmt[m[6]:m[7]], ",") {
			if col = strings.TrimSpace(col); col != "" {
				ins.Columns = append(ins.Columns, unquoteIdent(col))
			}
		}
	}
	if ins.Values == "" {
		return nil, fmt.Errorf("INSERT INTO %s has no values", ins.Table)
	}
	return ins, nil
}

// Tuples splits the VALUES list into the inner text of each row.
func (ins *Insert) Tuples() ([]string, error) {
	tuples, err := transcode.SplitTuples(ins.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ins.Table, err)
	}
	return tuples, nil
}

// Statement renders the insert for PostgreSQL: identifiers double-quoted
// and string literals re-escaped. INSERT IGNORE becomes ON CONFLICT DO NOTHING.
func (ins *Insert) Statement() (string, error) {
	values, err := RepairLiterals(ins.Values)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ins.Table, err)
	}
	return ins.render(values), nil
}

// IdentifierStatement is Statement without literal repair: only identifiers
// are converted and the values are copied as they appear in the dump.
func (ins *Insert) IdentifierStatement() (string, error) {
	values, err := QuoteIdentifiers(ins.Values)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ins.Table, err)
	}
	return ins.render(values), nil
}

func (ins *Insert) render(values string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(ins.Table))
	if len(ins.Columns) > 0 {
		b.WriteString(" (")
		b.WriteString(QuoteColumns(ins.Columns))
		b.WriteByte(')')
	}
	b.WriteString(" VALUES ")
	b.WriteString(values)
	if ins.Ignore {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	b.WriteByte(';')
	return b.String()
}

// QuoteColumns joins column names as PostgreSQL identifiers.
func QuoteColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	if n := len(s); n >= 2 {
		switch {
		case s[0] == '`' && s[n-1] == '`':
			return strings.ReplaceAll(s[1:n-1], "``", "`")
		case s[0] == '"' && s[n-1] == '"':
			return strings.ReplaceAll(s[1:n-1], `""`, `"`)
		}
	}
	return s
}
