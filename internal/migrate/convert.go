// Package migrate ties the pieces together: it turns dumps, live MySQL
// tables and seed files into chunked PostgreSQL scripts and loads them
// through a Target, keeping track of applied chunks in a ledger.
package migrate

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Olivedu13/poke/pokemigrate/internal/dump"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/pgsql"
	"github.com/Olivedu13/poke/pokemigrate/internal/schema"
	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// Options controls Convert.
type Options struct {
	Schema *schema.Schema

	// Tables limits the conversion to these tables. Empty means all.
	Tables []string

	ChunkSize int
}

func (o Options) wants(table string) bool {
	return len(o.Tables) == 0 || slices.Contains(o.Tables, table)
}

// Result is the outcome of a conversion.
type Result struct {
	// Scripts are in import order.
	Scripts []*pgsql.Script

	// RowErrors holds the rows left out, per table.
	RowErrors map[string][]*transcode.RowError

	// Skipped lists dump tables the schema does not know.
	Skipped []string
}

// Rejected counts the rows left out across all tables.
func (r *Result) Rejected() int {
	n := 0
	for _, errs := range r.RowErrors {
		n += len(errs)
	}
	return n
}

func (r *Result) add(s *pgsql.Script, rowErrs []*transcode.RowError) {
	r.Scripts = append(r.Scripts, s)
	if len(rowErrs) > 0 {
		if r.RowErrors == nil {
			r.RowErrors = make(map[string][]*transcode.RowError)
		}
		r.RowErrors[s.Table] = append(r.RowErrors[s.Table], rowErrs...)
	}
}

// Convert reads a MySQL dump and builds one typed script per known table.
func Convert(r io.Reader, opts Options) (*Result, error) {
	inserts, err := dump.ReadInserts(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	return ConvertInserts(inserts, opts)
}

// ConvertInserts is Convert for inserts that are already parsed.
func ConvertInserts(inserts []*dump.Insert, opts Options) (*Result, error) {
	if opts.Schema == nil {
		opts.Schema = schema.Default()
	}

	res := &Result{}
	groups := dump.GroupByTable(inserts)
	for _, g := range groups {
		if !opts.wants(g.Table) {
			continue
		}
		table, err := opts.Schema.Table(g.Table)
		if errors.Is(err, schema.ErrUnknownTable) {
			logger.Warning("Skipping table missing from schema", "table", g.Table, "inserts", len(g.Inserts))
			res.Skipped = append(res.Skipped, g.Table)
			continue
		}
		if err != nil {
			return nil, err
		}

		script, rowErrs, err := convertTable(table, g.Inserts, opts.ChunkSize)
		if err != nil {
			return nil, err
		}
		res.add(script, rowErrs)
	}

	for _, want := range opts.Tables {
		if !slices.ContainsFunc(groups, func(g dump.TableInserts) bool { return g.Table == want }) {
			logger.Warning("Table not found in input", "table", want)
		}
	}

	SortScripts(opts.Schema, res.Scripts)
	return res, nil
}

// rowSet collects the encoded rows sharing one column list.
type rowSet struct {
	columns []string
	rows    []string
}

// convertTable encodes every insert of one table. Inserts with different
// column lists end up in separate chunks of the same script.
func convertTable(table *schema.Table, inserts []*dump.Insert, chunkSize int) (*pgsql.Script, []*transcode.RowError, error) {
	var (
		sets    []*rowSet
		rowErrs []*transcode.RowError
	)
	byColumns := make(map[string]*rowSet)

	for _, ins := range inserts {
		names := ins.Columns
		if len(names) == 0 {
			names = table.ColumnNames()
		}
		cols, err := table.Select(names)
		if err != nil {
			return nil, nil, lineError(ins.Line, err)
		}
		tuples, err := ins.Tuples()
		if err != nil {
			return nil, nil, lineError(ins.Line, err)
		}

		rows, err := transcode.EncodeRows(tuples, cols)
		if err != nil {
			bad := transcode.RowErrors(err)
			if len(bad) == 0 {
				return nil, nil, lineError(ins.Line, err)
			}
			for _, re := range bad {
				logger.Warning("Rejected row", "table", table.Name, "line", ins.Line, "error", re)
			}
			rowErrs = append(rowErrs, bad...)
		}

		key := strings.Join(names, ",")
		set, ok := byColumns[key]
		if !ok {
			set = &rowSet{columns: names}
			byColumns[key] = set
			sets = append(sets, set)
		}
		set.rows = append(set.rows, rows...)
	}

	script := &pgsql.Script{Table: table.Name}
	for _, set := range sets {
		part := pgsql.Build(table, set.columns, set.rows, chunkSize)
		for _, c := range part.Chunks {
			c.Index = len(script.Chunks) + 1
			script.Chunks = append(script.Chunks, c)
		}
	}
	logger.Debug("Converted table", "table", table.Name, "rows", script.Rows(), "chunks", len(script.Chunks), "rejected", len(rowErrs))
	return script, rowErrs, nil
}

func lineError(line int, err error) error {
	if line > 0 {
		return fmt.Errorf("line %d: %w", line, err)
	}
	return err
}

// SortScripts orders scripts for import: parents before children.
func SortScripts(s *schema.Schema, scripts []*pgsql.Script) {
	names := make([]string, len(scripts))
	for i, sc := range scripts {
		names[i] = sc.Table
	}
	order := s.Sort(names)
	rank := make(map[string]int, len(order))
	for i, n := range order {
		rank[n] = i
	}
	slices.SortStableFunc(scripts, func(a, b *pgsql.Script) int {
		return rank[a.Table] - rank[b.Table]
	})
}
