package migrate

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/Olivedu13/poke/pokemigrate/internal/dump"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/schema"
	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// ExtractOptions controls Extract.
type ExtractOptions struct {
	// Schema, when set, turns 0/1 in its boolean columns into FALSE/TRUE.
	Schema *schema.Schema

	// KeepLiterals copies string literals as written in the dump and only
	// converts identifiers.
	KeepLiterals bool

	// Tables limits the extraction to these tables. Empty means all.
	Tables []string
}

// TableSummary describes one extracted table.
type TableSummary struct {
	Table   string
	File    string
	Inserts int
	Rows    int
}

// Extract splits a dump into one PostgreSQL file per table, converting
// statements without a schema. Row problems found while fixing booleans
// are logged and returned; the rows are written unchanged.
func Extract(r io.Reader, dir string, opts ExtractOptions) ([]TableSummary, []*transcode.RowError, error) {
	inserts, err := dump.ReadInserts(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dump: %w", err)
	}

	var groups []dump.TableInserts
	for _, g := range dump.GroupByTable(inserts) {
		if (Options{Tables: opts.Tables}).wants(g.Table) {
			groups = append(groups, g)
		}
	}

	var rowErrs []*transcode.RowError
	if opts.Schema != nil {
		for _, g := range groups {
			table, err := opts.Schema.Table(g.Table)
			if errors.Is(err, schema.ErrUnknownTable) {
				continue
			}
			booleans := table.Booleans()
			for _, ins := range g.Inserts {
				if err := dump.FixBooleans(ins, booleans); err != nil {
					bad := transcode.RowErrors(err)
					if len(bad) == 0 {
						return nil, nil, lineError(ins.Line, err)
					}
					for _, re := range bad {
						logger.Warning("Boolean left as is", "table", g.Table, "line", ins.Line, "error", re)
					}
					rowErrs = append(rowErrs, bad...)
				}
			}
		}
	}

	render := (*dump.Insert).Statement
	if opts.KeepLiterals {
		render = (*dump.Insert).IdentifierStatement
	}
	files, err := dump.WriteTableFiles(dir, groups, render)
	if err != nil {
		return nil, rowErrs, err
	}

	summaries := make([]TableSummary, len(groups))
	var result *multierror.Error
	for i, g := range groups {
		rows, err := g.Rows()
		if err != nil {
			result = multierror.Append(result, err)
		}
		summaries[i] = TableSummary{Table: g.Table, File: files[i], Inserts: len(g.Inserts), Rows: rows}
		logger.Info("Extracted table", "table", g.Table, "inserts", len(g.Inserts), "rows", rows, "file", files[i])
	}
	return summaries, rowErrs, result.ErrorOrNil()
}
