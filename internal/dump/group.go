package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// ReadInserts scans a whole dump and returns its INSERT statements in order.
// Every other statement (DDL, LOCK TABLES, SET ...) is skipped.
func ReadInserts(r io.Reader) ([]*Insert, error) {
	var inserts []*Insert
	sc := NewScanner(r)
	for sc.Scan() {
		ins, err := ParseInsert(sc.Statement())
		if errors.Is(err, ErrNotInsert) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", sc.Line(), err)
		}
		ins.Line = sc.Line()
		inserts = append(inserts, ins)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return inserts, nil
}

// TableInserts holds every INSERT found for one table.
type TableInserts struct {
	Table   string
	Inserts []*Insert
}

// Rows counts the tuples across all inserts of the table.
func (g TableInserts) Rows() (int, error) {
	n := 0
	for _, ins := range g.Inserts {
		tuples, err := ins.Tuples()
		if err != nil {
			return 0, err
		}
		n += len(tuples)
	}
	return n, nil
}

// GroupByTable groups inserts by table, in order of first appearance.
func GroupByTable(inserts []*Insert) []TableInserts {
	index := make(map[string]int)
	var groups []TableInserts
	for _, ins := range inserts {
		i, ok := index[ins.Table]
		if !ok {
			i = len(groups)
			index[ins.Table] = i
			groups = append(groups, TableInserts{Table: ins.Table})
		}
		groups[i].Inserts = append(groups[i].Inserts, ins)
	}
	return groups
}

// RenderFunc turns one insert into the statement written to a table file.
type RenderFunc func(*Insert) (string, error)

// TableFileName is the file WriteTableFiles uses for table.
func TableFileName(table string) string {
	return "inserts_" + table + ".sql"
}

// WriteTableFiles writes one inserts_<table>.sql per group into dir and
// returns the paths written. A nil render uses (*Insert).Statement.
func WriteTableFiles(dir string, groups []TableInserts, render RenderFunc) ([]string, error) {
	if render == nil {
		render = (*Insert).Statement
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(groups))
	for _, g := range groups {
		path := filepath.Join(dir, TableFileName(g.Table))
		if err := writeTableFile(path, g, render); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTableFile(path string, g TableInserts, render RenderFunc) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	for _, ins := range g.Inserts {
		stmt, err := render(ins)
		if err != nil {
			return fmt.Errorf("line %d: %w", ins.Line, err)
		}
		if _, err := w.WriteString(stmt + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// FixBooleans rewrites the values of the named boolean columns from MySQL's
// 0/1 to TRUE/FALSE. It needs an explicit column list. Rows that cannot be
// rewritten are reported as *transcode.RowError and left unchanged.
func FixBooleans(ins *Insert, booleans map[string]bool) error {
	positions := make(map[int]bool)
	for i, col := range ins.Columns {
		if booleans[col] {
			positions[i] = true
		}
	}
	if len(positions) == 0 {
		return nil
	}

	tuples, err := ins.Tuples()
	if err != nil {
		return err
	}

	var result *multierror.Error
	rows := make([]string, len(tuples))
	for i, raw := range tuples {
		rows[i] = "(" + raw + ")"

		fields, err := transcode.ParseTuple(raw)
		if err != nil {
			result = multierror.Append(result, &transcode.RowError{Row: raw, Err: err})
			continue
		}
		if len(fields) != len(ins.Columns) {
			result = multierror.Append(result, &transcode.RowError{
				Row: raw, Want: len(ins.Columns), Got: len(fields), Err: transcode.ErrFieldCount,
			})
			continue
		}

		ok := true
		for pos := range positions {
			lit, err := transcode.ReencodeField(fields[pos], transcode.Boolean)
			if err != nil {
				result = multierror.Append(result, &transcode.RowError{Row: raw, Column: ins.Columns[pos], Err: err})
				ok = false
				break
			}
			fields[pos] = lit
		}
		if ok {
			rows[i] = "(" + strings.Join(fields, ",") + ")"
		}
	}

	ins.Values = strings.Join(rows, ",")
	return result.ErrorOrNil()
}
