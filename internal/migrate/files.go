package migrate

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/Olivedu13/poke/pokemigrate/internal/dump"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/pgsql"
	"github.com/Olivedu13/poke/pokemigrate/internal/schema"
)

// ScriptFileName names the file of the n-th script (0-based) so that a
// directory listing follows import order.
func ScriptFileName(n int, table string) string {
	return fmt.Sprintf("%02d_%s.sql", n+1, table)
}

// WriteScripts writes each script to its own file in dir and returns the
// paths written.
func WriteScripts(dir string, scripts []*pgsql.Script) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	paths := make([]string, 0, len(scripts))
	for i, s := range scripts {
		path := filepath.Join(dir, ScriptFileName(i, s.Table))
		size, err := writeScript(path, s)
		if err != nil {
			return paths, err
		}
		logger.Info("Wrote script", "table", s.Table, "rows", s.Rows(), "chunks", len(s.Chunks),
			"file", path, "size", humanize.Bytes(uint64(size)))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeScript(path string, s *pgsql.Script) (n int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if n, err = s.WriteTo(w); err != nil {
		return n, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return n, w.Flush()
}

// TableReader reads a whole table from a live database. *mysqlsrc.Source
// implements it.
type TableReader interface {
	Table(ctx context.Context, table string) (*dump.Insert, error)
}

// Pull reads tables from src and converts them like dump inserts. Tables
// defaults to the schema's import order.
func Pull(ctx context.Context, src TableReader, opts Options) (*Result, error) {
	if opts.Schema == nil {
		opts.Schema = schema.Default()
	}
	tables := opts.Tables
	if len(tables) == 0 {
		tables = opts.Schema.ImportOrder()
	}

	inserts := make([]*dump.Insert, 0, len(tables))
	for _, t := range tables {
		ins, err := src.Table(ctx, t)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, ins)
	}
	return ConvertInserts(inserts, opts)
}
