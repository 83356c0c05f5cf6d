package migrate

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/Olivedu13/poke/pokemigrate/internal/database"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/pgsql"
)

// Target runs scripts against PostgreSQL. Both remote.Psql and
// database.Target implement it.
type Target interface {
	Exec(ctx context.Context, name, sql string) error
	Count(ctx context.Context, table string) (int64, error)
	Status(ctx context.Context, tables []string) ([]pgsql.TableStatus, error)
}

// Ledger remembers which chunks were loaded. *database.Database implements it.
type Ledger interface {
	Applied(ctx context.Context, checksum string) (bool, error)
	RecordImport(ctx context.Context, rec database.ImportRecord) error
}

// TableReport is the import outcome of one table.
type TableReport struct {
	Table string

	Chunks  int
	Applied int
	Skipped int
	Failed  int

	// Rows is the number of rows in the script.
	Rows int

	// Count is the table's row count after the import, -1 if unknown.
	Count int64
}

// Missing is how many script rows are not in the table, 0 when the count
// is unknown or at least Rows.
func (t TableReport) Missing() int64 {
	if t.Count < 0 || t.Count >= int64(t.Rows) {
		return 0
	}
	return int64(t.Rows) - t.Count
}

// Import loads scripts in the order given. Chunks the ledger already holds
// are skipped. A failed chunk is recorded and the import moves on; all
// failures are returned together once every script has been tried. The
// report is returned even when err is non-nil.
func Import(ctx context.Context, target Target, ledger Ledger, scripts []*pgsql.Script) ([]TableReport, error) {
	var (
		reports []TableReport
		result  *multierror.Error
	)
	for _, s := range scripts {
		rep := TableReport{Table: s.Table, Chunks: len(s.Chunks), Rows: s.Rows(), Count: -1}

		for _, c := range s.Chunks {
			if err := ctx.Err(); err != nil {
				reports = append(reports, rep)
				return reports, multierror.Append(result, err).ErrorOrNil()
			}

			sum := c.Checksum()
			if ledger != nil {
				done, err := ledger.Applied(ctx, sum)
				if err != nil {
					return reports, err
				}
				if done {
					rep.Skipped++
					logger.Debug("Chunk already applied", "chunk", c.Name())
					continue
				}
			}

			rec := database.ImportRecord{Table: c.Table, Chunk: c.Index, Checksum: sum, Rows: len(c.Rows), Status: database.StatusApplied}
			if err := target.Exec(ctx, c.Name(), c.SQL()); err != nil {
				rep.Failed++
				rec.Status = database.StatusFailed
				rec.Detail = err.Error()
				result = multierror.Append(result, fmt.Errorf("chunk %s: %w", c.Name(), err))
				logger.Error("Chunk failed", "chunk", c.Name(), "rows", len(c.Rows), "error", err)
			} else {
				rep.Applied++
				logger.Info("Chunk applied", "chunk", c.Name(), "rows", len(c.Rows))
			}

			if ledger != nil {
				if err := ledger.RecordImport(ctx, rec); err != nil {
					return append(reports, rep), err
				}
			}
		}

		n, err := target.Count(ctx, s.Table)
		if err != nil {
			logger.Warning("Could not count rows", "table", s.Table, "error", err)
		} else {
			rep.Count = n
			if missing := rep.Missing(); missing > 0 {
				logger.Warning("Row count below script", "table", s.Table, "expected", rep.Rows, "actual", n, "missing", missing)
			}
		}
		reports = append(reports, rep)
	}
	return reports, result.ErrorOrNil()
}

// Status reports row counts and sizes of tables in the given order.
func Status(ctx context.Context, target Target, tables []string) ([]pgsql.TableStatus, error) {
	statuses, err := target.Status(ctx, tables)
	if err != nil {
		return statuses, fmt.Errorf("failed to read table status: %w", err)
	}
	for _, st := range statuses {
		if st.Err != nil {
			logger.Warning("Table status unavailable", "table", st.Table, "error", st.Err)
		}
	}
	return statuses, nil
}
