package database

import (
	"context"
	"fmt"
	"time"
)

// ImportStatus is the outcome of one chunk.
type ImportStatus string

const (
	StatusApplied ImportStatus = "applied"
	StatusFailed  ImportStatus = "failed"
)

// ImportRecord is one ledger row.
type ImportRecord struct {
	ID         int64
	Table      string
	Chunk      int
	Checksum   string
	Rows       int
	Status     ImportStatus
	Detail     string
	RecordedAt time.Time
}

// RecordImport appends rec to the ledger. Recording an already applied
// checksum as applied again is not an error.
func (d *Database) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx, d.qb.Build(`
		INSERT INTO import_ledger (table_name, chunk, checksum, row_count, status, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), rec.Table, rec.Chunk, rec.Checksum, rec.Rows, string(rec.Status), rec.Detail, rec.RecordedAt)
	if err != nil {
		if rec.Status == StatusApplied && d.dialect.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to record import of %s chunk %d: %w", rec.Table, rec.Chunk, err)
	}
	return nil
}

// Applied reports whether a chunk with this checksum was loaded before.
func (d *Database) Applied(ctx context.Context, checksum string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, d.qb.Build(`
		SELECT COUNT(*) FROM import_ledger WHERE checksum = ? AND status = 'applied'
	`), checksum).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return n > 0, nil
}

// Imports lists the ledger, oldest first. An empty table lists every table.
func (d *Database) Imports(ctx context.Context, table string) ([]ImportRecord, error) {
	query := `SELECT id, table_name, chunk, checksum, row_count, status, detail, recorded_at FROM import_ledger`
	var args []any
	if table != "" {
		query += ` WHERE table_name = ?`
		args = append(args, table)
	}
	query += ` ORDER BY id`

	rows, err := d.db.QueryContext(ctx, d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var (
			rec    ImportRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.Table, &rec.Chunk, &rec.Checksum, &rec.Rows, &status, &rec.Detail, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		rec.Status = ImportStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Forget removes the ledger rows of table so its chunks are loaded again.
func (d *Database) Forget(ctx context.Context, table string) (int64, error) {
	res, err := d.db.ExecContext(ctx, d.qb.Build(`DELETE FROM import_ledger WHERE table_name = ?`), table)
	if err != nil {
		return 0, fmt.Errorf("failed to clear ledger for %s: %w", table, err)
	}
	return res.RowsAffected()
}
