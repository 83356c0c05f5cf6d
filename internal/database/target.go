package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/pgsql"
)

// Target loads scripts straight into PostgreSQL over lib/pq.
type Target struct {
	db *sql.DB
}

// OpenTarget connects to the PostgreSQL database the data is loaded into.
func OpenTarget(cfg PostgresConfig) (*Target, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	applyPool(db, cfg)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg, err)
	}
	logger.Info("Connected to PostgreSQL", "target", cfg.String())
	return &Target{db: db}, nil
}

// Close closes the connection pool.
func (t *Target) Close() error {
	return t.db.Close()
}

// Exec runs a script holding its own BEGIN/COMMIT on a dedicated
// connection. After a failure the transaction is rolled back before the
// connection goes back to the pool.
func (t *Target) Exec(ctx context.Context, name, script string) error {
	conn, err := t.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, script); err != nil {
		if _, rbErr := conn.ExecContext(context.Background(), "ROLLBACK"); rbErr != nil {
			logger.Debug("Rollback after failed script", "name", name, "error", rbErr)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Count returns the number of rows in table.
func (t *Target) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := t.db.QueryRowContext(ctx, pgsql.CountQuery(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Status reports rows and size for each table.
func (t *Target) Status(ctx context.Context, tables []string) ([]pgsql.TableStatus, error) {
	out := make([]pgsql.TableStatus, 0, len(tables))
	for _, table := range tables {
		st := pgsql.TableStatus{Table: table}
		err := t.db.QueryRowContext(ctx, pgsql.StatusQuery(table)).Scan(&st.Rows, &st.Size)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			st.Err = err
		}
		out = append(out, st)
	}
	return out, nil
}
