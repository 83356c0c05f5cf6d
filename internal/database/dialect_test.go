package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

// =============================================================================
// Dialect Tests
// =============================================================================

func TestNewDialect_SQLite(t *testing.T) {
	dialect := NewDialect(DialectSQLite)
	if _, ok := dialect.(*SQLiteDialect); !ok {
		t.Errorf("Expected *SQLiteDialect, got %T", dialect)
	}
}

func TestNewDialect_Postgres(t *testing.T) {
	dialect := NewDialect(DialectPostgres)
	if _, ok := dialect.(*PostgresDialect); !ok {
		t.Errorf("Expected *PostgresDialect, got %T", dialect)
	}
}

func TestNewDialect_Default(t *testing.T) {
	// Unknown dialect should default to SQLite
	dialect := NewDialect("unknown")
	if _, ok := dialect.(*SQLiteDialect); !ok {
		t.Errorf("Expected default *SQLiteDialect, got %T", dialect)
	}
}

// =============================================================================
// SQLite Dialect Tests
// =============================================================================

func TestSQLiteDialect_DriverName(t *testing.T) {
	d := &SQLiteDialect{}
	if got := d.DriverName(); got != "sqlite" {
		t.Errorf("DriverName() = %q, want %q", got, "sqlite")
	}
}

func TestSQLiteDialect_Placeholder(t *testing.T) {
	d := &SQLiteDialect{}
	for _, position := range []int{1, 2, 10, 100} {
		if got := d.Placeholder(position); got != "?" {
			t.Errorf("Placeholder(%d) = %q, want %q", position, got, "?")
		}
	}
}

func TestSQLiteDialect_AutoIncrementKey(t *testing.T) {
	d := &SQLiteDialect{}
	if got := d.AutoIncrementKey(); got != "INTEGER PRIMARY KEY AUTOINCREMENT" {
		t.Errorf("AutoIncrementKey() = %q", got)
	}
}

func TestSQLiteDialect_InitStatements(t *testing.T) {
	d := &SQLiteDialect{}
	stmts := d.InitStatements()

	expected := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}

	if len(stmts) != len(expected) {
		t.Fatalf("InitStatements() returned %d statements, want %d", len(stmts), len(expected))
	}
	for i, want := range expected {
		if stmts[i] != want {
			t.Errorf("InitStatements()[%d] = %q, want %q", i, stmts[i], want)
		}
	}
}

func TestSQLiteDialect_IsDuplicateKeyError(t *testing.T) {
	d := &SQLiteDialect{}
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("some random error"), false},
		{errors.New("UNIQUE constraint failed: import_ledger.checksum"), true},
		{errors.New("foreign key constraint failed"), false},
	}
	for _, tt := range tests {
		if got := d.IsDuplicateKeyError(tt.err); got != tt.want {
			t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

// =============================================================================
// PostgreSQL Dialect Tests
// =============================================================================

func TestPostgresDialect_DriverName(t *testing.T) {
	d := &PostgresDialect{}
	if got := d.DriverName(); got != "postgres" {
		t.Errorf("DriverName() = %q, want %q", got, "postgres")
	}
}

func TestPostgresDialect_Placeholder(t *testing.T) {
	d := &PostgresDialect{}
	tests := []struct {
		position int
		want     string
	}{
		{1, "$1"},
		{2, "$2"},
		{10, "$10"},
		{100, "$100"},
	}
	for _, tt := range tests {
		if got := d.Placeholder(tt.position); got != tt.want {
			t.Errorf("Placeholder(%d) = %q, want %q", tt.position, got, tt.want)
		}
	}
}

func TestPostgresDialect_AutoIncrementKey(t *testing.T) {
	d := &PostgresDialect{}
	if got := d.AutoIncrementKey(); got != "BIGSERIAL PRIMARY KEY" {
		t.Errorf("AutoIncrementKey() = %q", got)
	}
}

func TestPostgresDialect_InitStatements(t *testing.T) {
	d := &PostgresDialect{}
	if stmts := d.InitStatements(); len(stmts) != 0 {
		t.Errorf("InitStatements() = %q, want none", stmts)
	}
}

func TestPostgresDialect_IsDuplicateKeyError(t *testing.T) {
	d := &PostgresDialect{}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"random", errors.New("some random error"), false},
		{"message", errors.New("duplicate key value violates unique constraint"), true},
		{"sqlstate text", errors.New("ERROR: duplicate key value (SQLSTATE 23505)"), true},
		{"pq unique", &pq.Error{Code: "23505", Message: "duplicate key value"}, true},
		{"pq wrapped", fmt.Errorf("users#001: %w", &pq.Error{Code: "23505"}), true},
		{"pq foreign key", &pq.Error{Code: "23503", Message: "violates foreign key constraint"}, false},
		{"foreign key", errors.New("foreign key constraint"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// QueryBuilder Tests
// =============================================================================

func TestNewQueryBuilder(t *testing.T) {
	dialect := &SQLiteDialect{}
	qb := NewQueryBuilder(dialect)
	if qb == nil {
		t.Fatal("NewQueryBuilder() returned nil")
	}
	if qb.dialect != dialect {
		t.Error("QueryBuilder dialect not set correctly")
	}
}

func TestQueryBuilder_Build_SQLite(t *testing.T) {
	qb := NewQueryBuilder(&SQLiteDialect{})
	tests := []string{
		"SELECT * FROM import_ledger",
		"SELECT * FROM import_ledger WHERE checksum = ?",
		"DELETE FROM import_ledger WHERE table_name = ? AND chunk = ?",
	}
	for _, input := range tests {
		if got := qb.Build(input); got != input {
			t.Errorf("Build(%q) = %q, want unchanged", input, got)
		}
	}
}

func TestQueryBuilder_Build_Postgres(t *testing.T) {
	qb := NewQueryBuilder(&PostgresDialect{})
	tests := []struct {
		input string
		want  string
	}{
		{"SELECT * FROM import_ledger", "SELECT * FROM import_ledger"},
		{"SELECT * FROM import_ledger WHERE checksum = ?", "SELECT * FROM import_ledger WHERE checksum = $1"},
		{
			"INSERT INTO import_ledger (table_name, chunk) VALUES (?, ?)",
			"INSERT INTO import_ledger (table_name, chunk) VALUES ($1, $2)",
		},
		{
			"SELECT * FROM t WHERE a = ? AND b = ? AND c = ? AND d = ? AND e = ?",
			"SELECT * FROM t WHERE a = $1 AND b = $2 AND c = $3 AND d = $4 AND e = $5",
		},
	}
	for _, tt := range tests {
		if got := qb.Build(tt.input); got != tt.want {
			t.Errorf("Build(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	path := "/path/to/ledger.db"
	cfg := DefaultConfig(path)

	if cfg.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", cfg.Driver, "sqlite")
	}
	if cfg.SQLitePath != path {
		t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, path)
	}
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want %q", cfg.Host, "localhost")
	}
	if cfg.Port != 5432 {
		t.Errorf("Port = %d, want %d", cfg.Port, 5432)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want %q", cfg.SSLMode, "disable")
	}
	if cfg.MaxOpenConns != 4 {
		t.Errorf("MaxOpenConns = %d, want %d", cfg.MaxOpenConns, 4)
	}
	if cfg.MaxIdleConns != 2 {
		t.Errorf("MaxIdleConns = %d, want %d", cfg.MaxIdleConns, 2)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want %v", cfg.ConnMaxLifetime, 5*time.Minute)
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			name: "plain",
			cfg:  PostgresConfig{Host: "localhost", Port: 5432, User: "poke", Database: "poke", SSLMode: "disable"},
			want: "host=localhost port=5432 dbname=poke sslmode=disable user=poke",
		},
		{
			name: "quoted password",
			cfg:  PostgresConfig{Host: "db", Port: 5433, User: "poke", Password: `it's a \secret`, Database: "poke", SSLMode: "require"},
			want: `host=db port=5433 dbname=poke sslmode=require user=poke password='it\'s a \\secret'`,
		},
		{
			name: "empty database",
			cfg:  PostgresConfig{Host: "db", Port: 5432, SSLMode: "disable"},
			want: "host=db port=5432 dbname='' sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostgresConfig_StringHidesPassword(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "poke", Password: "hunter2", Database: "poke"}
	got := cfg.String()
	if strings.Contains(got, "hunter2") {
		t.Errorf("String() leaks the password: %q", got)
	}
	if got != "poke@db:5432/poke" {
		t.Errorf("String() = %q", got)
	}
}

// =============================================================================
// Dialect Interface Compliance Tests
// =============================================================================

func TestDialect_InterfaceCompliance(t *testing.T) {
	var _ Dialect = (*SQLiteDialect)(nil)
	var _ Dialect = (*PostgresDialect)(nil)
}

// =============================================================================
// Edge Case Tests
// =============================================================================

func TestQueryBuilder_Build_EmptyQuery(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
	}{
		{"SQLite", &SQLiteDialect{}},
		{"Postgres", &PostgresDialect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb := NewQueryBuilder(tt.dialect)
			if got := qb.Build(""); got != "" {
				t.Errorf("Build(\"\") = %q, want empty string", got)
			}
		})
	}
}

func TestQueryBuilder_Build_ManyPlaceholders(t *testing.T) {
	qb := NewQueryBuilder(&PostgresDialect{})
	// 15 placeholders - tests double-digit position numbers
	input := "INSERT INTO t VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	want := "INSERT INTO t VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)"
	if got := qb.Build(input); got != want {
		t.Errorf("Build with 15 placeholders failed:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestQueryBuilder_Build_QuestionMarkInString(t *testing.T) {
	qb := NewQueryBuilder(&PostgresDialect{})
	input := "SELECT * FROM import_ledger WHERE detail = 'why?' AND status = ?"
	want := "SELECT * FROM import_ledger WHERE detail = 'why?' AND status = $1"
	if got := qb.Build(input); got != want {
		t.Errorf("Build(%q) = %q, want %q", input, got, want)
	}
}
