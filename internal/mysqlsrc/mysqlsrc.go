// Package mysqlsrc reads tables straight from the live MySQL database and
// hands them over as dump inserts, so they go through the same transcoder
// as a dump file.
package mysqlsrc

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/Olivedu13/poke/pokemigrate/internal/dump"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// Config locates the source database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

// DSN returns the go-sql-driver connection string.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Database
	mc.Timeout = c.Timeout
	// Dates stay text; the transcoder casts them on the PostgreSQL side.
	mc.ParseTime = false
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// String describes the source without the password, for logs.
func (c Config) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// Source is an open MySQL connection.
type Source struct {
	db *sql.DB
}

// Open connects to MySQL.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg, err)
	}
	logger.Info("Connected to MySQL", "source", cfg.String())
	return &Source{db: db}, nil
}

// Close closes the connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// Table reads every row of table and returns them as one insert whose
// column list is the table's own. An empty table yields empty Values.
func (s *Source) Table(ctx context.Context, table string) (*dump.Insert, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	ins := &dump.Insert{Table: table}
	bare := make([]bool, len(types))
	for i, ct := range types {
		ins.Columns = append(ins.Columns, ct.Name())
		bare[i] = isNumeric(ct.DatabaseTypeName())
	}

	var (
		b    strings.Builder
		n    int
		raw  = make([]sql.RawBytes, len(types))
		dest = make([]any, len(types))
		vals = make([]transcode.Value, len(types))
	)
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row %d: %w", table, n+1, err)
		}
		for i, r := range raw {
			vals[i] = value(r, bare[i])
		}
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		b.WriteString(transcode.FormatTuple(vals))
		b.WriteByte(')')
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	ins.Values = b.String()
	logger.Debug("Read MySQL table", "table", table, "rows", n)
	return ins, nil
}

// Tables lists the base tables of the current database.
func (s *Source) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func value(raw sql.RawBytes, bare bool) transcode.Value {
	switch {
	case raw == nil:
		return transcode.Null()
	case bare:
		return transcode.Bare(string(raw))
	default:
		return transcode.String(string(raw))
	}
}

func isNumeric(typeName string) bool {
	switch strings.ToUpper(typeName) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT",
		"DECIMAL", "FLOAT", "DOUBLE", "YEAR":
		return true
	}
	return false
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
