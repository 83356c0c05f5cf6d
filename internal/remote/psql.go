package remote

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/pgsql"
)

// ExecError reports a psql run that failed: a non-zero exit status or an
// ERROR line on stderr.
type ExecError struct {
	Name   string
	Result *Result
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if msg == "" {
		msg = "no error output"
	}
	return fmt.Sprintf("psql %s failed (exit %d): %s", e.Name, e.Result.ExitStatus, msg)
}

// Failed reports whether a psql result signals an error. psql keeps a zero
// exit status for statement errors unless ON_ERROR_STOP is set, so stderr
// is checked as well.
func Failed(res *Result) bool {
	return res.ExitStatus != 0 || strings.Contains(res.Stderr, "ERROR")
}

// Psql runs SQL through psql on the remote host as the database OS user.
type Psql struct {
	Runner   Runner
	Database string

	// OSUser is the account psql runs as through sudo, "postgres" if empty.
	OSUser string

	// RemoteDir holds uploaded scripts, "/tmp" if empty.
	RemoteDir string
}

func (p *Psql) command(args ...string) string {
	user := p.OSUser
	if user == "" {
		user = "postgres"
	}
	parts := []string{"sudo", "-u", shellQuote(user), "psql", "-X", "-v", "ON_ERROR_STOP=1", "-d", shellQuote(p.Database)}
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// Exec uploads sql to a unique temporary file, runs it with psql and
// removes the file.
func (p *Psql) Exec(ctx context.Context, name, sql string) error {
	dir := p.RemoteDir
	if dir == "" {
		dir = "/tmp"
	}
	file := path.Join(dir, "pokemigrate-"+uuid.NewString()+".sql")

	logger.Debug("Uploading script", "name", name, "path", file, "size", humanize.Bytes(uint64(len(sql))))
	if err := p.Runner.Upload(file, []byte(sql)); err != nil {
		return err
	}
	defer func() {
		if err := p.Runner.Remove(file); err != nil {
			logger.Warning("Failed to remove remote script", "path", file, "error", err)
		}
	}()

	res, err := p.Runner.Run(ctx, p.command("-f", file))
	if err != nil {
		return fmt.Errorf("psql %s: %w", name, err)
	}
	if Failed(res) {
		return &ExecError{Name: name, Result: res}
	}
	logger.Debug("Script applied", "name", name, "output", strings.TrimSpace(res.Stdout))
	return nil
}

// Query runs one statement and returns psql's unaligned, tuples-only output.
func (p *Psql) Query(ctx context.Context, query string) (string, error) {
	res, err := p.Runner.Run(ctx, p.command("-A", "-t", "-F", "|", "-c", query))
	if err != nil {
		return "", err
	}
	if Failed(res) {
		return "", &ExecError{Name: "query", Result: res}
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Count returns the number of rows in table.
func (p *Psql) Count(ctx context.Context, table string) (int64, error) {
	out, err := p.Query(ctx, pgsql.CountQuery(table))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected count output %q for %s", out, table)
	}
	return n, nil
}

// Status reports rows and size for each table. A table that cannot be
// inspected gets its error in TableStatus.Err.
func (p *Psql) Status(ctx context.Context, tables []string) ([]pgsql.TableStatus, error) {
	out := make([]pgsql.TableStatus, 0, len(tables))
	for _, table := range tables {
		st := pgsql.TableStatus{Table: table}
		line, err := p.Query(ctx, pgsql.StatusQuery(table))
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			st.Err = err
			out = append(out, st)
			continue
		}
		count, size, ok := strings.Cut(line, "|")
		if !ok {
			st.Err = fmt.Errorf("unexpected status output %q", line)
		} else if st.Rows, err = strconv.ParseInt(count, 10, 64); err != nil {
			st.Err = fmt.Errorf("unexpected row count %q", count)
		}
		st.Size = size
		out = append(out, st)
	}
	return out, nil
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
