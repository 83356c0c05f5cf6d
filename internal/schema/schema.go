// Package schema describes the PostgreSQL target tables: the type of every
// column, the conflict key used for idempotent inserts, the serial column
// whose sequence needs resetting, and the order tables must be loaded in.
package schema

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

// ErrUnknownTable is returned when a table is not part of the schema.
var ErrUnknownTable = errors.New("unknown table")

// Column is one target column as written in a schema file.
type Column struct {
	Name string `yaml:"name"`

	// Type is a kind name accepted by transcode.ParseKind.
	Type string `yaml:"type"`

	// Enum is the PostgreSQL enum type for type "enum".
	Enum string `yaml:"enum,omitempty"`

	// Format is an extra value check, only "bcrypt" for now.
	Format string `yaml:"format,omitempty"`
}

// Transcode converts the column for use with the transcoder.
func (c Column) Transcode() (transcode.Column, error) {
	kind, err := transcode.ParseKind(c.Type)
	if err != nil {
		return transcode.Column{}, fmt.Errorf("column %s: %w", c.Name, err)
	}
	t := transcode.Type{Kind: kind, Format: c.Format}
	if kind == transcode.KindEnum {
		if c.Enum == "" {
			return transcode.Column{}, fmt.Errorf("column %s: enum type name missing", c.Name)
		}
		t.Name = c.Enum
	}
	if c.Format != "" && c.Format != transcode.FormatBcrypt {
		return transcode.Column{}, fmt.Errorf("column %s: unknown format %q", c.Name, c.Format)
	}
	return transcode.Column{Name: c.Name, Type: t}, nil
}

// Table is one target table.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`

	// ConflictKey names the columns of the ON CONFLICT target.
	ConflictKey []string `yaml:"conflict_key"`

	// Serial is the column backed by a sequence, empty if none.
	Serial string `yaml:"serial,omitempty"`
}

// Sequence returns the name PostgreSQL gives the serial column's sequence.
func (t *Table) Sequence() string {
	if t.Serial == "" {
		return ""
	}
	return t.Name + "_" + t.Serial + "_seq"
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Select returns the transcoder columns for names, in the given order, as
// found in a dump's column list. An empty list selects every column.
func (t *Table) Select(names []string) ([]transcode.Column, error) {
	if len(names) == 0 {
		names = t.ColumnNames()
	}
	cols := make([]transcode.Column, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("table %s: column %s listed twice", t.Name, name)
		}
		seen[name] = true

		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("table %s: unknown column %s", t.Name, name)
		}
		tc, err := c.Transcode()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		cols = append(cols, tc)
	}
	return cols, nil
}

// Booleans returns the set of boolean column names.
func (t *Table) Booleans() map[string]bool {
	set := make(map[string]bool)
	for _, c := range t.Columns {
		if kind, err := transcode.ParseKind(c.Type); err == nil && kind == transcode.KindBoolean {
			set[c.Name] = true
		}
	}
	return set
}

func (t *Table) validate() error {
	if t.Name == "" {
		return errors.New("table without a name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	if _, err := t.Select(nil); err != nil {
		return err
	}
	for _, key := range t.ConflictKey {
		if _, ok := t.Column(key); !ok {
			return fmt.Errorf("table %s: conflict key %s is not a column", t.Name, key)
		}
	}
	if t.Serial != "" {
		if _, ok := t.Column(t.Serial); !ok {
			return fmt.Errorf("table %s: serial %s is not a column", t.Name, t.Serial)
		}
	}
	return nil
}

// Schema is the ordered set of target tables. Tables are listed in import
// order: a table only references tables listed before it.
type Schema struct {
	Tables []Table `yaml:"tables"`
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, error) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

// ImportOrder returns every table name in foreign-key order.
func (s *Schema) ImportOrder() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Sort orders names by import order. Names outside the schema go last,
// alphabetically.
func (s *Schema) Sort(names []string) []string {
	rank := make(map[string]int, len(s.Tables))
	for i, t := range s.Tables {
		rank[t.Name] = i
	}
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Validate checks every table definition.
func (s *Schema) Validate() error {
	seen := make(map[string]bool, len(s.Tables))
	for i := range s.Tables {
		t := &s.Tables[i]
		if seen[t.Name] {
			return fmt.Errorf("table %s defined twice", t.Name)
		}
		seen[t.Name] = true
		if err := t.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a schema file. Tables in the file replace built-in tables of
// the same name and new tables are appended. A missing file, or an empty
// path, yields the built-in schema.
func Load(path string) (*Schema, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var file Schema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	for _, t := range file.Tables {
		if existing, err := s.Table(t.Name); err == nil {
			*existing = t
			continue
		}
		s.Tables = append(s.Tables, t)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema file %s: %w", path, err)
	}
	return s, nil
}
