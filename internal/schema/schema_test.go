package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("built-in schema invalid: %v", err)
	}
}

func TestImportOrder(t *testing.T) {
	want := []string{
		"users", "items", "user_pokemon", "inventory", "question_bank",
		"online_players", "pvp_challenges", "pvp_matches", "pvp_turns",
	}
	if diff := cmp.Diff(want, Default().ImportOrder()); diff != "" {
		t.Errorf("ImportOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestSort(t *testing.T) {
	got := Default().Sort([]string{"pvp_turns", "zeta", "users", "alpha", "inventory"})
	want := []string{"users", "inventory", "pvp_turns", "alpha", "zeta"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sort mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_Select(t *testing.T) {
	tbl, err := Default().Table("question_bank")
	if err != nil {
		t.Fatalf("Table error: %v", err)
	}

	cols, err := tbl.Select([]string{"options_json", "id", "grade_level"})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	want := []transcode.Column{
		{Name: "options_json", Type: transcode.JSON},
		{Name: "id", Type: transcode.Integer},
		{Name: "grade_level", Type: transcode.Enum("grade_level_type")},
	}
	if diff := cmp.Diff(want, cols); diff != "" {
		t.Errorf("Select mismatch (-want +got):\n%s", diff)
	}

	all, err := tbl.Select(nil)
	if err != nil {
		t.Fatalf("Select(nil) error: %v", err)
	}
	if len(all) != len(tbl.Columns) {
		t.Errorf("Select(nil) = %d columns, want %d", len(all), len(tbl.Columns))
	}

	if _, err := tbl.Select([]string{"id", "nope"}); err == nil {
		t.Error("Select with unknown column should fail")
	}
	if _, err := tbl.Select([]string{"id", "id"}); err == nil {
		t.Error("Select with duplicate column should fail")
	}
}

func TestTable_Types(t *testing.T) {
	s := Default()
	tests := []struct {
		table, column string
		want          transcode.Type
	}{
		{"users", "password_hash", transcode.Bcrypt},
		{"users", "custom_prompt_active", transcode.Boolean},
		{"users", "focus_categories", transcode.JSON},
		{"items", "rarity", transcode.Enum("rarity_type")},
		{"online_players", "status", transcode.Enum("online_status_type")},
		{"pvp_turns", "is_correct", transcode.Boolean},
	}
	for _, tt := range tests {
		tbl, err := s.Table(tt.table)
		if err != nil {
			t.Fatalf("Table(%s) error: %v", tt.table, err)
		}
		cols, err := tbl.Select([]string{tt.column})
		if err != nil {
			t.Fatalf("Select(%s.%s) error: %v", tt.table, tt.column, err)
		}
		if cols[0].Type != tt.want {
			t.Errorf("%s.%s type = %v, want %v", tt.table, tt.column, cols[0].Type, tt.want)
		}
	}
}

func TestTable_SequenceAndBooleans(t *testing.T) {
	s := Default()
	users, _ := s.Table("users")
	if got := users.Sequence(); got != "users_id_seq" {
		t.Errorf("users.Sequence() = %q, want users_id_seq", got)
	}
	inv, _ := s.Table("inventory")
	if got := inv.Sequence(); got != "" {
		t.Errorf("inventory.Sequence() = %q, want empty", got)
	}

	matches, _ := s.Table("pvp_matches")
	if diff := cmp.Diff(map[string]bool{"waiting_for_answer": true}, matches.Booleans()); diff != "" {
		t.Errorf("pvp_matches booleans mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_Unknown(t *testing.T) {
	if _, err := Default().Table("accounts"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Table(accounts) error = %v, want ErrUnknownTable", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(s.Tables) != len(Default().Tables) {
		t.Errorf("Load of missing file = %d tables, want built-ins", len(s.Tables))
	}
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `tables:
  - name: items
    columns:
      - {name: id, type: text}
      - {name: price, type: numeric}
    conflict_key: [id]
  - name: badges
    columns:
      - {name: id, type: integer}
      - {name: tier, type: enum, enum: badge_tier}
    conflict_key: [id]
    serial: id
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	items, err := s.Table("items")
	if err != nil {
		t.Fatalf("Table(items) error: %v", err)
	}
	if len(items.Columns) != 2 {
		t.Errorf("items has %d columns, want the 2 from the file", len(items.Columns))
	}
	order := s.ImportOrder()
	if order[1] != "items" || order[len(order)-1] != "badges" {
		t.Errorf("ImportOrder = %v, want items kept in place and badges last", order)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad kind":          "tables:\n  - name: t\n    columns:\n      - {name: a, type: geometry}\n",
		"enum without name": "tables:\n  - name: t\n    columns:\n      - {name: a, type: enum}\n",
		"bad conflict key":  "tables:\n  - name: t\n    columns:\n      - {name: a, type: integer}\n    conflict_key: [b]\n",
		"bad yaml":          "tables: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "schema.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile error: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load should fail")
			}
		})
	}
}
