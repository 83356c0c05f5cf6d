package dump

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseInsert(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want *Insert
	}{
		{
			name: "mysqldump style",
			stmt: "INSERT INTO `items` (`id`, `name`) VALUES\n('heal_r1', 'Potion'),\n('heal_r2', 'Super')",
			want: &Insert{
				Table:   "items",
				Columns: []string{"id", "name"},
				Values:  "('heal_r1', 'Potion'),\n('heal_r2', 'Super')",
			},
		},
		{
			name: "no column list",
			stmt: "insert into users values (1,'ash')",
			want: &Insert{Table: "users", Values: "(1,'ash')"},
		},
		{
			name: "ignore and schema",
			stmt: "INSERT IGNORE INTO `poke`.`inventory` (`user_id`,`item_id`,`quantity`) VALUES (1,'heal_r1',3);",
			want: &Insert{
				Table:   "inventory",
				Columns: []string{"user_id", "item_id", "quantity"},
				Values:  "(1,'heal_r1',3)",
				Ignore:  true,
			},
		},
		{
			name: "double quoted table",
			stmt: `INSERT INTO "pvp_turns" ("id") VALUE (7)`,
			want: &Insert{Table: "pvp_turns", Columns: []string{"id"}, Values: "(7)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInsert(tt.stmt)
			if err != nil {
				t.Fatalf("ParseInsert error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseInsert mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInsert_NotInsert(t *testing.T) {
	for _, stmt := range []string{
		"CREATE TABLE `users` (`id` int)",
		"LOCK TABLES `users` WRITE",
		"SELECT 'INSERT INTO x VALUES (1)'",
	} {
		if _, err := ParseInsert(stmt); !errors.Is(err, ErrNotInsert) {
			t.Errorf("ParseInsert(%q) error = %v, want ErrNotInsert", stmt, err)
		}
	}
}

func TestInsert_Statement(t *testing.T) {
	ins, err := ParseInsert("INSERT INTO `question_bank` (`id`, `question_text`, `options_json`) VALUES (1, 'L\\'eau ?', '[\\\"a\\\",\\\"b\\\"]'),(2, 'Ligne\\nDeux', '[]')")
	if err != nil {
		t.Fatalf("ParseInsert error: %v", err)
	}

	got, err := ins.Statement()
	if err != nil {
		t.Fatalf("Statement error: %v", err)
	}
	want := `INSERT INTO "question_bank" ("id", "question_text", "options_json") VALUES (1, 'L''eau ?', '["a","b"]'),(2, 'Ligne` + "\n" + `Deux', '[]');`
	if got != want {
		t.Errorf("Statement =\n%s\nwant\n%s", got, want)
	}
}

func TestInsert_StatementIgnore(t *testing.T) {
	ins := &Insert{Table: "inventory", Values: "(1,'a',2)", Ignore: true}
	got, err := ins.Statement()
	if err != nil {
		t.Fatalf("Statement error: %v", err)
	}
	want := `INSERT INTO "inventory" VALUES (1,'a',2) ON CONFLICT DO NOTHING;`
	if got != want {
		t.Errorf("Statement = %q, want %q", got, want)
	}
}

func TestInsert_IdentifierStatement(t *testing.T) {
	ins := &Insert{Table: "users", Columns: []string{"username"}, Values: `('l\'ami')`}
	got, err := ins.IdentifierStatement()
	if err != nil {
		t.Fatalf("IdentifierStatement error: %v", err)
	}
	want := `INSERT INTO "users" ("username") VALUES ('l\'ami');`
	if got != want {
		t.Errorf("IdentifierStatement = %q, want %q", got, want)
	}
}

func TestInsert_Tuples(t *testing.T) {
	ins := &Insert{Table: "t", Values: "(1,'a'),(2,'(b)')"}
	got, err := ins.Tuples()
	if err != nil {
		t.Fatalf("Tuples error: %v", err)
	}
	if diff := cmp.Diff([]string{"1,'a'", "2,'(b)'"}, got); diff != "" {
		t.Errorf("Tuples mismatch (-want +got):\n%s", diff)
	}
}
