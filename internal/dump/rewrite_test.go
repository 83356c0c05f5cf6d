package dump

import (
	"errors"
	"testing"
)

func TestQuoteIdentifiers(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"INSERT INTO `users` (`id`) VALUES (1)", `INSERT INTO "users" ("id") VALUES (1)`},
		{"INSERT INTO `t` VALUES ('`not an ident`')", "INSERT INTO \"t\" VALUES ('`not an ident`')"},
		{"SELECT `a``b`", `SELECT "a` + "`" + `b"`},
		{`SELECT "it's"`, `SELECT "it's"`},
		{"INSERT INTO `t` VALUES ('it\\'s `x`')", "INSERT INTO \"t\" VALUES ('it\\'s `x`')"},
	}
	for _, tt := range tests {
		got, err := QuoteIdentifiers(tt.in)
		if err != nil {
			t.Fatalf("QuoteIdentifiers(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("QuoteIdentifiers(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRepairLiterals(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`(1,'plain')`, `(1,'plain')`},
		{`(1,'l\'eau')`, `(1,'l''eau')`},
		{`('a\nb\tc')`, "('a\nb\tc')"},
		{`('{\"k\":\"v\"}')`, `('{"k":"v"}')`},
		{`("double 'quoted'")`, `('double ''quoted''')`},
		{`('C:\\temp\\')`, `('C:\temp\')`},
		{`('it''s')`, `('it''s')`},
		{"(`col`)", "(`col`)"},
	}
	for _, tt := range tests {
		got, err := RepairLiterals(tt.in)
		if err != nil {
			t.Fatalf("RepairLiterals(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("RepairLiterals(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToPostgres(t *testing.T) {
	in := "INSERT INTO `items` (`id`,`description`) VALUES ('x','+20% PV `1` Alli\\'e')"
	want := `INSERT INTO "items" ("id","description") VALUES ('x','+20% PV ` + "`1`" + ` Alli''e')`
	got, err := ToPostgres(in)
	if err != nil {
		t.Fatalf("ToPostgres error: %v", err)
	}
	if got != want {
		t.Errorf("ToPostgres =\n%s\nwant\n%s", got, want)
	}
}

func TestRewrite_Unterminated(t *testing.T) {
	for _, in := range []string{"('open", "`open", `('a\')`} {
		if _, err := ToPostgres(in); !errors.Is(err, ErrUnterminated) {
			t.Errorf("ToPostgres(%q) error = %v, want ErrUnterminated", in, err)
		}
	}
}
