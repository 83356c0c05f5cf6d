package transcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTuple(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain fields",
			input: "1, 2, 'three'",
			want:  []string{"1", "2", "'three'"},
		},
		{
			name:  "comma inside quotes",
			input: "1, 'a,b', 3",
			want:  []string{"1", "'a,b'", "3"},
		},
		{
			name:  "json with parentheses",
			input: `7, '{"f":"g(x, y)"}', (1, 2)`,
			want:  []string{"7", `'{"f":"g(x, y)"}'`, "(1, 2)"},
		},
		{
			name:  "escaped quote stays in string",
			input: `'it\'s, fine', 2`,
			want:  []string{`'it\'s, fine'`, "2"},
		},
		{
			name:  "escaped backslash closes string",
			input: `'C:\\', 'x'`,
			want:  []string{`'C:\\'`, "'x'"},
		},
		{
			name:  "odd backslash run keeps string open",
			input: `'a\\\', b', 'c'`,
			want:  []string{`'a\\\', b'`, "'c'"},
		},
		{
			name:  "doubled quote",
			input: `'l''école, oui', NULL`,
			want:  []string{`'l''école, oui'`, "NULL"},
		},
		{
			name:  "double quoted string",
			input: `"say \"hi\", ok", 1`,
			want:  []string{`"say \"hi\", ok"`, "1"},
		},
		{
			name:  "trailing empty field",
			input: "1,",
			want:  []string{"1", ""},
		},
		{
			name:  "whitespace trimmed",
			input: "  1 ,\n\t'x'  ",
			want:  []string{"1", "'x'"},
		},
		{
			name:  "empty",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTuple(tt.input)
			if err != nil {
				t.Fatalf("ParseTuple(%q) error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseTuple(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseTuple_FieldCountMatchesCommas(t *testing.T) {
	inputs := []string{
		"1",
		"1, 2",
		"'a', 'b', 'c', 4, 5",
		"NULL, NULL, NULL, NULL, NULL, NULL, NULL, NULL",
	}
	for _, in := range inputs {
		got, err := ParseTuple(in)
		if err != nil {
			t.Fatalf("ParseTuple(%q) error: %v", in, err)
		}
		want := strings.Count(in, ",") + 1
		if len(got) != want {
			t.Errorf("ParseTuple(%q) returned %d fields, want %d", in, len(got), want)
		}
	}
}

func TestParseTuple_QuestionRow(t *testing.T) {
	in := `1, 'math', 'CE1', 'EASY', 'algebra', 'What is 2+2?', '["2","3","4"]', 2, 'Basic addition'`

	got, err := ParseTuple(in)
	if err != nil {
		t.Fatalf("ParseTuple error: %v", err)
	}
	if len(got) != 9 {
		t.Fatalf("got %d fields, want 9: %q", len(got), got)
	}
	if got[6] != `'["2","3","4"]'` {
		t.Errorf("field 7 = %q, want %q", got[6], `'["2","3","4"]'`)
	}
}

func TestParseTuple_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated", "1, 'abc", ErrUnterminated},
		{"escaped final quote", `1, 'abc\'`, ErrUnterminated},
		{"unclosed paren", "1, (2, 3", ErrUnbalanced},
		{"stray paren", "1), 2", ErrUnbalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTuple(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseTuple(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestSplitTuples(t *testing.T) {
	in := "(1,'a'),\n(2,'b) (c'),(3,'{\"k\":[1,(2)]}');"
	want := []string{"1,'a'", "2,'b) (c'", `3,'{"k":[1,(2)]}'`}

	got, err := SplitTuples(in)
	if err != nil {
		t.Fatalf("SplitTuples error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitTuples mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitTuples_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"garbage between tuples", "(1),x(2)", ErrSyntax},
		{"string outside tuple", "(1),'x'", ErrSyntax},
		{"unterminated", "(1,'a)", ErrUnterminated},
		{"unclosed", "(1,(2)", ErrUnbalanced},
		{"stray close", "(1))", ErrUnbalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitTuples(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("SplitTuples(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}
