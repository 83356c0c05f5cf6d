// Package transcode turns MySQL dump value text into PostgreSQL literals.
//
// The scanner works on bytes: every character it cares about (quotes,
// backslash, parentheses, comma) is ASCII, and UTF-8 continuation bytes never
// collide with ASCII, so multi-byte text passes through untouched.
package transcode

import (
	"fmt"
	"strings"
)

// scanner tracks quoting and nesting state over MySQL value text.
type scanner struct {
	// quote is the character that opened the current string, 0 outside strings.
	quote byte

	// escaped is set right after a backslash inside a string.
	escaped bool

	// depth counts open parentheses seen outside strings.
	depth int
}

// step advances the state over c. It returns true when c is structural,
// meaning it is outside any string literal and is not a quote.
func (s *scanner) step(c byte) bool {
	if s.quote != 0 {
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == s.quote:
			// A doubled quote closes and immediately reopens, which keeps
			// '' inside the literal.
			s.quote = 0
		}
		return false
	}

	switch c {
	case '\'', '"':
		s.quote = c
		return false
	case '(':
		s.depth++
	case ')':
		s.depth--
	}
	return true
}

// ParseTuple splits the text between one tuple's outer parentheses into its
// fields. Commas inside string literals or nested parentheses are content.
// Each field is returned trimmed of surrounding whitespace, with quotes and
// escapes left as they were in the input.
func ParseTuple(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var (
		s      scanner
		fields []string
		start  int
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !s.step(c) {
			continue
		}
		if s.depth < 0 {
			return nil, fmt.Errorf("%w: stray ')' at offset %d", ErrUnbalanced, i)
		}
		if c == ',' && s.depth == 0 {
			fields = append(fields, strings.TrimSpace(text[start:i]))
			start = i + 1
		}
	}

	if s.quote != 0 {
		return nil, ErrUnterminated
	}
	if s.depth != 0 {
		return nil, fmt.Errorf("%w: %d unclosed '('", ErrUnbalanced, s.depth)
	}

	return append(fields, strings.TrimSpace(text[start:])), nil
}

// SplitTuples splits a VALUES list such as "(1,'a'),(2,'b');" into the inner
// text of each top-level group.
func SplitTuples(values string) ([]string, error) {
	var (
		s      scanner
		tuples []string
		start  = -1
	)
	for i := 0; i < len(values); i++ {
		c := values[i]
		if s.quote == 0 && s.depth == 0 && (c == '\'' || c == '"') {
			return nil, fmt.Errorf("%w: string literal outside a tuple at offset %d", ErrSyntax, i)
		}
		if !s.step(c) {
			continue
		}

		switch c {
		case '(':
			if s.depth == 1 {
				start = i + 1
			}
		case ')':
			if s.depth < 0 {
				return nil, fmt.Errorf("%w: stray ')' at offset %d", ErrUnbalanced, i)
			}
			if s.depth == 0 {
				tuples = append(tuples, values[start:i])
				start = -1
			}
		case ',', ';', ' ', '\t', '\n', '\r':
		default:
			if s.depth == 0 {
				return nil, fmt.Errorf("%w: unexpected %q between tuples at offset %d", ErrSyntax, c, i)
			}
		}
	}

	if s.quote != 0 {
		return nil, ErrUnterminated
	}
	if s.depth != 0 {
		return nil, fmt.Errorf("%w: %d unclosed '('", ErrUnbalanced, s.depth)
	}
	return tuples, nil
}
