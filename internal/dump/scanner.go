// Package dump reads MySQL dump text: it splits the stream into statements,
// parses INSERT headers, and rewrites MySQL syntax into PostgreSQL syntax.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnterminated is returned when the dump ends inside a string, identifier or comment.
var ErrUnterminated = errors.New("unterminated literal at end of dump")

type scanState int

const (
	stateNormal scanState = iota
	stateString
	stateBacktick
	stateLineComment
	stateBlockComment
)

// Scanner yields the statements of a dump one at a time. A semicolon ends a
// statement only outside strings, backtick identifiers and comments.
// Comments, including /*! ... */ version comments, are dropped.
type Scanner struct {
	r    *bufio.Reader
	line int

	stmt      string
	stmtLine  int
	err       error
	exhausted bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024), line: 1}
}

// Statement returns the statement found by the last call to Scan, without
// its terminating semicolon.
func (s *Scanner) Statement() string { return s.stmt }

// Line returns the line on which the current statement starts.
func (s *Scanner) Line() int { return s.stmtLine }

// Err returns the first error encountered.
func (s *Scanner) Err() error { return s.err }

// Scan advances to the next statement. It returns false at the end of the
// input or on error.
func (s *Scanner) Scan() bool {
	if s.exhausted {
		return false
	}

	var (
		b       strings.Builder
		state   = stateNormal
		quote   byte
		escaped bool
		start   = 0
	)

	for {
		c, err := s.r.ReadByte()
		if err == io.EOF {
			s.exhausted = true
			if state == stateString || state == stateBacktick || state == stateBlockComment {
				s.err = fmt.Errorf("%w (statement starting at line %d)", ErrUnterminated, start)
				return false
			}
			if text := strings.TrimSpace(b.String()); text != "" {
				s.stmt, s.stmtLine = text, start
				return true
			}
			return false
		}
		if err != nil {
			s.err = err
			s.exhausted = true
			return false
		}
		if c == '\n' {
			s.line++
		}

		switch state {
		case stateString:
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				state = stateNormal
			}
			continue

		case stateBacktick:
			b.WriteByte(c)
			if c == '`' {
				state = stateNormal
			}
			continue

		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				b.WriteByte('\n')
			}
			continue

		case stateBlockComment:
			if c == '*' && s.peekIs('/') {
				s.r.ReadByte()
				state = stateNormal
				b.WriteByte(' ')
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			state, quote = stateString, c
			s.mark(&start)
			b.WriteByte(c)
		case c == '`':
			state = stateBacktick
			s.mark(&start)
			b.WriteByte(c)
		case c == '#':
			state = stateLineComment
		case c == '-' && s.isDashComment():
			state = stateLineComment
		case c == '/' && s.peekIs('*'):
			s.r.ReadByte()
			state = stateBlockComment
		case c == ';':
			if text := strings.TrimSpace(b.String()); text != "" {
				s.stmt, s.stmtLine = text, start
				return true
			}
			b.Reset()
			start = 0
		default:
			if !isSpace(c) {
				s.mark(&start)
			}
			b.WriteByte(c)
		}
	}
}

// mark records the current line as the statement start if none is set yet.
func (s *Scanner) mark(start *int) {
	if *start == 0 {
		*start = s.line
	}
}

func (s *Scanner) peekIs(want byte) bool {
	next, err := s.r.Peek(1)
	return err == nil && next[0] == want
}

// isDashComment reports whether the '-' just read starts a "-- " comment.
// MySQL needs whitespace (or the end of input) after the two dashes.
func (s *Scanner) isDashComment() bool {
	next, err := s.r.Peek(2)
	if len(next) == 0 || next[0] != '-' {
		return false
	}
	if len(next) == 1 || err != nil {
		return true
	}
	return isSpace(next[1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
