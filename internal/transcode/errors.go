package transcode

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrUnterminated is returned when a string literal is still open at the end of the input.
	ErrUnterminated = errors.New("unterminated string literal")

	// ErrUnbalanced is returned when parentheses outside string literals do not pair up.
	ErrUnbalanced = errors.New("unbalanced parentheses")

	// ErrSyntax is returned for text between tuples that is not a separator.
	ErrSyntax = errors.New("syntax error")

	// ErrFieldCount is returned when a tuple does not split into one field per column.
	ErrFieldCount = errors.New("field count mismatch")

	// ErrInvalidValue is returned when a field cannot be represented in its target type.
	ErrInvalidValue = errors.New("invalid value")
)

// maxRowInMessage bounds how much of the offending row is quoted in Error().
// The full text is always kept in RowError.Row.
const maxRowInMessage = 160

// RowError reports a single tuple that could not be transcoded.
type RowError struct {
	// Row is the original tuple text, without its outer parentheses.
	Row string

	// Column is the failing column, empty for tuple-level failures.
	Column string

	// Want and Got are set for ErrFieldCount.
	Want int
	Got  int

	Err error
}

func (e *RowError) Error() string {
	row := abbreviate(e.Row, maxRowInMessage)
	switch {
	case errors.Is(e.Err, ErrFieldCount):
		return fmt.Sprintf("row (%s): %v: want %d fields, got %d", row, e.Err, e.Want, e.Got)
	case e.Column != "":
		return fmt.Sprintf("row (%s): column %s: %v", row, e.Column, e.Err)
	default:
		return fmt.Sprintf("row (%s): %v", row, e.Err)
	}
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RowErrors flattens an error returned by EncodeRows into its row errors.
func RowErrors(err error) []*RowError {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var rerr *RowError
		if errors.As(err, &rerr) {
			return []*RowError{rerr}
		}
		return nil
	}
	out := make([]*RowError, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var rerr *RowError
		if errors.As(e, &rerr) {
			out = append(out, rerr)
		}
	}
	return out
}

func abbreviate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
