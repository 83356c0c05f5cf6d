package transcode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/bcrypt"
)

// ReencodeField converts one raw MySQL field into a PostgreSQL literal of
// type t: quotes and escapes are decoded, then the value is re-quoted for
// PostgreSQL with a cast suffix where the column needs one.
func ReencodeField(raw string, t Type) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "NULL") {
		return "NULL", nil
	}

	value := raw
	if n := len(raw); n >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[n-1] == raw[0] {
		v, err := UnescapeMySQL(raw[1:n-1], raw[0])
		if err != nil {
			return "", err
		}
		value = v
	}
	return Literal(value, t)
}

// Literal renders an already decoded, non-NULL value as a PostgreSQL literal.
func Literal(value string, t Type) (string, error) {
	switch t.Kind {
	case KindInteger:
		v := strings.TrimSpace(value)
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return "", fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, value)
		}
		return v, nil

	case KindNumeric:
		v := strings.TrimSpace(value)
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", fmt.Errorf("%w: %q is not a number", ErrInvalidValue, value)
		}
		return v, nil

	case KindBoolean:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "t", "b'1'":
			return "TRUE", nil
		case "0", "false", "f", "b'0'":
			return "FALSE", nil
		}
		return "", fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, value)

	case KindTimestamp:
		if strings.HasPrefix(value, "0000-00-00") {
			return "NULL", nil
		}
		return QuoteLiteral(value), nil

	case KindJSON:
		if !json.Valid([]byte(value)) {
			return "", fmt.Errorf("%w: malformed JSON %q", ErrInvalidValue, abbreviate(value, 60))
		}
		return QuoteLiteral(value) + t.Cast(), nil

	case KindEnum:
		if value == "" {
			return "", fmt.Errorf("%w: empty label for enum %s", ErrInvalidValue, t.Name)
		}
		return QuoteLiteral(value) + t.Cast(), nil
	}

	if t.Format == FormatBcrypt {
		if _, err := bcrypt.Cost([]byte(value)); err != nil {
			return "", fmt.Errorf("%w: not a bcrypt hash: %v", ErrInvalidValue, err)
		}
	}
	return QuoteLiteral(value), nil
}

// DecodeLiteral reverses Literal: it strips the cast suffix and the quoting
// and returns the value. null reports a NULL literal.
func DecodeLiteral(lit string) (value string, null bool, err error) {
	lit = strings.TrimSpace(lit)
	switch {
	case strings.EqualFold(lit, "NULL"):
		return "", true, nil
	case lit == "TRUE":
		return "true", false, nil
	case lit == "FALSE":
		return "false", false, nil
	case !strings.HasPrefix(lit, "'"):
		return lit, false, nil
	}

	var b strings.Builder
	i := 1
	for ; i < len(lit); i++ {
		if lit[i] != '\'' {
			b.WriteByte(lit[i])
			continue
		}
		if i+1 < len(lit) && lit[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		break
	}
	if i >= len(lit) {
		return "", false, ErrUnterminated
	}
	if rest := lit[i+1:]; rest != "" && !strings.HasPrefix(rest, "::") {
		return "", false, fmt.Errorf("%w: trailing %q after literal", ErrSyntax, rest)
	}
	return b.String(), false, nil
}

// EncodeRow re-encodes one raw tuple against columns and returns it as a
// parenthesized PostgreSQL tuple. Any failure is a *RowError carrying the
// original text.
func EncodeRow(raw string, columns []Column) (string, error) {
	fields, err := ParseTuple(raw)
	if err != nil {
		return "", &RowError{Row: raw, Err: err}
	}
	if len(fields) != len(columns) {
		return "", &RowError{Row: raw, Want: len(columns), Got: len(fields), Err: ErrFieldCount}
	}

	var b strings.Builder
	b.Grow(len(raw) + 8*len(columns))
	b.WriteByte('(')
	for i, f := range fields {
		lit, err := ReencodeField(f, columns[i].Type)
		if err != nil {
			return "", &RowError{Row: raw, Column: columns[i].Name, Err: err}
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(lit)
	}
	b.WriteByte(')')
	return b.String(), nil
}

// EncodeRows encodes every tuple. Rows that fail are left out of the result
// and reported together in the returned error; use RowErrors to inspect them.
func EncodeRows(tuples []string, columns []Column) ([]string, error) {
	var result *multierror.Error
	rows := make([]string, 0, len(tuples))
	for _, t := range tuples {
		row, err := EncodeRow(t, columns)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, result.ErrorOrNil()
}
