package transcode

import (
	"fmt"
	"strings"
)

// UnescapeMySQL decodes the body of a MySQL string literal, without its
// surrounding quotes. quote is the delimiter that enclosed it, so that a
// doubled delimiter collapses to one.
func UnescapeMySQL(body string, quote byte) (string, error) {
	if !strings.ContainsAny(body, `\'"`) {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\':
			i++
			if i == len(body) {
				return "", fmt.Errorf("%w: trailing backslash", ErrInvalidValue)
			}
			switch e := body[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'Z':
				b.WriteByte(0x1a)
			case '0':
				return "", fmt.Errorf("%w: NUL byte in string", ErrInvalidValue)
			case '%', '_':
				// MySQL keeps these escaped outside LIKE patterns.
				b.WriteByte('\\')
				b.WriteByte(e)
			default:
				b.WriteByte(e)
			}
		case c == quote && i+1 < len(body) && body[i+1] == quote:
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// mysqlEscaper mirrors the escapes mysqldump writes.
var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\x00", `\0`,
	"\x1a", `\Z`,
)

// EscapeMySQL renders v as a single-quoted MySQL string literal.
func EscapeMySQL(v string) string {
	return "'" + mysqlEscaper.Replace(v) + "'"
}

// QuoteLiteral renders v as a standard-conforming PostgreSQL string literal.
func QuoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// Value is a decoded column value headed for FormatTuple.
type Value struct {
	Data string

	// Null marks SQL NULL; Data is ignored.
	Null bool

	// Bare values are written without quotes (numbers).
	Bare bool
}

// Null returns a NULL value.
func Null() Value { return Value{Null: true} }

// String returns a quoted string value.
func String(s string) Value { return Value{Data: s} }

// Bare returns a value written as-is, such as a number.
func Bare(s string) Value { return Value{Data: s, Bare: true} }

// FormatTuple renders values the way mysqldump would write one tuple,
// without the outer parentheses.
func FormatTuple(values []Value) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		switch {
		case v.Null:
			b.WriteString("NULL")
		case v.Bare:
			b.WriteString(v.Data)
		default:
			b.WriteString(EscapeMySQL(v.Data))
		}
	}
	return b.String()
}
