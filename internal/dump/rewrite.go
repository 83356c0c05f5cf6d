package dump

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Olivedu13/poke/pokemigrate/internal/transcode"
)

type rewriteMode int

const (
	rewriteIdents rewriteMode = 1 << iota
	rewriteLiterals
)

// QuoteIdentifiers turns `backtick` identifiers into "double quoted" ones.
// String literals are copied unchanged, so a backtick inside a value is safe.
func QuoteIdentifiers(stmt string) (string, error) {
	return rewrite(stmt, rewriteIdents)
}

// RepairLiterals rewrites every MySQL string literal as a PostgreSQL one:
// \' becomes '', \" becomes ", \n \r \t become the control characters.
// Double-quoted MySQL strings come out single-quoted.
func RepairLiterals(stmt string) (string, error) {
	return rewrite(stmt, rewriteLiterals)
}

// ToPostgres applies QuoteIdentifiers and RepairLiterals in one pass.
func ToPostgres(stmt string) (string, error) {
	return rewrite(stmt, rewriteIdents|rewriteLiterals)
}

func rewrite(stmt string, mode rewriteMode) (string, error) {
	var b strings.Builder
	b.Grow(len(stmt))

	for i := 0; i < len(stmt); {
		c := stmt[i]
		switch c {
		case '`':
			end := closingBacktick(stmt, i)
			if end < 0 {
				return "", fmt.Errorf("%w: identifier at offset %d", ErrUnterminated, i)
			}
			if mode&rewriteIdents != 0 {
				b.WriteString(pq.QuoteIdentifier(unquoteIdent(stmt[i : end+1])))
			} else {
				b.WriteString(stmt[i : end+1])
			}
			i = end + 1

		case '\'', '"':
			end := closingQuote(stmt, i)
			if end < 0 {
				return "", fmt.Errorf("%w: string at offset %d", ErrUnterminated, i)
			}
			if mode&rewriteLiterals != 0 {
				v, err := transcode.UnescapeMySQL(stmt[i+1:end], c)
				if err != nil {
					return "", fmt.Errorf("string at offset %d: %w", i, err)
				}
				b.WriteString(transcode.QuoteLiteral(v))
			} else {
				b.WriteString(stmt[i : end+1])
			}
			i = end + 1

		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// closingQuote returns the index of the quote that ends the string opened at
// start, honouring backslash escapes and doubled quotes, or -1.
func closingQuote(s string, start int) int {
	q := s[start]
	for j := start + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return -1
}

func closingBacktick(s string, start int) int {
	for j := start + 1; j < len(s); j++ {
		if s[j] != '`' {
			continue
		}
		if j+1 < len(s) && s[j+1] == '`' {
			j++
			continue
		}
		return j
	}
	return -1
}
