package catalog

import (
	"fmt"
	"strings"
)

// ParseArrayLiteral parses a PostgreSQL array literal such as
// `{trace_id,span_id}` or `{"mixed case","quo\"ted"}` into its elements.
// Unquoted elements are taken verbatim; quoted elements honor backslash and
// doubled-quote escapes. The literal NULL (unquoted) becomes an empty string,
// which cannot occur for column name arrays anyway.
func ParseArrayLiteral(lit string) ([]string, error) {
	s := strings.TrimSpace(lit)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("malformed array literal: %q", lit)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		return []string{}, nil
	}

	var (
		elems    []string
		cur      strings.Builder
		inQuotes bool
		quoted   bool
	)

	flush := func() {
		val := cur.String()
		if !quoted && val == "NULL" {
			val = ""
		}
		elems = append(elems, val)
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inQuotes:
			switch ch {
			case '\\':
				if i+1 >= len(s) {
					return nil, fmt.Errorf("dangling escape in array literal: %q", lit)
				}
				i++
				cur.WriteByte(s[i])
			case '"':
				// A doubled quote inside a quoted element is an escaped quote.
				if i+1 < len(s) && s[i+1] == '"' {
					i++
					cur.WriteByte('"')
				} else {
					inQuotes = false
				}
			default:
				cur.WriteByte(ch)
			}
		case ch == '"':
			inQuotes = true
			quoted = true
		case ch == ',':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in array literal: %q", lit)
	}
	flush()

	return elems, nil
}
