package literal

import (
	"strings"
)

var sqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// SQL renders v as a standalone SQL literal.
//
// Unlike Encode, which produces VALUES row text, SQL writes NULL for null and
// escapes both backslashes and quotes in strings, so the result is safe to
// splice into arbitrary statement text.
func SQL(v Value) string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindString:
		return enclosure + sqlEscaper.Replace(v.s) + enclosure
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = SQL(e)
		}
		return "[" + strings.Join(parts, delimiter) + "]"
	default:
		return Encode(v)
	}
}

// Bind resolves placeholders in query from bindings.
//
// Two placeholder forms are supported:
//   - :name is replaced with SQL(value), for values
//   - {name} is replaced with the raw text of the value, for identifiers
//
// Placeholders inside single-quoted string literals and "::" casts are left
// alone, as are names that have no binding.
//
// Parameters:
//   - query: Statement text with placeholders
//   - bindings: Values by placeholder name
//
// Returns:
//   - string: The statement with placeholders substituted
func Bind(query string, bindings Bindings) string {
	if len(bindings) == 0 {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))

	for i := 0; i < len(query); {
		c := query[i]

		switch {
		case c == '\'':
			end := skipQuoted(query, i)
			b.WriteString(query[i:end])
			i = end

		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]) && (i == 0 || query[i-1] != ':'):
			end := i + 1
			for end < len(query) && isNameChar(query[end]) {
				end++
			}
			if v, ok := bindings[query[i+1:end]]; ok {
				b.WriteString(SQL(v))
			} else {
				b.WriteString(query[i:end])
			}
			i = end

		case c == '{':
			closing := strings.IndexByte(query[i:], '}')
			if closing > 1 {
				name := query[i+1 : i+closing]
				if v, ok := bindings[name]; ok && isName(name) {
					b.WriteString(v.Text())
					i += closing + 1

					continue
				}
			}
			b.WriteByte(c)
			i++

		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// skipQuoted returns the index just past the string literal starting at start.
func skipQuoted(s string, start int) int {
	for j := start + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\'':
			return j + 1
		}
	}

	return len(s)
}

func isName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}

	return true
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
