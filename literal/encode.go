package literal

import (
	"math"
	"strconv"
	"strings"
)

const (
	enclosure = "'"
	delimiter = ","

	// triggers escaping of embedded enclosures: the delimiter, the enclosure and \s.
	escapeTriggers = delimiter + enclosure + " \t\n\v\f\r"
)

// Encode renders v in the textual form used inside a VALUES row.
//
//   - integers and floats are written in decimal, unquoted
//   - null becomes the empty string
//   - strings are always wrapped in single quotes; embedded single quotes are
//     backslash-escaped when the string contains a comma, a quote or whitespace
//   - arrays are encoded element by element, joined with commas and wrapped in
//     square brackets, without outer quoting
func Encode(v Value) string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return encodeString(v.s)
	case KindArray:
		return "[" + strings.Join(EncodeRow(v.elems), delimiter) + "]"
	default:
		return ""
	}
}

// formatFloat uses ClickHouse spellings for the non-finite values.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EncodeRow encodes every value of row with Encode.
func EncodeRow(row []Value) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = Encode(v)
	}

	return out
}

// encodeString quote-wraps s unconditionally. The quote-escaping scan only
// runs for strings holding a delimiter, an enclosure or whitespace; changing
// this to conditional quoting would alter the wire format.
func encodeString(s string) string {
	if strings.ContainsAny(s, escapeTriggers) {
		return enclosure + strings.ReplaceAll(s, enclosure, `\`+enclosure) + enclosure
	}

	return enclosure + s + enclosure
}

// InsertStatement builds an INSERT ... VALUES statement for rows.
//
// The columns clause is omitted when columns is empty.
//
// Parameters:
//   - table: Target table, written verbatim
//   - columns: Optional column names
//   - rows: Rows to render with EncodeRow
//
// Returns:
//   - string: The statement text
func InsertStatement(table string, columns []string, rows []Row) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)

	if len(columns) != 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(columns, delimiter))
		b.WriteString(") ")
	}

	b.WriteString("VALUES ")

	for _, row := range rows {
		b.WriteString(" (")
		b.WriteString(strings.Join(EncodeRow(row), delimiter))
		b.WriteString("), ")
	}

	return strings.Trim(b.String(), ", ")
}

// CSVInsertStatement builds the statement used to stream a CSV file into table.
func CSVInsertStatement(table string, columns []string) string {
	if len(columns) == 0 {
		return "INSERT INTO " + table + " FORMAT CSV"
	}

	return "INSERT INTO " + table + " ( " + strings.Join(columns, delimiter) + " ) FORMAT CSV"
}
