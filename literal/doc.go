// Package literal renders application values as ClickHouse literal text.
//
// A Value is a tagged variant (null, int, uint, float, string or a nested
// array of Values). Encode produces the text used inside INSERT ... VALUES
// rows and must stay byte-compatible with the server's parsing rules:
//
//	literal.Encode(literal.Int(42))                 // 42
//	literal.Encode(literal.Null())                  // (empty)
//	literal.Encode(literal.String("a,b"))           // 'a,b'
//	literal.Encode(literal.String("it's here"))     // 'it\'s here'
//	literal.Encode(literal.Array(
//	    literal.Int(1), literal.String("x"),
//	))                                              // [1,'x']
//
// Bind resolves :name and {name} placeholders in statement text:
//
//	q := literal.Bind("ALTER TABLE {table} DROP PARTITION :partition", literal.Bindings{
//	    "table":     literal.String("events"),
//	    "partition": literal.String("202001"),
//	})
//	// ALTER TABLE events DROP PARTITION '202001'
package literal
