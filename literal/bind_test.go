package literal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBind(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		bindings Bindings
		want     string
	}{
		{
			name:     "value placeholder",
			query:    "SELECT * FROM system.parts WHERE database = :database",
			bindings: Bindings{"database": String("default")},
			want:     "SELECT * FROM system.parts WHERE database = 'default'",
		},
		{
			name:  "identifier and value",
			query: "ALTER TABLE {table} DROP PARTITION :partition",
			bindings: Bindings{
				"table":     String("events"),
				"partition": String("202001"),
			},
			want: "ALTER TABLE events DROP PARTITION '202001'",
		},
		{
			name:     "numeric and null",
			query:    "SELECT :a, :b",
			bindings: Bindings{"a": Int(10), "b": Null()},
			want:     "SELECT 10, NULL",
		},
		{
			name:     "array",
			query:    "SELECT has(:ids, 3)",
			bindings: Bindings{"ids": Array(Int(1), Int(3))},
			want:     "SELECT has([1,3], 3)",
		},
		{
			name:     "escapes backslash and quote",
			query:    "SELECT :s",
			bindings: Bindings{"s": String(`a\'b`)},
			want:     `SELECT 'a\\\'b'`,
		},
		{
			name:     "unknown names untouched",
			query:    "SELECT :missing, {missing}",
			bindings: Bindings{"other": Int(1)},
			want:     "SELECT :missing, {missing}",
		},
		{
			name:     "cast is not a placeholder",
			query:    "SELECT x::String, :x",
			bindings: Bindings{"x": Int(1), "String": Int(2)},
			want:     "SELECT x::String, 1",
		},
		{
			name:     "quoted literal untouched",
			query:    `SELECT ':x', 'it\'s :x', :x`,
			bindings: Bindings{"x": Int(1)},
			want:     `SELECT ':x', 'it\'s :x', 1`,
		},
		{
			name:     "longest name wins",
			query:    "SELECT :id, :id2",
			bindings: Bindings{"id": Int(1), "id2": Int(2)},
			want:     "SELECT 1, 2",
		},
		{
			name:     "braces that are not names",
			query:    "SELECT {a b}, {}, {t}",
			bindings: Bindings{"t": String("x")},
			want:     "SELECT {a b}, {}, x",
		},
		{
			name:     "no bindings",
			query:    "SELECT :x",
			bindings: nil,
			want:     "SELECT :x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bind(tt.query, tt.bindings))
		})
	}
}

func TestSQL(t *testing.T) {
	assert.Equal(t, "NULL", SQL(Null()))
	assert.Equal(t, "1.25", SQL(Float(1.25)))
	assert.Equal(t, "'plain'", SQL(String("plain")))
	assert.Equal(t, "[NULL,'a']", SQL(Array(Null(), String("a"))))
}
