package literal

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"uint", Uint(math.MaxUint64), "18446744073709551615"},
		{"float", Float(1.5), "1.5"},
		{"whole float", Float(3), "3"},
		{"small float", Float(0.000001), "0.000001"},
		{"nan", Float(math.NaN()), "nan"},
		{"inf", Float(math.Inf(-1)), "-inf"},
		{"null", Null(), ""},
		{"zero value is null", Value{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.value))
		})
	}
}

func TestEncodeStringAlwaysQuoted(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "abc", "'abc'"},
		{"empty", "", "''"},
		{"delimiter", "a,b", "'a,b'"},
		{"quote", "it's", `'it\'s'`},
		{"space", "a b", "'a b'"},
		{"tab", "a\tb", "'a\tb'"},
		{"newline with quote", "x'\ny", "'x\\'\ny'"},
		{"two quotes", "''", `'\'\''`},
		{"backslash untouched", `a\b`, `'a\b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(String(tt.in)))
		})
	}
}

func TestEncodeStringEscapesQuotesExactlyOnce(t *testing.T) {
	inputs := []string{"a'b", "'", "x, 'y' z", "many'''quotes here"}

	for _, in := range inputs {
		out := Encode(String(in))

		require.True(t, strings.HasPrefix(out, "'"), out)
		require.True(t, strings.HasSuffix(out, "'"), out)

		inner := out[1 : len(out)-1]
		assert.Equal(t, strings.Count(in, "'"), strings.Count(inner, `\'`), out)
		assert.Equal(t, in, strings.ReplaceAll(inner, `\'`, "'"))
	}
}

func TestEncodeArrays(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		v := Array(Int(1), String("a b"), Null(), Float(2.5))
		assert.Equal(t, "[1,'a b',,2.5]", Encode(v))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "[]", Encode(Array()))
	})

	t.Run("nested", func(t *testing.T) {
		v := Array(Array(Int(1), Int(2)), Array(String("x")), Array())
		assert.Equal(t, "[[1,2],['x'],[]]", Encode(v))
	})

	t.Run("nested keeps element count", func(t *testing.T) {
		inner := Array(String("a,b"), String("c"), String("d"))
		v := Array(inner, inner)

		out := Encode(v)
		assert.Equal(t, "[['a,b','c','d'],['a,b','c','d']]", out)
		assert.Equal(t, 2, v.Len())
		assert.Equal(t, 3, v.Elems()[0].Len())
	})

	t.Run("caller slice is copied", func(t *testing.T) {
		elems := []Value{Int(1)}
		v := Array(elems...)
		elems[0] = Int(9)
		assert.Equal(t, "[1]", Encode(v))
	})
}

func TestEncodeRow(t *testing.T) {
	row := Row{Int(1), String("a,b"), Null()}
	assert.Equal(t, []string{"1", "'a,b'", ""}, EncodeRow(row))
}

func TestInsertStatement(t *testing.T) {
	t.Run("values clause", func(t *testing.T) {
		rows := []Row{{Int(1), String("a,b"), Null()}}
		assert.Equal(t, "INSERT INTO t VALUES  (1,'a,b',)", InsertStatement("t", nil, rows))
	})

	t.Run("with columns and several rows", func(t *testing.T) {
		rows := []Row{
			{Int(1), String("x")},
			{Int(2), Array(String("it's"), String("y"))},
		}
		got := InsertStatement("db.events", []string{"id", "tags"}, rows)
		assert.Equal(t, `INSERT INTO db.events (id,tags) VALUES  (1,'x'),  (2,['it\'s','y'])`, got)
	})
}

func TestCSVInsertStatement(t *testing.T) {
	assert.Equal(t, "INSERT INTO t ( a,b ) FORMAT CSV", CSVInsertStatement("t", []string{"a", "b"}))
	assert.Equal(t, "INSERT INTO t FORMAT CSV", CSVInsertStatement("t", nil))
}

func TestOf(t *testing.T) {
	type level int
	s := "ptr"

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"int", 5, "5"},
		{"int8", int8(-5), "-5"},
		{"uint32", uint32(5), "5"},
		{"float32", float32(0.5), "0.5"},
		{"bool", true, "1"},
		{"false is zero not empty", false, "0"},
		{"bools in slice", []bool{true, false}, "[1,0]"},
		{"string", "a b", "'a b'"},
		{"bytes", []byte("raw"), "'raw'"},
		{"named int", level(3), "3"},
		{"pointer", &s, "'ptr'"},
		{"nil pointer", (*string)(nil), ""},
		{"slice", []any{1, "x", nil}, "[1,'x',]"},
		{"nested slice", [][]int{{1, 2}, {3}}, "[[1,2],[3]]"},
		{"value", Int(7), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Of(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Encode(v))
		})
	}
}

func TestOfUnsupported(t *testing.T) {
	_, err := Of(map[string]int{"a": 1})
	require.Error(t, err)

	_, err = Of([]any{1, struct{}{}})
	require.Error(t, err)

	_, err = RowOf(1, make(chan int))
	require.ErrorContains(t, err, "column 1")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "null", Null().Kind().String())
	assert.True(t, Null().IsNull())
	assert.Nil(t, Int(1).Elems())
}
