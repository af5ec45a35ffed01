package literal

import (
	"fmt"
	"reflect"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	// KindNull is the absence of a value.
	KindNull Kind = iota
	// KindInt is a signed integer.
	KindInt
	// KindUint is an unsigned integer.
	KindUint
	// KindFloat is a 64-bit floating point number.
	KindFloat
	// KindString is a text value.
	KindString
	// KindArray is an ordered sequence of Values.
	KindArray
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an application value that can be rendered as a ClickHouse literal.
//
// The zero Value is Null. Values are immutable once constructed.
type Value struct {
	kind  Kind
	i     int64
	u     uint64
	f     float64
	s     string
	elems []Value
}

// Null returns the null Value.
func Null() Value {
	return Value{}
}

// Int returns an integer Value.
func Int(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// Uint returns an unsigned integer Value.
func Uint(v uint64) Value {
	return Value{kind: KindUint, u: v}
}

// Float returns a floating point Value.
func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// String returns a string Value.
func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Array returns a sequence Value holding elems.
//
// The slice is copied, so later changes by the caller are not observed.
func Array(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)

	return Value{kind: KindArray, elems: cp}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Len returns the number of elements of an array Value, 0 otherwise.
func (v Value) Len() int {
	return len(v.elems)
}

// Elems returns a copy of the elements of an array Value.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	cp := make([]Value, len(v.elems))
	copy(cp, v.elems)

	return cp
}

// Text returns the raw string of a string Value, or its encoded form otherwise.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.s
	}

	return Encode(v)
}

// Row is one row of Values.
type Row []Value

// Bindings maps placeholder names to the Values they are replaced with.
type Bindings map[string]Value

// Of converts a Go value into a Value.
//
// Supported inputs are nil, Value, all integer and float kinds, bool (as 0/1),
// string, []byte, and slices or arrays of supported values (recursively).
// Named types with a supported underlying kind are accepted as well.
//
// Booleans become Int(1) and Int(0). false is never rendered as the empty
// literal, which the server reads as NULL or the column default rather
// than 0.
//
// Parameters:
//   - x: The value to convert
//
// Returns:
//   - Value: The converted value
//   - error: Error if x (or a nested element) has an unsupported type
func Of(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case []Value:
		return Array(t...), nil
	case string:
		return String(t), nil
	case []byte:
		return String(string(t)), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case bool:
		if t {
			return Int(1), nil
		}
		return Int(0), nil
	}

	return ofReflect(reflect.ValueOf(x))
}

// MustOf is like Of but panics on unsupported input. Intended for literals in tests and examples.
func MustOf(x any) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}

	return v
}

// RowOf converts a slice of Go values into a Row.
func RowOf(xs ...any) (Row, error) {
	row := make(Row, len(xs))
	for i, x := range xs {
		v, err := Of(x)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		row[i] = v
	}

	return row, nil
}

func ofReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return Of(rv.Elem().Interface())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Bool:
		if rv.Bool() {
			return Int(1), nil
		}
		return Int(0), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			v, err := Of(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{kind: KindArray, elems: elems}, nil
	default:
		return Value{}, fmt.Errorf("literal: unsupported type %s", rv.Type())
	}
}
