// Package value defines the closed tagged union used as the common datum
// type between data sources, records, and entity marshalling.
//
// A Value is immutable once constructed. Integer and Float are distinct
// kinds with no implicit widening; converting between them requires an
// explicit coercion by the caller.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one datum a backend can produce: null, bool, int, float,
// string, array of Value, or an ordered object of name/Value fields.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	keys []string
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value. The elements are copied, so the caller
// keeps ownership of the slice.
func Array(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindArray, arr: cp}
}

// ObjectField is one name/value pair of an object.
type ObjectField struct {
	Name  string
	Value Value
}

// Object returns an object value preserving the given field order.
// Later duplicates of a name overwrite earlier ones in place.
func Object(fields ...ObjectField) Value {
	keys := make([]string, 0, len(fields))
	obj := make(map[string]Value, len(fields))
	for _, f := range fields {
		if _, ok := obj[f.Name]; !ok {
			keys = append(keys, f.Name)
		}
		obj[f.Name] = f.Value
	}
	return Value{kind: KindObject, keys: keys, obj: obj}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// ConversionError reports a failed accessor conversion.
type ConversionError struct {
	Want Kind
	Got  Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s value to %s", e.Got, e.Want)
}

// AsBool returns the boolean payload, or a ConversionError for any other kind.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, &ConversionError{Want: KindBool, Got: v.kind}
	}
	return v.b, nil
}

// AsInt returns the integer payload. Float values are rejected; callers
// wanting lossy coercion must do it explicitly.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, &ConversionError{Want: KindInt, Got: v.kind}
	}
	return v.i, nil
}

// AsFloat returns the float payload. Int values are rejected.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, &ConversionError{Want: KindFloat, Got: v.kind}
	}
	return v.f, nil
}

// AsString returns the string payload.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", &ConversionError{Want: KindString, Got: v.kind}
	}
	return v.s, nil
}

// Items returns a copy of the array elements.
func (v Value) Items() ([]Value, error) {
	if v.kind != KindArray {
		return nil, &ConversionError{Want: KindArray, Got: v.kind}
	}
	cp := make([]Value, len(v.arr))
	copy(cp, v.arr)
	return cp, nil
}

// Fields returns a copy of the object fields in insertion order.
func (v Value) Fields() ([]ObjectField, error) {
	if v.kind != KindObject {
		return nil, &ConversionError{Want: KindObject, Got: v.kind}
	}
	out := make([]ObjectField, 0, len(v.keys))
	for _, k := range v.keys {
		out = append(out, ObjectField{Name: k, Value: v.obj[k]})
	}
	return out, nil
}

// Field looks up one object field by name.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f, ok
}

// Equal reports structural equality. Int and Float never compare equal
// even when numerically identical.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.keys) != len(o.keys) {
			return false
		}
		// Field order carries no semantic weight for equality.
		for k, fv := range v.obj {
			ov, ok := o.obj[k]
			if !ok || !fv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare imposes a total order: first by kind rank, then by payload.
// Arrays compare lexicographically; objects compare by sorted field name,
// then field value. Useful for deterministic output, not semantics.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		return boolCmp(v.b, o.b)
	case KindInt:
		return cmpOrdered(v.i, o.i)
	case KindFloat:
		return cmpOrdered(v.f, o.f)
	case KindString:
		return strings.Compare(v.s, o.s)
	case KindArray:
		for i := 0; i < len(v.arr) && i < len(o.arr); i++ {
			if c := v.arr[i].Compare(o.arr[i]); c != 0 {
				return c
			}
		}
		return cmpOrdered(len(v.arr), len(o.arr))
	case KindObject:
		vk := append([]string(nil), v.keys...)
		ok := append([]string(nil), o.keys...)
		sort.Strings(vk)
		sort.Strings(ok)
		for i := 0; i < len(vk) && i < len(ok); i++ {
			if c := strings.Compare(vk[i], ok[i]); c != 0 {
				return c
			}
			if c := v.obj[vk[i]].Compare(o.obj[ok[i]]); c != 0 {
				return c
			}
		}
		return cmpOrdered(len(vk), len(ok))
	}
	return 0
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders a debug form. Objects and arrays render in field order.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindArray:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteByte(']')
		return b.String()
	case KindObject:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, v.obj[k].String())
		}
		b.WriteByte('}')
		return b.String()
	}
	return "invalid"
}
