// Package jsontype implements the type system of JSON-carrying backends.
//
// JSON has no integer type on the wire; numbers arrive as floats. Decode
// is the explicit coercion point: a float with an integral payload decodes
// as an integer when one is wanted, and an integer decodes as a float.
// Strings are never parsed into other kinds, since JSON is already typed.
package jsontype

import (
	"fmt"
	"math"

	"github.com/romaninsh/vantage/pkg/typesys"
	"github.com/romaninsh/vantage/pkg/value"
)

// Tag is the capability tag of this type system.
const Tag = "json"

func init() {
	typesys.Register(New())
}

// New returns the json type system.
func New() typesys.System { return sys{} }

type sys struct{}

func (sys) Tag() string { return Tag }

// Supports accepts every kind; JSON can carry them all.
func (sys) Supports(k value.Kind) bool {
	switch k {
	case value.KindNull, value.KindBool, value.KindInt, value.KindFloat,
		value.KindString, value.KindArray, value.KindObject:
		return true
	}
	return false
}

func (sys) Encode(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindNull, value.KindBool, value.KindInt, value.KindFloat,
		value.KindString, value.KindArray, value.KindObject:
		return v
	}
	panic(fmt.Sprintf("jsontype: encode of unsupported kind %s", v.Kind()))
}

func (s sys) Decode(native value.Value, want value.Kind) (value.Value, bool) {
	if native.Kind() == want {
		return native, true
	}
	switch want {
	case value.KindInt:
		// JSON wire numbers are floats; accept integral payloads.
		f, err := native.AsFloat()
		if err != nil {
			return value.Value{}, false
		}
		// float64(MaxInt64) rounds up to 2^63, which is out of range,
		// so the upper bound must be exclusive.
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return value.Value{}, false
		}
		return value.Int(int64(f)), true
	case value.KindFloat:
		i, err := native.AsInt()
		if err != nil {
			return value.Value{}, false
		}
		return value.Float(float64(i)), true
	}
	return value.Value{}, false
}
