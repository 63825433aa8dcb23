// Package csvtype implements the type system of flat-file formats where
// every native value is a string.
//
// Import this package with a blank identifier to make the "csv" tag
// resolvable by name:
//
//	import _ "github.com/romaninsh/vantage/pkg/typesys/csvtype"
package csvtype

import (
	"fmt"
	"strconv"

	"github.com/romaninsh/vantage/pkg/typesys"
	"github.com/romaninsh/vantage/pkg/value"
)

// Tag is the capability tag of this type system.
const Tag = "csv"

func init() {
	typesys.Register(New())
}

// New returns the csv type system.
func New() typesys.System { return sys{} }

type sys struct{}

func (sys) Tag() string { return Tag }

// Supports accepts the scalar kinds. Null, arrays and objects have no
// flat-file representation.
func (sys) Supports(k value.Kind) bool {
	switch k {
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString:
		return true
	}
	return false
}

func (sys) Encode(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindString:
		return v
	case value.KindBool:
		b, _ := v.AsBool()
		return value.Str(strconv.FormatBool(b))
	case value.KindInt:
		i, _ := v.AsInt()
		return value.Str(strconv.FormatInt(i, 10))
	case value.KindFloat:
		f, _ := v.AsFloat()
		return value.Str(strconv.FormatFloat(f, 'g', -1, 64))
	}
	panic(fmt.Sprintf("csvtype: encode of unsupported kind %s", v.Kind()))
}

func (sys) Decode(native value.Value, want value.Kind) (value.Value, bool) {
	s, err := native.AsString()
	if err != nil {
		// Flat-file natives are always strings.
		return value.Value{}, false
	}
	switch want {
	case value.KindString:
		return native, true
	case value.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return value.Value{}, false
		}
		return value.Bool(b), true
	case value.KindInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Value{}, false
		}
		return value.Int(i), true
	case value.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Value{}, false
		}
		return value.Float(f), true
	}
	return value.Value{}, false
}
