// Package sqltype implements the type system of database/sql backends.
//
// Natives mirror what a driver row scan can produce: int64, float64,
// bool, string and NULL. Some drivers have no boolean column type and
// return 0/1 integers; Decode accepts those when a bool is wanted.
package sqltype

import (
	"fmt"
	"math"

	"github.com/romaninsh/vantage/pkg/typesys"
	"github.com/romaninsh/vantage/pkg/value"
)

// Tag is the capability tag of this type system.
const Tag = "sql"

func init() {
	typesys.Register(New())
}

// New returns the sql type system.
func New() typesys.System { return sys{} }

type sys struct{}

func (sys) Tag() string { return Tag }

// Supports accepts the scalar kinds. Arrays and objects have no column
// representation here; composite columns are a dialect concern.
func (sys) Supports(k value.Kind) bool {
	switch k {
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString:
		return true
	}
	return false
}

func (sys) Encode(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString:
		return v
	}
	panic(fmt.Sprintf("sqltype: encode of unsupported kind %s", v.Kind()))
}

func (sys) Decode(native value.Value, want value.Kind) (value.Value, bool) {
	if native.Kind() == want {
		return native, true
	}
	switch want {
	case value.KindBool:
		// Drivers without a boolean type return 0/1 integers.
		i, err := native.AsInt()
		if err != nil || (i != 0 && i != 1) {
			return value.Value{}, false
		}
		return value.Bool(i == 1), true
	case value.KindInt:
		f, err := native.AsFloat()
		// float64(MaxInt64) rounds up to 2^63, which is out of range,
		// so the upper bound must be exclusive.
		if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
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
