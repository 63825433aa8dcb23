package sqltype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaninsh/vantage/pkg/typesys"
	"github.com/romaninsh/vantage/pkg/value"
)

func TestRegisteredByTag(t *testing.T) {
	s, err := typesys.Resolve(Tag)
	require.NoError(t, err)
	assert.Equal(t, "sql", s.Tag())
}

func TestSupports(t *testing.T) {
	s := New()
	assert.True(t, s.Supports(value.KindInt))
	assert.True(t, s.Supports(value.KindString))
	assert.False(t, s.Supports(value.KindArray))
	assert.False(t, s.Supports(value.KindObject))
	assert.False(t, s.Supports(value.KindNull))
}

func TestDecode(t *testing.T) {
	s := New()
	tests := []struct {
		name   string
		native value.Value
		want   value.Kind
		out    value.Value
		ok     bool
	}{
		{"int identity", value.Int(5), value.KindInt, value.Int(5), true},
		{"zero-one int as bool", value.Int(1), value.KindBool, value.Bool(true), true},
		{"other int is not bool", value.Int(2), value.KindBool, value.Value{}, false},
		{"integral float as int", value.Float(7), value.KindInt, value.Int(7), true},
		{"fractional float is not int", value.Float(7.5), value.KindInt, value.Value{}, false},
		{"int widens to float on request", value.Int(7), value.KindFloat, value.Float(7), true},
		{"string is not parsed", value.Str("7"), value.KindInt, value.Value{}, false},
		{"null decodes as nothing", value.Null(), value.KindString, value.Value{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Decode(tt.native, tt.want)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.out), "got %s", got)
			}
		})
	}
}

func TestDecodeIntRange(t *testing.T) {
	s := New()

	// float64(MaxInt64) is 2^63, one past the largest int64; converting
	// it would wrap around. It must read as unparsable, not wrap.
	_, ok := s.Decode(value.Float(math.MaxInt64), value.KindInt)
	assert.False(t, ok)

	// The largest float64 below 2^63 is in range.
	top := math.Nextafter(math.MaxInt64, 0)
	got, ok := s.Decode(value.Float(top), value.KindInt)
	require.True(t, ok)
	assert.True(t, got.Equal(value.Int(int64(top))))

	// float64(MinInt64) is exactly -2^63 and representable.
	got, ok = s.Decode(value.Float(math.MinInt64), value.KindInt)
	require.True(t, ok)
	assert.True(t, got.Equal(value.Int(math.MinInt64)))

	_, ok = s.Decode(value.Float(-math.Pow(2, 64)), value.KindInt)
	assert.False(t, ok)
}

func TestEncodeIsTotal(t *testing.T) {
	s := New()
	for _, v := range []value.Value{
		value.Bool(true), value.Int(-1), value.Float(0.5), value.Str(""),
	} {
		assert.True(t, s.Encode(v).Equal(v))
	}
}
