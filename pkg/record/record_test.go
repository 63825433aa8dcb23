package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaninsh/vantage/pkg/value"
)

func TestGetSetRemove(t *testing.T) {
	r := New()
	r.Set("name", value.Str("ada"))
	r.Set("age", value.Int(36))

	v, err := r.Get("name")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Str("ada")))

	_, err = r.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldMissing)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "missing", fieldErr.Field)

	assert.True(t, r.Remove("name"))
	assert.False(t, r.Remove("name"), "second remove is a no-op")
	assert.False(t, r.Has("name"))
	assert.Equal(t, 1, r.Len())
}

func TestPresenceIsDistinctFromNull(t *testing.T) {
	r := New()
	r.Set("note", value.Null())

	assert.True(t, r.Has("note"))
	v, err := r.Get("note")
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	assert.False(t, r.Has("other"))
}

func TestInsertionOrderPreserved(t *testing.T) {
	r := Of(
		Pair{"z", value.Int(1)},
		Pair{"a", value.Int(2)},
		Pair{"m", value.Int(3)},
	)
	assert.Equal(t, []string{"z", "a", "m"}, r.Keys())

	// Overwrite keeps the original position.
	r.Set("a", value.Int(20))
	assert.Equal(t, []string{"z", "a", "m"}, r.Keys())

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.True(t, got.Equal(value.Int(20)))
}

func TestCaseSensitiveNames(t *testing.T) {
	r := New()
	r.Set("Name", value.Str("upper"))
	r.Set("name", value.Str("lower"))

	assert.Equal(t, 2, r.Len())
	v, err := r.Get("name")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Str("lower")))
}

func TestCloneIsIndependent(t *testing.T) {
	r := Of(Pair{"a", value.Int(1)})
	cp := r.Clone()
	cp.Set("a", value.Int(99))
	cp.Set("b", value.Int(2))

	v, err := r.Get("a")
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Int(1)))
	assert.False(t, r.Has("b"))
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := Of(Pair{"x", value.Int(1)}, Pair{"y", value.Int(2)})
	b := Of(Pair{"y", value.Int(2)}, Pair{"x", value.Int(1)})
	c := Of(Pair{"x", value.Int(1)})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestTypedAccessor(t *testing.T) {
	r := Of(
		Pair{"name", value.Str("ada")},
		Pair{"age", value.Int(36)},
		Pair{"score", value.Float(0.75)},
		Pair{"active", value.Bool(true)},
	)

	name, err := As[string](r, "name")
	require.NoError(t, err)
	assert.Equal(t, "ada", name)

	age, err := As[int64](r, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(36), age)

	score, err := As[float64](r, "score")
	require.NoError(t, err)
	assert.Equal(t, 0.75, score)

	active, err := As[bool](r, "active")
	require.NoError(t, err)
	assert.True(t, active)

	// Kind mismatch surfaces the conversion error under a FieldError.
	_, err = As[int64](r, "name")
	require.Error(t, err)
	var convErr *value.ConversionError
	assert.ErrorAs(t, err, &convErr)

	_, err = As[string](r, "missing")
	assert.ErrorIs(t, err, ErrFieldMissing)
}

func TestDebugString(t *testing.T) {
	r := Of(Pair{"id", value.Int(1)}, Pair{"name", value.Str("x")})
	assert.Equal(t, `{id: 1, name: "x"}`, r.String())
}
