package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaninsh/vantage/pkg/entity"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/typesys/csvtype"
	"github.com/romaninsh/vantage/pkg/typesys/jsontype"
	"github.com/romaninsh/vantage/pkg/value"
)

type person struct {
	Name  string
	Age   int64
	Score *float64
	City  string
}

func personDef() *entity.Definition[person] {
	return entity.MustDefinition("person",
		entity.String("name",
			func(p *person) string { return p.Name },
			func(p *person, s string) { p.Name = s }),
		entity.Int("age",
			func(p *person) int64 { return p.Age },
			func(p *person, i int64) { p.Age = i }),
		entity.OptionalFloat("score",
			func(p *person) *float64 { return p.Score },
			func(p *person, f float64) { p.Score = &f }),
		entity.String("city",
			func(p *person) string { return p.City },
			func(p *person, s string) { p.City = s }).
			WithDefault(value.Str("unknown")),
	)
}

func TestNewDefinitionRejectsDuplicates(t *testing.T) {
	_, err := entity.NewDefinition("bad",
		entity.Int("n", func(p *person) int64 { return p.Age }, func(p *person, i int64) { p.Age = i }),
		entity.Int("n", func(p *person) int64 { return p.Age }, func(p *person, i int64) { p.Age = i }),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate field "n"`)
}

func TestBindChecksConvertibilityUpFront(t *testing.T) {
	def := entity.MustDefinition("doc",
		entity.Field[person]{
			Name: "tags",
			Kind: value.KindArray,
			Get:  func(*person) (value.Value, bool) { return value.Array(), true },
			Set:  func(*person, value.Value) {},
		},
	)

	// Arrays are fine in JSON but have no flat-file representation.
	_, err := entity.Bind(def, jsontype.New())
	require.NoError(t, err)

	_, err = entity.Bind(def, csvtype.New())
	require.Error(t, err)
	var bindErr *entity.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "tags", bindErr.Field)
	assert.Equal(t, "csv", bindErr.System)
}

func TestBindRejectsMismatchedDefault(t *testing.T) {
	def := entity.MustDefinition("doc",
		entity.Int("n",
			func(p *person) int64 { return p.Age },
			func(p *person, i int64) { p.Age = i }).
			WithDefault(value.Str("not an int")),
	)
	_, err := entity.Bind(def, csvtype.New())
	require.Error(t, err)
	var bindErr *entity.BindError
	assert.ErrorAs(t, err, &bindErr)
}

func TestDecode(t *testing.T) {
	b, err := entity.Bind(personDef(), csvtype.New())
	require.NoError(t, err)

	t.Run("full record", func(t *testing.T) {
		got, err := b.Decode(record.Of(
			record.Pair{Name: "name", Value: value.Str("ada")},
			record.Pair{Name: "age", Value: value.Str("36")},
			record.Pair{Name: "score", Value: value.Str("0.5")},
			record.Pair{Name: "city", Value: value.Str("london")},
		))
		require.NoError(t, err)
		assert.Equal(t, "ada", got.Name)
		assert.Equal(t, int64(36), got.Age)
		require.NotNil(t, got.Score)
		assert.Equal(t, 0.5, *got.Score)
		assert.Equal(t, "london", got.City)
	})

	t.Run("absent field takes default", func(t *testing.T) {
		got, err := b.Decode(record.Of(
			record.Pair{Name: "name", Value: value.Str("ada")},
			record.Pair{Name: "age", Value: value.Str("36")},
		))
		require.NoError(t, err)
		assert.Equal(t, "unknown", got.City)
		assert.Nil(t, got.Score, "absent optional stays absent")
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := b.Decode(record.Of(
			record.Pair{Name: "name", Value: value.Str("ada")},
		))
		require.Error(t, err)
		assert.ErrorIs(t, err, record.ErrFieldMissing)
		var marshalErr *entity.MarshalError
		require.ErrorAs(t, err, &marshalErr)
		assert.Equal(t, "age", marshalErr.Field)
	})

	t.Run("unparsable required field", func(t *testing.T) {
		_, err := b.Decode(record.Of(
			record.Pair{Name: "name", Value: value.Str("ada")},
			record.Pair{Name: "age", Value: value.Str("umpteen")},
		))
		require.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrConversion)
	})

	t.Run("unparsable optional degrades to absent", func(t *testing.T) {
		got, err := b.Decode(record.Of(
			record.Pair{Name: "name", Value: value.Str("ada")},
			record.Pair{Name: "age", Value: value.Str("36")},
			record.Pair{Name: "score", Value: value.Str("not a number")},
		))
		require.NoError(t, err)
		assert.Nil(t, got.Score)
	})
}

func TestEncode(t *testing.T) {
	b, err := entity.Bind(personDef(), csvtype.New())
	require.NoError(t, err)

	score := 0.5
	rec := b.Encode(&person{Name: "ada", Age: 36, Score: &score, City: "london"})
	assert.Equal(t, []string{"name", "age", "score", "city"}, rec.Keys())

	age, err := record.As[string](rec, "age")
	require.NoError(t, err)
	assert.Equal(t, "36", age, "csv natives are strings")

	// Absent optional fields are omitted, not written as null.
	rec = b.Encode(&person{Name: "ada", Age: 36, City: "london"})
	assert.False(t, rec.Has("score"))
}

// Entities encodable under a bound type system decode back to themselves.
func TestRoundTrip(t *testing.T) {
	b, err := entity.Bind(personDef(), csvtype.New())
	require.NoError(t, err)

	score := 1.25
	cases := []person{
		{Name: "ada", Age: 36, City: "london"},
		{Name: "", Age: 0, City: "x"},
		{Name: "with,comma", Age: -1, Score: &score, City: "y"},
	}
	for _, want := range cases {
		rec := b.Encode(&want)
		got, err := b.Decode(rec)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
