package memsource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/value"
)

func rec(name string, n int64) record.Record {
	return record.Of(
		record.Pair{Name: "name", Value: value.Str(name)},
		record.Pair{Name: "n", Value: value.Int(n)},
	)
}

func TestFetchAllSnapshotOrder(t *testing.T) {
	s := New()
	a := s.Seed(rec("a", 1))
	b := s.Seed(rec("b", 2))

	rows, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].ID.Equal(a))
	assert.True(t, rows[1].ID.Equal(b))

	// Mutating the snapshot must not affect the store.
	rows[0].Record.Set("name", value.Str("mutated"))
	got, err := s.FetchOne(context.Background(), a)
	require.NoError(t, err)
	v, _ := got.Get("name")
	assert.True(t, v.Equal(value.Str("a")))
}

func TestFetchOneNotFound(t *testing.T) {
	s := New()
	_, err := s.FetchOne(context.Background(), source.StringID("nope"))
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestInsertWithoutKeyGeneratesFreshIDs(t *testing.T) {
	s := New()
	id1, err := s.Insert(context.Background(), "", rec("a", 1))
	require.NoError(t, err)
	id2, err := s.Insert(context.Background(), "", rec("a", 1))
	require.NoError(t, err)

	assert.False(t, id1.Equal(id2))
	assert.Equal(t, 2, s.Len())
}

func TestInsertIdempotencyKey(t *testing.T) {
	s := New()
	id1, err := s.Insert(context.Background(), "k1", rec("a", 1))
	require.NoError(t, err)

	// Retry after an uncertain failure: same key, same identifier,
	// nothing new stored.
	id2, err := s.Insert(context.Background(), "k1", rec("a", 1))
	require.NoError(t, err)
	assert.True(t, id1.Equal(id2))
	assert.Equal(t, 1, s.Len())

	// A different key is a different record.
	_, err = s.Insert(context.Background(), "k2", rec("b", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestUpdate(t *testing.T) {
	s := New()
	id := s.Seed(rec("a", 1))

	require.NoError(t, s.Update(context.Background(), id, rec("a", 99)))
	got, err := s.FetchOne(context.Background(), id)
	require.NoError(t, err)
	n, err := record.As[int64](got, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(99), n)

	// Replaying the identical update changes nothing.
	require.NoError(t, s.Update(context.Background(), id, rec("a", 99)))
	again, err := s.FetchOne(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.Equal(again))

	err = s.Update(context.Background(), source.StringID("nope"), rec("x", 0))
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New()
	id := s.Seed(rec("a", 1))

	require.NoError(t, s.Delete(context.Background(), id))
	assert.Equal(t, 0, s.Len())

	// Deleting an already-absent id is success, not an error.
	require.NoError(t, s.Delete(context.Background(), id))
}

func TestDeleteFreesIdempotencyKey(t *testing.T) {
	s := New()
	id, err := s.Insert(context.Background(), "k1", rec("a", 1))
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), id))

	id2, err := s.Insert(context.Background(), "k1", rec("a", 2))
	require.NoError(t, err)
	assert.False(t, id.Equal(id2), "a deleted record's key is reusable")
	assert.Equal(t, 1, s.Len())
}

func TestFailWith(t *testing.T) {
	s := New()
	s.Seed(rec("a", 1))
	s.FailWith(source.ErrSourceUnavailable)

	_, err := s.FetchAll(context.Background())
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	_, err = s.Insert(context.Background(), "", rec("b", 2))
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)

	s.FailWith(nil)
	_, err = s.FetchAll(context.Background())
	assert.NoError(t, err)
}

func TestContextCancellation(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchAll(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = s.Insert(ctx, "", rec("a", 1))
	assert.True(t, errors.Is(err, context.Canceled))
}
