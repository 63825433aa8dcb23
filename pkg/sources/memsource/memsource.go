// Package memsource provides an in-memory data source implementing every
// capability. It backs tests and examples, and doubles as the reference
// for the idempotent-insert contract: inserts carrying the same key store
// exactly one record and return the same identifier.
package memsource

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
)

// Source is an in-memory ordered collection of records. The zero value
// is not usable; call New.
type Source struct {
	mu    sync.RWMutex
	rows  []source.Row
	index map[source.ID]int
	byKey map[string]source.ID
	fail  error
}

var _ source.Full = (*Source)(nil)

// New returns an empty in-memory source.
func New() *Source {
	return &Source{
		index: map[source.ID]int{},
		byKey: map[string]source.ID{},
	}
}

// FailWith makes every subsequent operation return err until called
// again with nil. Used to exercise unavailable-source paths.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Seed stores a record under a generated identifier without going
// through the insert contract, and returns that identifier.
func (s *Source) Seed(rec record.Record) source.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := source.StringID(uuid.NewString())
	s.append(id, rec)
	return id
}

// SeedWithID stores a record under the given identifier, replacing any
// existing record with that identifier.
func (s *Source) SeedWithID(id source.ID, rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		s.rows[i].Record = rec.Clone()
		return
	}
	s.append(id, rec)
}

// Len returns the number of stored records.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// append requires s.mu held for writing.
func (s *Source) append(id source.ID, rec record.Record) {
	s.index[id] = len(s.rows)
	s.rows = append(s.rows, source.Row{ID: id, Record: rec.Clone()})
}

// FetchAll returns a snapshot of the collection in insertion order.
func (s *Source) FetchAll(ctx context.Context) ([]source.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]source.Row, len(s.rows))
	for i, row := range s.rows {
		out[i] = source.Row{ID: row.ID, Record: row.Record.Clone()}
	}
	return out, nil
}

// FetchOne returns the record stored under id, or source.ErrNotFound.
func (s *Source) FetchOne(ctx context.Context, id source.ID) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return record.Record{}, s.fail
	}
	i, ok := s.index[id]
	if !ok {
		return record.Record{}, source.ErrNotFound
	}
	return s.rows[i].Record.Clone(), nil
}

// Insert stores a new record. A non-empty key dedups: a repeat insert
// under the same key stores nothing and returns the original
// identifier.
func (s *Source) Insert(ctx context.Context, key string, rec record.Record) (source.ID, error) {
	if err := ctx.Err(); err != nil {
		return source.ID{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return source.ID{}, s.fail
	}
	if key != "" {
		if id, ok := s.byKey[key]; ok {
			return id, nil
		}
	}
	id := source.StringID(uuid.NewString())
	s.append(id, rec)
	if key != "" {
		s.byKey[key] = id
	}
	return id, nil
}

// Update replaces the record stored under id, or reports
// source.ErrNotFound.
func (s *Source) Update(ctx context.Context, id source.ID, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	i, ok := s.index[id]
	if !ok {
		return source.ErrNotFound
	}
	s.rows[i].Record = rec.Clone()
	return nil
}

// Delete removes the record stored under id. Deleting an absent
// identifier succeeds.
func (s *Source) Delete(ctx context.Context, id source.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.rows); j++ {
		s.index[s.rows[j].ID] = j
	}
	for key, kid := range s.byKey {
		if kid.Equal(id) {
			delete(s.byKey, key)
		}
	}
	return nil
}
