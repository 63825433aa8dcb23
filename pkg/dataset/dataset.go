// Package dataset provides the capability-gated façade over one data
// source, typed to one entity (or to raw records).
//
// Capabilities are expressed through construction, not runtime flags:
// each constructor takes the narrow source interface it needs, so a
// dataset over a read-only backend that tries to insert is rejected by
// the compiler, not at call time. A set holds no state between calls
// and never caches; every operation round-trips to the source.
//
// Write operations are never retried internally. Insert takes an
// optional idempotency key so the caller can retry an operation whose
// result was lost; the source contract guarantees the retry stores
// nothing new and returns the same identifier.
package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/romaninsh/vantage/pkg/entity"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
)

// Marshaller converts between raw records and the set's entity type.
// entity.Binding satisfies it; Identity provides the untyped fallback.
type Marshaller[E any] interface {
	Decode(record.Record) (E, error)
	Encode(*E) record.Record
}

var _ Marshaller[struct{}] = (*entity.Binding[struct{}])(nil)

// Entry pairs an identifier with its decoded entity.
type Entry[E any] struct {
	ID     source.ID
	Entity E
}

// DecodeError reports that a single-record fetch produced a record the
// marshaller could not decode. Unlike List, Get cannot silently skip.
type DecodeError struct {
	ID  source.ID
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed for record %s: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Option configures a set at construction.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
	onSkip func(source.ID, error)
}

// WithLogger sets the logger used for skip diagnostics. The default
// discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSkipObserver installs a side channel notified for every row List
// drops; the primary return value deliberately carries no per-row
// detail.
func WithSkipObserver(fn func(id source.ID, err error)) Option {
	return func(s *settings) {
		s.onSkip = fn
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// ReadSet exposes the read capability: list and get.
type ReadSet[E any] struct {
	src source.Reader
	mar Marshaller[E]
	cfg settings
}

// NewReadSet builds a read-only set over a readable source.
func NewReadSet[E any](src source.Reader, mar Marshaller[E], opts ...Option) *ReadSet[E] {
	return &ReadSet[E]{src: src, mar: mar, cfg: newSettings(opts)}
}

// List fetches the entire collection eagerly and decodes every row.
// Rows that fail decoding are excluded from the result, reported only
// through the skip observer and debug log; the caller never observes a
// partially-decoded entity. Re-invoking re-fetches.
func (s *ReadSet[E]) List(ctx context.Context) ([]Entry[E], error) {
	rows, err := s.src.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry[E], 0, len(rows))
	for _, row := range rows {
		e, err := s.mar.Decode(row.Record)
		if err != nil {
			s.cfg.logger.Debug("skipping undecodable row",
				"id", row.ID.String(), "error", err)
			if s.cfg.onSkip != nil {
				s.cfg.onSkip(row.ID, err)
			}
			continue
		}
		out = append(out, Entry[E]{ID: row.ID, Entity: e})
	}
	return out, nil
}

// ListRecords fetches the collection without per-field decoding. Only
// rows the source itself could not parse structurally are absent; no
// row is dropped for a type mismatch.
func (s *ReadSet[E]) ListRecords(ctx context.Context) ([]source.Row, error) {
	return s.src.FetchAll(ctx)
}

// Get fetches one record by identifier. An absent identifier is
// source.ErrNotFound; a record that fails decoding is a DecodeError,
// never a silent skip.
func (s *ReadSet[E]) Get(ctx context.Context, id source.ID) (E, error) {
	var zero E
	rec, err := s.src.FetchOne(ctx, id)
	if err != nil {
		return zero, err
	}
	e, err := s.mar.Decode(rec)
	if err != nil {
		return zero, &DecodeError{ID: id, Err: err}
	}
	return e, nil
}

// InsertOption configures a single insert.
type InsertOption func(*insertSettings)

type insertSettings struct {
	key string
}

// WithKey supplies the idempotency key for one insert. Retrying the
// insert with the same key after an uncertain failure is safe: the
// source stores at most one record under the key and returns its
// identifier.
func WithKey(key string) InsertOption {
	return func(s *insertSettings) { s.key = key }
}

// InsertSet exposes the insert capability.
type InsertSet[E any] struct {
	src source.Inserter
	mar Marshaller[E]
	cfg settings
}

// NewInsertSet builds an insert-only set over an insertable source.
func NewInsertSet[E any](src source.Inserter, mar Marshaller[E], opts ...Option) *InsertSet[E] {
	return &InsertSet[E]{src: src, mar: mar, cfg: newSettings(opts)}
}

// Insert stores the entity and returns its identifier.
func (s *InsertSet[E]) Insert(ctx context.Context, e *E, opts ...InsertOption) (source.ID, error) {
	var is insertSettings
	for _, o := range opts {
		o(&is)
	}
	return s.src.Insert(ctx, is.key, s.mar.Encode(e))
}

// EditSet exposes the edit capability.
type EditSet[E any] struct {
	src source.Editor
	mar Marshaller[E]
	cfg settings
}

// NewEditSet builds an edit-only set over an editable source.
func NewEditSet[E any](src source.Editor, mar Marshaller[E], opts ...Option) *EditSet[E] {
	return &EditSet[E]{src: src, mar: mar, cfg: newSettings(opts)}
}

// Update replaces the record under id with the entity's fields.
// Replaying an identical update is observably a no-op.
func (s *EditSet[E]) Update(ctx context.Context, id source.ID, e *E) error {
	return s.src.Update(ctx, id, s.mar.Encode(e))
}

// Delete removes the record under id. Deleting an absent identifier is
// success.
func (s *EditSet[E]) Delete(ctx context.Context, id source.ID) error {
	return s.src.Delete(ctx, id)
}

// DataSet combines every capability over a fully-capable source.
type DataSet[E any] struct {
	ReadSet[E]
	InsertSet[E]
	EditSet[E]
}

// New builds a full dataset over a source implementing all three
// capabilities.
func New[E any](src source.Full, mar Marshaller[E], opts ...Option) *DataSet[E] {
	return &DataSet[E]{
		ReadSet:   *NewReadSet(src, mar, opts...),
		InsertSet: *NewInsertSet[E](src, mar, opts...),
		EditSet:   *NewEditSet[E](src, mar, opts...),
	}
}
