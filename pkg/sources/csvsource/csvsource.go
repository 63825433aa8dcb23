// Package csvsource binds a header-driven CSV file as a data source.
//
// All natives are strings; pair it with the csv type system. Rows whose
// field count does not match the header are structurally malformed and
// are skipped on read. Writes rewrite the whole file through a temp
// file and rename, so a crashed write never leaves a half-written file.
// Because the rewrite is built from the parsed rows, a write also drops
// any malformed rows the read skipped; the drop is logged with the
// affected row count.
//
// With a key column configured, a row's identifier is that column's
// value and inserts dedup on it; otherwise identifiers are 1-based row
// ordinals and idempotency keys are not supported.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/value"
)

// Option configures a Source.
type Option func(*Source)

// WithKeyColumn names the column whose value identifies a row. Required
// for idempotent inserts.
func WithKeyColumn(name string) Option {
	return func(s *Source) { s.keyCol = name }
}

// WithLogger sets the logger for skip diagnostics (default discards).
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.log = l
		}
	}
}

// Source is a CSV file data source.
type Source struct {
	path   string
	keyCol string
	log    *slog.Logger

	// Serializes rewrites; readers re-read the file each call.
	mu sync.Mutex
}

var _ source.Full = (*Source)(nil)

// New returns a source over the CSV file at path. The file must carry a
// header row; it does not need to exist until first use for writes.
func New(path string, opts ...Option) *Source {
	s := &Source{path: path, log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
}

type table struct {
	header  []string
	rows    []source.Row // cells kept inside Record, all string values
	skipped int          // malformed rows dropped while parsing
}

func (s *Source) rowID(ordinal int, rec record.Record) source.ID {
	if s.keyCol != "" {
		if v, err := rec.Get(s.keyCol); err == nil {
			if key, err := v.AsString(); err == nil {
				return source.StringID(key)
			}
		}
	}
	return source.IntID(int64(ordinal))
}

// load reads and parses the whole file. Structurally malformed rows are
// skipped here; this is the only place rows can go missing from the raw
// view.
func (s *Source) load() (*table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // structural check is ours

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file %s has no header row", s.path)
	}
	if err != nil {
		return nil, unavailable(err)
	}

	t := &table{header: header}
	ordinal := 0
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Delimiter-level damage the csv parser cannot recover from
			// in this row only.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				ordinal++
				t.skipped++
				s.log.Debug("skipping malformed csv row", "path", s.path, "line", parseErr.Line, "error", err)
				continue
			}
			return nil, unavailable(err)
		}
		ordinal++
		if len(cells) != len(header) {
			t.skipped++
			s.log.Debug("skipping csv row with wrong field count",
				"path", s.path, "row", ordinal, "want", len(header), "got", len(cells))
			continue
		}
		rec := record.New()
		for i, h := range header {
			rec.Set(h, value.Str(cells[i]))
		}
		t.rows = append(t.rows, source.Row{ID: s.rowID(ordinal, rec), Record: rec})
	}
	return t, nil
}

// store rewrites the file atomically from the parsed rows. Rows load
// skipped as malformed do not make it back; they are gone after a
// successful write.
func (s *Source) store(t *table) error {
	if t.skipped > 0 {
		s.log.Warn("rewriting csv file drops malformed rows",
			"path", s.path, "rows", t.skipped)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return unavailable(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		_ = tmp.Close()
		return unavailable(err)
	}
	for _, row := range t.rows {
		cells := make([]string, len(t.header))
		for i, h := range t.header {
			v, err := row.Record.Get(h)
			if err != nil {
				continue // absent column writes as empty
			}
			cell, err := v.AsString()
			if err != nil {
				_ = tmp.Close()
				return fmt.Errorf("csv cell %q must hold a string native, got %s", h, v.Kind())
			}
			cells[i] = cell
		}
		if err := w.Write(cells); err != nil {
			_ = tmp.Close()
			return unavailable(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return unavailable(err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return unavailable(err)
	}
	return nil
}

// FetchAll reads every structurally valid row.
func (s *Source) FetchAll(ctx context.Context) ([]source.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.load()
	if err != nil {
		return nil, err
	}
	return t.rows, nil
}

// FetchOne reads the row identified by id, or source.ErrNotFound.
func (s *Source) FetchOne(ctx context.Context, id source.ID) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, err
	}
	t, err := s.load()
	if err != nil {
		return record.Record{}, err
	}
	for _, row := range t.rows {
		if row.ID.Equal(id) {
			return row.Record, nil
		}
	}
	return record.Record{}, source.ErrNotFound
}

// Insert appends a row. With a key column, the idempotency key doubles
// as the natural key: an existing row under the record's key value is
// left untouched and its identifier returned. Without a key column, a
// non-empty key is rejected since dedup would be impossible.
func (s *Source) Insert(ctx context.Context, key string, rec record.Record) (source.ID, error) {
	if err := ctx.Err(); err != nil {
		return source.ID{}, err
	}
	if key != "" && s.keyCol == "" {
		return source.ID{}, fmt.Errorf("idempotent insert requires a key column on %s", s.path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return source.ID{}, err
	}

	rec = rec.Clone()
	if key != "" && !rec.Has(s.keyCol) {
		rec.Set(s.keyCol, value.Str(key))
	}
	for _, name := range rec.Keys() {
		if !contains(t.header, name) {
			return source.ID{}, fmt.Errorf("column %q not in csv header of %s", name, s.path)
		}
	}

	id := s.rowID(len(t.rows)+1, rec)
	if s.keyCol != "" {
		for _, row := range t.rows {
			if row.ID.Equal(id) {
				return row.ID, nil // on conflict, do nothing
			}
		}
	}
	t.rows = append(t.rows, source.Row{ID: id, Record: rec})
	if err := s.store(t); err != nil {
		return source.ID{}, err
	}
	return id, nil
}

// Update replaces the row identified by id; columns absent from the
// record become empty cells.
func (s *Source) Update(ctx context.Context, id source.ID, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return err
	}
	for i, row := range t.rows {
		if row.ID.Equal(id) {
			next := rec.Clone()
			if s.keyCol != "" && !next.Has(s.keyCol) {
				// Identity sticks to the row unless explicitly rewritten.
				if v, err := row.Record.Get(s.keyCol); err == nil {
					next.Set(s.keyCol, v)
				}
			}
			t.rows[i].Record = next
			return s.store(t)
		}
	}
	return source.ErrNotFound
}

// Delete removes the row identified by id; an absent id is success.
func (s *Source) Delete(ctx context.Context, id source.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return err
	}
	for i, row := range t.rows {
		if row.ID.Equal(id) {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			return s.store(t)
		}
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Ordinal returns the identifier of the n-th data row (1-based) when no
// key column is configured.
func Ordinal(n int) source.ID { return source.IntID(int64(n)) }
