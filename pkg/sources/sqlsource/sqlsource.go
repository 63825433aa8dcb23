// Package sqlsource binds one table reachable through database/sql as a
// data source. Pair it with the sql type system.
//
// The caller owns the *sql.DB; this binding never opens, pools or closes
// connections. Statements use ?-placeholders and a fixed column list, no
// query building beyond that. Idempotent inserts ride on the key column:
// INSERT .. ON CONFLICT DO NOTHING followed by a re-select of the key.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/value"
)

// Config describes the bound table.
type Config struct {
	// Table is the table name.
	Table string
	// KeyColumn uniquely identifies a row; it doubles as the natural
	// key for idempotent inserts.
	KeyColumn string
	// Columns are the value columns, key column excluded.
	Columns []string
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger (default discards).
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.log = l
		}
	}
}

// Source is a single-table data source.
type Source struct {
	db     *sql.DB
	table  string
	keyCol string
	cols   []string
	log    *slog.Logger
}

var _ source.Full = (*Source)(nil)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New builds a source over the configured table. Table and column names
// must be plain identifiers; anything else is rejected here rather than
// interpolated into SQL.
func New(db *sql.DB, cfg Config, opts ...Option) (*Source, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlsource: nil database handle")
	}
	for _, name := range append([]string{cfg.Table, cfg.KeyColumn}, cfg.Columns...) {
		if !identRe.MatchString(name) {
			return nil, fmt.Errorf("sqlsource: invalid identifier %q", name)
		}
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("sqlsource: no value columns configured")
	}
	s := &Source{
		db:     db,
		table:  cfg.Table,
		keyCol: cfg.KeyColumn,
		cols:   append([]string(nil), cfg.Columns...),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Source) selectList() string {
	return quote(s.keyCol) + ", " + quoteJoin(s.cols)
}

func quote(name string) string { return `"` + name + `"` }

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

func (s *Source) scanRow(scan func(...any) error) (source.Row, error) {
	dest := make([]any, 1+len(s.cols))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := scan(dest...); err != nil {
		return source.Row{}, err
	}
	id, err := idOf(*dest[0].(*any))
	if err != nil {
		return source.Row{}, err
	}
	rec := record.New()
	for i, col := range s.cols {
		v, err := nativeOf(*dest[i+1].(*any))
		if err != nil {
			return source.Row{}, fmt.Errorf("column %q: %w", col, err)
		}
		rec.Set(col, v)
	}
	return source.Row{ID: id, Record: rec}, nil
}

func idOf(raw any) (source.ID, error) {
	switch k := raw.(type) {
	case int64:
		return source.IntID(k), nil
	case string:
		return source.StringID(k), nil
	case []byte:
		return source.StringID(string(k)), nil
	default:
		return source.ID{}, fmt.Errorf("unsupported key type %T", raw)
	}
}

// nativeOf maps a driver scan result into the sql type system's native
// value shapes.
func nativeOf(raw any) (value.Value, error) {
	switch k := raw.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(k), nil
	case int64:
		return value.Int(k), nil
	case float64:
		return value.Float(k), nil
	case string:
		return value.Str(k), nil
	case []byte:
		return value.Str(string(k)), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported driver type %T", raw)
	}
}

// argOf maps a native value to a driver argument.
func argOf(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case value.KindInt:
		i, _ := v.AsInt()
		return i, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f, nil
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	default:
		return nil, fmt.Errorf("kind %s has no column representation", v.Kind())
	}
}

// FetchAll reads the whole table ordered by key for deterministic
// output.
func (s *Source) FetchAll(ctx context.Context) ([]source.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		s.selectList(), quote(s.table), quote(s.keyCol))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []source.Row
	for rows.Next() {
		row, err := s.scanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", s.table, err)
	}
	return out, nil
}

// FetchOne reads one row by key, or source.ErrNotFound.
func (s *Source) FetchOne(ctx context.Context, id source.ID) (record.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		s.selectList(), quote(s.table), quote(s.keyCol))
	row, err := s.scanRow(s.db.QueryRowContext(ctx, query, keyArg(id)).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, source.ErrNotFound
	}
	if err != nil {
		return record.Record{}, fmt.Errorf("failed to fetch from %s: %w", s.table, err)
	}
	return row.Record, nil
}

func keyArg(id source.ID) any {
	if n, ok := id.Int(); ok {
		return n
	}
	return id.String()
}

// Insert stores a row. A non-empty key becomes the key column's value
// and conflicts do nothing; the returned identifier is re-selected so a
// retry observes the original row. Without a key, the record may carry
// its own key column value; failing that one is generated.
func (s *Source) Insert(ctx context.Context, key string, rec record.Record) (source.ID, error) {
	rec = rec.Clone()
	keyVal := key
	if keyVal == "" {
		if v, err := rec.Get(s.keyCol); err == nil {
			if sv, err := v.AsString(); err == nil {
				keyVal = sv
			}
		}
	}
	if keyVal == "" {
		keyVal = uuid.NewString()
	}
	rec.Remove(s.keyCol)

	cols := []string{s.keyCol}
	args := []any{keyVal}
	for _, p := range rec.Pairs() {
		if !contains(s.cols, p.Name) {
			return source.ID{}, fmt.Errorf("column %q not configured on %s", p.Name, s.table)
		}
		arg, err := argOf(p.Value)
		if err != nil {
			return source.ID{}, fmt.Errorf("column %q: %w", p.Name, err)
		}
		cols = append(cols, p.Name)
		args = append(args, arg)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO NOTHING",
		quote(s.table), quoteJoin(cols), placeholders(len(args)), quote(s.keyCol))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return source.ID{}, mapWriteError(s.table, err)
	}

	// Re-select so a deduped retry returns the stored identifier.
	sel := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quote(s.keyCol), quote(s.table), quote(s.keyCol))
	var raw any
	if err := s.db.QueryRowContext(ctx, sel, keyVal).Scan(&raw); err != nil {
		return source.ID{}, fmt.Errorf("failed to re-select key on %s: %w", s.table, err)
	}
	return idOf(raw)
}

// Update replaces the value columns of the row under id, or reports
// source.ErrNotFound.
func (s *Source) Update(ctx context.Context, id source.ID, rec record.Record) error {
	sets := make([]string, 0, rec.Len())
	args := make([]any, 0, rec.Len()+1)
	for _, p := range rec.Pairs() {
		if p.Name == s.keyCol {
			continue // row identity is not updatable
		}
		if !contains(s.cols, p.Name) {
			return fmt.Errorf("column %q not configured on %s", p.Name, s.table)
		}
		arg, err := argOf(p.Value)
		if err != nil {
			return fmt.Errorf("column %q: %w", p.Name, err)
		}
		sets = append(sets, quote(p.Name)+" = ?")
		args = append(args, arg)
	}
	if len(sets) == 0 {
		return fmt.Errorf("update of %s carries no value columns", s.table)
	}
	args = append(args, keyArg(id))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quote(s.table), strings.Join(sets, ", "), quote(s.keyCol))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(s.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result on %s: %w", s.table, err)
	}
	if affected == 0 {
		// Some drivers report zero for a value-identical update; only
		// a genuinely absent row is not found.
		exists := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", quote(s.table), quote(s.keyCol))
		var one int
		if err := s.db.QueryRowContext(ctx, exists, keyArg(id)).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return source.ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to check row on %s: %w", s.table, err)
		}
	}
	return nil
}

// Delete removes the row under id; an absent id is success.
func (s *Source) Delete(ctx context.Context, id source.ID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quote(s.table), quote(s.keyCol))
	if _, err := s.db.ExecContext(ctx, query, keyArg(id)); err != nil {
		return mapWriteError(s.table, err)
	}
	return nil
}

func mapWriteError(table string, err error) error {
	return fmt.Errorf("write to %s failed: %w", table, err)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
