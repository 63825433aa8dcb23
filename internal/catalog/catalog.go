// Package catalog turns the loaded configuration into live data
// sources. Each configured source becomes a Handle carrying the opened
// backend, its type system and, when the config declares an entity, a
// record binding that types every value passing through.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/romaninsh/vantage/internal/config"
	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/entity"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/sources/csvsource"
	"github.com/romaninsh/vantage/pkg/sources/memsource"
	"github.com/romaninsh/vantage/pkg/sources/restsource"
	"github.com/romaninsh/vantage/pkg/sources/sqlsource"
	"github.com/romaninsh/vantage/pkg/typesys"
	"github.com/romaninsh/vantage/pkg/value"

	// Backend type systems register themselves on import.
	_ "github.com/romaninsh/vantage/pkg/typesys/csvtype"
	_ "github.com/romaninsh/vantage/pkg/typesys/jsontype"
	_ "github.com/romaninsh/vantage/pkg/typesys/sqltype"

	_ "modernc.org/sqlite"
)

// UnknownSourceError is returned when a source name is not configured.
type UnknownSourceError struct {
	Name      string
	Available []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q (configured: %v)", e.Name, e.Available)
}

// Handle is one opened source from the catalog.
type Handle struct {
	Name   string
	Config config.SourceConfig

	// Source is the opened backend.
	Source source.Full

	// System converts between typed values and the backend's native
	// value shapes.
	System typesys.System

	binding *entity.Binding[record.Record]
	logger  *slog.Logger
}

// Typed reports whether the source carries an entity declaration.
func (h *Handle) Typed() bool { return h.binding != nil }

// Set returns the data set for the handle: typed when the config
// declares an entity, raw otherwise.
func (h *Handle) Set(opts ...dataset.Option) *dataset.DataSet[record.Record] {
	opts = append([]dataset.Option{dataset.WithLogger(h.logger)}, opts...)
	if h.binding != nil {
		return dataset.New(h.Source, h.binding, opts...)
	}
	return dataset.NewRaw(h.Source, opts...)
}

// Raw returns the untyped data set regardless of any entity
// declaration. Records pass through in the backend's native shapes.
func (h *Handle) Raw(opts ...dataset.Option) *dataset.DataSet[record.Record] {
	opts = append([]dataset.Option{dataset.WithLogger(h.logger)}, opts...)
	return dataset.NewRaw(h.Source, opts...)
}

// Catalog holds the opened sources of a configuration.
type Catalog struct {
	logger  *slog.Logger
	handles map[string]*Handle
	closers []func() error
}

// Open opens every configured source. On error the sources opened so
// far are closed before returning.
func Open(cfg *config.Config, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{
		logger:  logger,
		handles: make(map[string]*Handle, len(cfg.Sources)),
	}
	for name, src := range cfg.Sources {
		h, err := c.open(name, src)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		c.handles[name] = h
	}
	return c, nil
}

// Get returns the handle for a configured source.
func (c *Catalog) Get(name string) (*Handle, error) {
	h, ok := c.handles[name]
	if !ok {
		return nil, &UnknownSourceError{Name: name, Available: c.Names()}
	}
	return h, nil
}

// Names returns the configured source names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.handles))
	for name := range c.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every backend that holds resources.
func (c *Catalog) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Catalog) open(name string, cfg config.SourceConfig) (*Handle, error) {
	var (
		src source.Full
		err error
	)
	switch cfg.Type {
	case config.TypeMemory:
		src = memsource.New()
	case config.TypeCSV:
		opts := []csvsource.Option{csvsource.WithLogger(c.logger)}
		if cfg.KeyColumn != "" {
			opts = append(opts, csvsource.WithKeyColumn(cfg.KeyColumn))
		}
		src = csvsource.New(cfg.Path, opts...)
	case config.TypeSQLite:
		var db *sql.DB
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		c.closers = append(c.closers, db.Close)
		src, err = sqlsource.New(db, sqlsource.Config{
			Table:     cfg.Table,
			KeyColumn: cfg.KeyColumn,
			Columns:   cfg.Columns,
		}, sqlsource.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
	case config.TypeREST:
		opts := []restsource.Option{restsource.WithLogger(c.logger)}
		if cfg.IDField != "" {
			opts = append(opts, restsource.WithIDField(cfg.IDField))
		}
		src = restsource.New(cfg.URL, opts...)
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}

	sys, err := typesys.Resolve(systemTag(cfg.Type))
	if err != nil {
		return nil, err
	}

	h := &Handle{
		Name:   name,
		Config: cfg,
		Source: src,
		System: sys,
		logger: c.logger,
	}
	if len(cfg.Entity) > 0 {
		h.binding, err = buildBinding(name, cfg.Entity, sys)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

// systemTag picks the type system for a backend. Memory and REST
// sources both carry JSON-shaped values.
func systemTag(sourceType string) string {
	switch sourceType {
	case config.TypeCSV:
		return "csv"
	case config.TypeSQLite:
		return "sql"
	default:
		return "json"
	}
}

// buildBinding compiles a config-declared entity into a binding over
// plain records. Declared fields are typed and checked; fields the
// declaration does not mention are dropped.
func buildBinding(name string, fields []config.FieldConfig, sys typesys.System) (*entity.Binding[record.Record], error) {
	defs := make([]entity.Field[record.Record], 0, len(fields))
	for _, fc := range fields {
		kind, err := KindOf(fc.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fc.Name, err)
		}
		f := recordField(fc.Name, kind, fc.Optional)
		if fc.Default != nil {
			def, err := ParseLiteral(kind, *fc.Default)
			if err != nil {
				return nil, fmt.Errorf("field %q: default: %w", fc.Name, err)
			}
			f = f.WithDefault(def)
		}
		defs = append(defs, f)
	}
	d, err := entity.NewDefinition(name, defs...)
	if err != nil {
		return nil, err
	}
	return entity.Bind(d, sys)
}

func recordField(fieldName string, kind value.Kind, optional bool) entity.Field[record.Record] {
	return entity.Field[record.Record]{
		Name:     fieldName,
		Kind:     kind,
		Optional: optional,
		Get: func(r *record.Record) (value.Value, bool) {
			v, err := r.Get(fieldName)
			if err != nil {
				return value.Value{}, false
			}
			return v, true
		},
		Set: func(r *record.Record, v value.Value) {
			r.Set(fieldName, v)
		},
	}
}

// KindOf maps a config-declared field type to its value kind.
func KindOf(typ string) (value.Kind, error) {
	switch typ {
	case "string":
		return value.KindString, nil
	case "int":
		return value.KindInt, nil
	case "float":
		return value.KindFloat, nil
	case "bool":
		return value.KindBool, nil
	default:
		return 0, fmt.Errorf("unknown type %q", typ)
	}
}

// ParseLiteral reads a value written in the field's type syntax, as
// used by config defaults and CLI field arguments.
func ParseLiteral(kind value.Kind, s string) (value.Value, error) {
	switch kind {
	case value.KindString:
		return value.Str(s), nil
	case value.KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(n), nil
	case value.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(f), nil
	case value.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(b), nil
	default:
		return value.Value{}, fmt.Errorf("kind %v has no default syntax", kind)
	}
}
