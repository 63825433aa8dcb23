package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/romaninsh/vantage/internal/catalog"
	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/value"
)

// resolveID finds the record identified by a CLI argument. Identifiers
// are looked up as text first; a numeric argument that misses is
// retried as a number, covering sources with ordinal or integer keys.
func resolveID(ctx context.Context, ds *dataset.ReadSet[record.Record], arg string) (source.ID, record.Record, error) {
	id := source.StringID(arg)
	rec, err := ds.Get(ctx, id)
	if err == nil {
		return id, rec, nil
	}
	if !errors.Is(err, source.ErrNotFound) {
		return source.ID{}, record.Record{}, err
	}
	if n, convErr := strconv.ParseInt(arg, 10, 64); convErr == nil {
		numID := source.IntID(n)
		if rec, numErr := ds.Get(ctx, numID); numErr == nil {
			return numID, rec, nil
		}
	}
	return source.ID{}, record.Record{}, err
}

// parseFields turns repeated name=value flags into a record. Fields a
// handle's entity declares parse in their declared type; the rest
// parse as bool, int or float when they read as one, string otherwise.
func parseFields(h *catalog.Handle, args []string) (record.Record, error) {
	declared := map[string]string{}
	for _, fc := range h.Config.Entity {
		declared[fc.Name] = fc.Type
	}

	rec := record.New()
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return record.Record{}, fmt.Errorf("field %q: want name=value", arg)
		}
		typ, ok := declared[name]
		if !ok {
			if h.Typed() {
				return record.Record{}, fmt.Errorf("field %q: not declared for source %q", name, h.Name)
			}
			rec.Set(name, parseLiteral(raw))
			continue
		}
		kind, err := catalog.KindOf(typ)
		if err != nil {
			return record.Record{}, fmt.Errorf("field %q: %w", name, err)
		}
		v, err := catalog.ParseLiteral(kind, raw)
		if err != nil {
			return record.Record{}, fmt.Errorf("field %q: %w", name, err)
		}
		rec.Set(name, v)
	}
	if rec.Len() == 0 {
		return record.Record{}, fmt.Errorf("no fields given")
	}
	return rec, nil
}

// encodeNative converts a record's values into the backend's native
// shapes, rejecting kinds the backend cannot store.
func encodeNative(h *catalog.Handle, rec record.Record) (record.Record, error) {
	out := record.New()
	for _, p := range rec.Pairs() {
		if !h.System.Supports(p.Value.Kind()) {
			return record.Record{}, fmt.Errorf("field %q: %s source cannot store %s values",
				p.Name, h.Config.Type, p.Value.Kind())
		}
		out.Set(p.Name, h.System.Encode(p.Value))
	}
	return out, nil
}

func parseLiteral(s string) value.Value {
	switch s {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	case "null":
		return value.Null()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}
	return value.Str(s)
}
