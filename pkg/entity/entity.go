// Package entity binds a structured application record type to a type
// system, producing and consuming fully-typed entities.
//
// Field access is wired with explicit getter and setter functions rather
// than reflection, so the set of convertible fields is fixed when the
// definition is written and verified once when it is bound.
package entity

import (
	"errors"
	"fmt"

	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/typesys"
	"github.com/romaninsh/vantage/pkg/value"
)

// ErrConversion reports that a native value could not be converted to a
// field's declared kind.
var ErrConversion = errors.New("value not convertible")

// Field declares one field of an entity: its record name, value kind,
// and how to move the value in and out of the entity struct.
//
// Get returns the field's current value and whether it is present; an
// optional field with no value reports false. Set stores a value already
// converted to the declared kind.
type Field[E any] struct {
	Name     string
	Kind     value.Kind
	Optional bool
	Default  *value.Value
	Get      func(*E) (value.Value, bool)
	Set      func(*E, value.Value)
}

// Definition is the fixed field set of an entity type.
type Definition[E any] struct {
	name   string
	fields []Field[E]
}

// NewDefinition builds an entity definition. Field names must be unique.
func NewDefinition[E any](name string, fields ...Field[E]) (*Definition[E], error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("entity %s: field with empty name", name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("entity %s: duplicate field %q", name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Get == nil || f.Set == nil {
			return nil, fmt.Errorf("entity %s: field %q lacks accessors", name, f.Name)
		}
	}
	return &Definition[E]{name: name, fields: fields}, nil
}

// MustDefinition is NewDefinition for static declarations; it panics on
// an invalid definition.
func MustDefinition[E any](name string, fields ...Field[E]) *Definition[E] {
	def, err := NewDefinition(name, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the entity type name.
func (d *Definition[E]) Name() string { return d.name }

// Fields returns the declared fields in order.
func (d *Definition[E]) Fields() []Field[E] {
	return append([]Field[E](nil), d.fields...)
}

// BindError reports that an entity definition cannot be bound to a type
// system.
type BindError struct {
	Entity string
	Field  string
	System string
	Reason string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("cannot bind entity %s to type system %s: field %q: %s",
		e.Entity, e.System, e.Field, e.Reason)
}

// MarshalError reports a failed record-to-entity conversion.
type MarshalError struct {
	Entity string
	Field  string
	Err    error
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("entity %s: field %q: %v", e.Entity, e.Field, e.Err)
}

func (e *MarshalError) Unwrap() error { return e.Err }

// Binding is an entity definition verified against one type system.
// Construction checks every field's convertibility once, so Decode and
// Encode can assume it.
type Binding[E any] struct {
	def *Definition[E]
	sys typesys.System
}

// Bind verifies that every declared field kind has a conversion in the
// given type system and that defaults match their field's kind.
func Bind[E any](def *Definition[E], sys typesys.System) (*Binding[E], error) {
	for _, f := range def.fields {
		if !sys.Supports(f.Kind) {
			return nil, &BindError{
				Entity: def.name,
				Field:  f.Name,
				System: sys.Tag(),
				Reason: fmt.Sprintf("kind %s has no conversion", f.Kind),
			}
		}
		if f.Default != nil && f.Default.Kind() != f.Kind {
			return nil, &BindError{
				Entity: def.name,
				Field:  f.Name,
				System: sys.Tag(),
				Reason: fmt.Sprintf("default is %s, field is %s", f.Default.Kind(), f.Kind),
			}
		}
	}
	return &Binding[E]{def: def, sys: sys}, nil
}

// Definition returns the bound definition.
func (b *Binding[E]) Definition() *Definition[E] { return b.def }

// System returns the bound type system.
func (b *Binding[E]) System() typesys.System { return b.sys }

// Decode converts a raw record into a fully-typed entity.
//
// Per field: an absent record field takes the declared default, is
// skipped when optional, and otherwise fails with ErrFieldMissing. A
// present field goes through the type system; a failed conversion is
// degraded to "absent" for optional fields and fails the whole record
// for required ones. Decode never yields a partially-built entity.
func (b *Binding[E]) Decode(rec record.Record) (E, error) {
	var e E
	for _, f := range b.def.fields {
		native, err := rec.Get(f.Name)
		if err != nil {
			if f.Default != nil {
				f.Set(&e, *f.Default)
				continue
			}
			if f.Optional {
				continue
			}
			var zero E
			return zero, &MarshalError{Entity: b.def.name, Field: f.Name, Err: record.ErrFieldMissing}
		}
		converted, ok := b.sys.Decode(native, f.Kind)
		if !ok {
			if f.Optional {
				continue
			}
			var zero E
			return zero, &MarshalError{Entity: b.def.name, Field: f.Name, Err: ErrConversion}
		}
		f.Set(&e, converted)
	}
	return e, nil
}

// Encode converts an entity into a record, one key per present field,
// in declaration order. Encode always succeeds: the type system's
// native direction is total for every bound kind.
func (b *Binding[E]) Encode(e *E) record.Record {
	rec := record.New()
	for _, f := range b.def.fields {
		v, present := f.Get(e)
		if !present {
			continue
		}
		rec.Set(f.Name, b.sys.Encode(v))
	}
	return rec
}
