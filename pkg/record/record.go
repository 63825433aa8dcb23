// Package record provides the ordered field-name to value mapping that is
// the common currency between a data source and the entity marshaller.
//
// Field presence is observable and distinct from a field holding a null
// value; names are case-sensitive and unique within a record.
package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/romaninsh/vantage/pkg/value"
)

// ErrFieldMissing is reported when a requested field is absent.
var ErrFieldMissing = errors.New("field missing")

// FieldError reports a failed field access on a record.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Record is an ordered mapping from field name to value. Insertion order
// is preserved for deterministic serialization; lookup is by name only.
// The zero Record is empty and ready to use.
type Record struct {
	keys []string
	vals map[string]value.Value
}

// New returns an empty record.
func New() Record {
	return Record{vals: map[string]value.Value{}}
}

// Pair is one field of a record, used for literal construction.
type Pair struct {
	Name  string
	Value value.Value
}

// Of builds a record from pairs, preserving their order.
func Of(pairs ...Pair) Record {
	r := New()
	for _, p := range pairs {
		r.Set(p.Name, p.Value)
	}
	return r
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Has reports whether the field is present, regardless of its value.
func (r Record) Has(name string) bool {
	_, ok := r.vals[name]
	return ok
}

// Get returns the field's value, or a FieldError wrapping ErrFieldMissing.
func (r Record) Get(name string) (value.Value, error) {
	v, ok := r.vals[name]
	if !ok {
		return value.Value{}, &FieldError{Field: name, Err: ErrFieldMissing}
	}
	return v, nil
}

// Set stores the field. A new name appends to the field order; an
// existing name keeps its position.
func (r *Record) Set(name string, v value.Value) {
	if r.vals == nil {
		r.vals = map[string]value.Value{}
	}
	if _, ok := r.vals[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = v
}

// Remove deletes the field if present and reports whether it was.
func (r *Record) Remove(name string) bool {
	if _, ok := r.vals[name]; !ok {
		return false
	}
	delete(r.vals, name)
	for i, k := range r.keys {
		if k == name {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Pairs returns the fields in insertion order.
func (r Record) Pairs() []Pair {
	out := make([]Pair, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Pair{Name: k, Value: r.vals[k]})
	}
	return out
}

// Clone returns an independent copy.
func (r Record) Clone() Record {
	cp := Record{
		keys: append([]string(nil), r.keys...),
		vals: make(map[string]value.Value, len(r.vals)),
	}
	for k, v := range r.vals {
		cp.vals[k] = v
	}
	return cp
}

// Equal reports whether both records hold the same fields with
// structurally equal values. Field order is not significant.
func (r Record) Equal(o Record) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for k, v := range r.vals {
		ov, ok := o.vals[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the record in field order for debugging.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, r.vals[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Scalar is the set of Go types As can extract from a record field.
type Scalar interface {
	string | int64 | float64 | bool
}

// As extracts a field as a concrete scalar type. A missing field yields
// a FieldError wrapping ErrFieldMissing; a kind mismatch yields a
// FieldError wrapping the value conversion error.
func As[T Scalar](r Record, name string) (T, error) {
	var zero T
	v, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	got, err := scalarOf[T](v)
	if err != nil {
		return zero, &FieldError{Field: name, Err: err}
	}
	return got, nil
}

func scalarOf[T Scalar](v value.Value) (T, error) {
	var zero T
	switch any(zero).(type) {
	case string:
		s, err := v.AsString()
		if err != nil {
			return zero, err
		}
		return any(s).(T), nil
	case int64:
		i, err := v.AsInt()
		if err != nil {
			return zero, err
		}
		return any(i).(T), nil
	case float64:
		f, err := v.AsFloat()
		if err != nil {
			return zero, err
		}
		return any(f).(T), nil
	case bool:
		b, err := v.AsBool()
		if err != nil {
			return zero, err
		}
		return any(b).(T), nil
	}
	return zero, fmt.Errorf("unsupported scalar type %T", zero)
}
