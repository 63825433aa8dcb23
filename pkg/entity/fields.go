package entity

import "github.com/romaninsh/vantage/pkg/value"

// Helpers for declaring fields over plain Go struct members. Required
// fields map to plain scalars, optional fields to pointers so absence is
// representable.

// String declares a required string field.
func String[E any](name string, get func(*E) string, set func(*E, string)) Field[E] {
	return Field[E]{
		Name: name,
		Kind: value.KindString,
		Get: func(e *E) (value.Value, bool) {
			return value.Str(get(e)), true
		},
		Set: func(e *E, v value.Value) {
			s, _ := v.AsString()
			set(e, s)
		},
	}
}

// Int declares a required integer field.
func Int[E any](name string, get func(*E) int64, set func(*E, int64)) Field[E] {
	return Field[E]{
		Name: name,
		Kind: value.KindInt,
		Get: func(e *E) (value.Value, bool) {
			return value.Int(get(e)), true
		},
		Set: func(e *E, v value.Value) {
			i, _ := v.AsInt()
			set(e, i)
		},
	}
}

// Float declares a required float field.
func Float[E any](name string, get func(*E) float64, set func(*E, float64)) Field[E] {
	return Field[E]{
		Name: name,
		Kind: value.KindFloat,
		Get: func(e *E) (value.Value, bool) {
			return value.Float(get(e)), true
		},
		Set: func(e *E, v value.Value) {
			f, _ := v.AsFloat()
			set(e, f)
		},
	}
}

// Bool declares a required boolean field.
func Bool[E any](name string, get func(*E) bool, set func(*E, bool)) Field[E] {
	return Field[E]{
		Name: name,
		Kind: value.KindBool,
		Get: func(e *E) (value.Value, bool) {
			return value.Bool(get(e)), true
		},
		Set: func(e *E, v value.Value) {
			b, _ := v.AsBool()
			set(e, b)
		},
	}
}

// OptionalString declares an optional string field backed by a pointer.
func OptionalString[E any](name string, get func(*E) *string, set func(*E, string)) Field[E] {
	return Field[E]{
		Name:     name,
		Kind:     value.KindString,
		Optional: true,
		Get: func(e *E) (value.Value, bool) {
			p := get(e)
			if p == nil {
				return value.Value{}, false
			}
			return value.Str(*p), true
		},
		Set: func(e *E, v value.Value) {
			s, _ := v.AsString()
			set(e, s)
		},
	}
}

// OptionalInt declares an optional integer field backed by a pointer.
func OptionalInt[E any](name string, get func(*E) *int64, set func(*E, int64)) Field[E] {
	return Field[E]{
		Name:     name,
		Kind:     value.KindInt,
		Optional: true,
		Get: func(e *E) (value.Value, bool) {
			p := get(e)
			if p == nil {
				return value.Value{}, false
			}
			return value.Int(*p), true
		},
		Set: func(e *E, v value.Value) {
			i, _ := v.AsInt()
			set(e, i)
		},
	}
}

// OptionalFloat declares an optional float field backed by a pointer.
func OptionalFloat[E any](name string, get func(*E) *float64, set func(*E, float64)) Field[E] {
	return Field[E]{
		Name:     name,
		Kind:     value.KindFloat,
		Optional: true,
		Get: func(e *E) (value.Value, bool) {
			p := get(e)
			if p == nil {
				return value.Value{}, false
			}
			return value.Float(*p), true
		},
		Set: func(e *E, v value.Value) {
			f, _ := v.AsFloat()
			set(e, f)
		},
	}
}

// OptionalBool declares an optional boolean field backed by a pointer.
func OptionalBool[E any](name string, get func(*E) *bool, set func(*E, bool)) Field[E] {
	return Field[E]{
		Name:     name,
		Kind:     value.KindBool,
		Optional: true,
		Get: func(e *E) (value.Value, bool) {
			p := get(e)
			if p == nil {
				return value.Value{}, false
			}
			return value.Bool(*p), true
		},
		Set: func(e *E, v value.Value) {
			b, _ := v.AsBool()
			set(e, b)
		},
	}
}

// WithDefault returns a copy of the field with a declared default, used
// when the record does not carry the field at all.
func (f Field[E]) WithDefault(v value.Value) Field[E] {
	f.Default = &v
	return f
}
