// Package typesys defines the per-backend type system contract: how typed
// application values convert to and from a backend's native representation.
//
// The native currency is itself a value.Value, constrained to the shapes
// the backend can actually carry (a CSV file carries only strings, a SQL
// driver carries typed columns). Encode is total for every supported kind;
// Decode is fallible and never yields a partially-converted value.
//
// Library code wires a System at compile time by passing the value
// directly. The name registry below exists for configuration-driven
// callers (the CLI); concrete systems register themselves in their
// package init, mirroring how database adapters typically self-register.
package typesys

import (
	"fmt"
	"sort"
	"sync"

	"github.com/romaninsh/vantage/pkg/value"
)

// System converts between application values and one backend's native
// representation.
type System interface {
	// Tag returns the capability tag naming this type system, e.g. "csv".
	Tag() string

	// Supports reports whether the kind has a defined conversion.
	// Checked once at entity binding time, not per call.
	Supports(k value.Kind) bool

	// Encode converts a supported value to its native form. Encode is
	// total: every in-range value of a supported kind has a native form.
	// Encoding an unsupported kind is a programming error and panics;
	// binding-time Supports checks make it unreachable.
	Encode(v value.Value) value.Value

	// Decode parses a native value as the wanted kind. It returns
	// ok=false when the native value cannot be read as that kind,
	// never a half-converted value.
	Decode(native value.Value, want value.Kind) (value.Value, bool)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]System)
)

// Register adds a type system to the registry, keyed by its tag.
// Called by system implementations in their init() functions.
func Register(s System) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Tag()] = s
}

// Get retrieves a registered system by tag.
func Get(tag string) (System, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[tag]
	return s, ok
}

// Resolve retrieves a registered system by tag, or an UnknownSystemError
// listing what is available.
func Resolve(tag string) (System, error) {
	if tag == "" {
		return nil, fmt.Errorf("type system tag not specified")
	}
	s, ok := Get(tag)
	if !ok {
		return nil, &UnknownSystemError{Tag: tag, Available: List()}
	}
	return s, nil
}

// List returns all registered tags (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// UnknownSystemError is returned when an unknown type system tag is
// requested.
type UnknownSystemError struct {
	Tag       string
	Available []string
}

func (e *UnknownSystemError) Error() string {
	return fmt.Sprintf("unknown type system %q\nAvailable type systems: %v", e.Tag, e.Available)
}
