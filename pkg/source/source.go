// Package source defines the contract a concrete data backend implements
// to plug into a dataset: capability interfaces over raw records keyed by
// opaque identifiers.
//
// A backend advertises capabilities by interface satisfaction: a read-only
// backend implements only Reader, and a dataset requiring writes simply
// cannot be constructed over it. The core never assumes pooling, retries
// or transactions exist underneath; those are the binding's business.
package source

import (
	"context"
	"errors"
	"strconv"

	"github.com/romaninsh/vantage/pkg/record"
)

// Sentinel errors a binding maps its backend failures onto.
var (
	// ErrNotFound reports that an identifier has no corresponding record.
	ErrNotFound = errors.New("record not found")

	// ErrSourceUnavailable reports that the backend could not be reached.
	// Never retried by the core; the caller owns retry decisions.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrPermissionDenied reports a backend authorization failure.
	ErrPermissionDenied = errors.New("insufficient permissions")

	// ErrWriteConflict reports a backend-side write conflict.
	ErrWriteConflict = errors.New("conflict on write")
)

// ID is an opaque identifier for one record within a source's addressed
// collection. The payload is backend-defined: a string or an integer.
// The zero ID means "no identifier".
type ID struct {
	text    string
	num     int64
	numeric bool
	set     bool
}

// StringID returns a string-keyed identifier.
func StringID(s string) ID { return ID{text: s, set: true} }

// IntID returns an integer-keyed identifier.
func IntID(n int64) ID { return ID{num: n, numeric: true, set: true} }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return !id.set }

// Int returns the integer payload and whether the identifier is numeric.
func (id ID) Int() (int64, bool) { return id.num, id.set && id.numeric }

// String renders the identifier's payload.
func (id ID) String() string {
	if !id.set {
		return ""
	}
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.text
}

// Equal reports identifier equality including the payload type; the
// string "1" and the integer 1 are distinct identifiers.
func (id ID) Equal(o ID) bool { return id == o }

// Row pairs an identifier with the raw record stored under it.
type Row struct {
	ID     ID
	Record record.Record
}

// Reader is the read capability: raw fetch primitives over the addressed
// collection.
type Reader interface {
	// FetchAll materializes the entire collection eagerly. Rows the
	// backend itself cannot parse structurally are skipped; no type
	// validation happens here. An empty collection is an empty slice,
	// not an error.
	FetchAll(ctx context.Context) ([]Row, error)

	// FetchOne retrieves one record by identifier, or ErrNotFound.
	FetchOne(ctx context.Context, id ID) (record.Record, error)
}

// Inserter is the insert capability.
type Inserter interface {
	// Insert stores a new record and returns its identifier. A non-empty
	// key is an idempotency key: inserting twice under the same key must
	// store exactly one record and return the same identifier both times
	// (on-conflict-do-nothing). With an empty key the backend generates
	// a fresh identifier per call.
	Insert(ctx context.Context, key string, rec record.Record) (ID, error)
}

// Editor is the edit capability.
type Editor interface {
	// Update replaces the record stored under id. Replaying an identical
	// update is observably a no-op. Returns ErrNotFound for an absent id.
	Update(ctx context.Context, id ID, rec record.Record) error

	// Delete removes the record under id. Deleting an absent id is
	// success, not ErrNotFound.
	Delete(ctx context.Context, id ID) error
}

// ReadWriter combines read and insert capabilities.
type ReadWriter interface {
	Reader
	Inserter
}

// Full is a source implementing every capability.
type Full interface {
	Reader
	Inserter
	Editor
}
