package dataset

import (
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
)

// Identity is the untyped fallback marshaller: records pass through
// unchanged, so decoding can never fail and List drops nothing beyond
// what the source itself could not parse.
type Identity struct{}

// Decode returns the record as-is.
func (Identity) Decode(r record.Record) (record.Record, error) { return r, nil }

// Encode returns the record as-is.
func (Identity) Encode(r *record.Record) record.Record { return *r }

// NewRawReadSet builds an untyped read-only set; fields are accessed
// through record.Record directly.
func NewRawReadSet(src source.Reader, opts ...Option) *ReadSet[record.Record] {
	return NewReadSet[record.Record](src, Identity{}, opts...)
}

// NewRawInsertSet builds an untyped insert set.
func NewRawInsertSet(src source.Inserter, opts ...Option) *InsertSet[record.Record] {
	return NewInsertSet[record.Record](src, Identity{}, opts...)
}

// NewRawEditSet builds an untyped edit set.
func NewRawEditSet(src source.Editor, opts ...Option) *EditSet[record.Record] {
	return NewEditSet[record.Record](src, Identity{}, opts...)
}

// NewRaw builds a fully-capable untyped dataset.
func NewRaw(src source.Full, opts ...Option) *DataSet[record.Record] {
	return New[record.Record](src, Identity{}, opts...)
}
