// Package segment defines the column-reader surface the aggregation core
// consumes from the surrounding engine, plus an in-memory segment used for
// tests and embedded deployments.
//
// A segment is one immutable slice of a shard's documents. Collection walks
// a segment's matching documents in order and pulls per-document field
// values through one of the column cursors below. Cursors are forward-only
// and owned by a single collection pass; they are not safe for concurrent
// use.
package segment

import (
	"errors"

	"github.com/hupe1980/facetgo/model"
)

// ErrUnknownField is returned when a segment has no column for a field.
var ErrUnknownField = errors.New("segment: unknown field")

// NumericColumn is a cursor over a single-valued numeric field.
type NumericColumn interface {
	// AdvanceExact positions the cursor on doc. It returns false if the
	// document has no value for the field. A read error is fatal to the
	// collection pass.
	AdvanceExact(doc model.DocID) (bool, error)

	// Value returns the current document's encoded value.
	// Only valid after AdvanceExact returned true.
	Value() (model.EncodedValue, error)
}

// SortedNumericColumn is a cursor over a multi-valued numeric field.
// The same document may yield duplicate values; consumers must tolerate
// (and typically deduplicate) repeats.
type SortedNumericColumn interface {
	AdvanceExact(doc model.DocID) (bool, error)

	// ValueCount returns the number of values for the current document.
	ValueCount() int

	// NextValue returns the next of the current document's values.
	NextValue() (model.EncodedValue, error)
}

// OrdinalColumn is a cursor over a single-valued field in the ordinal/hash
// domain.
type OrdinalColumn interface {
	AdvanceExact(doc model.DocID) (bool, error)

	// Ord returns the current document's encoded ordinal.
	Ord() (model.EncodedValue, error)
}

// SortedOrdinalColumn is a cursor over a multi-valued field in the
// ordinal/hash domain.
type SortedOrdinalColumn interface {
	AdvanceExact(doc model.DocID) (bool, error)

	// OrdCount returns the number of ordinals for the current document.
	OrdCount() int

	// NextOrd returns the next of the current document's ordinals.
	NextOrd() (model.EncodedValue, error)
}

// Segment is one immutable data segment of a shard.
//
// Column constructors return a fresh cursor per call; cursors from the same
// segment are independent.
type Segment interface {
	// DocCount returns the number of documents in the segment.
	DocCount() int

	NumericColumn(field string) (NumericColumn, error)
	SortedNumericColumn(field string) (SortedNumericColumn, error)
	OrdinalColumn(field string) (OrdinalColumn, error)
	SortedOrdinalColumn(field string) (SortedOrdinalColumn, error)
}
