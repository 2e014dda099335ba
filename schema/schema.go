// Package schema describes the shape of facetable fields.
//
// The surrounding engine owns the real schema/type system; this package only
// carries the capability descriptor the aggregation core needs to select a
// collector variant, plus the term-hash encoding for fields without a
// dictionary.
package schema

import (
	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/facetgo/model"
)

// Field is the capability descriptor for one facetable field.
// It is consulted exactly once per facet request, when the collector
// variant is selected.
type Field struct {
	// Name is the field's name in the owning schema.
	Name string

	// MultiValued reports whether a document may carry several values.
	MultiValued bool

	// ValueCache reports whether the field type keeps a precomputed
	// multi-value cache. Such fields take the multi-valued path even when
	// declared single-valued.
	ValueCache bool

	// Numeric reports whether values live in the numeric domain (raw
	// numeric bits) rather than the ordinal/hash domain.
	Numeric bool
}

// EffectivelyMultiValued reports whether collection must use a multi-valued
// column for this field.
func (f Field) EffectivelyMultiValued() bool {
	return f.MultiValued || f.ValueCache
}

// HashTerm encodes a term of a dictionary-less field as a 64-bit hash.
//
// The hash is used as an exact identity within one facet request: two terms
// are merged iff their hashes collide, which at 64 bits is accepted in the
// same way the ordinal encoding accepts its dictionary.
func HashTerm(term string) model.EncodedValue {
	return model.EncodedValue(xxhash.Sum64String(term))
}
