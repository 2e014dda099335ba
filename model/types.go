package model

import (
	"fmt"
	"math"
)

// DocID is a dense, segment-local document identifier.
// It is transient and may change during compaction.
type DocID uint32

// Slot is the index of one aggregation bucket within a single facet
// computation. Slots are allocated with a fixed capacity per execution and
// may later be remapped or cleared for reuse.
type Slot int

// EncodedValue is a field value encoded as a 64-bit integer.
//
// Numeric fields carry their raw numeric bits (sign-extended integers, or
// IEEE 754 bits for floating point). Other field kinds carry a dictionary
// ordinal or a term hash. Two EncodedValues are the same value iff they are
// bit-identical; the encoding is exact, never approximate.
type EncodedValue int64

// String returns a string representation of the encoded value.
func (v EncodedValue) String() string {
	return fmt.Sprintf("EncodedValue(%d)", int64(v))
}

// EncodeInt encodes a signed integer field value.
func EncodeInt(v int64) EncodedValue {
	return EncodedValue(v)
}

// EncodeFloat encodes a float64 field value as its IEEE 754 bits.
func EncodeFloat(v float64) EncodedValue {
	return EncodedValue(math.Float64bits(v))
}
