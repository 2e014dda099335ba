// Package model defines core types used throughout Facetgo.
//
// # Identity Types
//
//   - DocID: Segment-local document identifier (uint32)
//   - Slot: Aggregation bucket index within one facet computation (int)
//
// # Value Types
//
//   - EncodedValue: A field value encoded as 64 bits. Raw numeric bits for
//     numeric fields, a dictionary ordinal or term hash for everything else.
//     Equality is exact; there is no approximate hashing at this layer.
package model
