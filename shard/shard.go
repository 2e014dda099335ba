// Package shard implements the distributed half of the distinct-value facet
// aggregation: the bounded per-slot partial result a shard emits, and the
// coordinator-side merger that combines partials from every shard into a
// single estimated count.
//
// # Two-Tier Estimation
//
// A shard whose slot saw at most ExplicitValueCap distinct values sends its
// full value list; the coordinator unions those lists exactly. A shard above
// the cap sends only its count. The coordinator extrapolates how many of the
// withheld values were globally unique using the duplication rate observed
// among the explicitly sent values:
//
//	size     = |union of explicit values|
//	factor   = size / sumAdded          (fraction of sent values that were unique)
//	estimate = size + trunc(missingSum * factor)
//
// With no explicit values at all the estimate degrades to the plain sum of
// the shards' counts, which may double-count overlap; that is the accepted
// tradeoff for never shipping high-cardinality value sets.
//
// # Protocol
//
// A Merger starts in the collecting state, accepts one Merge per shard
// partial, and moves to the finalized state on the first Estimate call.
// Later Merge calls fail with ErrMergerFinalized; the cached answer is never
// invalidated.
package shard

import "errors"

// DefaultExplicitValueCap is the largest distinct-value count for which a
// shard transmits its full value list instead of withholding it.
const DefaultExplicitValueCap = 100

// ErrMergerFinalized is returned by Merge after the estimate has been read.
var ErrMergerFinalized = errors.New("shard: merger already finalized")

// MalformedPartialError reports a shard partial that violates the wire
// contract. The offending contribution is rejected atomically; no
// accumulator state is touched.
type MalformedPartialError struct {
	Reason string
}

func (e *MalformedPartialError) Error() string {
	return "shard: malformed partial result: " + e.Reason
}
