// Package facetgo computes distinct-value counts for faceted search
// buckets, exactly on a single node and by statistical extrapolation across
// independent shards.
//
// # Quick Start
//
// Local (non-distributed) execution reports exact counts:
//
//	agg, _ := facetgo.NewUnique(schema.Field{Name: "color"}, 8)
//	combined, _ := agg.Aggregate(ctx, []facetgo.SegmentJob{
//	    {Segment: seg, Matches: seg.MatchAll(), SlotFor: slotOf},
//	})
//	count := combined.Result(0) // exact distinct count for slot 0
//
// Shard role in a distributed execution:
//
//	_ = agg.WriteShardBlock(conn, combined, shard.CompressionLZ4)
//
// Coordinator role, one merger per logical bucket:
//
//	m := agg.NewMerger()
//	for _, blk := range shardBlocks {
//	    _ = m.Merge(blk.Partials[slot])
//	}
//	estimate := m.Estimate()
//
// # Two-Tier Estimation
//
// A shard whose bucket saw at most the explicit-value cap (default 100)
// distinct values ships its full value list; those lists are unioned
// exactly at the coordinator. Shards above the cap ship only their count,
// and the coordinator extrapolates the withheld counts by the uniqueness
// rate observed among the explicit values. Buckets that stay under the cap
// on every shard therefore merge with zero error, while high-cardinality
// buckets cost a bounded, constant amount of transfer per shard.
//
// # Collector Variants
//
// Per-document value decoding is selected once per facet request from the
// field's capability descriptor: {single, multi} x {numeric, ordinal}.
// Multi-valued columns may repeat values within a document; the per-slot
// sets deduplicate.
//
// # Key Features
//
//   - Exact per-slot sets with bounded shard transfer (full list or none)
//   - Duplication-rate extrapolation for high-cardinality buckets
//   - Parallel per-segment collection with exact union combine
//   - Self-describing transport blocks (codec by name, LZ4/ZSTD optional)
//   - Slot arena reset/remap for multi-phase facet refinement
package facetgo
