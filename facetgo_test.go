package facetgo_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetgo"
	"github.com/hupe1980/facetgo/codec"
	"github.com/hupe1980/facetgo/model"
	"github.com/hupe1980/facetgo/schema"
	"github.com/hupe1980/facetgo/segment"
	"github.com/hupe1980/facetgo/shard"
)

func TestNewUniqueInvalidSlots(t *testing.T) {
	_, err := facetgo.NewUnique(schema.Field{Name: "color"}, 0)
	assert.ErrorIs(t, err, facetgo.ErrInvalidSlots)

	_, err = facetgo.NewUnique(schema.Field{Name: "color"}, -3)
	assert.ErrorIs(t, err, facetgo.ErrInvalidSlots)
}

func TestAggregateCombinesSegmentsExactly(t *testing.T) {
	dict := segment.NewTermDict()

	segA := segment.NewMemSegment(3, dict)
	segA.SetTerms("color", 0, "red")
	segA.SetTerms("color", 1, "blue")
	segA.SetTerms("color", 2, "red")

	segB := segment.NewMemSegment(2, dict)
	segB.SetTerms("color", 0, "blue")
	segB.SetTerms("color", 1, "green")

	agg, err := facetgo.NewUnique(schema.Field{Name: "color"}, 2, facetgo.WithParallelism(2))
	require.NoError(t, err)

	// Even docs in slot 0, odd docs in slot 1.
	slotFor := func(doc model.DocID) model.Slot { return model.Slot(doc % 2) }

	combined, err := agg.Aggregate(context.Background(), []facetgo.SegmentJob{
		{Segment: segA, Matches: segA.MatchAll(), SlotFor: slotFor},
		{Segment: segB, Matches: segB.MatchAll(), SlotFor: slotFor},
	})
	require.NoError(t, err)

	// Slot 0 sees red (A:0,2) and blue (B:0); slot 1 sees blue (A:1) and
	// green (B:1).
	assert.Equal(t, int64(2), combined.Result(0))
	assert.Equal(t, int64(2), combined.Result(1))
}

func TestAggregateSkipsEmptyJobs(t *testing.T) {
	seg := segment.NewMemSegment(2, nil)
	seg.SetNumeric("price", 0, 1)
	seg.SetNumeric("price", 1, 2)

	agg, err := facetgo.NewUnique(schema.Field{Name: "price", Numeric: true}, 1)
	require.NoError(t, err)

	combined, err := agg.Aggregate(context.Background(), []facetgo.SegmentJob{
		{Segment: seg, Matches: nil},
		{Segment: seg, Matches: roaring.New()},
		{Segment: seg, Matches: seg.MatchAll(), SlotFor: func(model.DocID) model.Slot { return 0 }},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), combined.Result(0))
}

func TestAggregateRejectsBadJobs(t *testing.T) {
	seg := segment.NewMemSegment(1, nil)
	seg.SetNumeric("price", 0, 1)

	agg, err := facetgo.NewUnique(schema.Field{Name: "price", Numeric: true}, 1)
	require.NoError(t, err)

	_, err = agg.Aggregate(context.Background(), []facetgo.SegmentJob{
		{Segment: nil, Matches: seg.MatchAll()},
	})
	assert.ErrorIs(t, err, facetgo.ErrNilSegment)

	_, err = agg.Aggregate(context.Background(), []facetgo.SegmentJob{
		{Segment: seg, Matches: seg.MatchAll(), SlotFor: nil},
	})
	assert.ErrorIs(t, err, facetgo.ErrNilSlotFunc)
}

func TestAggregateRejectsSlotOutOfRange(t *testing.T) {
	seg := segment.NewMemSegment(1, nil)
	seg.SetNumeric("price", 0, 1)

	agg, err := facetgo.NewUnique(schema.Field{Name: "price", Numeric: true}, 2)
	require.NoError(t, err)

	_, err = agg.Aggregate(context.Background(), []facetgo.SegmentJob{
		{Segment: seg, Matches: seg.MatchAll(), SlotFor: func(model.DocID) model.Slot { return 7 }},
	})

	var oor *facetgo.ErrSlotOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 7, oor.Slot)
	assert.Equal(t, 2, oor.Slots)
}

func TestAggregateHonorsCancellation(t *testing.T) {
	seg := segment.NewMemSegment(1, nil)
	seg.SetNumeric("price", 0, 1)

	agg, err := facetgo.NewUnique(schema.Field{Name: "price", Numeric: true}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = agg.Aggregate(ctx, []facetgo.SegmentJob{
		{Segment: seg, Matches: seg.MatchAll(), SlotFor: func(model.DocID) model.Slot { return 0 }},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestDistributedMatchesLocal drives both sides of the protocol end to end:
// collect on two shards, serialize, merge at the coordinator, and compare
// the exact-tier answer against a single-node run over the same data.
func TestDistributedMatchesLocal(t *testing.T) {
	field := schema.Field{Name: "sku", Numeric: true}
	shards := [][]model.EncodedValue{
		{1, 2, 3, 4},
		{3, 4, 5},
		{5, 6},
	}

	agg, err := facetgo.NewUnique(field, 1)
	require.NoError(t, err)

	m := agg.NewMerger()

	local := agg.NewCollector()

	for _, values := range shards {
		seg := segment.NewMemSegment(len(values), nil)
		for doc, v := range values {
			seg.SetNumeric("sku", model.DocID(doc), v)
		}

		c := agg.NewCollector()
		require.NoError(t, c.SetSegment(seg))
		require.NoError(t, local.SetSegment(seg))
		for doc := range values {
			require.NoError(t, c.Collect(model.DocID(doc), 0))
			require.NoError(t, local.Collect(model.DocID(doc), 0))
		}

		var buf bytes.Buffer
		require.NoError(t, shard.WriteBlock(&buf, c.ShardBlock(), nil, shard.CompressionLZ4))
		blk, err := shard.ReadBlock(&buf)
		require.NoError(t, err)
		require.NoError(t, m.Merge(blk.Partials[0]))
	}

	assert.Equal(t, local.Result(0), m.Estimate(), "all shards under the cap merge exactly")
	assert.Equal(t, int64(6), m.Estimate())
}

func TestWriteShardBlockUsesConfiguredCodec(t *testing.T) {
	field := schema.Field{Name: "sku", Numeric: true}

	agg, err := facetgo.NewUnique(field, 1, facetgo.WithCodec(codec.JSON{}))
	require.NoError(t, err)

	seg := segment.NewMemSegment(2, nil)
	seg.SetNumeric("sku", 0, 1)
	seg.SetNumeric("sku", 1, 2)

	c := agg.NewCollector()
	require.NoError(t, c.SetSegment(seg))
	require.NoError(t, c.Collect(0, 0))
	require.NoError(t, c.Collect(1, 0))

	var buf bytes.Buffer
	require.NoError(t, agg.WriteShardBlock(&buf, c, shard.CompressionNone))

	// The block header records the codec name right after the magic and
	// compression bytes; the configured codec must be the one on the wire.
	raw := buf.Bytes()
	require.Greater(t, len(raw), 10)
	assert.Equal(t, byte(len("json")), raw[5])
	assert.Equal(t, "json", string(raw[6:10]))

	blk, err := shard.ReadBlock(&buf)
	require.NoError(t, err)
	require.Len(t, blk.Partials, 1)
	assert.Equal(t, int64(2), blk.Partials[0].Unique)
}

func TestExplicitValueCapFlowsToBothSides(t *testing.T) {
	field := schema.Field{Name: "sku", Numeric: true}

	agg, err := facetgo.NewUnique(field, 1, facetgo.WithExplicitValueCap(2))
	require.NoError(t, err)

	seg := segment.NewMemSegment(3, nil)
	seg.SetNumeric("sku", 0, 1)
	seg.SetNumeric("sku", 1, 2)
	seg.SetNumeric("sku", 2, 3)

	c := agg.NewCollector()
	require.NoError(t, c.SetSegment(seg))
	for doc := model.DocID(0); doc < 3; doc++ {
		require.NoError(t, c.Collect(doc, 0))
	}

	partial := c.ShardResult(0)
	assert.False(t, partial.HasExplicitValues(), "3 values exceed a cap of 2")

	m := agg.NewMerger()
	require.NoError(t, m.Merge(partial))
	assert.Equal(t, int64(3), m.Estimate(), "a lone withheld shard reports its count")
}
