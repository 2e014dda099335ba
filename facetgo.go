package facetgo

import (
	"context"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/facetgo/collector"
	"github.com/hupe1980/facetgo/model"
	"github.com/hupe1980/facetgo/schema"
	"github.com/hupe1980/facetgo/segment"
	"github.com/hupe1980/facetgo/shard"
)

// SegmentJob describes one segment's share of a facet execution: the
// documents to visit and the bucket slot of each.
type SegmentJob struct {
	// Segment is the column source for the documents below.
	Segment segment.Segment

	// Matches selects the documents to collect. A nil bitmap means the
	// segment contributes nothing.
	Matches *roaring.Bitmap

	// SlotFor maps a matching document to its bucket slot. Results must
	// lie in [0, NumSlots).
	SlotFor func(model.DocID) model.Slot
}

// Unique is the facade for one distinct-count facet function: a field, a
// slot layout, and the options shared by its collectors and mergers.
type Unique struct {
	field    schema.Field
	numSlots int
	opts     options
}

// NewUnique creates the aggregation for counting distinct values of field
// across numSlots buckets.
func NewUnique(field schema.Field, numSlots int, optFns ...Option) (*Unique, error) {
	if numSlots <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlots, numSlots)
	}

	return &Unique{
		field:    field,
		numSlots: numSlots,
		opts:     applyOptions(optFns),
	}, nil
}

// Field returns the aggregation's field descriptor.
func (u *Unique) Field() schema.Field { return u.field }

// NumSlots returns the slot layout size.
func (u *Unique) NumSlots() int { return u.numSlots }

// NewCollector creates an empty collector with the aggregation's field and
// slot layout. Use it directly when the caller drives the document scan
// itself; Aggregate covers the common bitmap-driven case.
func (u *Unique) NewCollector() *collector.UniqueCollector {
	return collector.New(u.field, u.numSlots,
		collector.WithExplicitValueCap(u.opts.explicitValueCap))
}

// NewMerger creates a coordinator-side merger with the aggregation's
// explicit-value cap. One merger serves one logical bucket.
func (u *Unique) NewMerger() *shard.Merger {
	return shard.NewMerger(
		shard.WithExplicitValueCap(u.opts.explicitValueCap),
		shard.WithLogger(u.opts.logger.Logger),
	)
}

// WriteShardBlock serializes the collector's slots as one transport block,
// using the aggregation's configured codec (WithCodec). This is the shard
// side of the distributed protocol; the coordinator reads the block back
// with shard.ReadBlock and feeds its partials to per-bucket mergers.
func (u *Unique) WriteShardBlock(w io.Writer, c *collector.UniqueCollector, comp shard.Compression) error {
	return shard.WriteBlock(w, c.ShardBlock(), u.opts.codec, comp)
}

// Aggregate runs one collector per segment job, in parallel, and combines
// them into a single collector by exact union. The returned collector holds
// the node's complete per-slot sets; read them with Result for a local
// answer or ShardBlock for the distributed protocol.
//
// Parallelism is bounded by WithParallelism. The first error cancels the
// remaining jobs.
func (u *Unique) Aggregate(ctx context.Context, jobs []SegmentJob) (*collector.UniqueCollector, error) {
	logger := u.opts.logger.WithField(u.field.Name).WithSlots(u.numSlots).WithSegments(len(jobs))
	logger.Debug("aggregate start", "parallelism", u.opts.parallelism)

	parts := make([]*collector.UniqueCollector, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if u.opts.parallelism > 0 {
		g.SetLimit(u.opts.parallelism)
	}

	for i, job := range jobs {
		g.Go(func() error {
			c, err := u.collectSegment(ctx, job)
			if err != nil {
				return err
			}
			parts[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Debug("aggregate failed", "error", err)
		return nil, err
	}

	combined := u.NewCollector()
	for _, part := range parts {
		if err := combined.Absorb(part); err != nil {
			return nil, err
		}
	}

	logger.Debug("aggregate done")

	return combined, nil
}

func (u *Unique) collectSegment(ctx context.Context, job SegmentJob) (*collector.UniqueCollector, error) {
	if job.Segment == nil {
		return nil, ErrNilSegment
	}
	if job.Matches == nil || job.Matches.IsEmpty() {
		return nil, nil
	}
	if job.SlotFor == nil {
		return nil, ErrNilSlotFunc
	}

	c := u.NewCollector()
	if err := c.SetSegment(job.Segment); err != nil {
		return nil, err
	}

	it := job.Matches.Iterator()
	for n := 0; it.HasNext(); n++ {
		// Cancellation is polled every batch, not every document.
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		doc := model.DocID(it.Next())

		slot := job.SlotFor(doc)
		if slot < 0 || int(slot) >= u.numSlots {
			return nil, &ErrSlotOutOfRange{Slot: int(slot), Slots: u.numSlots}
		}

		if err := c.Collect(doc, slot); err != nil {
			return nil, err
		}
	}

	return c, nil
}
