// Package collector implements per-slot distinct-value collection during
// document scanning.
//
// A UniqueCollector owns one arena of slot sets for a single facet
// execution: the surrounding engine positions it on a segment, then calls
// Collect once per matching document with the document's bucket slot. Four
// column variants cover {single, multi} x {numeric, ordinal} fields; the
// variant is picked once, from the field's capability descriptor.
//
// Collection is single-threaded per collector. Run one collector per
// segment in parallel and combine them afterward with Absorb (an exact
// union, never an estimate).
package collector

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/hupe1980/facetgo/internal/longset"
	"github.com/hupe1980/facetgo/model"
	"github.com/hupe1980/facetgo/schema"
	"github.com/hupe1980/facetgo/segment"
	"github.com/hupe1980/facetgo/shard"
)

// ErrNoSegment is returned by Collect before SetSegment positioned the
// collector.
var ErrNoSegment = errors.New("collector: no segment set")

// ReadError reports a fatal failure while decoding a document's field
// values. It aborts the collection pass; the contribution is never partial.
type ReadError struct {
	Field string
	Doc   model.DocID
	cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("collector: read field %q doc %d: %v", e.Field, e.Doc, e.cause)
}

func (e *ReadError) Unwrap() error { return e.cause }

// Options configures a UniqueCollector.
type Options struct {
	// ExplicitValueCap bounds the per-slot value list in shard results.
	ExplicitValueCap int
}

// WithExplicitValueCap overrides shard.DefaultExplicitValueCap.
func WithExplicitValueCap(cap int) func(*Options) {
	return func(o *Options) {
		o.ExplicitValueCap = cap
	}
}

// UniqueCollector accumulates the distinct encoded values per slot.
// It is owned by one sequential collection pass; not safe for concurrent use.
type UniqueCollector struct {
	field       schema.Field
	explicitCap int
	sets        []*longset.Set
	src         source
	positioned  bool
}

// source is one column-variant strategy: position on a document, then feed
// its values into the slot's set.
type source interface {
	setSegment(seg segment.Segment) error
	advance(doc model.DocID) (bool, error)
	addValues(set *longset.Set) error
	variant() string
}

// New creates a collector for the field with numSlots empty slots.
// The variant is selected once from the field's capability descriptor.
func New(field schema.Field, numSlots int, optFns ...func(*Options)) *UniqueCollector {
	opts := Options{
		ExplicitValueCap: shard.DefaultExplicitValueCap,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &UniqueCollector{
		field:       field,
		explicitCap: opts.ExplicitValueCap,
		sets:        make([]*longset.Set, numSlots),
	}

	switch {
	case field.EffectivelyMultiValued() && field.Numeric:
		c.src = &multiNumericSource{field: field.Name}
	case field.EffectivelyMultiValued():
		c.src = &multiOrdinalSource{field: field.Name}
	case field.Numeric:
		c.src = &singleNumericSource{field: field.Name}
	default:
		c.src = &singleOrdinalSource{field: field.Name}
	}
	return c
}

// Field returns the collector's field descriptor.
func (c *UniqueCollector) Field() schema.Field { return c.field }

// Variant names the selected column variant, e.g. "multi-numeric".
func (c *UniqueCollector) Variant() string { return c.src.variant() }

// NumSlots returns the slot arena size.
func (c *UniqueCollector) NumSlots() int { return len(c.sets) }

// SetSegment positions the collector on the next segment of the pass.
func (c *UniqueCollector) SetSegment(seg segment.Segment) error {
	if err := c.src.setSegment(seg); err != nil {
		return err
	}
	c.positioned = true
	return nil
}

// Collect decodes the current document's field values and adds each to the
// slot's set. Documents without a value contribute nothing. Multi-valued
// columns may deliver the same value more than once per document; the set
// silently deduplicates.
//
// A column read error is fatal to the collection pass and surfaces as a
// *ReadError.
func (c *UniqueCollector) Collect(doc model.DocID, slot model.Slot) error {
	if !c.positioned {
		return ErrNoSegment
	}

	ok, err := c.src.advance(doc)
	if err != nil {
		return &ReadError{Field: c.field.Name, Doc: doc, cause: err}
	}
	if !ok {
		return nil
	}

	set := c.sets[slot]
	if set == nil {
		set = longset.New(longset.DefaultCapacity)
		c.sets[slot] = set
	}
	if err := c.src.addValues(set); err != nil {
		return &ReadError{Field: c.field.Name, Doc: doc, cause: err}
	}
	return nil
}

// Reset clears every slot's set, reusing the slot arena, for a fresh
// collection pass within the same request.
func (c *UniqueCollector) Reset() {
	for i := range c.sets {
		c.sets[i] = nil
	}
}

// Resize rebuilds the slot arena under the caller's old-to-new index
// mapping. A mapping result below zero discards the slot's set. Targets
// receive at most one source; slots are never merged by a resize.
func (c *UniqueCollector) Resize(newSize int, remap func(oldSlot int) int) {
	next := make([]*longset.Set, newSize)
	for old, set := range c.sets {
		if set == nil {
			continue
		}
		if n := remap(old); n >= 0 {
			next[n] = set
		}
	}
	c.sets = next
}

// Cardinality returns the slot's current distinct count.
func (c *UniqueCollector) Cardinality(slot model.Slot) int {
	set := c.sets[slot]
	if set == nil {
		return 0
	}
	return set.Cardinality()
}

// Result returns the slot's reportable value for a non-distributed
// execution: the exact distinct count, no wrapping.
func (c *UniqueCollector) Result(slot model.Slot) int64 {
	return int64(c.Cardinality(slot))
}

// ShardResult encodes the slot for transmission to the coordinator.
func (c *UniqueCollector) ShardResult(slot model.Slot) *shard.Partial {
	return shard.FromSet(c.sets[slot], c.explicitCap)
}

// ShardBlock encodes every slot as one transport block.
func (c *UniqueCollector) ShardBlock() *shard.Block {
	blk := &shard.Block{
		Field:    c.field.Name,
		Partials: make([]*shard.Partial, len(c.sets)),
	}
	for slot := range c.sets {
		blk.Partials[slot] = c.ShardResult(model.Slot(slot))
	}
	return blk
}

// Compare orders two slots by their exact local cardinality.
func (c *UniqueCollector) Compare(a, b model.Slot) int {
	return cmp.Compare(c.Cardinality(a), c.Cardinality(b))
}

// Absorb unions another collector's slot sets into this one. Both
// collectors must come from the same facet execution (same field, same
// slot layout). The union is exact; Absorb is how parallel per-segment
// collectors are combined before serialization.
func (c *UniqueCollector) Absorb(other *UniqueCollector) error {
	if other == nil {
		return nil
	}
	if other.field.Name != c.field.Name {
		return fmt.Errorf("collector: absorb field %q into %q", other.field.Name, c.field.Name)
	}
	if len(other.sets) != len(c.sets) {
		return fmt.Errorf("collector: absorb %d slots into %d", len(other.sets), len(c.sets))
	}

	for slot, src := range other.sets {
		if src == nil {
			continue
		}
		dst := c.sets[slot]
		if dst == nil {
			dst = longset.New(src.Cardinality())
			c.sets[slot] = dst
		}
		dst.AddAll(src)
	}
	return nil
}
