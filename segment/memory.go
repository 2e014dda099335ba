package segment

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/facetgo/model"
)

// TermDict interns terms to dense ordinals.
//
// One dict is typically shared by every segment of a shard so that ordinals
// are comparable across segments (the in-memory stand-in for a global
// ordinal map). Ordinal assignment write-locks; lookups during collection
// only read-lock.
type TermDict struct {
	mu    sync.RWMutex
	ords  map[string]model.EncodedValue
	terms []string
}

// NewTermDict creates an empty term dictionary.
func NewTermDict() *TermDict {
	return &TermDict{ords: make(map[string]model.EncodedValue)}
}

// Ord returns the ordinal for term, assigning the next free ordinal if the
// term is new. Ordinals are dense and start at 0.
func (d *TermDict) Ord(term string) model.EncodedValue {
	d.mu.RLock()
	ord, ok := d.ords[term]
	d.mu.RUnlock()
	if ok {
		return ord
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ord, ok := d.ords[term]; ok {
		return ord
	}
	ord = model.EncodedValue(len(d.terms))
	d.ords[term] = ord
	d.terms = append(d.terms, term)
	return ord
}

// Lookup returns the ordinal for term without assigning one.
func (d *TermDict) Lookup(term string) (model.EncodedValue, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ord, ok := d.ords[term]
	return ord, ok
}

// Term returns the term for an ordinal.
func (d *TermDict) Term(ord model.EncodedValue) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if ord < 0 || int(ord) >= len(d.terms) {
		return "", false
	}
	return d.terms[ord], true
}

// Size returns the number of interned terms.
func (d *TermDict) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.terms)
}

// MemSegment is an in-memory Segment.
//
// Build it up front with SetNumeric/SetTerms, then treat it as immutable
// for the duration of any collection pass.
type MemSegment struct {
	docCount int
	dict     *TermDict
	numeric  map[string][][]model.EncodedValue
	terms    map[string][][]model.EncodedValue // interned to dict ordinals
}

// NewMemSegment creates a segment holding docCount documents. If dict is
// nil the segment gets a private dictionary; pass a shared dict when
// ordinals must be comparable across segments.
func NewMemSegment(docCount int, dict *TermDict) *MemSegment {
	if dict == nil {
		dict = NewTermDict()
	}
	return &MemSegment{
		docCount: docCount,
		dict:     dict,
		numeric:  make(map[string][][]model.EncodedValue),
		terms:    make(map[string][][]model.EncodedValue),
	}
}

// DocCount returns the number of documents in the segment.
func (s *MemSegment) DocCount() int { return s.docCount }

// Dict returns the segment's term dictionary.
func (s *MemSegment) Dict() *TermDict { return s.dict }

// SetNumeric sets the numeric values of one document. Values are already
// encoded (see model.EncodeInt/EncodeFloat).
func (s *MemSegment) SetNumeric(field string, doc model.DocID, values ...model.EncodedValue) {
	col, ok := s.numeric[field]
	if !ok {
		col = make([][]model.EncodedValue, s.docCount)
		s.numeric[field] = col
	}
	col[doc] = append(col[doc], values...)
}

// SetTerms sets the term values of one document, interning each term in the
// segment's dictionary.
func (s *MemSegment) SetTerms(field string, doc model.DocID, terms ...string) {
	col, ok := s.terms[field]
	if !ok {
		col = make([][]model.EncodedValue, s.docCount)
		s.terms[field] = col
	}
	for _, t := range terms {
		col[doc] = append(col[doc], s.dict.Ord(t))
	}
}

// MatchAll returns a bitmap of every document in the segment.
func (s *MemSegment) MatchAll() *roaring.Bitmap {
	bm := roaring.New()
	bm.AddRange(0, uint64(s.docCount))
	return bm
}

// NumericColumn returns a cursor over a single-valued numeric field.
func (s *MemSegment) NumericColumn(field string) (NumericColumn, error) {
	col, ok := s.numeric[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return &memColumn{vals: col}, nil
}

// SortedNumericColumn returns a cursor over a multi-valued numeric field.
func (s *MemSegment) SortedNumericColumn(field string) (SortedNumericColumn, error) {
	col, ok := s.numeric[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return &memColumn{vals: col}, nil
}

// OrdinalColumn returns a cursor over a single-valued term field.
func (s *MemSegment) OrdinalColumn(field string) (OrdinalColumn, error) {
	col, ok := s.terms[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return &memColumn{vals: col}, nil
}

// SortedOrdinalColumn returns a cursor over a multi-valued term field.
func (s *MemSegment) SortedOrdinalColumn(field string) (SortedOrdinalColumn, error) {
	col, ok := s.terms[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return &memColumn{vals: col}, nil
}

// memColumn serves all four cursor shapes over per-document value lists.
type memColumn struct {
	vals [][]model.EncodedValue
	cur  []model.EncodedValue
	next int
}

func (c *memColumn) AdvanceExact(doc model.DocID) (bool, error) {
	if int(doc) >= len(c.vals) {
		return false, fmt.Errorf("segment: doc %d out of range (%d docs)", doc, len(c.vals))
	}
	c.cur = c.vals[doc]
	c.next = 0
	return len(c.cur) > 0, nil
}

func (c *memColumn) Value() (model.EncodedValue, error) {
	if len(c.cur) == 0 {
		return 0, fmt.Errorf("segment: Value called without a positioned document")
	}
	return c.cur[0], nil
}

func (c *memColumn) Ord() (model.EncodedValue, error) {
	return c.Value()
}

func (c *memColumn) ValueCount() int { return len(c.cur) }

func (c *memColumn) OrdCount() int { return len(c.cur) }

func (c *memColumn) NextValue() (model.EncodedValue, error) {
	if c.next >= len(c.cur) {
		return 0, fmt.Errorf("segment: NextValue past the current document's %d values", len(c.cur))
	}
	v := c.cur[c.next]
	c.next++
	return v, nil
}

func (c *memColumn) NextOrd() (model.EncodedValue, error) {
	return c.NextValue()
}
