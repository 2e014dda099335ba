// Package longset provides an exact, resizable set of 64-bit encoded values.
//
// It backs one facet slot during collection: values are added while matching
// documents stream in, then counted or iterated at serialization time. The
// set is a plain open-addressing hash table, not a compressed bitmap, because
// encoded values (term hashes in particular) are spread uniformly across the
// full 64-bit range.
package longset

import (
	"iter"

	"github.com/hupe1980/facetgo/model"
)

// DefaultCapacity is the initial capacity of a freshly created set.
// Slots start tiny; most facet buckets never see more than a handful of
// distinct values.
const DefaultCapacity = 16

// Set is an exact set of EncodedValue for one slot.
//
// The zero EncodedValue is tracked with a sidecar flag so the table can use
// 0 as its empty marker. Set is not safe for concurrent use; each instance
// is owned by exactly one slot at a time.
type Set struct {
	table   []model.EncodedValue
	used    int // occupied table entries, excluding the zero value
	hasZero bool
}

// New creates a new set with at least the given initial capacity.
// A capacity below DefaultCapacity is rounded up to DefaultCapacity.
func New(capacity int) *Set {
	if capacity < DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Set{
		table: make([]model.EncodedValue, nextPow2(capacity)),
	}
}

// Add inserts a value. It returns true if the value was not already present.
func (s *Set) Add(v model.EncodedValue) bool {
	if v == 0 {
		if s.hasZero {
			return false
		}
		s.hasZero = true
		return true
	}

	// Grow at 75% load so probes stay short.
	if (s.used+1)*4 > len(s.table)*3 {
		s.grow()
	}

	mask := uint64(len(s.table) - 1)
	i := mix(v) & mask
	for {
		switch s.table[i] {
		case 0:
			s.table[i] = v
			s.used++
			return true
		case v:
			return false
		}
		i = (i + 1) & mask
	}
}

// Contains returns true if the value is present.
func (s *Set) Contains(v model.EncodedValue) bool {
	if v == 0 {
		return s.hasZero
	}
	mask := uint64(len(s.table) - 1)
	i := mix(v) & mask
	for {
		switch s.table[i] {
		case 0:
			return false
		case v:
			return true
		}
		i = (i + 1) & mask
	}
}

// Cardinality returns the number of distinct values in the set.
func (s *Set) Cardinality() int {
	if s.hasZero {
		return s.used + 1
	}
	return s.used
}

// Values returns a restartable iterator over the contained values.
//
// The order is deterministic for a given insertion sequence (table order,
// zero last) but otherwise unspecified.
func (s *Set) Values() iter.Seq[model.EncodedValue] {
	return func(yield func(model.EncodedValue) bool) {
		for _, v := range s.table {
			if v == 0 {
				continue
			}
			if !yield(v) {
				return
			}
		}
		if s.hasZero {
			yield(0)
		}
	}
}

// AddAll inserts every value of the other set. Used for the exact union of
// per-segment slot sets within one shard.
func (s *Set) AddAll(other *Set) {
	if other == nil {
		return
	}
	for v := range other.Values() {
		s.Add(v)
	}
}

func (s *Set) grow() {
	old := s.table
	s.table = make([]model.EncodedValue, len(old)*2)
	s.used = 0
	hasZero := s.hasZero
	s.hasZero = false
	for _, v := range old {
		if v != 0 {
			s.Add(v)
		}
	}
	s.hasZero = hasZero
}

// mix spreads the value across the table index space. Encoded integers are
// often small and sequential; multiplying by a 64-bit odd constant and
// folding the high bits breaks that clustering.
func mix(v model.EncodedValue) uint64 {
	h := uint64(v) * 0x9e3779b97f4a7c15
	return h ^ (h >> 32)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
