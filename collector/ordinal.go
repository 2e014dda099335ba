package collector

import (
	"github.com/hupe1980/facetgo/internal/longset"
	"github.com/hupe1980/facetgo/model"
	"github.com/hupe1980/facetgo/segment"
)

// singleOrdinalSource reads a single-valued column in the ordinal/hash
// domain.
type singleOrdinalSource struct {
	field string
	col   segment.OrdinalColumn
}

func (s *singleOrdinalSource) variant() string { return "single-ordinal" }

func (s *singleOrdinalSource) setSegment(seg segment.Segment) error {
	col, err := seg.OrdinalColumn(s.field)
	if err != nil {
		return err
	}
	s.col = col
	return nil
}

func (s *singleOrdinalSource) advance(doc model.DocID) (bool, error) {
	return s.col.AdvanceExact(doc)
}

func (s *singleOrdinalSource) addValues(set *longset.Set) error {
	ord, err := s.col.Ord()
	if err != nil {
		return err
	}
	set.Add(ord)
	return nil
}

// multiOrdinalSource reads a multi-valued column in the ordinal/hash
// domain.
type multiOrdinalSource struct {
	field string
	col   segment.SortedOrdinalColumn
}

func (s *multiOrdinalSource) variant() string { return "multi-ordinal" }

func (s *multiOrdinalSource) setSegment(seg segment.Segment) error {
	col, err := seg.SortedOrdinalColumn(s.field)
	if err != nil {
		return err
	}
	s.col = col
	return nil
}

func (s *multiOrdinalSource) advance(doc model.DocID) (bool, error) {
	return s.col.AdvanceExact(doc)
}

func (s *multiOrdinalSource) addValues(set *longset.Set) error {
	for i, n := 0, s.col.OrdCount(); i < n; i++ {
		ord, err := s.col.NextOrd()
		if err != nil {
			return err
		}
		set.Add(ord)
	}
	return nil
}
