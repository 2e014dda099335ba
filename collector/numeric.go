package collector

import (
	"github.com/hupe1980/facetgo/internal/longset"
	"github.com/hupe1980/facetgo/model"
	"github.com/hupe1980/facetgo/segment"
)

// singleNumericSource reads a single-valued numeric column.
type singleNumericSource struct {
	field string
	col   segment.NumericColumn
}

func (s *singleNumericSource) variant() string { return "single-numeric" }

func (s *singleNumericSource) setSegment(seg segment.Segment) error {
	col, err := seg.NumericColumn(s.field)
	if err != nil {
		return err
	}
	s.col = col
	return nil
}

func (s *singleNumericSource) advance(doc model.DocID) (bool, error) {
	return s.col.AdvanceExact(doc)
}

func (s *singleNumericSource) addValues(set *longset.Set) error {
	v, err := s.col.Value()
	if err != nil {
		return err
	}
	set.Add(v)
	return nil
}

// multiNumericSource reads a multi-valued numeric column. The column may
// deliver duplicates for a single document; the slot set absorbs them.
type multiNumericSource struct {
	field string
	col   segment.SortedNumericColumn
}

func (s *multiNumericSource) variant() string { return "multi-numeric" }

func (s *multiNumericSource) setSegment(seg segment.Segment) error {
	col, err := seg.SortedNumericColumn(s.field)
	if err != nil {
		return err
	}
	s.col = col
	return nil
}

func (s *multiNumericSource) advance(doc model.DocID) (bool, error) {
	return s.col.AdvanceExact(doc)
}

func (s *multiNumericSource) addValues(set *longset.Set) error {
	for i, n := 0, s.col.ValueCount(); i < n; i++ {
		v, err := s.col.NextValue()
		if err != nil {
			return err
		}
		set.Add(v)
	}
	return nil
}
