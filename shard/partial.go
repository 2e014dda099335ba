package shard

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/facetgo/internal/longset"
	"github.com/hupe1980/facetgo/model"
)

// Partial is the per-slot output of one shard.
//
// Wire shape:
//
//	{"unique": <count>, "vals": [<v0>, <v1>, ...]}
//
// Vals is present iff the shard's distinct count was at or below the
// explicit-value cap, and then carries the full value set (len(Vals) ==
// Unique). A nil Vals means the list was withheld; an empty non-nil Vals is
// a real empty set.
type Partial struct {
	Unique int64
	Vals   []model.EncodedValue
}

// FromSet encodes a finished slot set as a partial result.
//
// A nil set is a slot that never saw a value: unique 0 with an (empty)
// explicit list. Above explicitCap the value list is withheld entirely;
// below it the full list is emitted in the set's deterministic iteration
// order.
func FromSet(set *longset.Set, explicitCap int) *Partial {
	unique := 0
	if set != nil {
		unique = set.Cardinality()
	}

	p := &Partial{Unique: int64(unique)}
	if unique > explicitCap {
		return p
	}

	p.Vals = make([]model.EncodedValue, 0, unique)
	if set != nil {
		for v := range set.Values() {
			p.Vals = append(p.Vals, v)
		}
	}
	return p
}

// HasExplicitValues reports whether the shard sent its value list.
func (p *Partial) HasExplicitValues() bool {
	return p.Vals != nil
}

// Validate checks the partial against the wire contract for the given cap.
func (p *Partial) Validate(explicitCap int) error {
	if p.Unique < 0 {
		return &MalformedPartialError{Reason: fmt.Sprintf("negative unique count %d", p.Unique)}
	}
	if p.Vals == nil {
		return nil
	}
	if int64(len(p.Vals)) != p.Unique {
		return &MalformedPartialError{
			Reason: fmt.Sprintf("explicit value list has %d entries, unique is %d", len(p.Vals), p.Unique),
		}
	}
	if p.Unique > int64(explicitCap) {
		return &MalformedPartialError{
			Reason: fmt.Sprintf("explicit values present with unique %d above cap %d", p.Unique, explicitCap),
		}
	}
	return nil
}

// partialWire separates "absent" from "empty" for both fields.
type partialWire struct {
	Unique *int64                `json:"unique"`
	Vals   *[]model.EncodedValue `json:"vals,omitempty"`
}

// MarshalJSON emits the wire shape, omitting "vals" when withheld.
func (p Partial) MarshalJSON() ([]byte, error) {
	unique := p.Unique
	w := partialWire{Unique: &unique}
	if p.Vals != nil {
		vals := p.Vals
		w.Vals = &vals
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the wire shape. A missing "unique" field is a
// malformed partial.
func (p *Partial) UnmarshalJSON(data []byte) error {
	var w partialWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Unique == nil {
		return &MalformedPartialError{Reason: `missing "unique" count`}
	}
	p.Unique = *w.Unique
	if w.Vals != nil {
		p.Vals = *w.Vals
	} else {
		p.Vals = nil
	}
	return nil
}
