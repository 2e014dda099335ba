package shard

import (
	"cmp"
	"log/slog"

	"github.com/hupe1980/facetgo/internal/longset"
)

// MergerOptions configures a Merger.
type MergerOptions struct {
	// ExplicitValueCap is the cap the shards encoded against. Incoming
	// partials are validated against it.
	ExplicitValueCap int

	// Logger receives a warning for every rejected malformed partial.
	Logger *slog.Logger
}

// WithExplicitValueCap overrides DefaultExplicitValueCap.
func WithExplicitValueCap(cap int) func(*MergerOptions) {
	return func(o *MergerOptions) {
		o.ExplicitValueCap = cap
	}
}

// WithLogger sets the merger's logger.
func WithLogger(logger *slog.Logger) func(*MergerOptions) {
	return func(o *MergerOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Merger accumulates the partial results of every shard for one logical
// bucket and produces a single estimated distinct count.
//
// A Merger is owned by exactly one bucket merge context; it is not safe for
// concurrent use. Merge order across shards does not matter.
type Merger struct {
	explicitCap int
	logger      *slog.Logger

	values     *longset.Set // union of explicit values, lazily created
	sumAdded   int64        // total explicit values received
	missingSum int64        // sum over shards of unique - len(explicit)
	missingMax int64        // max over shards of unique - len(explicit)
	merged     int          // partials accepted

	finalized bool
	answer    int64
}

// NewMerger creates a Merger in the collecting state.
func NewMerger(optFns ...func(*MergerOptions)) *Merger {
	opts := MergerOptions{
		ExplicitValueCap: DefaultExplicitValueCap,
		Logger:           slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Merger{
		explicitCap: opts.ExplicitValueCap,
		logger:      opts.Logger,
	}
}

// Merge folds one shard's partial into the accumulators.
//
// A malformed partial is rejected atomically with a *MalformedPartialError
// and a warning log; no accumulator is touched. After Estimate has been
// called, Merge fails with ErrMergerFinalized.
func (m *Merger) Merge(p *Partial) error {
	if m.finalized {
		return ErrMergerFinalized
	}
	if p == nil {
		err := &MalformedPartialError{Reason: "nil partial"}
		m.logger.Warn("rejecting malformed shard partial",
			"cap", m.explicitCap,
			"err", err,
		)
		return err
	}
	if err := p.Validate(m.explicitCap); err != nil {
		m.logger.Warn("rejecting malformed shard partial",
			"unique", p.Unique,
			"explicit_values", len(p.Vals),
			"cap", m.explicitCap,
			"err", err,
		)
		return err
	}

	missing := p.Unique
	if p.Vals != nil {
		missing -= int64(len(p.Vals))
		if m.values == nil {
			m.values = longset.New(len(p.Vals) * 2)
		}
		for _, v := range p.Vals {
			m.values.Add(v)
		}
		m.sumAdded += int64(len(p.Vals))
	}

	m.missingSum += missing
	if missing > m.missingMax {
		m.missingMax = missing
	}
	m.merged++
	return nil
}

// Estimate finalizes the merger and returns the estimated global distinct
// count. The first call computes and caches the answer; every later call
// returns the cached value unchanged.
//
// With no explicit values from any shard the estimate is the plain sum of
// the shards' counts. Otherwise the withheld counts are scaled by the
// observed uniqueness rate of the explicit values and truncated toward zero
// (a deliberate underestimate bias).
func (m *Merger) Estimate() int64 {
	if m.finalized {
		return m.answer
	}
	m.finalized = true

	size := int64(0)
	if m.values != nil {
		size = int64(m.values.Cardinality())
	}
	if size == 0 {
		m.answer = m.missingSum
		return m.answer
	}

	// size > 0 implies sumAdded > 0: every deduplicated explicit value came
	// from some shard's non-empty list.
	factor := float64(size) / float64(m.sumAdded)
	estimate := int64(float64(m.missingSum) * factor)
	m.answer = size + estimate
	return m.answer
}

// Finalized reports whether the estimate has been read.
func (m *Merger) Finalized() bool {
	return m.finalized
}

// MergeStats exposes the estimator's inputs for observability.
type MergeStats struct {
	Size       int   // distinct explicit values unioned so far
	SumAdded   int64 // explicit values received, before dedup
	MissingSum int64 // withheld values, summed over shards
	MissingMax int64 // largest single-shard withheld count
	Merged     int   // partials accepted
}

// Stats returns a snapshot of the accumulators.
func (m *Merger) Stats() MergeStats {
	size := 0
	if m.values != nil {
		size = m.values.Cardinality()
	}
	return MergeStats{
		Size:       size,
		SumAdded:   m.sumAdded,
		MissingSum: m.missingSum,
		MissingMax: m.missingMax,
		Merged:     m.merged,
	}
}

// Compare orders two buckets by their estimated distinct count. Both
// mergers are finalized as a side effect. Ties are broken by the caller's
// secondary key.
func Compare(a, b *Merger) int {
	return cmp.Compare(a.Estimate(), b.Estimate())
}
