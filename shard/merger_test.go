package shard

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetgo/model"
)

func vals(vs ...int64) []model.EncodedValue {
	out := make([]model.EncodedValue, len(vs))
	for i, v := range vs {
		out[i] = model.EncodedValue(v)
	}
	return out
}

func TestMergerExactUnion(t *testing.T) {
	m := NewMerger()

	require.NoError(t, m.Merge(&Partial{Unique: 5, Vals: vals(1, 2, 3, 4, 5)}))
	require.NoError(t, m.Merge(&Partial{Unique: 3, Vals: vals(3, 4, 6)}))

	assert.Equal(t, int64(6), m.Estimate(), "both shards under the cap: exact union size")
}

func TestMergerAllUnderCapIsExact(t *testing.T) {
	tests := []struct {
		name     string
		partials []*Partial
		want     int64
	}{
		{
			name: "disjoint shards",
			partials: []*Partial{
				{Unique: 2, Vals: vals(1, 2)},
				{Unique: 2, Vals: vals(3, 4)},
				{Unique: 2, Vals: vals(5, 6)},
			},
			want: 6,
		},
		{
			name: "identical shards",
			partials: []*Partial{
				{Unique: 3, Vals: vals(7, 8, 9)},
				{Unique: 3, Vals: vals(7, 8, 9)},
				{Unique: 3, Vals: vals(7, 8, 9)},
				{Unique: 3, Vals: vals(7, 8, 9)},
			},
			want: 3,
		},
		{
			name: "empty shards",
			partials: []*Partial{
				{Unique: 0, Vals: vals()},
				{Unique: 0, Vals: vals()},
			},
			want: 0,
		},
		{
			name: "zero value participates",
			partials: []*Partial{
				{Unique: 2, Vals: vals(0, 1)},
				{Unique: 1, Vals: vals(0)},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMerger()
			for _, p := range tt.partials {
				require.NoError(t, m.Merge(p))
			}
			assert.Equal(t, tt.want, m.Estimate())
		})
	}
}

func TestMergerMissingSumFallback(t *testing.T) {
	m := NewMerger()

	require.NoError(t, m.Merge(&Partial{Unique: 1000}))
	assert.Equal(t, int64(1000), m.Estimate(), "no explicit values anywhere: plain sum")

	// Several over-cap shards sum without dedup.
	m = NewMerger()
	require.NoError(t, m.Merge(&Partial{Unique: 1000}))
	require.NoError(t, m.Merge(&Partial{Unique: 500}))
	assert.Equal(t, int64(1500), m.Estimate())
}

func TestMergerMixedEstimate(t *testing.T) {
	m := NewMerger()

	require.NoError(t, m.Merge(&Partial{Unique: 5, Vals: vals(1, 2, 3, 4, 5)}))
	require.NoError(t, m.Merge(&Partial{Unique: 1000}))

	// size=5, sumAdded=5 -> factor 1.0; 5 + 1000*1.0 = 1005.
	assert.Equal(t, int64(1005), m.Estimate())
}

func TestMergerTruncatesTowardZero(t *testing.T) {
	m := NewMerger()

	// Explicit tier: 4 values sent, 3 globally unique -> factor 0.75.
	require.NoError(t, m.Merge(&Partial{Unique: 2, Vals: vals(1, 2)}))
	require.NoError(t, m.Merge(&Partial{Unique: 2, Vals: vals(2, 3)}))
	// Withheld tier: 201 values -> 201 * 0.75 = 150.75, truncated to 150.
	require.NoError(t, m.Merge(&Partial{Unique: 201}))

	assert.Equal(t, int64(3+150), m.Estimate())
}

func TestMergerEstimateIdempotent(t *testing.T) {
	m := NewMerger()
	require.NoError(t, m.Merge(&Partial{Unique: 3, Vals: vals(1, 2, 3)}))

	first := m.Estimate()
	assert.Equal(t, first, m.Estimate())
	assert.True(t, m.Finalized())
}

func TestMergerRejectsLateMerge(t *testing.T) {
	m := NewMerger()
	require.NoError(t, m.Merge(&Partial{Unique: 2, Vals: vals(1, 2)}))

	_ = m.Estimate()
	err := m.Merge(&Partial{Unique: 1, Vals: vals(9)})
	assert.ErrorIs(t, err, ErrMergerFinalized)
	assert.Equal(t, int64(2), m.Estimate(), "cached answer unchanged by the rejected merge")
}

func TestMergerRejectsMalformedAtomically(t *testing.T) {
	tests := []struct {
		name    string
		partial *Partial
	}{
		{"nil partial", nil},
		{"negative unique", &Partial{Unique: -1}},
		{"list shorter than unique", &Partial{Unique: 5, Vals: vals(1, 2)}},
		{"list longer than unique", &Partial{Unique: 1, Vals: vals(1, 2, 3)}},
		{"explicit values above cap", &Partial{Unique: 3, Vals: vals(1, 2, 3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			m := NewMerger(WithExplicitValueCap(2), WithLogger(logger))

			require.NoError(t, m.Merge(&Partial{Unique: 2, Vals: vals(10, 11)}))

			err := m.Merge(tt.partial)
			var malformed *MalformedPartialError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Contains(t, buf.String(), "malformed shard partial")

			stats := m.Stats()
			assert.Equal(t, 1, stats.Merged, "rejected partial must not count")
			assert.Equal(t, int64(2), stats.SumAdded)
			assert.Equal(t, int64(0), stats.MissingSum)
			assert.Equal(t, int64(2), m.Estimate(), "accumulators untouched by the rejection")
		})
	}
}

func TestMergerAbsentListBelowCapIsAccepted(t *testing.T) {
	// A shard that withholds its list below the cap is treated like any
	// other withheld contribution rather than rejected.
	m := NewMerger()
	require.NoError(t, m.Merge(&Partial{Unique: 5}))
	assert.Equal(t, int64(5), m.Estimate())
}

func TestMergerStats(t *testing.T) {
	m := NewMerger()
	require.NoError(t, m.Merge(&Partial{Unique: 3, Vals: vals(1, 2, 3)}))
	require.NoError(t, m.Merge(&Partial{Unique: 400}))
	require.NoError(t, m.Merge(&Partial{Unique: 150}))

	stats := m.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, int64(3), stats.SumAdded)
	assert.Equal(t, int64(550), stats.MissingSum)
	assert.Equal(t, int64(400), stats.MissingMax)
	assert.Equal(t, 3, stats.Merged)
}

func TestMergerOrderInsensitive(t *testing.T) {
	partials := []*Partial{
		{Unique: 5, Vals: vals(1, 2, 3, 4, 5)},
		{Unique: 1000},
		{Unique: 3, Vals: vals(4, 5, 6)},
	}

	forward := NewMerger()
	for _, p := range partials {
		require.NoError(t, forward.Merge(p))
	}
	backward := NewMerger()
	for i := len(partials) - 1; i >= 0; i-- {
		require.NoError(t, backward.Merge(partials[i]))
	}

	assert.Equal(t, forward.Estimate(), backward.Estimate())
}

func TestCompare(t *testing.T) {
	small := NewMerger()
	require.NoError(t, small.Merge(&Partial{Unique: 5, Vals: vals(1, 2, 3, 4, 5)}))
	require.NoError(t, small.Merge(&Partial{Unique: 3, Vals: vals(3, 4, 6)}))

	large := NewMerger()
	require.NoError(t, large.Merge(&Partial{Unique: 5, Vals: vals(1, 2, 3, 4, 5)}))
	require.NoError(t, large.Merge(&Partial{Unique: 1000}))

	assert.Equal(t, int64(6), small.Estimate())
	assert.Equal(t, int64(1005), large.Estimate())

	assert.Negative(t, Compare(small, large))
	assert.Positive(t, Compare(large, small))
	assert.Zero(t, Compare(small, small))
}
