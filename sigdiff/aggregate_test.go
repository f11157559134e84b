package sigdiff

import (
	"context"
	"math/rand"
	"testing"

	"github.com/grailbio/bio-sigdiff/encoding/sig5"
	"github.com/grailbio/bio-sigdiff/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord builds an in-memory record covering [start, start+len(frags))
// with one signal fragment per position.
func testRecord(t *testing.T, start interval.PosType, frags ...[]float64) *Record {
	t.Helper()
	var values []float64
	lengths := make([]int, len(frags))
	for i, f := range frags {
		lengths[i] = len(f)
		values = append(values, f...)
	}
	p, err := sig5.NewPayload(values, lengths)
	require.NoError(t, err)
	return &Record{
		Meta: sig5.Meta{
			Path:      "mem",
			Chrom:     "chr1",
			Strand:    "+",
			Acid:      sig5.DNA,
			Start:     start,
			Scale:     1,
			NumEvents: len(frags),
		},
		payload: p,
		fetched: true,
	}
}

func drainSamples(t *testing.T, it sampleIter) []*Sample {
	t.Helper()
	var out []*Sample
	for {
		s, err := it.Next()
		require.NoError(t, err)
		if s == nil {
			return out
		}
		out = append(out, s)
	}
}

func aggOpts(minCoverage, resample int) *Opts {
	o := DefaultOpts
	o.MinCoverage = minCoverage
	o.Resample = resample
	return &o
}

func TestAggregatorSingleRecord(t *testing.T) {
	ctx := context.Background()
	recs := []*Record{testRecord(t, 10, []float64{1, 2}, []float64{3}, []float64{4, 5, 6})}
	got := drainSamples(t, newAggregator(ctx, recs, aggOpts(1, 0), nil))

	require.Len(t, got, 3)
	assert.Equal(t, interval.PosType(10), got[0].Pos)
	assert.Equal(t, []float64{1, 2}, got[0].Data)
	assert.Equal(t, 1, got[0].Coverage)
	assert.Equal(t, interval.PosType(11), got[1].Pos)
	assert.Equal(t, []float64{3}, got[1].Data)
	assert.Equal(t, interval.PosType(12), got[2].Pos)
	assert.Equal(t, []float64{4, 5, 6}, got[2].Data)
}

func TestAggregatorCoverageInvariant(t *testing.T) {
	ctx := context.Background()
	mk := func() []*Record {
		return []*Record{
			testRecord(t, 0, []float64{1}, []float64{1}, []float64{1}, []float64{1}),  // [0,4)
			testRecord(t, 2, []float64{2}, []float64{2}, []float64{2}),               // [2,5)
			testRecord(t, 3, []float64{3}, []float64{3}, []float64{3}, []float64{3}), // [3,7)
			testRecord(t, 9, []float64{4}),                                           // [9,10)
		}
	}
	want := map[interval.PosType]int{} // brute-force coverage per position
	for _, r := range mk() {
		for p := r.Start; p < r.End(); p++ {
			want[p]++
		}
	}

	got := drainSamples(t, newAggregator(ctx, mk(), aggOpts(1, 0), nil))
	require.Len(t, got, len(want))
	last := interval.PosType(-1)
	for _, s := range got {
		assert.True(t, s.Pos > last, "positions must be strictly increasing")
		last = s.Pos
		assert.Equal(t, want[s.Pos], s.Coverage, "coverage at position ", s.Pos)
		assert.Len(t, s.Data, s.Coverage, "one value per contributor at position ", s.Pos)
	}
}

func TestAggregatorMinCoverageGate(t *testing.T) {
	ctx := context.Background()
	recs := []*Record{
		testRecord(t, 0, []float64{1}, []float64{1}, []float64{1}), // [0,3)
		testRecord(t, 2, []float64{2}, []float64{2}),               // [2,4)
	}
	got := drainSamples(t, newAggregator(ctx, recs, aggOpts(2, 0), nil))

	// Only position 2 is covered twice.
	require.Len(t, got, 1)
	assert.Equal(t, interval.PosType(2), got[0].Pos)
	assert.Equal(t, 2, got[0].Coverage)
	assert.Equal(t, []float64{1, 2}, got[0].Data)
}

func TestAggregatorEmptyFragmentStillCounts(t *testing.T) {
	// A record covering a position with a zero-length fragment still counts
	// toward coverage; it just contributes no values.
	ctx := context.Background()
	recs := []*Record{
		testRecord(t, 0, []float64{1}, nil),
		testRecord(t, 1, []float64{2}),
	}
	got := drainSamples(t, newAggregator(ctx, recs, aggOpts(2, 0), nil))
	require.Len(t, got, 1)
	assert.Equal(t, interval.PosType(1), got[0].Pos)
	assert.Equal(t, 2, got[0].Coverage)
	assert.Equal(t, []float64{2}, got[0].Data)
}

func TestAggregatorResampleDeterminism(t *testing.T) {
	ctx := context.Background()
	mk := func() []*Record {
		return []*Record{
			testRecord(t, 0, []float64{1, 2, 3}, []float64{4, 5}),
			testRecord(t, 0, []float64{6}, []float64{7, 8, 9, 10}),
		}
	}
	run := func(seed int64) []*Sample {
		return drainSamples(t, newAggregator(ctx, mk(), aggOpts(1, 4), rand.New(rand.NewSource(seed))))
	}
	a, b := run(42), run(42)
	require.Equal(t, a, b, "same seed must reproduce the same stream")

	for _, s := range a {
		assert.Len(t, s.Data, 4*s.Coverage, "each contributor is resampled to 4 values")
	}

	c := run(43)
	assert.NotEqual(t, a, c, "a different seed should draw differently")
}

func TestAggregatorPayloadErrorAborts(t *testing.T) {
	ctx := context.Background()
	broken := &Record{
		Meta: sig5.Meta{
			Path:      "/nonexistent/read.sig5",
			Chrom:     "chr1",
			Strand:    "+",
			Acid:      sig5.DNA,
			Start:     0,
			Scale:     1,
			NumEvents: 2,
		},
	}
	agg := newAggregator(ctx, []*Record{broken}, aggOpts(1, 0), nil)
	_, err := agg.Next()
	require.Error(t, err)
	// The failure is memoized; the stream stays broken instead of retrying.
	_, err = agg.Next()
	require.Error(t, err)
}

func TestAggregatorPositionHalo(t *testing.T) {
	ctx := context.Background()
	o := aggOpts(1, 0)
	o.FromPos = 10 // 1-based; window size 5 gives a halo of [5, 25]
	o.ToPos = 20
	recs := []*Record{testRecord(t, 0,
		[]float64{0}, []float64{1}, []float64{2}, []float64{3}, []float64{4},
		[]float64{5}, []float64{6}, []float64{7}, []float64{8}, []float64{9},
		[]float64{10}, []float64{11}, []float64{12}, []float64{13}, []float64{14},
		[]float64{15}, []float64{16}, []float64{17}, []float64{18}, []float64{19},
		[]float64{20}, []float64{21}, []float64{22}, []float64{23}, []float64{24},
		[]float64{25}, []float64{26}, []float64{27}, []float64{28}, []float64{29},
	)}
	got := drainSamples(t, newAggregator(ctx, recs, o, nil))
	require.NotEmpty(t, got)
	assert.Equal(t, interval.PosType(4), got[0].Pos, "1-based 5 is the lowest halo position")
	assert.Equal(t, interval.PosType(24), got[len(got)-1].Pos, "1-based 25 is the highest halo position")
	assert.Len(t, got, 21)
}
