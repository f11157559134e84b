package sigdiff

import (
	"context"
	"math/rand"
	"sort"

	"github.com/grailbio/bio-sigdiff/interval"
)

// Sample is the concatenated signal of every record covering one genomic
// position.
type Sample struct {
	Pos      interval.PosType
	Coverage int
	Data     []float64
}

// sampleIter is a pull-based stream of Samples in strictly increasing
// position order.  Next returns (nil, nil) on exhaustion.
type sampleIter interface {
	Next() (*Sample, error)
}

// aggregator streams an owned record list as per-position Samples.
//
// Records are processed in (Start, End) order.  For record i, the "active
// window" [i, blockEnd) covers every later record whose Start precedes
// record i's End; only those can contribute to the positions of record i's
// span.  A cursor tracks the next unemitted position so spans overlapping
// earlier records are not emitted twice.  Consumed slots are nilled out: the
// slice is owned by the aggregator, and dropping the reference releases the
// record's payload.
type aggregator struct {
	ctx  context.Context
	recs []*Record

	minCoverage int
	resample    int
	rng         *rand.Rand

	// Positions outside [haloFrom, haloTo] (1-based) are skipped.  The halo
	// is wider than the user's bounds by the window size, so the smoothing
	// pass sees complete neighborhoods at the edges; the strict bound is
	// enforced at output time.
	haloFrom int
	haloTo   int

	i        int
	blockEnd int
	cursor   interval.PosType
	inBlock  bool
}

func newAggregator(ctx context.Context, recs []*Record, o *Opts, rng *rand.Rand) *aggregator {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Start != recs[j].Start {
			return recs[i].Start < recs[j].Start
		}
		return recs[i].End() < recs[j].End()
	})
	a := &aggregator{
		ctx:         ctx,
		recs:        recs,
		minCoverage: o.MinCoverage,
		resample:    o.Resample,
		rng:         rng,
	}
	if o.FromPos > 0 {
		a.haloFrom = o.FromPos - o.WindowSize
	}
	if o.ToPos > 0 {
		a.haloTo = o.ToPos + o.WindowSize
	}
	return a
}

func (a *aggregator) wantPos(pos interval.PosType) bool {
	p := int(pos) + 1 // bounds are 1-based
	if a.haloFrom != 0 && p < a.haloFrom {
		return false
	}
	if a.haloTo != 0 && p > a.haloTo {
		return false
	}
	return true
}

// gather builds the Sample at pos from the active window, or returns nil if
// coverage falls short of the threshold.
func (a *aggregator) gather(pos interval.PosType) (*Sample, error) {
	var data []float64
	coverage := 0
	for _, r := range a.recs[a.i:a.blockEnd] {
		if !r.Contains(pos) {
			continue
		}
		frag, err := r.SignalAt(a.ctx, pos, a.resample, a.rng)
		if err != nil {
			return nil, err
		}
		data = append(data, frag...)
		coverage++
	}
	if coverage < a.minCoverage {
		return nil, nil
	}
	return &Sample{Pos: pos, Coverage: coverage, Data: data}, nil
}

// Next returns the next Sample meeting the coverage threshold, or (nil, nil)
// once every record has been consumed.  A payload fetch failure aborts the
// stream: the error is returned and the aggregator must not be used again.
func (a *aggregator) Next() (*Sample, error) {
	for a.i < len(a.recs) {
		f := a.recs[a.i]
		if !a.inBlock {
			j := a.i + 1
			for j < len(a.recs) && a.recs[j].Start < f.End() {
				j++
			}
			a.blockEnd = j
			if a.cursor < f.Start {
				a.cursor = f.Start
			}
			a.inBlock = true
		}
		for a.cursor < f.End() {
			pos := a.cursor
			a.cursor++
			if !a.wantPos(pos) {
				continue
			}
			s, err := a.gather(pos)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s, nil
			}
		}
		a.recs[a.i] = nil
		a.i++
		a.inBlock = false
	}
	return nil, nil
}
