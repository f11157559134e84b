package sigdiff

import (
	"math"
	"sort"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/bio-sigdiff/interval"
	"gonum.org/v1/gonum/stat"
)

// DistanceFunc is a two-sample distributional distance.  Both inputs are
// sorted ascending and must not be mutated; the result is non-negative and
// deterministic for given inputs.
type DistanceFunc func(a, b []float64) float64

// KolmogorovSmirnov returns the two-sample Kolmogorov-Smirnov statistic,
// the maximum distance between the samples' empirical CDFs.
func KolmogorovSmirnov(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return stat.KolmogorovSmirnov(a, nil, b, nil)
}

// Kuiper returns the two-sample Kuiper statistic D+ + D-, the sum of the
// maximum distances of each empirical CDF above and below the other.  Unlike
// Kolmogorov-Smirnov it weighs the distribution tails evenly.
func Kuiper(a, b []float64) float64 {
	na, nb := len(a), len(b)
	if na == 0 || nb == 0 {
		return 0
	}
	var i, j int
	var up, down float64
	for i < na && j < nb {
		v := math.Min(a[i], b[j])
		for i < na && a[i] == v {
			i++
		}
		for j < nb && b[j] == v {
			j++
		}
		fa := float64(i) / float64(na)
		fb := float64(j) / float64(nb)
		if d := fa - fb; d > up {
			up = d
		}
		if d := fb - fa; d > down {
			down = d
		}
	}
	return up + down
}

// PosDist is the per-position comparison result: the distance statistic plus
// the combined coverage of the two aggregated samples.
type PosDist struct {
	Pos      interval.PosType
	Coverage int
	Dist     float64
}

// posDistIter is a pull-based stream of PosDists in strictly increasing
// position order.  Next returns (nil, nil) on exhaustion.
type posDistIter interface {
	Next() (*PosDist, error)
}

// distChunkSize is the number of pairs dispatched to the worker pool at a
// time in parallel mode.  Chunking amortizes scheduling overhead; results
// are emitted in position order either way.
const distChunkSize = 256

// distancer maps paired samples to (position, distance), sorting each side
// once and delegating the statistic to fn.  With parallelism > 1 the
// statistic is computed by a worker pool over chunks of pairs.
type distancer struct {
	pairs       *merger
	fn          DistanceFunc
	parallelism int

	chunk []PosDist
	next  int
	done  bool
}

func newDistancer(pairs *merger, fn DistanceFunc, parallelism int) *distancer {
	return &distancer{pairs: pairs, fn: fn, parallelism: parallelism}
}

func (d *distancer) compute(p *samplePair) PosDist {
	sort.Float64s(p.x.Data)
	sort.Float64s(p.y.Data)
	return PosDist{
		Pos:      p.x.Pos,
		Coverage: p.x.Coverage + p.y.Coverage,
		Dist:     d.fn(p.x.Data, p.y.Data),
	}
}

// fill pulls up to distChunkSize pairs and computes their distances.
func (d *distancer) fill() error {
	size := distChunkSize
	if d.parallelism < 2 {
		size = 1
	}
	pending := make([]*samplePair, 0, size)
	for len(pending) < size {
		p, err := d.pairs.Next()
		if err != nil {
			return err
		}
		if p == nil {
			d.done = true
			break
		}
		pending = append(pending, p)
	}
	d.chunk = make([]PosDist, len(pending))
	d.next = 0
	if d.parallelism < 2 || len(pending) < 2 {
		for i, p := range pending {
			d.chunk[i] = d.compute(p)
		}
		return nil
	}
	nJobs := d.parallelism
	if nJobs > len(pending) {
		nJobs = len(pending)
	}
	return traverse.Each(nJobs, func(job int) error {
		for i := job; i < len(pending); i += nJobs {
			d.chunk[i] = d.compute(pending[i])
		}
		return nil
	})
}

func (d *distancer) Next() (*PosDist, error) {
	for d.next >= len(d.chunk) {
		if d.done {
			return nil, nil
		}
		if err := d.fill(); err != nil {
			return nil, err
		}
		if len(d.chunk) == 0 && d.done {
			return nil, nil
		}
	}
	pd := &d.chunk[d.next]
	d.next++
	return pd, nil
}
