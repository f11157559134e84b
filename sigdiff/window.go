package sigdiff

import (
	"github.com/grailbio/bio-sigdiff/circular"
	"github.com/grailbio/bio-sigdiff/interval"
)

// smoother replaces each position's distance with the sum of the distances
// in a fixed odd-sized window around it.  The window is a ring of the last
// windowSize stream entries, but membership in a sum is gated by genomic
// distance, not ring adjacency: a neighbor whose position differs by more
// than the half-width is excluded, so position gaps shrink the effective
// window instead of letting unrelated positions bleed in.
//
// The smoother emits exactly one output per input, in input order; only the
// distance value changes.  Entries in the leading and trailing half-window
// get partial sums: missing neighbors are excluded, not zero-padded.
type smoother struct {
	src  posDistIter
	ring *circular.Ring[PosDist]
	h    int // half-width, windowSize / 2

	preloaded bool
	emitIdx   int // next index to emit in prefix/drain phase
	prefixEnd int
	draining  bool
}

func newSmoother(src posDistIter, windowSize int) *smoother {
	return &smoother{
		src:  src,
		ring: circular.NewRing[PosDist](windowSize),
		h:    windowSize / 2,
	}
}

// sumAt computes the windowed sum for ring index i.
func (s *smoother) sumAt(i int) *PosDist {
	center := s.ring.At(i)
	sum := 0.0
	for j := i - s.h; j <= i+s.h; j++ {
		if j < 0 || j >= s.ring.Len() {
			continue
		}
		e := s.ring.At(j)
		if absPosDiff(center.Pos, e.Pos) <= s.h {
			sum += e.Dist
		}
	}
	return &PosDist{Pos: center.Pos, Coverage: center.Coverage, Dist: sum}
}

func absPosDiff(a, b interval.PosType) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d
}

func (s *smoother) Next() (*PosDist, error) {
	if !s.preloaded {
		for s.ring.Len() < s.ring.Cap() {
			pd, err := s.src.Next()
			if err != nil {
				return nil, err
			}
			if pd == nil {
				s.draining = true
				break
			}
			s.ring.Push(*pd)
		}
		s.preloaded = true
		s.prefixEnd = s.h
		if s.ring.Len() < s.prefixEnd {
			s.prefixEnd = s.ring.Len()
		}
		s.emitIdx = 0
	}

	// Leading half-window: left neighbors are incomplete by construction.
	if s.emitIdx < s.prefixEnd && !s.draining {
		out := s.sumAt(s.emitIdx)
		s.emitIdx++
		return out, nil
	}

	// Steady state: emit the center of a full ring, then slide.
	for !s.draining {
		pd, err := s.src.Next()
		if err != nil {
			return nil, err
		}
		if pd == nil {
			s.draining = true
			s.emitIdx = s.prefixEnd
			break
		}
		out := s.sumAt(s.h)
		s.ring.PopFront()
		s.ring.Push(*pd)
		return out, nil
	}

	// Trailing half-window (or everything past the prefix, for inputs
	// shorter than the window): right neighbors are incomplete.
	if s.emitIdx < s.ring.Len() {
		out := s.sumAt(s.emitIdx)
		s.emitIdx++
		return out, nil
	}
	return nil, nil
}
