package interval

import (
	"math"
	"sort"
)

// PosType is the coordinate type.
type PosType int32

// PosTypeMax is the maximum value a PosType can represent.
const PosTypeMax = math.MaxInt32

// Span is a half-open genomic interval [Start, End).  Valid Spans satisfy
// 0 <= Start < End.
type Span struct {
	Start PosType
	End   PosType
}

// Overlaps returns whether the two half-open intervals share at least one
// position.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains returns whether pos lies within the half-open interval.
func (s Span) Contains(pos PosType) bool {
	return s.Start <= pos && pos < s.End
}

// Index is a set of Spans sorted by (Start ascending, End descending),
// supporting O(log n) overlap queries.  Build one with BuildIndex, or pass a
// slice already in that order.
type Index []Span

// less is the (Start, -End) ordering Index is sorted by.
func less(a, b Span) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End > b.End
}

// BuildIndex sorts a copy of spans into Index order.
func BuildIndex(spans []Span) Index {
	idx := make(Index, len(spans))
	copy(idx, spans)
	sort.Slice(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	return idx
}

// search returns the insertion point of q in x, i.e. the index of the first
// element that does not precede q in (Start, -End) order.
func (x Index) search(q Span) int {
	return sort.Search(len(x), func(i int) bool { return !less(x[i], q) })
}

// Overlap returns the index of the first span overlapping q, scanning from
// one before q's insertion point.  The scan stops as soon as a candidate's
// Start reaches q.End: no later element can overlap, since the index is
// Start-sorted.
func (x Index) Overlap(q Span) (int, bool) {
	j := x.search(q)
	if j > 0 {
		j--
	}
	for i := j; i < len(x); i++ {
		c := x[i]
		if c.Start >= q.End {
			break
		}
		if q.Start < c.End && c.Start < q.End {
			return i, true
		}
	}
	return 0, false
}

// OverlapsAny is a convenience wrapper around Overlap for callers that only
// need a yes/no answer.
func (x Index) OverlapsAny(q Span) bool {
	_, ok := x.Overlap(q)
	return ok
}
