// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package circular

import "math/bits"

// NextExp2 returns the next power of 2 strictly greater than x.  (Useful when
// setting circular buffer size.)
func NextExp2(x int) int {
	log2 := 63 - bits.LeadingZeros64(uint64(x))
	return 2 << uint32(log2)
}

// Ring is a fixed-capacity FIFO holding the most recent values pushed into
// it.  Once full, each Push evicts the oldest value.  The backing array is
// sized to a power of 2 so index arithmetic reduces to a mask.
type Ring[T any] struct {
	buf   []T
	mask  int
	first int
	n     int
	cap   int
}

// NewRing returns a Ring holding at most capacity values.  capacity must be
// positive.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic("circular.NewRing: nonpositive capacity")
	}
	size := NextExp2(capacity - 1)
	if size < capacity {
		size = NextExp2(capacity)
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: size - 1,
		cap:  capacity,
	}
}

// Len returns the number of values currently held.
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the logical capacity.
func (r *Ring[T]) Cap() int { return r.cap }

// At returns the i'th oldest value; i must be in [0, Len()).
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("circular.Ring.At: index out of range")
	}
	return r.buf[(r.first+i)&r.mask]
}

// Push appends v, evicting the oldest value if the ring is full.
func (r *Ring[T]) Push(v T) {
	if r.n == r.cap {
		r.PopFront()
	}
	r.buf[(r.first+r.n)&r.mask] = v
	r.n++
}

// PopFront removes and returns the oldest value.
func (r *Ring[T]) PopFront() T {
	if r.n == 0 {
		panic("circular.Ring.PopFront: empty ring")
	}
	v := r.buf[r.first]
	var zero T
	r.buf[r.first] = zero
	r.first = (r.first + 1) & r.mask
	r.n--
	return v
}
