// Package shmring is a single-producer, single-consumer byte ring with
// edge notifications, used to hand a byte stream between goroutines
// without a per-chunk allocation.
package shmring

import "sync/atomic"

type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // empty -> non-empty
	writable chan struct{} // full -> non-full
}

// New allocates a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || size&(size-1) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Space is the number of bytes the producer can write.
func (r *Ring) Space() int { return int(r.size() - (r.wr.Load() - r.rd.Load())) }

// Available is the number of bytes the consumer can read.
func (r *Ring) Available() int { return int(r.wr.Load() - r.rd.Load()) }

func signal(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}

// TryWriteFrom copies as much of src as fits and returns the count.
// Producer side only.
func (r *Ring) TryWriteFrom(src []byte) int {
	rd, wr := r.rd.Load(), r.wr.Load()
	used := wr - rd
	n := min(len(src), int(r.size()-used))
	if n <= 0 {
		return 0
	}
	i := wr & r.mask
	first := min(n, int(r.size()-i))
	copy(r.buf[i:], src[:first])
	copy(r.buf, src[first:n])
	r.wr.Store(wr + uint32(n))
	if used == 0 {
		signal(r.readable)
	}
	return n
}

// TryReadInto copies up to len(dst) bytes out and returns the count.
// Consumer side only.
func (r *Ring) TryReadInto(dst []byte) int {
	rd, wr := r.rd.Load(), r.wr.Load()
	used := wr - rd
	n := min(len(dst), int(used))
	if n <= 0 {
		return 0
	}
	i := rd & r.mask
	first := min(n, int(r.size()-i))
	copy(dst, r.buf[i:i+uint32(first)])
	copy(dst[first:n], r.buf[:n-first])
	r.rd.Store(rd + uint32(n))
	if used == r.size() {
		signal(r.writable)
	}
	return n
}

// Readable fires after the ring goes from empty to non-empty. Wake-ups
// are coalesced; re-check Available after each.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

// Writable fires after the ring goes from full to non-full.
func (r *Ring) Writable() <-chan struct{} { return r.writable }
