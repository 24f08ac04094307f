// Package arena implements the free-list slab allocator described in
// spec.md §4.1: a single contiguous buffer tiled by header+payload
// regions, first-fit allocation, forward-only coalescing free, and
// relocate-by-copy growth. It backs received messages under multi-worker
// dispatch so a server can hand workers owned slices without a GC
// allocation per message.
package arena

import (
	"sync"

	"github.com/Meulengracht/gracht"
)

// HeaderSize is the size in bytes of a single allocation header.
const HeaderSize = 4

// MaxLength is the largest payload length representable in a 24-bit
// header field.
const MaxLength = 1<<24 - 1

// Spillover is the minimum remainder, in bytes, required to split a free
// slot instead of handing out the whole thing. A split that would leave
// less than Spillover free bytes behind is not worth the bookkeeping.
const Spillover = 128

// Arena is a contiguous buffer sliced into variable-length allocations.
// All operations are serialized by mu; the exported methods take the lock
// and delegate to unexported *Locked helpers so that operations which
// must call each other internally (growth-by-relocation calls free) never
// re-enter the lock.
type Arena struct {
	mu     sync.Mutex
	buf    []byte
	extent int // bytes available for headers+payloads, buf[:extent]
}

// Allocation is a reference into an Arena's backing buffer. Its lifetime
// is the caller's responsibility: the arena performs no reference
// counting, matching §3's ownership model ("allocations are references
// whose lifetime is the caller's responsibility").
type Allocation struct {
	arena  *Arena
	offset int
}

// New creates an arena able to hold size bytes of headers and payloads.
func New(size int) (*Arena, error) {
	if size <= HeaderSize {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "arena size must exceed header size", nil)
	}
	a := &Arena{
		buf:    make([]byte, size),
		extent: size,
	}
	putHeader(a.buf, 0, size-HeaderSize, false)
	return a, nil
}

// Destroy releases the arena's backing buffer. Any outstanding
// Allocations become invalid; it is the caller's responsibility to have
// freed or abandoned them first.
func (a *Arena) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = nil
	a.extent = 0
}

// header is the decoded form of the packed 4-byte per-allocation header:
// 24 bits of length, 1 allocated flag, 7 reserved bits.
type header struct {
	length    int
	allocated bool
}

func getHeader(buf []byte, offset int) header {
	raw := uint32(buf[offset]) | uint32(buf[offset+1])<<8 | uint32(buf[offset+2])<<16 | uint32(buf[offset+3])<<24
	return header{
		length:    int(raw & 0x00FFFFFF),
		allocated: raw&0x01000000 != 0,
	}
}

func putHeader(buf []byte, offset int, length int, allocated bool) {
	raw := uint32(length) & 0x00FFFFFF
	if allocated {
		raw |= 0x01000000
	}
	buf[offset] = byte(raw)
	buf[offset+1] = byte(raw >> 8)
	buf[offset+2] = byte(raw >> 16)
	buf[offset+3] = byte(raw >> 24)
}

// next returns the offset of the header immediately following the slot at
// offset, given that slot's header.
func next(offset int, h header) int {
	return offset + HeaderSize + h.length
}

// findFreeHeader performs the first-fit linear walk from base, bounded
// explicitly by the arena's extent: the original C implementation could
// walk past the end when the arena is fully allocated and the final
// header's length is zero (spec §9 open question). Tracking the summed
// extent walked closes that hole instead of relying on a zero-length
// sentinel.
func (a *Arena) findFreeHeader(size int) (offset int, ok bool) {
	walked := 0
	offset = 0
	for walked < a.extent {
		h := getHeader(a.buf, offset)
		if !h.allocated && h.length >= size {
			return offset, true
		}
		walked += HeaderSize + h.length
		offset = next(offset, h)
	}
	return 0, false
}

// Allocate requests size bytes. If existing is nil, a fresh slot is
// located by first-fit. If existing is non-nil, the arena attempts to
// grow that allocation in place, falling back to a copy-relocation when
// the neighbouring slot cannot absorb the growth.
func (a *Arena) Allocate(existing *Allocation, size int) (*Allocation, error) {
	if size <= 0 || size > MaxLength {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "allocation size out of range", nil)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing == nil {
		return a.allocateFreshLocked(size)
	}
	return a.allocateGrowLocked(existing, size)
}

func (a *Arena) allocateFreshLocked(size int) (*Allocation, error) {
	offset, ok := a.findFreeHeader(size)
	if !ok {
		return nil, gracht.ErrOutOfMemory
	}
	h := getHeader(a.buf, offset)
	remainder := h.length - size
	if remainder < Spillover {
		// Consume the whole slot; do not split.
		putHeader(a.buf, offset, h.length, true)
	} else {
		putHeader(a.buf, offset, size, true)
		splitOffset := offset + HeaderSize + size
		putHeader(a.buf, splitOffset, remainder-HeaderSize, false)
	}
	return &Allocation{arena: a, offset: offset}, nil
}

func (a *Arena) allocateGrowLocked(existing *Allocation, size int) (*Allocation, error) {
	offset := existing.offset
	h := getHeader(a.buf, offset)
	grow := size - h.length
	if grow <= 0 {
		return existing, nil
	}

	nextOffset := next(offset, h)
	if nextOffset < a.extent {
		nh := getHeader(a.buf, nextOffset)
		available := nh.length + HeaderSize
		if !nh.allocated && available >= grow {
			leftover := available - grow
			if leftover >= HeaderSize {
				putHeader(a.buf, offset, size, true)
				putHeader(a.buf, offset+HeaderSize+size, leftover-HeaderSize, false)
			} else {
				// Leftover is too small to host a valid header of its
				// own; swallow it into the allocation rather than leak
				// untiled bytes.
				putHeader(a.buf, offset, size+leftover, true)
			}
			return existing, nil
		}
	}

	// Relocate by copy. Call the unexported free directly: we are already
	// holding mu, and a recursive mutex would otherwise be needed here
	// (the original C allocator uses one for exactly this reentry).
	fresh, err := a.allocateFreshLocked(size)
	if err != nil {
		return nil, err
	}
	copy(a.payload(fresh.offset), a.payload(offset))
	a.freeLocked(offset, 0)
	return fresh, nil
}

// Free releases alloc, or shrinks it by partial bytes from the tail when
// 0 < partial < full length. Free is best-effort per §4.1 and never
// returns an error: an invalid partial size is silently ignored, matching
// the spec's "reject silently" rule for partial sizes that are too small
// to leave behind a valid header.
func (a *Arena) Free(alloc *Allocation, partial int) {
	if alloc == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeLocked(alloc.offset, partial)
}

func (a *Arena) freeLocked(offset int, partial int) {
	h := getHeader(a.buf, offset)
	if !h.allocated {
		return
	}

	if partial == 0 || partial == h.length {
		putHeader(a.buf, offset, h.length, false)
		a.mergeForwardLocked(offset)
		return
	}

	if partial < 0 || partial >= h.length {
		return
	}
	if partial < HeaderSize {
		// Cannot create a valid header for the freed tail: reject silently.
		return
	}

	newLength := h.length - partial
	nextOffset := next(offset, h)
	if nextOffset < a.extent {
		nh := getHeader(a.buf, nextOffset)
		if !nh.allocated {
			// Slide the following free header left by partial bytes and
			// extend it backward to absorb the freed tail.
			newFreeOffset := offset + HeaderSize + newLength
			putHeader(a.buf, newFreeOffset, nh.length+partial, false)
			putHeader(a.buf, offset, newLength, true)
			return
		}
	}
	// No free neighbour to extend: write a fresh free header in the
	// freed tail.
	freeOffset := offset + HeaderSize + newLength
	putHeader(a.buf, freeOffset, partial-HeaderSize, false)
	putHeader(a.buf, offset, newLength, true)
}

// mergeForwardLocked folds the immediately following header into offset's
// if that neighbour is free. Merging is forward only: there is no footer,
// so a backward merge would require an O(n) scan from base.
func (a *Arena) mergeForwardLocked(offset int) {
	h := getHeader(a.buf, offset)
	nextOffset := next(offset, h)
	if nextOffset >= a.extent {
		return
	}
	nh := getHeader(a.buf, nextOffset)
	if nh.allocated {
		return
	}
	putHeader(a.buf, offset, h.length+HeaderSize+nh.length, false)
}

func (a *Arena) payload(offset int) []byte {
	h := getHeader(a.buf, offset)
	start := offset + HeaderSize
	return a.buf[start : start+h.length]
}

// Bytes returns the payload region backing this allocation. The slice is
// only valid until the allocation is freed, shrunk, or relocated by a
// subsequent Allocate call.
func (alloc *Allocation) Bytes() []byte {
	alloc.arena.mu.Lock()
	defer alloc.arena.mu.Unlock()
	return alloc.arena.payload(alloc.offset)
}

// Len returns the current payload length of this allocation.
func (alloc *Allocation) Len() int {
	alloc.arena.mu.Lock()
	defer alloc.arena.mu.Unlock()
	return getHeader(alloc.arena.buf, alloc.offset).length
}

// BytesFree walks the tiled arena and sums the length of every free slot,
// for the arena_bytes_free gauge and for tests asserting the tiling
// invariant.
func (a *Arena) BytesFree() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	free := 0
	walked := 0
	offset := 0
	for walked < a.extent {
		h := getHeader(a.buf, offset)
		if !h.allocated {
			free += h.length
		}
		step := HeaderSize + h.length
		if step <= 0 {
			break
		}
		walked += step
		offset = next(offset, h)
	}
	return free
}

// Extent returns the total number of header+payload bytes the arena
// tiles: the size it was created with (zero after Destroy).
func (a *Arena) Extent() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.extent
}
