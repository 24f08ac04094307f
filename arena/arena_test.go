package arena

import (
	"testing"

	"github.com/Meulengracht/gracht"
	"github.com/stretchr/testify/require"
)

func TestNewArenaSingleFreeSlot(t *testing.T) {
	a, err := New(1024)
	require.NoError(t, err)
	require.Equal(t, 1024-HeaderSize, a.BytesFree())
	require.Equal(t, 1024, a.Extent())
}

func TestAllocateFirstFit(t *testing.T) {
	a, err := New(1024)
	require.NoError(t, err)

	first, err := a.Allocate(nil, 64)
	require.NoError(t, err)
	require.Len(t, first.Bytes(), 64)

	second, err := a.Allocate(nil, 32)
	require.NoError(t, err)
	require.Len(t, second.Bytes(), 32)

	// Free the first allocation, then request something smaller than it:
	// first-fit should reuse the lowest-address free slot rather than the
	// larger tail.
	a.Free(first, 0)
	third, err := a.Allocate(nil, 16)
	require.NoError(t, err)
	// The freed slot (64 bytes) is well under Spillover once a 16-byte
	// request is carved out of it, so the whole slot is consumed rather
	// than split; first-fit still means the allocation landed in the
	// freed low-address slot, not a fresh tail slot.
	require.GreaterOrEqual(t, len(third.Bytes()), 16)
}

func TestAllocateExhaustion(t *testing.T) {
	a, err := New(128)
	require.NoError(t, err)

	_, err = a.Allocate(nil, 1024)
	require.ErrorIs(t, err, gracht.ErrOutOfMemory)
}

func TestFreeMergesForward(t *testing.T) {
	a, err := New(512)
	require.NoError(t, err)

	first, err := a.Allocate(nil, 64)
	require.NoError(t, err)
	second, err := a.Allocate(nil, 64)
	require.NoError(t, err)
	_ = second

	freeBeforeMerge := a.BytesFree()
	// Free in reverse-offset order so each free forward-merges into its
	// predecessor, collapsing back to a single free slot: forward merge
	// only folds a freed slot's immediate successor, so freeing the
	// earlier slot first would leave two separate free headers behind.
	a.Free(second, 0)
	a.Free(first, 0)

	// Once both neighbouring allocations are freed they should merge
	// forward into a single slot spanning everything after the header,
	// so total free bytes equal extent minus one remaining header.
	require.Equal(t, a.Extent()-HeaderSize, a.BytesFree())
	require.Greater(t, a.BytesFree(), freeBeforeMerge)
}

func TestAllocateGrowInPlace(t *testing.T) {
	a, err := New(1024)
	require.NoError(t, err)

	alloc, err := a.Allocate(nil, 32)
	require.NoError(t, err)
	copy(alloc.Bytes(), []byte("hello world, this is a test!!!!!"))

	grown, err := a.Allocate(alloc, 96)
	require.NoError(t, err)
	require.Equal(t, 96, grown.Len())
	require.Equal(t, []byte("hello world, this is a test!!!!!"), grown.Bytes()[:32])
}

func TestAllocateGrowRelocates(t *testing.T) {
	a, err := New(256)
	require.NoError(t, err)

	first, err := a.Allocate(nil, 32)
	require.NoError(t, err)
	copy(first.Bytes(), []byte("relocate me please!!!!!!!!!!!!!!"[:32]))

	// Allocate a neighbour immediately after first so growth cannot
	// extend in place and must relocate by copy.
	_, err = a.Allocate(nil, 32)
	require.NoError(t, err)

	grown, err := a.Allocate(first, 64)
	require.NoError(t, err)
	require.GreaterOrEqual(t, grown.Len(), 64)
	require.Equal(t, []byte("relocate me please!!!!!!!!!!!!!!"[:32]), grown.Bytes()[:32])
}

func TestFreePartialShrink(t *testing.T) {
	a, err := New(512)
	require.NoError(t, err)

	alloc, err := a.Allocate(nil, 64)
	require.NoError(t, err)

	a.Free(alloc, 32)
	require.Equal(t, 32, alloc.Len())
}

func TestFreePartialTooSmallIsSilentlyIgnored(t *testing.T) {
	a, err := New(512)
	require.NoError(t, err)

	alloc, err := a.Allocate(nil, 64)
	require.NoError(t, err)

	a.Free(alloc, HeaderSize-1)
	require.Equal(t, 64, alloc.Len())
}

func TestTilingInvariant(t *testing.T) {
	a, err := New(2048)
	require.NoError(t, err)

	var live []*Allocation
	for i := 0; i < 8; i++ {
		alloc, err := a.Allocate(nil, 32+i*8)
		require.NoError(t, err)
		live = append(live, alloc)
	}
	for i, alloc := range live {
		if i%2 == 0 {
			a.Free(alloc, 0)
		}
	}

	// Walk the arena from base and confirm every header tiles exactly,
	// with no overlap and no gap, summing to the extent.
	walked := 0
	offset := 0
	for walked < a.Extent() {
		h := getHeader(a.buf, offset)
		require.LessOrEqual(t, h.length, MaxLength)
		walked += HeaderSize + h.length
		offset = next(offset, h)
	}
	require.Equal(t, a.Extent(), walked)
}
