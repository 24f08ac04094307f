package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRemove(t *testing.T) {
	tbl := New[string]()

	_, ok := tbl.Get(1)
	require.False(t, ok)

	tbl.Set(1, "one")
	tbl.Set(2, "two")
	tbl.Set(3, "three")

	v, ok := tbl.Get(2)
	require.True(t, ok)
	require.Equal(t, "two", v)

	require.True(t, tbl.Remove(2))
	_, ok = tbl.Get(2)
	require.False(t, ok)

	v, ok = tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", v)
}

func TestOverwrite(t *testing.T) {
	tbl := New[int]()
	tbl.Set(10, 1)
	tbl.Set(10, 2)
	require.Equal(t, 1, tbl.Len())

	v, ok := tbl.Get(10)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestGrowthAndShrinkPreserveContents(t *testing.T) {
	tbl := New[int]()
	const n = 500
	for i := 0; i < n; i++ {
		tbl.Set(uint64(i), i*i)
	}
	require.Equal(t, n, tbl.Len())
	for i := 0; i < n; i++ {
		v, ok := tbl.Get(uint64(i))
		require.True(t, ok, "key %d", i)
		require.Equal(t, i*i, v)
	}

	for i := 0; i < n-5; i++ {
		require.True(t, tbl.Remove(uint64(i)))
	}
	require.Equal(t, 5, tbl.Len())
	for i := n - 5; i < n; i++ {
		v, ok := tbl.Get(uint64(i))
		require.True(t, ok, "key %d", i)
		require.Equal(t, i*i, v)
	}
}

func TestRemoveMissingKey(t *testing.T) {
	tbl := New[int]()
	tbl.Set(1, 1)
	require.False(t, tbl.Remove(999))
	require.Equal(t, 1, tbl.Len())
}

func TestRangeVisitsEveryEntry(t *testing.T) {
	tbl := New[int]()
	want := map[uint64]int{}
	for i := uint64(0); i < 40; i++ {
		tbl.Set(i, int(i)*2)
		want[i] = int(i) * 2
	}

	got := map[uint64]int{}
	tbl.Range(func(key uint64, value int) bool {
		got[key] = value
		return true
	})
	require.Equal(t, want, got)
}

func TestCollisionChainsResolveCorrectly(t *testing.T) {
	tbl := New[string]()
	// Load the table densely: the first 11 keys fill the minimum
	// 16-slot table to just under its 75% growth point, and the 12th
	// doubles it to 32 slots, so Robin-Hood displacement, rehashing and
	// backward-shift removal all have to keep every key reachable.
	for i := 0; i < 12; i++ {
		tbl.Set(uint64(i), fmt.Sprintf("v%d", i))
	}
	for i := 0; i < 12; i++ {
		v, ok := tbl.Get(uint64(i))
		require.True(t, ok, "key %d", i)
		require.Equal(t, fmt.Sprintf("v%d", i), v)
	}
	require.True(t, tbl.Remove(5))
	for i := 0; i < 12; i++ {
		if i == 5 {
			continue
		}
		v, ok := tbl.Get(uint64(i))
		require.True(t, ok, "key %d after removal", i)
		require.Equal(t, fmt.Sprintf("v%d", i), v)
	}
}
