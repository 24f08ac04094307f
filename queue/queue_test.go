package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnqueueDequeueOrder(t *testing.T) {
	q := New[int](4)
	require.True(t, q.Enqueue(1))
	require.True(t, q.Enqueue(2))
	require.True(t, q.Enqueue(3))

	v, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.True(t, q.Enqueue(4))
	require.True(t, q.Enqueue(5))
	require.False(t, q.Enqueue(6)) // full: 2,3,4,5 occupy all 4 slots

	for _, want := range []int{2, 3, 4, 5} {
		v, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok = q.Dequeue()
	require.False(t, ok)
}

func TestWrapAroundReuse(t *testing.T) {
	q := New[string](3)
	q.Enqueue("a")
	q.Enqueue("b")
	q.Dequeue()
	q.Enqueue("c")
	q.Enqueue("d")
	require.Equal(t, 3, q.Len())

	var got []string
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []string{"b", "c", "d"}, got)
}

func TestLenAndCap(t *testing.T) {
	q := New[int](8)
	require.Equal(t, 8, q.Cap())
	require.Equal(t, 0, q.Len())
	q.Enqueue(1)
	require.Equal(t, 1, q.Len())
}
