package client

import (
	"sync"

	"github.com/Meulengracht/gracht/metrics"
)

// AwaitFlags selects the completion predicate for Await.
type AwaitFlags uint8

const (
	// AwaitAny returns as soon as at least one descriptor is terminal.
	AwaitAny AwaitFlags = 0
	// AwaitAll returns only once every descriptor is terminal.
	AwaitAll AwaitFlags = 1 << 0
	// AwaitAsync blocks on the awaiter's own signal instead of
	// self-pumping, relying on another goroutine to drive WaitMessage.
	AwaitAsync AwaitFlags = 1 << 1
)

func (f AwaitFlags) has(bit AwaitFlags) bool { return f&bit != 0 }

// awaiter is the bookkeeping record for one Await call, matching spec
// §3's "mapping keyed by awaiter_id": { id, flags, expected_count,
// current_count, event }. The condition variable is realized as a
// channel closed exactly once on completion, the same "signal by
// closing a channel" idiom used throughout the teacher's consumer/
// shuffle packages in place of sync.Cond.
type awaiter struct {
	id       uint64
	flags    AwaitFlags
	expected int

	mu      sync.Mutex
	current int
	done    chan struct{}
	closed  bool
}

func newAwaiter(id uint64, flags AwaitFlags, expected int) *awaiter {
	return &awaiter{id: id, flags: flags, expected: expected, done: make(chan struct{})}
}

// mark increments current and signals done if the completion predicate
// now holds: all descriptors terminal when AwaitAll is set, or any
// descriptor terminal otherwise.
func (a *awaiter) mark() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current++
	if a.closed {
		return
	}
	if (a.flags.has(AwaitAll) && a.current >= a.expected) || (!a.flags.has(AwaitAll) && a.current > 0) {
		a.closed = true
		close(a.done)
		mode := "any"
		if a.flags.has(AwaitAll) {
			mode = "all"
		}
		metrics.AwaiterWakeups.WithLabelValues(mode).Inc()
	}
}

func (a *awaiter) satisfied() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flags.has(AwaitAll) {
		return a.current >= a.expected
	}
	return a.current > 0
}

// abort wakes any goroutine blocked on done without requiring the
// completion predicate to hold, used by client shutdown to unblock
// Async waiters with ErrShutdown.
func (a *awaiter) abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.done)
}
