package client

import (
	"context"

	"github.com/Meulengracht/gracht"
)

// Await waits for one (AwaitAny, the default) or all (AwaitAll) of ctxs
// to reach a terminal status. With AwaitAsync it blocks on the
// awaiter's own signal, relying on another goroutine to be driving
// WaitMessage; otherwise it self-pumps by calling WaitMessage in a loop
// until its own completion predicate holds.
func (c *Client) Await(ctx context.Context, ctxs []*Context, flags AwaitFlags) error {
	if len(ctxs) == 0 {
		return gracht.ErrInvalidArgument
	}

	c.dataLock.Lock()
	c.nextAwt++
	awaiterID := c.nextAwt
	awt := newAwaiter(awaiterID, flags, len(ctxs))

	current := 0
	for _, want := range ctxs {
		d, ok := c.inFlight.Get(uint64(want.MessageID))
		if !ok {
			continue
		}
		d.awaiterID = awaiterID
		d.hasAwait = true
		if d.terminal() {
			current++
		}
	}
	awt.current = current
	c.awaiters.Set(awaiterID, awt)
	c.dataLock.Unlock()

	// Short-circuit: the predicate may already hold from descriptors that
	// completed before Await was called.
	if awt.satisfied() {
		c.dataLock.Lock()
		c.awaiters.Remove(awaiterID)
		c.dataLock.Unlock()
		return nil
	}

	if flags.has(AwaitAsync) {
		select {
		case <-awt.done:
		case <-ctx.Done():
			c.dataLock.Lock()
			c.awaiters.Remove(awaiterID)
			c.dataLock.Unlock()
			return ctx.Err()
		}
		c.dataLock.Lock()
		c.awaiters.Remove(awaiterID)
		c.dataLock.Unlock()
		if c.isShutdown() {
			return gracht.ErrShutdown
		}
		return nil
	}

	// Self-pump: drive WaitMessage until this awaiter's predicate holds.
	for !awt.satisfied() {
		if err := c.WaitMessage(ctx, nil, Block); err != nil {
			c.dataLock.Lock()
			c.awaiters.Remove(awaiterID)
			c.dataLock.Unlock()
			return err
		}
	}
	c.dataLock.Lock()
	c.awaiters.Remove(awaiterID)
	c.dataLock.Unlock()
	return nil
}
