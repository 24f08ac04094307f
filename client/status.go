package client

import (
	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/metrics"
)

// Status returns ctx's current status. When the status is Completed, a
// copy of the received message (header followed by payload — pass it to
// wire.NewPayloadReader to read the body) is also returned; the copy
// belongs to the caller, while the descriptor keeps its own arena buffer
// until StatusFinalize is called. When the status is Error, the
// descriptor is freed and removed immediately: there is nothing further
// for the caller to finalize.
func (c *Client) Status(ctx *Context) (gracht.Status, []byte, error) {
	c.dataLock.Lock()
	defer c.dataLock.Unlock()

	d, ok := c.inFlight.Get(uint64(ctx.MessageID))
	if !ok {
		return gracht.StatusError, nil, gracht.ErrNotFound
	}

	switch d.status {
	case gracht.StatusError:
		if d.alloc != nil {
			c.arena.Free(d.alloc, 0)
		}
		c.inFlight.Remove(uint64(ctx.MessageID))
		metrics.ClientInFlight.WithLabelValues(c.name).Dec()
		return gracht.StatusError, nil, nil
	case gracht.StatusCompleted:
		buf := append([]byte(nil), d.alloc.Bytes()...)
		return gracht.StatusCompleted, buf, nil
	default:
		return d.status, nil, nil
	}
}

// StatusFinalize releases a Completed descriptor's buffer and removes
// it from the in-flight table. It must be called exactly once per
// Completed descriptor (spec §4.3).
func (c *Client) StatusFinalize(ctx *Context) error {
	c.dataLock.Lock()
	defer c.dataLock.Unlock()

	d, ok := c.inFlight.Get(uint64(ctx.MessageID))
	if !ok {
		return gracht.ErrNotFound
	}
	if d.alloc != nil {
		c.arena.Free(d.alloc, 0)
	}
	c.inFlight.Remove(uint64(ctx.MessageID))
	metrics.ClientInFlight.WithLabelValues(c.name).Dec()
	return nil
}
