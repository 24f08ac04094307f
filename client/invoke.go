package client

import (
	"context"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/metrics"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/wire"
)

// Invoke finalizes w as an outbound message on (serviceID, actionID) of
// the given class, mints its message id, and sends it. For a
// wire.ClassSync message it creates an in-flight descriptor and returns
// a Context the caller later passes to Await/Status/StatusFinalize. For
// any other class, Invoke returns a nil Context: fire-and-forget
// async/event traffic has nothing to await.
func (c *Client) Invoke(ctx context.Context, w *wire.Writer, serviceID, actionID uint8, class wire.Class) (*Context, error) {
	if w == nil {
		return nil, gracht.ErrInvalidArgument
	}
	if class == wire.ClassSync && ctx == nil {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "synchronous invoke requires a context", nil)
	}

	c.dataLock.Lock()
	c.nextMsg++
	messageID := c.nextMsg
	c.dataLock.Unlock()

	w.Finalize(messageID, serviceID, actionID, class)

	var call *Context
	if class == wire.ClassSync {
		d := &descriptor{id: messageID, status: gracht.StatusCreated}
		c.dataLock.Lock()
		c.inFlight.Set(uint64(messageID), d)
		c.dataLock.Unlock()
		call = &Context{MessageID: messageID}
	}

	if err := c.link.Send(w.Bytes()); err != nil {
		if class == wire.ClassSync {
			c.dataLock.Lock()
			if d, ok := c.inFlight.Get(uint64(messageID)); ok {
				d.status = gracht.StatusError
			}
			c.dataLock.Unlock()
		}
		ops.Error(c.log, c.fieldsFor(messageID), "link send failed")
		return call, err
	}

	if class == wire.ClassSync {
		c.dataLock.Lock()
		if d, ok := c.inFlight.Get(uint64(messageID)); ok {
			d.status = gracht.StatusInProgress
		}
		c.dataLock.Unlock()
		metrics.ClientInFlight.WithLabelValues(c.name).Inc()
	}

	return call, nil
}
