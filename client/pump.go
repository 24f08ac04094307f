package client

import (
	"context"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/arena"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
)

// RecvFlags controls WaitMessage's blocking and looping behavior.
type RecvFlags uint8

const (
	// Block waits for the pump lock instead of failing with ErrBusy when
	// another goroutine already holds it.
	Block RecvFlags = 1 << 0
	// WaitAll keeps pumping internally until the message named by the
	// supplied Context has actually arrived, instead of returning after
	// handling a single message.
	WaitAll RecvFlags = 1 << 1
)

func (f RecvFlags) has(bit RecvFlags) bool { return f&bit != 0 }

// WaitMessage is the event-pump primitive (spec §4.3): it receives
// exactly one message from the link, dispatches it (an Event to the
// protocol registry, a Response into the matching in-flight
// descriptor), and returns. With WaitAll set and a Context supplied, it
// loops internally until that Context's own message has arrived.
func (c *Client) WaitMessage(ctx context.Context, target *Context, flags RecvFlags) error {
	if target != nil {
		c.dataLock.Lock()
		d, ok := c.inFlight.Get(uint64(target.MessageID))
		terminal := ok && d.terminal()
		c.dataLock.Unlock()
		if terminal {
			return nil
		}
	}

	for {
		handledID, err := c.pumpOnce(ctx, flags.has(Block))
		if err != nil {
			return err
		}
		if target == nil || !flags.has(WaitAll) || handledID == target.MessageID {
			return nil
		}
	}
}

// pumpOnce acquires waitLock (per flags), receives and dispatches
// exactly one message, and returns its message id.
func (c *Client) pumpOnce(ctx context.Context, block bool) (uint32, error) {
	if block {
		c.waitLock.Lock()
	} else if !c.waitLock.TryLock() {
		return 0, gracht.ErrBusy
	}
	defer c.waitLock.Unlock()

	raw, err := c.link.Recv(ctx)
	if err != nil {
		return 0, err
	}
	if len(raw) > c.cfg.MaxMessageSize {
		return 0, gracht.ErrTooBig
	}

	// The arena buffer, not the link's own raw slice, is what the
	// descriptor retains going forward (the "borrowed into workers and
	// returned via cleanup" ownership model, mirrored on the client as
	// "owned by the descriptor until status_finalize").
	alloc, err := c.arena.Allocate(nil, len(raw))
	if err != nil {
		return 0, gracht.NewError(gracht.KindOutOfMemory, "receive arena exhausted", err)
	}
	copy(alloc.Bytes(), raw)

	header, err := wire.DecodeHeader(alloc.Bytes())
	if err != nil {
		c.arena.Free(alloc, 0)
		return 0, err
	}

	switch header.Class() {
	case wire.ClassEvent:
		c.dispatchEvent(ctx, header, alloc.Bytes(), alloc)
	case wire.ClassResponse:
		c.dispatchResponse(header, alloc)
	default:
		ops.Warn(c.log, c.fieldsFor(header.MessageID), "ignoring unexpected message class on client pump")
		c.arena.Free(alloc, 0)
	}
	return header.MessageID, nil
}

// dispatchEvent handles an Event-class message: either the built-in
// control error event (which flips a descriptor to Error and wakes its
// awaiter) or a registered protocol event handler. The receive buffer is
// always freed immediately afterward; events are not retained.
func (c *Client) dispatchEvent(ctx context.Context, header wire.Header, raw []byte, alloc *arena.Allocation) {
	defer c.arena.Free(alloc, 0)

	if header.ServiceID == protocol.ControlProtocolID && header.ActionID == protocol.ActionError {
		ev, err := protocol.DecodeErrorEvent(wire.NewPayloadReader(raw))
		if err != nil {
			ops.Warn(c.log, nil, "malformed control error event")
			return
		}
		c.dataLock.Lock()
		d, ok := c.inFlight.Get(uint64(ev.MessageID))
		if ok {
			d.status = gracht.StatusError
		}
		var awt *awaiter
		if ok && d.hasAwait {
			awt, _ = c.awaiters.Get(d.awaiterID)
		}
		c.dataLock.Unlock()
		if awt != nil {
			awt.mark()
		}
		return
	}

	fn, ok := c.registry.Lookup(header.ServiceID, header.ActionID)
	if !ok {
		ops.Warn(c.log, c.fieldsFor(header.MessageID), "no handler registered for event")
		return
	}
	inv := &protocol.Invocation{
		Context: ctx,
		Header:  header,
		Payload: wire.NewPayloadReader(raw),
	}
	if err := fn(inv); err != nil {
		ops.Error(c.log, c.fieldsFor(header.MessageID), "event handler returned an error")
	}
}

// dispatchResponse completes the in-flight descriptor matching header's
// message id and marks its awaiter, if any. Buffer ownership transfers
// to the descriptor; the caller frees it via StatusFinalize.
func (c *Client) dispatchResponse(header wire.Header, alloc *arena.Allocation) {
	c.dataLock.Lock()
	d, ok := c.inFlight.Get(uint64(header.MessageID))
	if !ok {
		c.dataLock.Unlock()
		ops.Warn(c.log, c.fieldsFor(header.MessageID), "response for unknown message id")
		c.arena.Free(alloc, 0)
		return
	}
	d.alloc = alloc
	d.status = gracht.StatusCompleted
	var awt *awaiter
	if d.hasAwait {
		awt, _ = c.awaiters.Get(d.awaiterID)
	}
	c.dataLock.Unlock()

	if awt != nil {
		awt.mark()
	}
}
