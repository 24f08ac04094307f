// Package protocol implements gracht's protocol/action descriptor
// registry and the built-in control protocol (subscribe, unsubscribe,
// error event). It is grounded on the teacher's go/protocols package
// layout, where a protocol is a named, numbered collection of typed
// actions registered into a lookup table consulted by the dispatcher.
package protocol

import (
	"context"

	"github.com/Meulengracht/gracht/wire"
)

// AllProtocols is the sentinel protocol id meaning "every protocol" when
// used as the argument to subscribe/unsubscribe.
const AllProtocols uint8 = 0xFF

// Responder is the handler-facing half of a connection: whatever is
// dispatching a message exposes just enough to reply, emit events, or
// defer the reply to another goroutine. The server package supplies the
// concrete implementation; protocol stays free of any server/client
// runtime dependency so it can be imported by both.
type Responder interface {
	// Respond writes a synchronous/asynchronous reply for the message
	// currently being handled. w must not have had Finalize called yet;
	// Respond finalizes it as a Response-class message reusing the
	// original message id.
	Respond(w *wire.Writer) error

	// Defer detaches the current message so it may be answered later,
	// from any goroutine, via the returned Responder's Respond.
	Defer() (Responder, error)
}

// Invocation is everything a Function needs to handle one dispatched
// message: the decoded header, a payload cursor positioned just past
// it, and a Responder scoped to the originating connection.
type Invocation struct {
	Context   context.Context
	Header    wire.Header
	Payload   *wire.Reader
	Responder Responder
}

// Function handles one action within a protocol.
type Function func(inv *Invocation) error

// Descriptor is a numbered, named protocol: a fixed set of actions
// registered under this protocol id.
type Descriptor struct {
	ID        uint8
	Name      string
	Functions map[uint8]Function
}

// NewDescriptor returns an empty Descriptor ready for On registrations.
func NewDescriptor(id uint8, name string) *Descriptor {
	return &Descriptor{ID: id, Name: name, Functions: make(map[uint8]Function)}
}

// On registers fn as the handler for actionID, overwriting any existing
// registration.
func (d *Descriptor) On(actionID uint8, fn Function) *Descriptor {
	d.Functions[actionID] = fn
	return d
}

// Registry maps protocol ids to their Descriptor, as held by both a
// client (to dispatch inbound events) and a server (to dispatch inbound
// calls).
type Registry struct {
	protocols map[uint8]*Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{protocols: make(map[uint8]*Descriptor)}
}

// Register adds d to the registry, keyed by d.ID.
func (r *Registry) Register(d *Descriptor) {
	r.protocols[d.ID] = d
}

// Lookup resolves a (protocol, action) pair to its handler.
func (r *Registry) Lookup(protocolID, actionID uint8) (Function, bool) {
	d, ok := r.protocols[protocolID]
	if !ok {
		return nil, false
	}
	fn, ok := d.Functions[actionID]
	return fn, ok
}

// Descriptor returns the registered descriptor for id, if any.
func (r *Registry) Descriptor(id uint8) (*Descriptor, bool) {
	d, ok := r.protocols[id]
	return d, ok
}
