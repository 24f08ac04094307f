package client

import (
	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/arena"
)

// Context is the caller-side handle to an in-flight synchronous call,
// carrying just its message id as described in the GLOSSARY.
type Context struct {
	MessageID uint32
}

// descriptor is the client's bookkeeping record for one outstanding
// synchronous call, keyed by message id in the in-flight table.
type descriptor struct {
	id        uint32
	status    gracht.Status
	awaiterID uint64
	hasAwait  bool
	alloc     *arena.Allocation
}

func (d *descriptor) terminal() bool {
	return d.status.Terminal()
}
