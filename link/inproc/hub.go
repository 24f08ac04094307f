// Package inproc implements link.ServerLink and link.ClientLink over
// in-memory channels, for deterministic tests and for wiring multiple
// gracht components together inside a single process without a real
// socket. It mirrors the teacher's fake network links used to drive
// consumer/shuffle tests without binding real ports.
package inproc

import (
	"context"
	"sync"

	"github.com/Meulengracht/gracht"
)

// Hub is a named in-process rendezvous point. A Server listens on a Hub;
// any number of Clients may Connect to it. Multiple independent Hubs may
// coexist in the same process (e.g. one per test case).
type Hub struct {
	mu      sync.Mutex
	pending chan *conn
	closed  bool
}

// NewHub returns a fresh, unbound rendezvous point with the given
// accept-queue depth.
func NewHub(backlog int) *Hub {
	return &Hub{pending: make(chan *conn, backlog)}
}

// conn is one logical duplex connection: messages a client sends land on
// toServer, messages the server sends land on toClient.
type conn struct {
	toServer chan []byte
	toClient chan []byte
	closeCh  chan struct{}
	closeMu  sync.Mutex
	closed   bool
}

func newConn(depth int) *conn {
	return &conn{
		toServer: make(chan []byte, depth),
		toClient: make(chan []byte, depth),
		closeCh:  make(chan struct{}),
	}
}

func (c *conn) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.closeCh)
}

func (h *Hub) dial(depth int) (*conn, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, gracht.NewError(gracht.KindNotFound, "inproc hub is closed", nil)
	}
	h.mu.Unlock()

	c := newConn(depth)
	select {
	case h.pending <- c:
		return c, nil
	default:
		return nil, gracht.NewError(gracht.KindBusy, "inproc hub accept backlog is full", nil)
	}
}

func (h *Hub) closeHub() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.pending)
}
