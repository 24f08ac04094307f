// Package client implements gracht's client runtime (spec §4.3): message
// id minting, the in-flight call table, awaiters, and the single-pumper
// event loop, grounded in idiom on the teacher's channel-based
// concurrency (no sync.Cond anywhere in the teacher tree) and its
// logrus-backed ops.Logger.
package client

import (
	"context"
	"sync"

	"github.com/Meulengracht/gracht/arena"
	"github.com/Meulengracht/gracht/hashtable"
	"github.com/Meulengracht/gracht/link"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
	log "github.com/sirupsen/logrus"
)

// Client is one connection's worth of gracht client runtime: a link, an
// in-flight table, an awaiter table, and the arena backing received
// messages.
type Client struct {
	link     link.ClientLink
	registry *protocol.Registry
	cfg      Config
	log      ops.Logger
	name     string

	arena *arena.Arena

	// dataLock guards inFlight, awaiters, and nextMsg/nextAwt.
	dataLock sync.Mutex
	inFlight *hashtable.Table[*descriptor]
	awaiters *hashtable.Table[*awaiter]
	nextMsg  uint32
	nextAwt  uint64

	// waitLock enforces the single-pumper invariant. Lock order when both
	// are needed: waitLock before dataLock.
	waitLock sync.Mutex

	shutdownMu sync.Mutex
	shutdown   bool
}

// New returns a Client that will pump messages through lnk and dispatch
// inbound events through registry. Connect must be called before any
// Invoke.
func New(lnk link.ClientLink, registry *protocol.Registry, cfg Config, log ops.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	a, err := arena.New(cfg.ArenaSize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = ops.NewLogger()
	}
	return &Client{
		link:     lnk,
		registry: registry,
		cfg:      cfg,
		log:      log,
		arena:    a,
		inFlight: hashtable.New[*descriptor](),
		awaiters: hashtable.New[*awaiter](),
	}, nil
}

// Connect establishes the underlying link connection.
func (c *Client) Connect(ctx context.Context) error {
	return c.link.Connect(ctx)
}

// Shutdown wakes every pending awaiter and tears down the link. An
// AwaitAsync caller then returns gracht.ErrShutdown; a self-pumping
// Await returns the error its next receive on the closed link reports.
// In-flight descriptors become leaked buffers
// reclaimed when the arena itself is discarded, matching spec §5's
// "client shutdown tears down the link; in-flight descriptors become
// leaked buffers reclaimed by arena destroy."
func (c *Client) Shutdown() error {
	c.shutdownMu.Lock()
	if c.shutdown {
		c.shutdownMu.Unlock()
		return nil
	}
	c.shutdown = true
	c.shutdownMu.Unlock()

	c.dataLock.Lock()
	c.awaiters.Range(func(_ uint64, a *awaiter) bool {
		a.abort()
		return true
	})
	c.dataLock.Unlock()

	ops.Info(c.log, nil, "client shutting down")
	if err := c.link.Destroy(); err != nil {
		return err
	}
	c.arena.Destroy()
	return nil
}

func (c *Client) isShutdown() bool {
	c.shutdownMu.Lock()
	defer c.shutdownMu.Unlock()
	return c.shutdown
}

// newWriter allocates a Writer sized for a typical outbound message.
func (c *Client) newWriter() *wire.Writer {
	return wire.NewWriter(64)
}

// NewWriter is the public entry a generated stub uses to begin packing
// an outbound message before calling Invoke.
func (c *Client) NewWriter() *wire.Writer { return c.newWriter() }

func (c *Client) fieldsFor(messageID uint32) log.Fields {
	return log.Fields{"client": c.name, "message_id": messageID}
}
