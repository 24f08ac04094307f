// Package link defines the transport abstraction a gracht client or
// server runs on top of. Concrete transports (in-process pipes, TCP
// streams, and so on) implement these interfaces; the client and server
// runtimes never depend on a concrete transport directly, the same way
// the teacher's go/network package keeps proxy transports behind a
// narrow interface consumed by the shuffle/consumer runtimes.
package link

import (
	"context"

	"github.com/Meulengracht/gracht/wire"
)

// Handle identifies a connected client from a server's point of view.
// Concrete links mint their own handles (a file descriptor, a map key,
// a channel pointer address) and treat them as opaque outside the link.
type Handle uint64

// ServerLink is the server-side half of a transport. A server owns at
// most one ServerLink per listening endpoint (the runtime's link table
// caps the number of endpoints a server multiplexes, not the number of
// links package implementations).
type ServerLink interface {
	// Setup performs any one-time preparation (binding a socket,
	// allocating shared memory) before Accept may be called.
	Setup(ctx context.Context) error

	// Accept blocks until a new client connects and returns a handle
	// for it. Implementations must be safe to call from a single
	// dedicated accept goroutine.
	Accept(ctx context.Context) (Handle, error)

	// RecvPacket blocks until a full wire message has arrived from any
	// connected client, or ctx is cancelled. It returns the originating
	// handle and the raw bytes (header followed by payload).
	RecvPacket(ctx context.Context) (Handle, []byte, error)

	// RecvClient blocks until a message has arrived specifically from
	// client. The server's per-client receive loop reads every message
	// of an accepted connection through it.
	RecvClient(ctx context.Context, client Handle) ([]byte, error)

	// SendClient pushes a raw wire message to a specific client.
	SendClient(client Handle, message []byte) error

	// Respond is an alias of SendClient used by the dispatcher when
	// replying to a request, kept distinct so link implementations can
	// special-case same-connection replies (e.g. skip re-framing).
	Respond(client Handle, message []byte) error

	// CreateClient registers bookkeeping for a new handle. The server
	// calls it once per handle: right after Accept returns, or, for a
	// sender that was never accepted, on its first subscribe.
	CreateClient(client Handle) error

	// DestroyClient releases bookkeeping and closes the underlying
	// connection for client.
	DestroyClient(client Handle) error

	// Destroy tears down the listening endpoint itself.
	Destroy() error
}

// ClientLink is the client-side half of a transport.
type ClientLink interface {
	// Connect establishes the underlying connection.
	Connect(ctx context.Context) error

	// Send writes a full wire message (header already finalized via
	// wire.Writer.Finalize).
	Send(message []byte) error

	// Recv blocks until a full wire message has arrived, or ctx is
	// cancelled.
	Recv(ctx context.Context) ([]byte, error)

	// Destroy closes the connection.
	Destroy() error
}

// ReadHeader is a small helper concrete links use to peek the fixed
// 11-byte header off a freshly-read buffer without depending on the
// wire package's decode error semantics at every call site.
func ReadHeader(buf []byte) (wire.Header, error) {
	return wire.DecodeHeader(buf)
}
