// Package server implements gracht's server runtime (spec §4.4-§4.6): the
// link table, per-client subscription bitmaps, the worker pool dispatch
// path, and the built-in control protocol. Grounded in idiom on the
// teacher's flow/ops logging facade and its channel-first concurrency
// style.
package server

import (
	"context"
	"sync"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/arena"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Meulengracht/gracht/hashtable"
	"github.com/Meulengracht/gracht/link"
	"github.com/Meulengracht/gracht/metrics"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
)

// Server is the server-side runtime: a link table, the protocol
// registry, the client table, and optionally a worker pool.
type Server struct {
	cfg      Config
	registry *protocol.Registry
	log      ops.Logger
	name     string

	mu      sync.Mutex // guards links and clients (spec's sync_object)
	links   []link.ServerLink
	clients *hashtable.Table[*clientRecord]
	nextH   uint64

	arena *arena.Arena

	workers []*worker
	nextW   int

	recentErrors *lru.Cache[uint32, int32]
}

// New returns a Server dispatching on registry. Registry must already
// have application protocols registered; the control protocol (id 0) is
// wired in automatically.
func New(registry *protocol.Registry, cfg Config, log ops.Logger) (*Server, error) {
	cfg = cfg.withDefaults()
	a, err := arena.New(cfg.ArenaSize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = ops.NewLogger()
	}
	cache, err := lru.New[uint32, int32](cfg.RecentErrorCacheSize)
	if err != nil {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "failed to allocate recent-error cache", err)
	}

	s := &Server{
		cfg:          cfg,
		registry:     registry,
		log:          log,
		clients:      hashtable.New[*clientRecord](),
		arena:        a,
		recentErrors: cache,
	}
	registerControlProtocol(registry, s)

	if cfg.Workers > 1 {
		s.workers = make([]*worker, cfg.Workers)
		for i := range s.workers {
			s.workers[i] = newWorker(i, s, cfg.WorkerQueueDepth)
			go s.workers[i].run()
		}
	}
	return s, nil
}

// AddLink registers lnk, calling its Setup, and returns the link's index
// in the link table. At most MaxLinks links may be registered.
func (s *Server) AddLink(ctx context.Context, lnk link.ServerLink) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.links) >= MaxLinks {
		return 0, gracht.NewError(gracht.KindTooBig, "server already has the maximum number of links", nil)
	}
	if err := lnk.Setup(ctx); err != nil {
		return 0, err
	}
	s.links = append(s.links, lnk)
	return len(s.links) - 1, nil
}

// Serve runs the accept loop for linkIndex, registering each accepted
// client and then running its receive loop, until ctx is cancelled.
// Callers typically run Serve once per registered link in its own
// goroutine.
func (s *Server) Serve(ctx context.Context, linkIndex int) error {
	s.mu.Lock()
	lnk := s.links[linkIndex]
	s.mu.Unlock()

	for {
		handle, err := lnk.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := lnk.CreateClient(handle); err != nil {
			continue
		}
		s.registerClient(handle, linkIndex)
		if s.cfg.OnConnect != nil {
			s.cfg.OnConnect(uint64(handle))
		}
		go s.serveClient(ctx, linkIndex, handle)
	}
}

func (s *Server) serveClient(ctx context.Context, linkIndex int, handle link.Handle) {
	s.mu.Lock()
	lnk := s.links[linkIndex]
	s.mu.Unlock()

	for {
		raw, err := lnk.RecvClient(ctx, handle)
		if err != nil {
			s.disconnect(linkIndex, handle)
			return
		}
		s.onMessage(linkIndex, handle, raw)
	}
}

func (s *Server) registerClient(handle link.Handle, linkIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients.Set(uint64(handle), &clientRecord{handle: handle, linkIndex: linkIndex})
	metrics.ServerClients.WithLabelValues(s.name).Set(float64(s.clients.Len()))
}

func (s *Server) disconnect(linkIndex int, handle link.Handle) {
	s.mu.Lock()
	if !s.clients.Remove(uint64(handle)) {
		// Already disconnected (e.g. by unsubscribe(AllProtocols) before
		// the receive loop noticed the closed connection).
		s.mu.Unlock()
		return
	}
	lnk := s.links[linkIndex]
	metrics.ServerClients.WithLabelValues(s.name).Set(float64(s.clients.Len()))
	s.mu.Unlock()

	_ = lnk.DestroyClient(handle)
	if s.cfg.OnDisconnect != nil {
		s.cfg.OnDisconnect(uint64(handle))
	}
}

// onMessage is the receive path shared by stream and datagram links: it
// allocates an arena buffer sized to the message, decodes the header,
// and either dispatches directly (single-threaded mode) or enqueues to
// a worker round-robin.
func (s *Server) onMessage(linkIndex int, handle link.Handle, raw []byte) {
	if len(raw) > s.cfg.MaxMessageSize {
		s.sendControlError(linkIndex, handle, 0, gracht.KindTooBig)
		return
	}
	header, err := wire.DecodeHeader(raw)
	if err != nil {
		ops.Warn(s.log, nil, "dropping malformed message")
		return
	}

	alloc, err := s.arena.Allocate(nil, len(raw))
	if err != nil {
		ops.Error(s.log, nil, "server arena exhausted")
		return
	}
	copy(alloc.Bytes(), raw)
	metrics.ArenaBytesFree.WithLabelValues(s.name).Set(float64(s.arena.BytesFree()))

	j := &job{client: handle, linkIndex: linkIndex, header: header, alloc: alloc}

	if len(s.workers) == 0 {
		s.invokeAction(j)
		s.cleanupMessage(j)
		return
	}

	w := s.workers[s.nextW%len(s.workers)]
	s.nextW++
	if !w.enqueue(j) {
		ops.Warn(s.log, nil, "worker queue full, dropping message")
		s.cleanupMessage(j)
	}
}

// invokeAction looks up and calls the handler for j's (service, action).
// A missing handler emits a control error event to the originator but
// never closes the connection (spec §4.3/§7).
func (s *Server) invokeAction(j *job) {
	fn, ok := s.registry.Lookup(j.header.ServiceID, j.header.ActionID)
	if !ok {
		s.recordControlError(j.header.MessageID, int32(gracht.KindNotFound))
		s.sendErrorEvent(j.client, j.header.MessageID, int32(gracht.KindNotFound))
		return
	}
	inv := &protocol.Invocation{
		Header:    j.header,
		Payload:   wire.NewPayloadReader(j.alloc.Bytes()),
		Responder: &responder{server: s, client: j.client, linkIndex: j.linkIndex, header: j.header},
	}
	if err := fn(inv); err != nil {
		ops.Error(s.log, nil, "protocol handler returned an error")
	}
}

// cleanupMessage returns j's receive buffer to the arena.
func (s *Server) cleanupMessage(j *job) {
	s.arena.Free(j.alloc, 0)
	metrics.ArenaBytesFree.WithLabelValues(s.name).Set(float64(s.arena.BytesFree()))
}

// Shutdown signals every worker to drain and exit, in worker-index
// order, matching spec §4.5.
func (s *Server) Shutdown() {
	for _, w := range s.workers {
		w.shutdown()
	}
	s.arena.Destroy()
}
