// Package tcp implements link.ServerLink and link.ClientLink over plain
// net.Conn streams, using the header's Length field to frame messages
// the way the teacher's go/network proxy links frame their own
// connector traffic. Per-connection activity is recorded with
// golang.org/x/net/trace, the same package the teacher's ProxyServer
// uses to annotate resolved containers.
package tcp

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/link"
	"golang.org/x/net/trace"
)

type serverConn struct {
	net.Conn
	tr      trace.Trace
	toSrv   chan []byte
	closeCh chan struct{}
	closeMu sync.Mutex
	closed  bool
}

func (c *serverConn) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.closeCh)
	_ = c.Conn.Close()
	c.tr.Finish()
}

// Server is a link.ServerLink listening on a single TCP address.
type Server struct {
	addr string
	ln   net.Listener

	mu      sync.Mutex
	next    link.Handle
	conns   map[link.Handle]*serverConn
	byOrder []link.Handle
}

// NewServer returns a ServerLink that will listen on addr once Setup is
// called (e.g. "127.0.0.1:0" for an ephemeral port).
func NewServer(addr string) *Server {
	return &Server{addr: addr, conns: make(map[link.Handle]*serverConn)}
}

// Addr returns the bound listener address; valid after Setup returns.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Setup(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return gracht.NewError(gracht.KindNotSupported, "failed to bind tcp listener", err)
	}
	s.ln = ln
	return nil
}

func (s *Server) Accept(ctx context.Context) (link.Handle, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := s.ln.Accept()
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, gracht.NewError(gracht.KindNotFound, "accept failed", r.err)
		}
		tr := trace.New("gracht.server", r.conn.RemoteAddr().String())
		sc := &serverConn{Conn: r.conn, tr: tr, toSrv: make(chan []byte, 32), closeCh: make(chan struct{})}

		s.mu.Lock()
		s.next++
		handle := s.next
		s.conns[handle] = sc
		s.byOrder = append(s.byOrder, handle)
		s.mu.Unlock()

		go s.readLoop(handle, sc)
		return handle, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *Server) readLoop(handle link.Handle, sc *serverConn) {
	for {
		msg, err := readFrame(sc.Conn)
		if err != nil {
			if err != io.EOF {
				sc.tr.LazyPrintf("read error: %v", err)
			}
			sc.close()
			return
		}
		select {
		case sc.toSrv <- msg:
		case <-sc.closeCh:
			return
		}
	}
}

func (s *Server) connFor(handle link.Handle) (*serverConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[handle]
	if !ok {
		return nil, gracht.NewError(gracht.KindNotFound, "unknown client handle", nil)
	}
	return c, nil
}

func (s *Server) RecvPacket(ctx context.Context) (link.Handle, []byte, error) {
	s.mu.Lock()
	handles := make([]link.Handle, len(s.byOrder))
	copy(handles, s.byOrder)
	conns := make([]*serverConn, len(handles))
	for i, h := range handles {
		conns[i] = s.conns[h]
	}
	s.mu.Unlock()

	cases := make([]selectCase, 0, len(conns))
	for i, c := range conns {
		cases = append(cases, selectCase{handle: handles[i], ch: c.toSrv})
	}
	return pollOnce(ctx, cases)
}

func (s *Server) RecvClient(ctx context.Context, client link.Handle) ([]byte, error) {
	c, err := s.connFor(client)
	if err != nil {
		return nil, err
	}
	select {
	case msg, ok := <-c.toSrv:
		if !ok {
			return nil, gracht.NewError(gracht.KindNotFound, "connection closed", nil)
		}
		return msg, nil
	case <-c.closeCh:
		return nil, gracht.NewError(gracht.KindNotFound, "connection closed", nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) SendClient(client link.Handle, message []byte) error {
	c, err := s.connFor(client)
	if err != nil {
		return err
	}
	if err := writeFrame(c.Conn, message); err != nil {
		return gracht.NewError(gracht.KindNotFound, "write failed", err)
	}
	return nil
}

func (s *Server) Respond(client link.Handle, message []byte) error {
	return s.SendClient(client, message)
}

func (s *Server) CreateClient(client link.Handle) error {
	_, err := s.connFor(client)
	return err
}

func (s *Server) DestroyClient(client link.Handle) error {
	s.mu.Lock()
	c, ok := s.conns[client]
	if ok {
		delete(s.conns, client)
		for i, h := range s.byOrder {
			if h == client {
				s.byOrder = append(s.byOrder[:i], s.byOrder[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return gracht.NewError(gracht.KindNotFound, "unknown client handle", nil)
	}
	c.close()
	return nil
}

func (s *Server) Destroy() error {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.byOrder = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}
