package inproc

import (
	"context"
	"sync"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/link"
)

// Server is a link.ServerLink backed by a Hub.
type Server struct {
	hub *Hub

	mu      sync.Mutex
	next    link.Handle
	conns   map[link.Handle]*conn
	byOrder []link.Handle
}

// NewServer returns a ServerLink that accepts connections Dial'd against
// hub.
func NewServer(hub *Hub) *Server {
	return &Server{hub: hub, conns: make(map[link.Handle]*conn)}
}

func (s *Server) Setup(ctx context.Context) error { return nil }

func (s *Server) Accept(ctx context.Context) (link.Handle, error) {
	select {
	case c, ok := <-s.hub.pending:
		if !ok {
			return 0, gracht.NewError(gracht.KindNotFound, "inproc hub closed", nil)
		}
		s.mu.Lock()
		s.next++
		handle := s.next
		s.conns[handle] = c
		s.byOrder = append(s.byOrder, handle)
		s.mu.Unlock()
		return handle, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *Server) connFor(handle link.Handle) (*conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[handle]
	if !ok {
		return nil, gracht.NewError(gracht.KindNotFound, "unknown client handle", nil)
	}
	return c, nil
}

func (s *Server) RecvPacket(ctx context.Context) (link.Handle, []byte, error) {
	// Fan-in over every known connection. The conns map only grows via
	// Accept, which runs on the same goroutine driving this loop in
	// practice (the server's accept loop), so a snapshot copy here is
	// sufficient without holding the lock across the select.
	s.mu.Lock()
	handles := make([]link.Handle, len(s.byOrder))
	copy(handles, s.byOrder)
	conns := make([]*conn, len(handles))
	for i, h := range handles {
		conns[i] = s.conns[h]
	}
	s.mu.Unlock()

	cases := make([]selectCase, 0, len(conns)+1)
	for i, c := range conns {
		cases = append(cases, selectCase{handle: handles[i], ch: c.toServer})
	}
	return pollOnce(ctx, cases)
}

func (s *Server) RecvClient(ctx context.Context, client link.Handle) ([]byte, error) {
	c, err := s.connFor(client)
	if err != nil {
		return nil, err
	}
	select {
	case msg, ok := <-c.toServer:
		if !ok {
			return nil, gracht.NewError(gracht.KindNotFound, "client connection closed", nil)
		}
		return msg, nil
	case <-c.closeCh:
		return nil, gracht.NewError(gracht.KindNotFound, "client connection closed", nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) SendClient(client link.Handle, message []byte) error {
	c, err := s.connFor(client)
	if err != nil {
		return err
	}
	select {
	case c.toClient <- message:
		return nil
	case <-c.closeCh:
		return gracht.NewError(gracht.KindNotFound, "client connection closed", nil)
	}
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
	s.conns = make(map[link.Handle]*conn)
	s.byOrder = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
	return nil
}

// selectCase pairs a connection's server-bound channel with its handle
// so a dynamic-width fan-in poll can report which client a message came
// from.
type selectCase struct {
	handle link.Handle
	ch     chan []byte
}
