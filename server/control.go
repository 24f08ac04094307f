package server

import (
	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/link"
	"github.com/Meulengracht/gracht/protocol"
)

// registerControlProtocol wires the built-in subscribe/unsubscribe
// actions (spec §4.6) into registry. The error event (action id 2) has
// no inbound handler: servers only ever send it, never receive it.
func registerControlProtocol(reg *protocol.Registry, s *Server) {
	d := protocol.NewDescriptor(protocol.ControlProtocolID, "control")
	d.On(protocol.ActionSubscribe, s.handleSubscribe)
	d.On(protocol.ActionUnsubscribe, s.handleUnsubscribe)
	reg.Register(d)
}

// handleSubscribe sets the bit for the requested protocol id (or every
// bit, for the AllProtocols sentinel) on the sender's client record,
// synthesizing one first via the owning link's CreateClient if this is
// the sender's first contact (the datagram-link case, spec §4.6).
func (s *Server) handleSubscribe(inv *protocol.Invocation) error {
	protoID, err := protocol.DecodeSubscribe(inv.Payload)
	if err != nil {
		return err
	}
	r, ok := inv.Responder.(*responder)
	if !ok {
		return gracht.NewError(gracht.KindInvalidArgument, "subscribe requires a live responder", nil)
	}

	rec, err := s.ensureClient(r.linkIndex, r.client)
	if err != nil {
		return err
	}

	s.mu.Lock()
	rec.subscriptions.Set(protoID)
	s.mu.Unlock()
	return nil
}

// handleUnsubscribe clears the bit for protocolID (or every bit for
// AllProtocols). Clearing happens before any client-record destruction
// so the bitmap stays consistent with the on-disconnect callback (spec
// §9's open question: the original clears after destroying, which this
// implementation deliberately does not reproduce).
func (s *Server) handleUnsubscribe(inv *protocol.Invocation) error {
	protoID, err := protocol.DecodeSubscribe(inv.Payload)
	if err != nil {
		return err
	}
	r, ok := inv.Responder.(*responder)
	if !ok {
		return gracht.NewError(gracht.KindInvalidArgument, "unsubscribe requires a live responder", nil)
	}

	s.mu.Lock()
	rec, exists := s.clients.Get(uint64(r.client))
	if !exists {
		s.mu.Unlock()
		return nil
	}
	rec.subscriptions.Clear(protoID)
	s.mu.Unlock()

	if protoID == protocol.AllProtocols {
		s.disconnect(r.linkIndex, r.client)
	}
	return nil
}

// ensureClient returns the client record for (linkIndex, client),
// synthesizing one via the link's CreateClient and firing on_connect if
// this is the sender's first contact — the path a datagram link takes,
// since it has no separate Accept step before messages arrive.
func (s *Server) ensureClient(linkIndex int, client link.Handle) (*clientRecord, error) {
	s.mu.Lock()
	rec, exists := s.clients.Get(uint64(client))
	lnk := s.links[linkIndex]
	s.mu.Unlock()
	if exists {
		return rec, nil
	}

	if err := lnk.CreateClient(client); err != nil {
		return nil, err
	}
	s.registerClient(client, linkIndex)
	if s.cfg.OnConnect != nil {
		s.cfg.OnConnect(uint64(client))
	}

	s.mu.Lock()
	rec, _ = s.clients.Get(uint64(client))
	s.mu.Unlock()
	return rec, nil
}
