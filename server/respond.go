package server

import (
	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/link"
	"github.com/Meulengracht/gracht/metrics"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
)

// responder is the concrete protocol.Responder a handler sees for one
// dispatched message. It carries only plain values (no reference into
// the message's arena-backed receive buffer, which may already have
// been freed by the time a deferred reply is sent), so Defer can hand
// back an independent copy without needing to deep-copy any bytes —
// unlike the C original, where defer_message must copy the payload
// because handlers there operate on raw pointers into the arena.
type responder struct {
	server    *Server
	client    link.Handle
	linkIndex int
	header    wire.Header
}

func (r *responder) Respond(w *wire.Writer) error {
	w.Finalize(r.header.MessageID, r.header.ServiceID, r.header.ActionID, wire.ClassResponse)
	return r.server.respond(r.linkIndex, r.client, w.Bytes())
}

func (r *responder) Defer() (protocol.Responder, error) {
	cp := *r
	return &cp, nil
}

// respond sends buf to client, preferring the link's targeted
// send_client when the client is known; falling back to the link's
// address-based respond for a datagram source that has not yet
// subscribed (and so has no client record).
func (s *Server) respond(linkIndex int, client link.Handle, buf []byte) error {
	s.mu.Lock()
	_, known := s.clients.Get(uint64(client))
	lnk := s.links[linkIndex]
	s.mu.Unlock()

	if known {
		return lnk.SendClient(client, buf)
	}
	return lnk.Respond(client, buf)
}

// SendEvent sends buf to a specific client, independent of its
// subscriptions (targeted delivery, spec §4.4).
func (s *Server) SendEvent(linkIndex int, client link.Handle, w *wire.Writer, serviceID, actionID uint8) error {
	w.Finalize(0, serviceID, actionID, wire.ClassEvent)
	return s.respond(linkIndex, client, w.Bytes())
}

// BroadcastEvent sends buf to every client whose subscription bitmap
// includes protocolID, enumerated at call time (spec's "Subscription"
// invariant).
func (s *Server) BroadcastEvent(w *wire.Writer, protocolID, actionID uint8) {
	w.Finalize(0, protocolID, actionID, wire.ClassEvent)
	buf := w.Bytes()

	s.mu.Lock()
	type target struct {
		linkIndex int
		handle    link.Handle
	}
	var targets []target
	s.clients.Range(func(_ uint64, rec *clientRecord) bool {
		if rec.subscriptions.Has(protocolID) {
			targets = append(targets, target{linkIndex: rec.linkIndex, handle: rec.handle})
		}
		return true
	})
	links := s.links
	s.mu.Unlock()

	for _, t := range targets {
		if err := links[t.linkIndex].SendClient(t.handle, buf); err != nil {
			ops.Warn(s.log, nil, "broadcast send failed for one client")
		}
	}
}

// sendErrorEvent emits the built-in control error event (action id 2)
// to client, flipping its matching in-flight descriptor to Error.
func (s *Server) sendErrorEvent(client link.Handle, messageID uint32, code int32) {
	s.mu.Lock()
	rec, ok := s.clients.Get(uint64(client))
	s.mu.Unlock()
	if !ok {
		return
	}
	w := wire.NewWriter(8)
	protocol.EncodeErrorEvent(w, messageID, code)
	_ = s.SendEvent(rec.linkIndex, client, w, protocol.ControlProtocolID, protocol.ActionError)
	metrics.ControlErrors.WithLabelValues(gracht.Kind(code).String()).Inc()
}

// sendControlError is sendErrorEvent for messages that never reach
// invokeAction (e.g. a message exceeding the size ceiling, where no
// header could be trusted enough to attribute a message id).
func (s *Server) sendControlError(linkIndex int, client link.Handle, messageID uint32, kind gracht.Kind) {
	w := wire.NewWriter(8)
	protocol.EncodeErrorEvent(w, messageID, int32(kind))
	w.Finalize(0, protocol.ControlProtocolID, protocol.ActionError, wire.ClassEvent)
	_ = s.respond(linkIndex, client, w.Bytes())
	metrics.ControlErrors.WithLabelValues(kind.String()).Inc()
}

func (s *Server) recordControlError(messageID uint32, code int32) {
	s.recentErrors.Add(messageID, code)
}
