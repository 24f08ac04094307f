package protocol

import (
	"github.com/Meulengracht/gracht/wire"
)

// ControlProtocolID is the reserved protocol id (0) handling
// subscribe/unsubscribe and the error event, as required by every
// client and server regardless of which application protocols they
// also register.
const ControlProtocolID uint8 = 0

// Control protocol action ids.
const (
	ActionSubscribe   uint8 = 0
	ActionUnsubscribe uint8 = 1
	ActionError       uint8 = 2
)

// EncodeSubscribe writes a subscribe(protocol_id) request body. protoID
// may be AllProtocols.
func EncodeSubscribe(w *wire.Writer, protoID uint8) {
	w.PutUint8(protoID)
}

// DecodeSubscribe reads a subscribe/unsubscribe request body.
func DecodeSubscribe(r *wire.Reader) (uint8, error) {
	return r.GetUint8()
}

// EncodeErrorEvent writes an error_event(message_id, code) body, sent
// by a server to flip a client's in-flight descriptor to Error without
// a matching Response-class message (e.g. unknown action).
func EncodeErrorEvent(w *wire.Writer, messageID uint32, code int32) {
	w.PutUint32(messageID)
	w.PutInt32(code)
}

// ErrorEvent is a decoded control error event.
type ErrorEvent struct {
	MessageID uint32
	Code      int32
}

// DecodeErrorEvent reads an error_event body.
func DecodeErrorEvent(r *wire.Reader) (ErrorEvent, error) {
	id, err := r.GetUint32()
	if err != nil {
		return ErrorEvent{}, err
	}
	code, err := r.GetInt32()
	if err != nil {
		return ErrorEvent{}, err
	}
	return ErrorEvent{MessageID: id, Code: code}, nil
}
