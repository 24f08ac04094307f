// Package wire implements gracht's fixed 11-byte message header and the
// little-endian payload cursor used to pack and unpack the opaque body
// that follows it. The codec does not translate endianness: mixed-endian
// peers are unsupported by design (§4.2).
package wire

import (
	"encoding/binary"

	"github.com/Meulengracht/gracht"
)

// HeaderSize is the fixed size in bytes of every message header.
const HeaderSize = 11

// Class identifies one of the four message classes carried in the low two
// bits of the header's flags byte.
type Class uint8

const (
	ClassSync     Class = 0
	ClassAsync    Class = 1
	ClassEvent    Class = 2
	ClassResponse Class = 3
)

func (c Class) String() string {
	switch c {
	case ClassSync:
		return "sync"
	case ClassAsync:
		return "async"
	case ClassEvent:
		return "event"
	case ClassResponse:
		return "response"
	default:
		return "unknown"
	}
}

const classMask = 0x3

// Header is the 11-byte wire header shared by client and server.
type Header struct {
	MessageID uint32
	Length    uint32 // total bytes including the header
	ServiceID uint8  // protocol id
	ActionID  uint8
	Flags     uint8 // low 2 bits = Class; upper bits reserved
}

// Class extracts the message class from Flags.
func (h Header) Class() Class { return Class(h.Flags & classMask) }

// WithClass returns a copy of h with its class bits replaced.
func (h Header) WithClass(c Class) Header {
	h.Flags = (h.Flags &^ classMask) | (uint8(c) & classMask)
	return h
}

// EncodeHeader writes h to the first HeaderSize bytes of dst.
func EncodeHeader(dst []byte, h Header) error {
	if len(dst) < HeaderSize {
		return gracht.NewError(gracht.KindInvalidArgument, "header buffer shorter than HeaderSize", nil)
	}
	binary.LittleEndian.PutUint32(dst[0:4], h.MessageID)
	binary.LittleEndian.PutUint32(dst[4:8], h.Length)
	dst[8] = h.ServiceID
	dst[9] = h.ActionID
	dst[10] = h.Flags
	return nil
}

// DecodeHeader reads a Header from the first HeaderSize bytes of src.
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, gracht.NewError(gracht.KindInvalidArgument, "header buffer shorter than HeaderSize", nil)
	}
	return Header{
		MessageID: binary.LittleEndian.Uint32(src[0:4]),
		Length:    binary.LittleEndian.Uint32(src[4:8]),
		ServiceID: src[8],
		ActionID:  src[9],
		Flags:     src[10],
	}, nil
}
