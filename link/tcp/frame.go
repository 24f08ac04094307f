package tcp

import (
	"io"
	"net"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/wire"
)

// readFrame reads one complete wire message off conn: the fixed header,
// then Length-HeaderSize payload bytes, following the teacher's
// proxy_server.go pattern of reading a fixed-size prefix before sizing
// the body read.
func readFrame(conn net.Conn) ([]byte, error) {
	header := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}
	h, err := wire.DecodeHeader(header)
	if err != nil {
		return nil, err
	}
	if h.Length < wire.HeaderSize {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "frame length shorter than header", nil)
	}

	full := make([]byte, h.Length)
	copy(full, header)
	if _, err := io.ReadFull(conn, full[wire.HeaderSize:]); err != nil {
		return nil, err
	}
	return full, nil
}

// writeFrame writes a full wire message (header already finalized) to
// conn in a single call.
func writeFrame(conn net.Conn, message []byte) error {
	_, err := conn.Write(message)
	return err
}
