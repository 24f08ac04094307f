package server

import (
	"github.com/Meulengracht/gracht/link"
	"github.com/Meulengracht/gracht/protocol"
)

// clientRecord is the server's bookkeeping for one connected client
// (spec §3: "mapping keyed by connection handle"): the link it arrived
// on, and its protocol subscription bitmap.
type clientRecord struct {
	handle        link.Handle
	linkIndex     int
	subscriptions protocol.Bitmap
}
