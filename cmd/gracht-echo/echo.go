package main

import (
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
)

// echoProtocolID and echoActionID identify the single demo action: echo
// back whatever string payload was sent.
const echoProtocolID uint8 = 1
const echoActionID uint8 = 0

func registerEcho(reg *protocol.Registry) {
	d := protocol.NewDescriptor(echoProtocolID, "echo")
	d.On(echoActionID, func(inv *protocol.Invocation) error {
		str, err := inv.Payload.GetString()
		if err != nil {
			return err
		}
		w := wire.NewWriter(len(str) + 4)
		w.PutString(str)
		return inv.Responder.Respond(w)
	})
	reg.Register(d)
}
