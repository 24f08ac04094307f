package protocol

import (
	"testing"

	"github.com/Meulengracht/gracht/wire"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	called := false
	d := NewDescriptor(7, "echo").On(1, func(inv *Invocation) error {
		called = true
		return nil
	})
	reg.Register(d)

	fn, ok := reg.Lookup(7, 1)
	require.True(t, ok)
	require.NoError(t, fn(&Invocation{}))
	require.True(t, called)

	_, ok = reg.Lookup(7, 2)
	require.False(t, ok)
	_, ok = reg.Lookup(9, 1)
	require.False(t, ok)
}

func TestBitmapAllProtocolsSentinel(t *testing.T) {
	var b Bitmap
	b.Set(7)
	require.True(t, b.Has(7))
	require.False(t, b.Has(8))

	b.Set(AllProtocols)
	require.True(t, b.Has(0))
	require.True(t, b.Has(255))

	b.Clear(AllProtocols)
	require.False(t, b.Has(7))
	require.False(t, b.Has(255))
}

func TestControlErrorEventRoundTrip(t *testing.T) {
	w := wire.NewWriter(32)
	EncodeErrorEvent(w, 42, -2)
	w.Finalize(42, ControlProtocolID, ActionError, wire.ClassEvent)

	r := wire.NewPayloadReader(w.Bytes())
	ev, err := DecodeErrorEvent(r)
	require.NoError(t, err)
	require.Equal(t, uint32(42), ev.MessageID)
	require.Equal(t, int32(-2), ev.Code)
}
