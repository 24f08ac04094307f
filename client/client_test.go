package client

import (
	"context"
	"testing"
	"time"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/link/inproc"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
	"github.com/stretchr/testify/require"
)

// serverEcho is a minimal hand-rolled stand-in for the server package:
// it accepts one already-dialled connection and answers every message
// with a response carrying the length of the message's leading string as
// a uint32, exercising Invoke/Await/Status/StatusFinalize against a real
// inproc link without depending on the server package.
func serverEcho(t *testing.T, hub *inproc.Hub) {
	t.Helper()
	srv := inproc.NewServer(hub)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	handle, err := srv.Accept(ctx)
	require.NoError(t, err)
	require.NoError(t, srv.CreateClient(handle))

	go func() {
		for {
			_, raw, err := srv.RecvPacket(context.Background())
			if err != nil {
				return
			}
			header, err := wire.DecodeHeader(raw)
			if err != nil {
				return
			}
			payload := wire.NewPayloadReader(raw)
			str, _ := payload.GetString()

			w := wire.NewWriter(8)
			w.PutUint32(uint32(len(str)))
			w.Finalize(header.MessageID, header.ServiceID, header.ActionID, wire.ClassResponse)
			_ = srv.Respond(handle, w.Bytes())
		}
	}()
}

func TestInvokeAwaitStatusFinalizeRoundTrip(t *testing.T) {
	hub := inproc.NewHub(4)

	cli := inproc.NewClient(hub)
	reg := protocol.NewRegistry()
	c, err := New(cli, reg, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	serverEcho(t, hub)

	w := c.NewWriter()
	w.PutString("hello")
	call, err := c.Invoke(ctx, w, 1, 1, wire.ClassSync)
	require.NoError(t, err)
	require.NotNil(t, call)

	require.NoError(t, c.Await(ctx, []*Context{call}, AwaitAny))

	status, buf, err := c.Status(call)
	require.NoError(t, err)
	require.Equal(t, gracht.StatusCompleted, status)

	r := wire.NewPayloadReader(buf)
	n, err := r.GetUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(5), n)

	require.NoError(t, c.StatusFinalize(call))
}

func TestAwaitAllSelfPumpsUntilEveryCallCompletes(t *testing.T) {
	hub := inproc.NewHub(8)

	cli := inproc.NewClient(hub)
	reg := protocol.NewRegistry()
	c, err := New(cli, reg, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	serverEcho(t, hub)

	var calls []*Context
	for i := 0; i < 10; i++ {
		w := c.NewWriter()
		w.PutString("x")
		call, err := c.Invoke(ctx, w, 1, 1, wire.ClassSync)
		require.NoError(t, err)
		calls = append(calls, call)
	}

	require.NoError(t, c.Await(ctx, calls, AwaitAll))
	for _, call := range calls {
		status, _, err := c.Status(call)
		require.NoError(t, err)
		require.True(t, status.Terminal())
		require.NoError(t, c.StatusFinalize(call))
	}
}

func TestAwaitAsyncWokenByBackgroundPumper(t *testing.T) {
	hub := inproc.NewHub(4)

	cli := inproc.NewClient(hub)
	reg := protocol.NewRegistry()
	c, err := New(cli, reg, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	serverEcho(t, hub)

	w := c.NewWriter()
	w.PutString("async")
	call, err := c.Invoke(ctx, w, 1, 1, wire.ClassSync)
	require.NoError(t, err)

	pumperDone := make(chan struct{})
	go func() {
		defer close(pumperDone)
		_ = c.WaitMessage(ctx, nil, Block)
	}()

	require.NoError(t, c.Await(ctx, []*Context{call}, AwaitAsync))
	<-pumperDone

	status, _, err := c.Status(call)
	require.NoError(t, err)
	require.Equal(t, gracht.StatusCompleted, status)
	require.NoError(t, c.StatusFinalize(call))
}
