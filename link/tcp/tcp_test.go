package tcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientServerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	srv := NewServer("127.0.0.1:0")
	require.NoError(t, srv.Setup(ctx))
	defer srv.Destroy()

	cli := NewClient(srv.Addr().String())
	require.NoError(t, cli.Connect(ctx))
	defer cli.Destroy()

	handle, err := srv.Accept(ctx)
	require.NoError(t, err)
	require.NoError(t, srv.CreateClient(handle))

	msg := makeFrame(t, "ping")
	require.NoError(t, cli.Send(msg))

	got, data, err := srv.RecvPacket(ctx)
	require.NoError(t, err)
	require.Equal(t, handle, got)
	require.Equal(t, msg, data)

	reply := makeFrame(t, "pong")
	require.NoError(t, srv.Respond(handle, reply))

	back, err := cli.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, reply, back)
}

func makeFrame(t *testing.T, payload string) []byte {
	t.Helper()
	body := []byte(payload)
	full := make([]byte, 11+len(body))
	// message_id=1, length, service=1, action=1, flags=0 (sync)
	full[0], full[1], full[2], full[3] = 1, 0, 0, 0
	length := uint32(len(full))
	full[4] = byte(length)
	full[5] = byte(length >> 8)
	full[6] = byte(length >> 16)
	full[7] = byte(length >> 24)
	full[8] = 1
	full[9] = 1
	full[10] = 0
	copy(full[11:], body)
	return full
}
