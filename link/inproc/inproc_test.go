package inproc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientServerRoundTrip(t *testing.T) {
	hub := NewHub(4)
	srv := NewServer(hub)
	cli := NewClient(hub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, cli.Connect(ctx))
	handle, err := srv.Accept(ctx)
	require.NoError(t, err)
	require.NoError(t, srv.CreateClient(handle))

	require.NoError(t, cli.Send([]byte("ping")))
	got, msg, err := srv.RecvPacket(ctx)
	require.NoError(t, err)
	require.Equal(t, handle, got)
	require.Equal(t, []byte("ping"), msg)

	require.NoError(t, srv.Respond(handle, []byte("pong")))
	reply, err := cli.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), reply)
}

func TestDestroyClientUnblocksPeer(t *testing.T) {
	hub := NewHub(4)
	srv := NewServer(hub)
	cli := NewClient(hub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, cli.Connect(ctx))
	handle, err := srv.Accept(ctx)
	require.NoError(t, err)

	require.NoError(t, srv.DestroyClient(handle))

	_, err = cli.Recv(ctx)
	require.Error(t, err)
}

func TestRecvPacketFansInAcrossMultipleClients(t *testing.T) {
	hub := NewHub(4)
	srv := NewServer(hub)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	clients := make([]*Client, 3)
	handles := make([]uint64, 3)
	for i := range clients {
		clients[i] = NewClient(hub)
		require.NoError(t, clients[i].Connect(ctx))
		h, err := srv.Accept(ctx)
		require.NoError(t, err)
		handles[i] = uint64(h)
	}

	require.NoError(t, clients[2].Send([]byte("from-2")))
	got, msg, err := srv.RecvPacket(ctx)
	require.NoError(t, err)
	require.Equal(t, handles[2], uint64(got))
	require.Equal(t, []byte("from-2"), msg)
}
