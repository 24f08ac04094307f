package tcp

import (
	"context"
	"net"

	"github.com/Meulengracht/gracht"
	"golang.org/x/net/trace"
)

// Client is a link.ClientLink dialing a single TCP address.
type Client struct {
	addr string
	conn net.Conn
	tr   trace.Trace
}

// NewClient returns a ClientLink that will dial addr on Connect.
func NewClient(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) Connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return gracht.NewError(gracht.KindNotSupported, "failed to connect to container", err)
	}
	c.conn = conn
	c.tr = trace.New("gracht.client", c.addr)
	return nil
}

func (c *Client) Send(message []byte) error {
	if c.conn == nil {
		return gracht.NewError(gracht.KindInvalidArgument, "client link is not connected", nil)
	}
	return writeFrame(c.conn, message)
}

func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	if c.conn == nil {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "client link is not connected", nil)
	}
	type result struct {
		msg []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := readFrame(c.conn)
		done <- result{msg, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			return nil, gracht.NewError(gracht.KindNotFound, "read failed", r.err)
		}
		return r.msg, nil
	case <-ctx.Done():
		_ = c.conn.Close()
		return nil, ctx.Err()
	}
}

func (c *Client) Destroy() error {
	if c.tr != nil {
		c.tr.Finish()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
