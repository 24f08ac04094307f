package inproc

import (
	"context"

	"github.com/Meulengracht/gracht"
)

// Client is a link.ClientLink backed by a Hub.
type Client struct {
	hub  *Hub
	conn *conn
}

// NewClient returns a ClientLink that will Connect against hub.
func NewClient(hub *Hub) *Client {
	return &Client{hub: hub}
}

func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.hub.dial(32)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *Client) Send(message []byte) error {
	if c.conn == nil {
		return gracht.NewError(gracht.KindInvalidArgument, "client link is not connected", nil)
	}
	select {
	case c.conn.toServer <- message:
		return nil
	case <-c.conn.closeCh:
		return gracht.NewError(gracht.KindNotFound, "connection closed", nil)
	}
}

func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	if c.conn == nil {
		return nil, gracht.NewError(gracht.KindInvalidArgument, "client link is not connected", nil)
	}
	select {
	case msg, ok := <-c.conn.toClient:
		if !ok {
			return nil, gracht.NewError(gracht.KindNotFound, "connection closed", nil)
		}
		return msg, nil
	case <-c.conn.closeCh:
		return nil, gracht.NewError(gracht.KindNotFound, "connection closed", nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) Destroy() error {
	if c.conn != nil {
		c.conn.close()
	}
	return nil
}
