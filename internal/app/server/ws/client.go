package ws

import (
	"context"
	"errors"
	"sync"
)

// Client pairs a connection with an opaque identifier and a buffered
// outbound queue. Fan-out happens from the event core, so writes must
// never block it: frames go into the queue and a dedicated write loop
// drains it onto the wire.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	id     string
	out    chan []byte
	once   sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, id string) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		id:     id,
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errors.New("client closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is idempotent. The queue channel is never closed: Send may be
// racing from another goroutine, and the cancelled context already
// unblocks both it and the write loop.
func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *Client) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			_ = c.ws.WriteMessage(data)
		}
	}
}
