package gateway

import (
	"context"

	"github.com/coder/websocket"
)

// Conn is the transport surface Shard depends on. It exists so tests can
// drive the state machine against a fake without opening a real socket; the
// production implementation is a thin wrapper around *websocket.Conn.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, mt websocket.MessageType, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens a Conn to a Gateway URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// websocketDialer is the production Dialer, backed by coder/websocket.
type websocketDialer struct{}

func (websocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return wsConn{conn}, nil
}

type wsConn struct{ c *websocket.Conn }

func (w wsConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	return w.c.Read(ctx)
}

func (w wsConn) Write(ctx context.Context, mt websocket.MessageType, data []byte) error {
	return w.c.Write(ctx, mt, data)
}

func (w wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.c.Close(code, reason)
}
