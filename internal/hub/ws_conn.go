package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn adapts a gorilla websocket connection to the hub Conn interface.
// Writes are serialized by a mutex; the first write failure marks the
// connection closed so later broadcasts skip it.
type WSConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewWSConn wraps a websocket connection. A zero writeTimeout defaults to 10s.
func NewWSConn(conn *websocket.Conn, writeTimeout time.Duration) *WSConn {
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	return &WSConn{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// IsOpen reports whether the connection can still accept writes.
func (c *WSConn) IsOpen() bool {
	return !c.closed.Load()
}

// Send writes one text message.
func (c *WSConn) Send(msg []byte) error {
	if c.closed.Load() {
		return websocket.ErrCloseSent
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.closed.Store(true)
		return err
	}
	return nil
}

// Close marks the connection closed and closes the underlying transport.
// Idempotent.
func (c *WSConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// Verify interface compliance at compile time.
var _ Conn = (*WSConn)(nil)
