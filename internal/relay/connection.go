package relay

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 32

// Connection wraps one websocket endpoint. Outbound events go through a
// buffered queue drained by a single write pump, so fan-out never blocks
// on a slow peer; when the queue is full the event is dropped, which is
// the at-most-once contract of the relay.
type Connection struct {
	ID   string
	ws   *websocket.Conn
	send chan []byte
	log  *zap.SugaredLogger
}

func NewConnection(ws *websocket.Conn, log *zap.SugaredLogger) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		log:  log,
	}
}

// WritePump writes queued events until the queue is closed by the relay
// or the transport fails. Run it in its own goroutine.
func (c *Connection) WritePump() {
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.log.Warnw("write to peer failed", "conn", c.ID, "error", err)
			return
		}
	}
}

// enqueue must only be called while the relay still holds the
// connection registered (under the relay lock); the relay closes the
// queue on release.
func (c *Connection) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.log.Warnw("send queue full, dropping event", "conn", c.ID)
	}
}
