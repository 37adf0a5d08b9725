package realtime

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// Ping period; must be shorter than pongWait.
	pingPeriod = 54 * time.Second
	// Maximum inbound frame size.
	maxFrameSize = 16 * 1024
	// Outbound queue depth; a connection falling this far behind is skipped.
	sendBuffer = 256
)

// Client is one live websocket connection owned by the hub. A user may hold
// several clients at once (tabs, devices); each has its own connection ID.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	closed bool // guarded by hub.mu
	log    *slog.Logger
}

func NewClient(id, userID string, hub *Hub, conn *websocket.Conn, log *slog.Logger) *Client {
	if conn != nil {
		conn.SetReadLimit(maxFrameSize)
	}
	return &Client{
		id:     id,
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    log,
	}
}

// UserID returns the identity attached at handshake time.
func (c *Client) UserID() string { return c.userID }

// enqueue hands a frame to the write pump without blocking. Frames for a
// closed or saturated connection are dropped; delivery here is best effort.
// Must be called with hub.mu held.
func (c *Client) enqueue(frame []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Debug("Dropping frame for slow connection", "conn_id", c.id)
	}
}

// readPump consumes inbound frames and feeds them to the hub. It owns the
// read side of the connection and triggers teardown on any read error, so
// the hub deregisters the connection exactly once.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected websocket close", "conn_id", c.id, "err", err)
			}
			return
		}
		c.hub.HandleEvent(c, raw)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
