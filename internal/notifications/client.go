package notifications

import (
	"time"

	"wall/internal/middleware"
	"wall/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead. Pings go out at pingPeriod, which must be shorter.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// The feed is push-only; subscribers have no reason to send anything
	// bigger than a close frame.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// dropNotice tells a subscriber that events were lost and the feed should
// be re-fetched.
var dropNotice = []byte(`{"event":"SYSTEM","status":"MESSAGES_DROPPED"}`)

// WSHub unregisters clients whose connection died.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client pairs one websocket connection with its outbound buffer. All
// writes to the connection happen on the WritePump goroutine.
type Client struct {
	Hub  WSHub
	Conn *websocket.Conn

	// Send buffers outbound frames. TrySend drops rather than blocks
	// when it fills.
	Send chan []byte

	// Addr identifies the peer in logs.
	Addr string
}

func NewClient(hub WSHub, conn *websocket.Conn) *Client {
	addr := ""
	if conn != nil && conn.RemoteAddr() != nil {
		addr = conn.RemoteAddr().String()
	}
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
		Addr: addr,
	}
}

// ReadPump drains the connection until it drops, keeping the pong deadline
// fresh. Subscribers never send application frames; anything read is
// discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read failed", "addr", c.Addr, "error", err)
			}
			return
		}
	}
}

// WritePump forwards frames from Send to the connection and keeps the peer
// alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a frame without ever blocking the broadcaster. A full
// buffer drops the frame and queues a dropNotice instead so the subscriber
// can detect the gap.
func (c *Client) TrySend(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- frame:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		middleware.Logger.Warn("subscriber buffer full, frame dropped",
			"addr", c.Addr, "hub", c.Hub.Name())

		select {
		case c.Send <- dropNotice:
		default:
		}
	}
}
