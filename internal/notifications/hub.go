// Package notifications provides real-time delivery of feed change events
// to connected websocket subscribers.
package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max total connections
	maxTotalConns = 10000
)

// Hub fans feed change events out to every connected websocket client.
// The wall is a single shared surface, so there is no per-subscriber routing.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Client]struct{}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "feed hub" }

// NewHub creates a new Hub instance for managing feed subscribers.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*Client]struct{}),
	}
}

// Register adds a connection to the hub. Returns the Client or an error if
// the connection limit is exceeded.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conns) >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	client := NewClient(h, conn)
	h.conns[client] = struct{}{}

	return client, nil
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	delete(h.conns, client)
	h.mu.Unlock()
}

// SubscriberCount reports the number of currently connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns {
		c.TrySend(data)
	}
}

// StartWiring connects the Notifier to this hub: every event published on the
// feed channel is fanned out to all connected clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, func(_, payload string) {
		h.BroadcastAll(payload)
	})
}

// Shutdown closes every websocket connection. Safe to call more than once;
// later calls see an empty hub and do nothing.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	for client := range h.conns {
		if client.Conn == nil {
			continue
		}
		// Send close message to client
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message for %s: %v", client.Addr, err)
		}
		// Close the connection
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for %s: %v", client.Addr, err)
		}
	}
	h.conns = make(map[*Client]struct{})
	h.mu.Unlock()

	return nil
}
