// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"encoding/json"
	"log"

	"wall/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles GET /api/ws: feed subscribers receive every post
// change event until they disconnect. The connection is read-mostly; incoming
// frames are ignored apart from keepalive handling in the read pump.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		client, err := s.hub.Register(conn)
		if err != nil {
			log.Printf("WebSocket: failed to register subscriber: %v", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		log.Printf("WebSocket: subscriber %s connected", client.Addr)

		// Subscribers treat the feed as live only after this frame.
		welcome, err := json.Marshal(ChangeEvent{Event: EventSystem, Status: "SUBSCRIBED"})
		if err == nil {
			client.TrySend(welcome)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()

		log.Printf("WebSocket: subscriber %s disconnected", client.Addr)
	})
}
