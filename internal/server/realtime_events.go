package server

import (
	"context"
	"encoding/json"
	"log"

	"wall/internal/models"
	"wall/internal/observability"
)

// Wire-level change event names. Subscribers merge these into their local
// feed by ID, so duplicate delivery is harmless.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
	EventSystem = "SYSTEM"
)

// ChangeEvent is the frame sent to feed subscribers. INSERT and UPDATE carry
// the full post; DELETE carries only the ID.
type ChangeEvent struct {
	Event string       `json:"event"`
	Post  *models.Post `json:"post,omitempty"`
	ID    uint         `json:"id,omitempty"`
	// Status is set on SYSTEM frames ("SUBSCRIBED", "MESSAGES_DROPPED").
	Status string `json:"status,omitempty"`
}

func (s *Server) publishChangeEvent(eventType string, post *models.Post, id uint) {
	event := ChangeEvent{
		Event: eventType,
		Post:  post,
		ID:    id,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)

	observability.ChangeEventsTotal.WithLabelValues(eventType).Inc()

	// With Redis the event loops back through the subscriber, reaching every
	// instance's hub. Without it, fan out locally so a single-instance
	// deployment still delivers live updates.
	if s.notifier != nil {
		if err := s.notifier.PublishFeedEvent(context.Background(), message); err != nil {
			log.Printf("failed to publish %s event: %v", eventType, err)
		}
		return
	}
	s.hub.BroadcastAll(message)
}
