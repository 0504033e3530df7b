// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// MaxContentLength is the maximum number of characters allowed in a post body.
const MaxContentLength = 280

// Post represents a single entry on the wall.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Author   string `gorm:"not null" json:"author"`
	Content  string `gorm:"type:text" json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	// DisplayTimestamp is the relative-time label ("now", "5m", "2h", "3d").
	// Computed client-side, never persisted.
	DisplayTimestamp string    `gorm:"-" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks the invariants every accepted post must satisfy.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Author) == "" {
		return NewValidationError("Author is required")
	}
	if len([]rune(p.Content)) > MaxContentLength {
		return NewValidationError("Content exceeds 280 characters")
	}
	if strings.TrimSpace(p.Content) == "" && p.ImageURL == "" {
		return NewValidationError("Post must have content or an image")
	}
	return nil
}
