package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"wall/internal/models"
)

// Status describes the change-feed connection.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// changeEvent mirrors the server's wire frame.
type changeEvent struct {
	Event  string       `json:"event"`
	Post   *models.Post `json:"post,omitempty"`
	ID     uint         `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
}

// Synchronizer owns the ordered in-memory feed. The list is newest first;
// change events are applied in delivery order, and inserts are idempotent on
// ID so a post that arrived both from an insert response and from the change
// feed appears once.
type Synchronizer struct {
	client *Client

	mu    sync.Mutex
	posts []models.Post
	now   time.Time

	// OnChange is called with a fresh snapshot after every mutation.
	OnChange func([]models.Post)
	// OnStatus is called on every connection status transition.
	OnStatus func(Status)

	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewSynchronizer creates a Synchronizer over the given client handle.
func NewSynchronizer(client *Client) *Synchronizer {
	return &Synchronizer{
		client: client,
		now:    time.Now(),
	}
}

// LoadInitial fetches the current feed. On failure the feed stays empty and
// the returned *FetchError carries the cause; no retry is attempted.
func (s *Synchronizer) LoadInitial(ctx context.Context) error {
	posts, err := s.client.FetchPosts(ctx)
	if err != nil {
		return &FetchError{Err: err}
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

// Subscribe dials the change feed and applies events until the connection
// drops or ctx is cancelled. Status moves to Connected only after the
// server's SUBSCRIBED handshake frame, and to Disconnected on any exit.
func (s *Synchronizer) Subscribe(ctx context.Context) error {
	s.setStatus(StatusConnecting)

	conn, err := s.client.DialChanges(ctx)
	if err != nil {
		s.setStatus(StatusDisconnected)
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		_ = conn.Close()
		return nil
	}
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		<-subCtx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(done)
		defer s.setStatus(StatusDisconnected)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var ev changeEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				log.Printf("feed: dropping malformed event: %v", err)
				continue
			}
			s.apply(ev)
		}
	}()

	return nil
}

func (s *Synchronizer) apply(ev changeEvent) {
	switch ev.Event {
	case "SYSTEM":
		if ev.Status == "SUBSCRIBED" {
			s.setStatus(StatusConnected)
		}
	case "INSERT":
		if ev.Post != nil {
			s.ApplyInsert(*ev.Post)
		}
	case "UPDATE":
		if ev.Post != nil {
			s.ApplyUpdate(*ev.Post)
		}
	case "DELETE":
		id := ev.ID
		if id == 0 && ev.Post != nil {
			id = ev.Post.ID
		}
		s.ApplyDelete(id)
	}
}

// ApplyInsert prepends a post. A post already present (by ID) is left
// untouched, making insert delivery idempotent.
func (s *Synchronizer) ApplyInsert(post models.Post) {
	s.mu.Lock()
	for i := range s.posts {
		if s.posts[i].ID == post.ID {
			s.mu.Unlock()
			return
		}
	}
	next := make([]models.Post, 0, len(s.posts)+1)
	next = append(next, post)
	next = append(next, s.posts...)
	s.posts = next
	s.mu.Unlock()

	s.notifyChange()
}

// ApplyUpdate replaces the matching post in place. Unknown IDs are a no-op.
func (s *Synchronizer) ApplyUpdate(post models.Post) {
	s.mu.Lock()
	replaced := false
	next := make([]models.Post, len(s.posts))
	for i := range s.posts {
		if s.posts[i].ID == post.ID {
			next[i] = post
			replaced = true
		} else {
			next[i] = s.posts[i]
		}
	}
	if !replaced {
		s.mu.Unlock()
		return
	}
	s.posts = next
	s.mu.Unlock()

	s.notifyChange()
}

// ApplyDelete removes the matching post, preserving the order of the rest.
// Unknown IDs are a no-op.
func (s *Synchronizer) ApplyDelete(id uint) {
	s.mu.Lock()
	removed := false
	next := make([]models.Post, 0, len(s.posts))
	for i := range s.posts {
		if s.posts[i].ID == id {
			removed = true
			continue
		}
		next = append(next, s.posts[i])
	}
	if !removed {
		s.mu.Unlock()
		return
	}
	s.posts = next
	s.mu.Unlock()

	s.notifyChange()
}

// Posts returns a snapshot copy of the feed with relative timestamp labels
// computed against the last refresh time.
func (s *Synchronizer) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RefreshTimestamps recomputes the relative labels against now. The view
// drives this on a ticker so "now" ages into "1m" without new events.
func (s *Synchronizer) RefreshTimestamps(now time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()

	s.notifyChange()
}

// Close tears down the subscription. Safe to call more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Synchronizer) snapshotLocked() []models.Post {
	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	for i := range out {
		out[i].DisplayTimestamp = FormatTimestamp(out[i].CreatedAt, s.now)
	}
	return out
}

func (s *Synchronizer) notifyChange() {
	if s.OnChange == nil {
		return
	}
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.OnChange(snapshot)
}

func (s *Synchronizer) setStatus(status Status) {
	if s.OnStatus != nil {
		s.OnStatus(status)
	}
}
