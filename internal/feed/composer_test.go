package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"wall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer records every upload and insert request it receives.
type countingServer struct {
	*httptest.Server
	uploads int32
	inserts int32

	mu         sync.Mutex
	lastInsert PostInput
}

func newCountingServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/storage/posts", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cs.uploads, 1)
		key := r.FormValue("key")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UploadResult{
			Path: key,
			URL:  "http://blob.local/" + key,
		})
	})
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cs.inserts, 1)
		var input PostInput
		_ = json.NewDecoder(r.Body).Decode(&input)
		cs.mu.Lock()
		cs.lastInsert = input
		cs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Post{
			ID:       1,
			Author:   input.Author,
			Content:  input.Content,
			ImageURL: input.ImageURL,
		})
	})

	cs.Server = httptest.NewServer(mux)
	return cs
}

func gifBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte("GIF89a"))
	return data
}

func TestComposer_RejectsEmptySubmissionWithoutNetwork(t *testing.T) {
	cs := newCountingServer(t)
	defer cs.Close()

	c := NewComposer(NewClient(cs.URL), "ada")
	_, err := c.Submit(context.Background(), "   ", nil)

	assert.ErrorIs(t, err, ErrEmptyPost)
	assert.Zero(t, atomic.LoadInt32(&cs.uploads))
	assert.Zero(t, atomic.LoadInt32(&cs.inserts))
}

func TestComposer_RejectsOverlongContentWithoutNetwork(t *testing.T) {
	cs := newCountingServer(t)
	defer cs.Close()

	c := NewComposer(NewClient(cs.URL), "ada")
	_, err := c.Submit(context.Background(), strings.Repeat("x", 281), nil)

	assert.ErrorIs(t, err, ErrContentTooLong)
	assert.Zero(t, atomic.LoadInt32(&cs.uploads))
	assert.Zero(t, atomic.LoadInt32(&cs.inserts))
}

func TestComposer_RejectsBadImagesWithoutNetwork(t *testing.T) {
	tests := []struct {
		name  string
		image *ImageAttachment
	}{
		{
			name: "Oversized",
			image: &ImageAttachment{
				Filename: "big.gif",
				Content:  gifBytes(maxImageBytes + 1),
			},
		},
		{
			name: "UnsupportedExtension",
			image: &ImageAttachment{
				Filename: "notes.txt",
				Content:  []byte("plain text"),
			},
		},
		{
			name: "ExtensionContentMismatch",
			image: &ImageAttachment{
				Filename: "fake.png",
				Content:  gifBytes(64),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newCountingServer(t)
			defer cs.Close()

			c := NewComposer(NewClient(cs.URL), "ada")
			_, err := c.Submit(context.Background(), "caption", tt.image)

			var uploadErr *UploadError
			assert.ErrorAs(t, err, &uploadErr)
			assert.Zero(t, atomic.LoadInt32(&cs.uploads))
			assert.Zero(t, atomic.LoadInt32(&cs.inserts))
		})
	}
}

func TestComposer_TextOnlySubmit(t *testing.T) {
	cs := newCountingServer(t)
	defer cs.Close()

	c := NewComposer(NewClient(cs.URL), "ada")
	post, err := c.Submit(context.Background(), "hello", nil)

	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)
	assert.Zero(t, atomic.LoadInt32(&cs.uploads))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cs.inserts))

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Equal(t, "ada", cs.lastInsert.Author)
	assert.Empty(t, cs.lastInsert.ImageURL)
}

func TestComposer_SubmitTrimsContent(t *testing.T) {
	cs := newCountingServer(t)
	defer cs.Close()

	c := NewComposer(NewClient(cs.URL), "ada")
	post, err := c.Submit(context.Background(), "  hello  ", nil)

	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Equal(t, "hello", cs.lastInsert.Content, "whitespace must not reach the server")
}

func TestComposer_ImageSubmitUploadsThenInserts(t *testing.T) {
	cs := newCountingServer(t)
	defer cs.Close()

	c := NewComposer(NewClient(cs.URL), "ada")
	post, err := c.Submit(context.Background(), "with image", &ImageAttachment{
		Filename: "photo.GIF",
		Content:  gifBytes(128),
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&cs.uploads))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cs.inserts))

	cs.mu.Lock()
	imageURL := cs.lastInsert.ImageURL
	cs.mu.Unlock()
	require.NotEmpty(t, imageURL)
	assert.True(t, strings.HasPrefix(imageURL, "http://blob.local/posts/"))
	assert.True(t, strings.HasSuffix(imageURL, ".gif"), "key extension is lowercased: %s", imageURL)
	assert.Equal(t, imageURL, post.ImageURL)
}

func TestComposer_InsertFailureIsInsertError(t *testing.T) {
	var uploads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/storage/posts", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&uploads, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UploadResult{Path: "posts/x.gif", URL: "http://blob.local/posts/x.gif"})
	})
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"insert failed"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewComposer(NewClient(srv.URL), "ada")
	_, err := c.Submit(context.Background(), "doomed", &ImageAttachment{
		Filename: "photo.gif",
		Content:  gifBytes(64),
	})

	var insertErr *InsertError
	assert.ErrorAs(t, err, &insertErr)
	// The upload happened and is not rolled back.
	assert.Equal(t, int32(1), atomic.LoadInt32(&uploads))
}

func TestComposer_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Post{ID: 1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewComposer(NewClient(srv.URL), "ada")

	errs := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "slow", nil)
		errs <- err
	}()

	<-started
	_, err := c.Submit(context.Background(), "concurrent", nil)
	assert.ErrorIs(t, err, ErrSubmitting)

	close(release)
	require.NoError(t, <-errs)
}

func TestCharactersRemaining(t *testing.T) {
	assert.Equal(t, 280, CharactersRemaining(""))
	assert.Equal(t, 275, CharactersRemaining("hello"))
	assert.Equal(t, 0, CharactersRemaining(strings.Repeat("x", 280)))
	assert.Equal(t, -1, CharactersRemaining(strings.Repeat("x", 281)))
	// Runes, not bytes.
	assert.Equal(t, 277, CharactersRemaining("héé"))
}
