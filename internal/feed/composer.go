package feed

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"wall/internal/models"

	"github.com/google/uuid"
)

// maxImageBytes caps image attachments at 5 MiB, matching the server.
const maxImageBytes = 5 * 1024 * 1024

// allowedImageExts maps accepted file extensions to the MIME type the
// sniffed content must match.
var allowedImageExts = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// ImageAttachment is an image to upload alongside a post.
type ImageAttachment struct {
	Filename string
	Content  []byte
}

// Composer submits posts, with an optional image uploaded first. A Composer
// allows one submission at a time; concurrent Submit calls fail fast with
// ErrSubmitting rather than queueing.
type Composer struct {
	client     *Client
	author     string
	submitting atomic.Bool
}

// NewComposer creates a Composer posting as author through the given client.
func NewComposer(client *Client, author string) *Composer {
	return &Composer{client: client, author: author}
}

// CharactersRemaining reports how many more characters the content can
// hold. Negative means over the limit.
func CharactersRemaining(content string) int {
	return models.MaxContentLength - len([]rune(content))
}

// Submit validates, uploads the image if present, and inserts the post.
// Content is trimmed before validation and insert; what the server stores
// never has leading or trailing whitespace. Validation failures never touch
// the network. An upload failure aborts before the insert; an insert failure
// leaves the uploaded blob in place.
func (c *Composer) Submit(ctx context.Context, content string, image *ImageAttachment) (*models.Post, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitting
	}
	defer c.submitting.Store(false)

	content = strings.TrimSpace(content)
	if content == "" && image == nil {
		return nil, ErrEmptyPost
	}
	if CharactersRemaining(content) < 0 {
		return nil, ErrContentTooLong
	}

	imageURL := ""
	if image != nil {
		key, err := validateImage(image)
		if err != nil {
			return nil, &UploadError{Err: err}
		}

		result, err := c.client.UploadImage(ctx, key, image.Filename, image.Content)
		if err != nil {
			return nil, &UploadError{Err: err}
		}
		imageURL = result.URL
	}

	post, err := c.client.CreatePost(ctx, PostInput{
		Author:   c.author,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		// The blob, if any, stays in storage; orphans are accepted over
		// delete-after-failure complexity.
		return nil, &InsertError{Err: err}
	}
	return post, nil
}

// validateImage checks size, extension, and sniffed content type, and
// derives the storage key for an accepted image.
func validateImage(image *ImageAttachment) (string, error) {
	if len(image.Content) == 0 {
		return "", fmt.Errorf("image %q is empty", image.Filename)
	}
	if len(image.Content) > maxImageBytes {
		return "", fmt.Errorf("image %q exceeds the 5MB limit", image.Filename)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(image.Filename), "."))
	wantType, ok := allowedImageExts[ext]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q (jpeg, png, gif allowed)", ext)
	}

	if contentType := http.DetectContentType(image.Content); contentType != wantType {
		return "", fmt.Errorf("image content is %s, expected %s", contentType, wantType)
	}

	frag := uuid.NewString()[:8]
	key := strings.ToLower(fmt.Sprintf("posts/%d-%s.%s", time.Now().UnixMilli(), frag, ext))
	return key, nil
}
