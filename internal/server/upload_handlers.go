package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"wall/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxUploadBytes caps image uploads at 5 MiB.
const maxUploadBytes = 5 * 1024 * 1024

// allowedImageTypes maps accepted MIME types to their canonical extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// ImageUploadResponse is the API response after uploading an image.
type ImageUploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// UploadImage handles POST /api/storage/posts. The blob is stored verbatim
// under the client-supplied key (or a generated one) and the public URL is
// returned for use as a post's image_url.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	if file.Size > maxUploadBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image must be smaller than 5MB"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	// Sniff the real content type; the client-declared header is not trusted.
	contentType := http.DetectContentType(content)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Only JPEG, PNG, and GIF images are allowed"))
	}

	key := c.FormValue("key")
	if key == "" {
		key = generateObjectKey(ext)
	}
	if !validObjectKey(key) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid storage key"))
	}

	if err := s.store.Put(c.UserContext(), key, contentType,
		bytes.NewReader(content), int64(len(content))); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewUploadError("Failed to store image", err))
	}

	return c.JSON(ImageUploadResponse{
		Path: key,
		URL:  s.store.PublicURL(key),
	})
}

// generateObjectKey builds a collision-resistant key in the posts/ prefix.
func generateObjectKey(ext string) string {
	frag := uuid.NewString()[:8]
	return strings.ToLower(fmt.Sprintf("posts/%d-%s.%s", time.Now().UnixMilli(), frag, ext))
}

// validObjectKey accepts only flat keys in the posts/ prefix with a safe
// character set, so a supplied key cannot traverse the bucket.
func validObjectKey(key string) bool {
	if !strings.HasPrefix(key, "posts/") {
		return false
	}
	name := strings.TrimPrefix(key, "posts/")
	if name == "" || path.Clean(key) != key || strings.Contains(name, "/") {
		return false
	}
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.':
		default:
			return false
		}
	}
	return true
}
