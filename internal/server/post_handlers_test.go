package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wall/internal/models"
	"wall/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestServer(repo *MockPostRepository) *Server {
	return &Server{
		postRepo: repo,
		hub:      notifications.NewHub(),
	}
}

func TestCreatePost(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Post("/posts", s.CreatePost)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"author":  "ada",
				"content": "Hello wall",
			},
			mockSetup: func() {
				mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Missing Author",
			body: map[string]string{
				"content": "Hello wall",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "No Content And No Image",
			body: map[string]string{
				"author": "ada",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Content Too Long",
			body: map[string]string{
				"author":  "ada",
				"content": strings.Repeat("x", 281),
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Image Only Is Allowed",
			body: map[string]string{
				"author":    "ada",
				"image_url": "http://localhost:9000/posts/a.png",
			},
			mockSetup: func() {
				mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestCreatePost_TrimsContent(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Post("/posts", s.CreatePost)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Content == "hi"
	})).Return(nil)

	body, _ := json.Marshal(map[string]string{
		"author":  "ada",
		"content": "  hi  ",
	})
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "hi", created.Content)
	mockRepo.AssertExpectations(t)
}

func TestCreatePost_AtContentLimit(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Post("/posts", s.CreatePost)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(map[string]string{
		"author":  "ada",
		"content": strings.Repeat("y", 280),
	})
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGetPosts(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Get("/posts", s.GetPosts)

	now := time.Now()
	mockRepo.On("List", mock.Anything, 50, 0).Return([]*models.Post{
		{ID: 2, Author: "grace", Content: "newer", CreatedAt: now},
		{ID: 1, Author: "ada", Content: "older", CreatedAt: now.Add(-time.Hour)},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 2)
	assert.Equal(t, uint(2), posts[0].ID)
	assert.Equal(t, uint(1), posts[1].ID)
}

func TestUpdatePost_NotFound(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Put("/posts/:id", s.UpdatePost)
	mockRepo.On("GetByID", mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)

	body, _ := json.Marshal(map[string]string{"content": "edited"})
	req := httptest.NewRequest(http.MethodPut, "/posts/42", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeletePost(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Delete("/posts/:id", s.DeletePost)
	mockRepo.On("GetByID", mock.Anything, uint(7)).Return(&models.Post{ID: 7, Author: "ada", Content: "bye"}, nil)
	mockRepo.On("Delete", mock.Anything, uint(7)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/posts/7", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockRepo.AssertCalled(t, "Delete", mock.Anything, uint(7))
}

func TestDeletePost_InvalidID(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockPostRepository)
	s := newTestServer(mockRepo)

	app.Delete("/posts/:id", s.DeletePost)

	req := httptest.NewRequest(http.MethodDelete, "/posts/abc", nil)
	resp, _ := app.Test(req)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
