// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"wall/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how demo data is generated.
type Options struct {
	// MaxDays spreads generated created_at values over this many days back.
	MaxDays int
	// ImageRatio is the fraction of posts that get an image URL (0..1).
	ImageRatio float64
	// DryRun logs what would be created without writing to the database.
	DryRun bool
}

// Factory builds wall posts and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.ImageRatio <= 0 {
		opts.ImageRatio = 0.3
	}
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1000,
	}
}

// BuildPost constructs a post without persisting it. Useful for batching.
func (f *Factory) BuildPost(overrides ...func(*models.Post)) *models.Post {
	content := gofakeit.Sentence(f.rng.Intn(12) + 3)
	if len([]rune(content)) > models.MaxContentLength {
		content = string([]rune(content)[:models.MaxContentLength])
	}

	post := &models.Post{
		Author:  gofakeit.FirstName() + " " + gofakeit.LastName(),
		Content: content,
	}

	if f.rng.Float64() < f.opts.ImageRatio {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	// realistic created_at spread
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour -
			time.Duration(hoursBack)*time.Hour -
			time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a single post.
func (f *Factory) CreatePost(overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(overrides...)
	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: %+v", post)
		return post, nil
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// Populate fills the wall with count generated posts.
func (f *Factory) Populate(count int) error {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		posts = append(posts, f.BuildPost())
	}
	return f.CreatePostsBatch(posts)
}
