// Command seed fills the wall with generated demo posts.
package main

import (
	"flag"
	"log"

	"wall/internal/config"
	"wall/internal/database"
	"wall/internal/seed"
)

func main() {
	count := flag.Int("count", 50, "Number of posts to create")
	maxDays := flag.Int("max-days", 30, "Spread created_at over this many days")
	imageRatio := flag.Float64("image-ratio", 0.3, "Fraction of posts with an image")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	factory := seed.NewFactory(db, seed.Options{
		MaxDays:    *maxDays,
		ImageRatio: *imageRatio,
		DryRun:     *dryRun,
	})

	if err := factory.Populate(*count); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d posts", *count)
}
