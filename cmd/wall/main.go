// Command wall is a terminal client for the wall: it renders the live feed
// and posts entries typed on stdin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"wall/internal/config"
	"wall/internal/feed"
	"wall/internal/models"
)

type view struct {
	mu     sync.Mutex
	status feed.Status
	posts  []models.Post
	author string
	lines  []string // static profile panel
}

func main() {
	serverURL := flag.String("server", "", "Wall server URL (overrides WALL_SERVER_URL)")
	author := flag.String("author", "", "Author name for posts (overrides WALL_AUTHOR)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *serverURL == "" {
		*serverURL = cfg.ServerURL
	}
	if *author == "" {
		*author = cfg.Author
	}

	client := feed.NewClient(*serverURL)
	synchronizer := feed.NewSynchronizer(client)
	composer := feed.NewComposer(client, *author)

	v := &view{
		status: feed.StatusConnecting,
		author: *author,
		lines:  profilePanel(cfg),
	}
	synchronizer.OnChange = func(posts []models.Post) {
		v.mu.Lock()
		v.posts = posts
		v.mu.Unlock()
		v.render()
	}
	synchronizer.OnStatus = func(status feed.Status) {
		v.mu.Lock()
		v.status = status
		v.mu.Unlock()
		v.render()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := synchronizer.LoadInitial(ctx); err != nil {
		// The wall renders empty rather than exiting; live events may still
		// arrive once the subscription is up.
		log.Printf("initial load failed: %v", err)
	}
	if err := synchronizer.Subscribe(ctx); err != nil {
		log.Printf("subscribe failed: %v", err)
	}
	defer synchronizer.Close()

	// Relative labels age on a fixed cadence.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				synchronizer.RefreshTimestamps(now)
			}
		}
	}()

	v.render()
	runComposer(ctx, composer, v)
}

// runComposer reads stdin lines: ":img <path>" attaches an image to the next
// post, anything else posts immediately.
func runComposer(ctx context.Context, composer *feed.Composer, v *view) {
	var pending *feed.ImageAttachment

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 6*1024*1024)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}

			if path := strings.TrimPrefix(line, ":img "); path != line {
				path = strings.TrimSpace(path)
				content, err := os.ReadFile(path)
				if err != nil {
					fmt.Printf("! cannot read %s: %v\n", path, err)
					continue
				}
				pending = &feed.ImageAttachment{
					Filename: filepath.Base(path),
					Content:  content,
				}
				fmt.Printf("image attached: %s (%d bytes)\n", pending.Filename, len(content))
				continue
			}

			if remaining := feed.CharactersRemaining(line); remaining < 0 {
				fmt.Printf("! %d characters over the limit\n", -remaining)
				continue
			}

			if _, err := composer.Submit(ctx, line, pending); err != nil {
				fmt.Printf("! post failed: %v\n", err)
				continue
			}
			pending = nil
		}
	}
}

func profilePanel(cfg *config.Config) []string {
	lines := []string{cfg.Author}
	if cfg.ProfileNetwork != "" {
		lines = append(lines, cfg.ProfileNetwork)
	}
	if cfg.ProfileCity != "" {
		lines = append(lines, cfg.ProfileCity)
	}
	return lines
}

func (v *view) render() {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Print("\033[2J\033[H")

	indicator := "○ connecting"
	switch v.status {
	case feed.StatusConnected:
		indicator = "● live"
	case feed.StatusDisconnected:
		indicator = "✕ disconnected"
	}
	fmt.Printf("the wall  %s\n", indicator)
	for _, line := range v.lines {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println(strings.Repeat("─", 48))

	if len(v.posts) == 0 {
		fmt.Println("no posts yet")
	}
	for _, p := range v.posts {
		fmt.Printf("%s · %s\n", p.Author, p.DisplayTimestamp)
		if p.Content != "" {
			fmt.Printf("  %s\n", p.Content)
		}
		if p.ImageURL != "" {
			fmt.Printf("  [image] %s\n", p.ImageURL)
		}
		fmt.Println()
	}
	fmt.Printf("> (%d left, :img <path> to attach)\n", feed.CharactersRemaining(""))
}
