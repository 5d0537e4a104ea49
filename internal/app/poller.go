package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/state"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
	feedLimit           = 5
)

// FeedSource is the slice of the storefront API the home feed needs.
type FeedSource interface {
	HotBooks(ctx context.Context, limit int) ([]api.Book, error)
	NewBooks(ctx context.Context, limit int) ([]api.Book, error)
	Carousels(ctx context.Context) ([]api.Carousel, error)
	Categories(ctx context.Context) ([]api.Category, error)
}

// StartPoller launches a background goroutine that refreshes the home feed.
// Failures stretch the wait with exponential backoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source FeedSource, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		for {
			refresh(ctx, store, source)
			wait := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
// A base above the cap is returned unchanged while healthy.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

func refresh(ctx context.Context, store *state.Store, source FeedSource) error {
	feed, err := fetchFeed(ctx, source)
	if err != nil {
		if api.IsCanceled(err) {
			return err
		}
		store.Update(nil, err)
		log.Printf("feed poll failed: %v", err)
		return err
	}
	store.Update(&feed, nil)
	return nil
}

func fetchFeed(ctx context.Context, source FeedSource) (state.Feed, error) {
	var feed state.Feed
	var err error
	if feed.Hot, err = source.HotBooks(ctx, feedLimit); err != nil {
		return state.Feed{}, fmt.Errorf("hot books: %w", err)
	}
	if feed.New, err = source.NewBooks(ctx, feedLimit); err != nil {
		return state.Feed{}, fmt.Errorf("new books: %w", err)
	}
	if feed.Carousels, err = source.Carousels(ctx); err != nil {
		return state.Feed{}, fmt.Errorf("carousels: %w", err)
	}
	if feed.Categories, err = source.Categories(ctx); err != nil {
		return state.Feed{}, fmt.Errorf("categories: %w", err)
	}
	return feed, nil
}
