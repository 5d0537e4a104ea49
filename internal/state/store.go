package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/folio/internal/api"
)

// Feed is the storefront home page content.
type Feed struct {
	Hot        []api.Book
	New        []api.Book
	Carousels  []api.Carousel
	Categories []api.Category
}

// Snapshot represents the latest feed available to the UI.
type Snapshot struct {
	Feed                Feed
	HasFeed             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored feed. When err is non-nil the previous feed is
// kept but the error is recorded for visibility.
func (s *Store) Update(feed *Feed, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if feed != nil {
		s.snapshot.Feed = cloneFeed(*feed)
		s.snapshot.HasFeed = true
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Feed = cloneFeed(s.snapshot.Feed)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Book finds a book anywhere in the feed.
func (s Snapshot) Book(id int64) (api.Book, bool) {
	for _, list := range [][]api.Book{s.Feed.Hot, s.Feed.New} {
		for _, b := range list {
			if b.ID == id {
				return b, true
			}
		}
	}
	return api.Book{}, false
}

func cloneFeed(f Feed) Feed {
	return Feed{
		Hot:        cloneSlice(f.Hot),
		New:        cloneSlice(f.New),
		Carousels:  cloneSlice(f.Carousels),
		Categories: cloneSlice(f.Categories),
	}
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
