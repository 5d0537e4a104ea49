// Package favorites mirrors the signed-in user's favorite books. Toggles are
// confirmed by the server before the local flag flips.
package favorites

import (
	"context"
	"errors"
	"sync"

	"github.com/five82/folio/internal/api"
)

// DefaultPageSize matches the storefront favorites grid.
const DefaultPageSize = 12

var (
	// ErrLoginRequired is returned when an anonymous user tries to favorite.
	ErrLoginRequired = errors.New("please sign in to manage favorites")
	// ErrPending is returned when a toggle for the same book is in flight.
	ErrPending = errors.New("favorite update already in progress")
	// ErrStale is returned when the store was reset while a request was in
	// flight; the response is discarded.
	ErrStale = errors.New("favorites changed while the request was in flight")
)

// Backend is the favorites part of the storefront API.
type Backend interface {
	AddFavorite(ctx context.Context, bookID int64) error
	RemoveFavorite(ctx context.Context, bookID int64) error
	IsFavorited(ctx context.Context, bookID int64) (bool, error)
	Favorites(ctx context.Context, q api.FavoriteQuery) (api.FavoritePage, error)
	FavoriteCount(ctx context.Context) (int, error)
}

// Auth reports whether a user is signed in.
type Auth interface {
	Authenticated() bool
}

// Store is the local view of the user's favorites.
type Store struct {
	mu      sync.Mutex
	backend Backend
	auth    Auth
	flags   map[int64]bool
	pending map[int64]bool
	count   int
	page    api.FavoritePage
	filter  string
	// epoch advances on Reset; responses begun under an older epoch are dropped.
	epoch uint64
}

// New returns an empty Store.
func New(backend Backend, auth Auth) *Store {
	return &Store{
		backend: backend,
		auth:    auth,
		flags:   make(map[int64]bool),
		pending: make(map[int64]bool),
		filter:  api.FavoritesAll,
	}
}

// Toggle adds or removes bookID. The local flag and count change only after
// the server accepts; on failure they are untouched and the error returned.
func (s *Store) Toggle(ctx context.Context, bookID int64) (bool, error) {
	if s.auth == nil || !s.auth.Authenticated() {
		return false, ErrLoginRequired
	}

	s.mu.Lock()
	current := s.flags[bookID]
	if _, busy := s.pending[bookID]; busy {
		s.mu.Unlock()
		return current, ErrPending
	}
	target := !current
	s.pending[bookID] = target
	epoch := s.epoch
	s.mu.Unlock()

	var err error
	if target {
		err = s.backend.AddFavorite(ctx, bookID)
	} else {
		err = s.backend.RemoveFavorite(ctx, bookID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return current, ErrStale
	}
	delete(s.pending, bookID)
	if err != nil {
		return current, err
	}
	s.flags[bookID] = target
	if target {
		s.count++
	} else {
		s.count = max(0, s.count-1)
		s.dropFromPageLocked(bookID)
	}
	return target, nil
}

// Check asks the server whether bookID is a favorite and records the answer.
// Anonymous users get false without a request.
func (s *Store) Check(ctx context.Context, bookID int64) (bool, error) {
	if s.auth == nil || !s.auth.Authenticated() {
		return false, nil
	}
	epoch := s.currentEpoch()
	fav, err := s.backend.IsFavorited(ctx, bookID)
	if err != nil {
		return s.IsFavorited(bookID), err
	}
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false, ErrStale
	}
	if _, busy := s.pending[bookID]; !busy {
		s.flags[bookID] = fav
	}
	s.mu.Unlock()
	return fav, nil
}

// List fetches one page of favorites and replaces the local snapshot.
func (s *Store) List(ctx context.Context, page, pageSize int, filter string) (api.FavoritePage, error) {
	if s.auth == nil || !s.auth.Authenticated() {
		return api.FavoritePage{}, ErrLoginRequired
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if filter == "" {
		filter = api.FavoritesAll
	}
	epoch := s.currentEpoch()
	res, err := s.backend.Favorites(ctx, api.FavoriteQuery{Page: page, PageSize: pageSize, TimeFilter: filter})
	if err != nil {
		return api.FavoritePage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return api.FavoritePage{}, ErrStale
	}
	s.page = clonePage(res)
	s.filter = filter
	for _, f := range res.Favorites {
		if _, busy := s.pending[f.BookID]; !busy {
			s.flags[f.BookID] = true
		}
	}
	return clonePage(res), nil
}

// RefreshCount reloads the total from the server.
func (s *Store) RefreshCount(ctx context.Context) (int, error) {
	if s.auth == nil || !s.auth.Authenticated() {
		return 0, nil
	}
	epoch := s.currentEpoch()
	n, err := s.backend.FavoriteCount(ctx)
	if err != nil {
		return s.Count(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return 0, ErrStale
	}
	s.count = max(0, n)
	return n, nil
}

// IsFavorited returns the confirmed flag for bookID.
func (s *Store) IsFavorited(bookID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[bookID]
}

// Pending reports whether a toggle for bookID is in flight and the value it
// is trying to reach.
func (s *Store) Pending(bookID int64) (target bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok = s.pending[bookID]
	return target, ok
}

// Count returns the local favorite count.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Page returns the last fetched page and the filter it was fetched with.
func (s *Store) Page() (api.FavoritePage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePage(s.page), s.filter
}

// Reset forgets everything. Called when the signed-in user changes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.flags = make(map[int64]bool)
	s.pending = make(map[int64]bool)
	s.count = 0
	s.page = api.FavoritePage{}
	s.filter = api.FavoritesAll
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) dropFromPageLocked(bookID int64) {
	kept := s.page.Favorites[:0]
	removed := false
	for _, f := range s.page.Favorites {
		if f.BookID == bookID {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	s.page.Favorites = kept
	if removed && s.page.Total > 0 {
		s.page.Total--
	}
}

func clonePage(p api.FavoritePage) api.FavoritePage {
	dup := p
	if p.Favorites != nil {
		dup.Favorites = make([]api.Favorite, len(p.Favorites))
		copy(dup.Favorites, p.Favorites)
	}
	return dup
}
