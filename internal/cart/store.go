package cart

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/five82/folio/internal/storage"
)

// Store owns the live cart and writes it through to storage after every
// mutation.
type Store struct {
	mu       sync.Mutex
	kv       storage.Store
	state    State
	onChange []func(State)
}

// Load reads the persisted cart. Missing or malformed data yields an empty
// cart; only storage failures are returned.
func Load(kv storage.Store) (*Store, error) {
	s := &Store{kv: kv, state: State{Items: []Item{}}}
	raw, ok, err := kv.Get(storage.KeyCart)
	if err != nil {
		return s, fmt.Errorf("load cart: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return s, nil
	}
	var persisted State
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		log.Printf("cart: discarding malformed persisted cart: %v", err)
		return s, nil
	}
	if persisted.Items == nil {
		persisted.Items = []Item{}
	}
	s.state = persisted
	return s, nil
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Items: cloneItems(s.state.Items)}
}

// OnChange registers fn to receive the new state after each mutation.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Dispatch applies a and persists the result. The in-memory cart advances even
// when the write fails; the write error is returned.
func (s *Store) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := State{Items: cloneItems(s.state.Items)}
	err := s.persistLocked()
	listeners := append([]func(State){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next, err
}

// Add puts one more copy of item in the cart.
func (s *Store) Add(item Item) (State, error) { return s.Dispatch(Add{Item: item}) }

// Remove drops the line for bookID.
func (s *Store) Remove(bookID int64) (State, error) { return s.Dispatch(Remove{BookID: bookID}) }

// SetQuantity sets the quantity for bookID; n < 1 removes the line.
func (s *Store) SetQuantity(bookID int64, n int) (State, error) {
	return s.Dispatch(SetQuantity{BookID: bookID, N: n})
}

// Clear empties the cart.
func (s *Store) Clear() (State, error) { return s.Dispatch(Clear{}) }

func (s *Store) persistLocked() error {
	buf, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(storage.KeyCart, string(buf)); err != nil {
		log.Printf("cart: persist failed: %v", err)
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
