// Package storage persists small client-side values (cart, bearer tokens,
// cached admin profile) in the user's state directory.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Keys used by folio. Values are opaque strings; JSON payloads are encoded by
// their owners.
const (
	KeyCart       = "cart"
	KeyToken      = "token"
	KeyAdminToken = "admin_token"
	KeyAdminUser  = "admin_user"
)

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage closed")

// Store is a durable string key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Open returns the store for driver rooted at dir.
func Open(driver, dir string) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("state dir is empty")
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverFile:
		return OpenFile(filepath.Join(dir, "storage.json"))
	case DriverSQLite:
		return OpenSQLite(filepath.Join(dir, "storage.db"))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Memory is a non-durable Store used by tests and one-shot commands.
type Memory struct {
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error { return nil }
