// Package storage persists the task collection into a string-keyed
// key-value slot, the way a mobile app keeps a JSON blob in its shared
// preferences.
package storage

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Slot is a string-keyed store of opaque string values
type Slot interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Put overwrites the value for key.
	Put(key, value string) error
	Delete(key string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	prefsFilename = "TaskTrackerPrefs.json"
	dbFilename    = "tasktracker.db"
)

// Open creates the slot for backend under statePath
func Open(backend, statePath string) (Slot, error) {
	switch backend {
	case "", BackendFile:
		return NewFileSlot(filepath.Join(statePath, prefsFilename)), nil
	case BackendSQLite:
		return OpenSQLiteSlot(filepath.Join(statePath, dbFilename))
	case BackendMemory:
		return NewMemorySlot(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// MemorySlot keeps values in a map. Nothing survives the process.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

func (m *MemorySlot) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySlot) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemorySlot) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemorySlot) Close() error { return nil }
