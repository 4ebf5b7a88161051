// Package store persists the batch record as a small key/value map.
// Missing keys read as their default and unreadable storage reads as
// empty; only writes can fail.
package store

import (
	"encoding/json"
	"fmt"
	"log"
)

// Backend holds the raw key/value map.
type Backend interface {
	// Load returns every stored key.
	Load() (map[string]json.RawMessage, error)
	// Put stores one key.
	Put(key string, value json.RawMessage) error
	Close() error
}

// Store is the typed key/value interface over a Backend.
type Store struct {
	backend Backend
}

// New wraps backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Open creates the store for driver ("json" or "sqlite") at path.
func Open(driver, path string) (*Store, error) {
	switch driver {
	case "json":
		b, err := NewFileBackend(path)
		if err != nil {
			return nil, err
		}
		return New(b), nil
	case "sqlite":
		b, err := NewSQLiteBackend(path)
		if err != nil {
			return nil, err
		}
		return New(b), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func (s *Store) all() map[string]json.RawMessage {
	m, err := s.backend.Load()
	if err != nil {
		log.Printf("store: load failed, using empty state: %v", err)
		return map[string]json.RawMessage{}
	}
	return m
}

// Get decodes key into a T, returning def when the key is missing, null
// or does not decode.
func Get[T any](s *Store, key string, def T) T {
	return decode(s.all(), key, def)
}

func decode[T any](m map[string]json.RawMessage, key string, def T) T {
	raw, ok := m[key]
	if !ok {
		return def
	}
	v := def
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("store: decode %s: %v", key, err)
		return def
	}
	return v
}

// Has reports whether key is stored.
func (s *Store) Has(key string) bool {
	_, ok := s.all()[key]
	return ok
}

// Set stores value under key.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Put(key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	log.Printf("store: write %s=%s", key, raw)
	return nil
}

// Modify stores value under key like Set, logging whether the key was
// added or changed.
func (s *Store) Modify(key string, value any) error {
	if s.Has(key) {
		log.Printf("store: modify %s", key)
	} else {
		log.Printf("store: add %s", key)
	}
	return s.Set(key, value)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
