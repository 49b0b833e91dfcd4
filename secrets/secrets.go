// Package secrets defines the secret storage abstraction used by stockauth.
//
// A Store persists small key/value secrets (tokens, saved credentials) across
// process restarts. The package ships an in-memory implementation for tests and
// ephemeral sessions; the keyring subpackage provides an encrypted file-backed
// implementation for real deployments.
package secrets

import "sync"

// Store persists small key/value secrets.
//
// Get returns an empty string for a missing key; an error indicates the
// backing store itself failed (file unreadable, keystore locked). Callers in
// stockauth treat store failures on reads as "value absent" and continue in a
// degraded state rather than failing the session.
type Store interface {
	// Get retrieves the value for key. A missing key is ("", nil).
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// MemoryStore is an in-memory Store. Values do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get retrieves the value for key.
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove deletes key.
func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Snapshot returns a copy of all stored values. Useful in tests to assert on
// exactly what has been persisted.
func (s *MemoryStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
