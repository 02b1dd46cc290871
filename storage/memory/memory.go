// Package memory provides an in-memory serial number store, used in tests
// and whenever durability across restarts is not required.
package memory

import (
	"sync"

	"github.com/bkern/mqttpki/storage"
)

// Store implements storage.SerialStore with a mutex-guarded map.
type Store struct {
	mu       sync.Mutex
	counters map[string]uint64
}

var _ storage.SerialStore = (*Store)(nil)

// NewStore returns an empty in-memory serial store.
func NewStore() *Store {
	return &Store{counters: make(map[string]uint64)}
}

// Next increments and returns the counter for the CA fingerprint.
func (s *Store) Next(caFingerprint string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[caFingerprint]++
	return s.counters[caFingerprint], nil
}
