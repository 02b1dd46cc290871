// Package bbolt provides a BBolt-backed serial number store.
package bbolt

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/bkern/mqttpki/storage"
)

var serialsBucket = []byte("serials")

// Store implements storage.SerialStore backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.SerialStore = (*Store)(nil)

// NewStore returns a SerialStore backed by the given BBolt database.
func NewStore(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewStoreFromFile opens a BBolt database at the given path and returns a
// new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Next increments and returns the counter for the CA fingerprint. The
// read-increment-write runs inside a single write transaction, so concurrent
// callers always observe distinct values.
func (s *Store) Next(caFingerprint string) (uint64, error) {
	var next uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(serialsBucket)
		if err != nil {
			return err
		}
		key := []byte(caFingerprint)
		if data := b.Get(key); data != nil {
			next = binary.BigEndian.Uint64(data)
		}
		next++
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], next)
		return b.Put(key, buf[:])
	})
	if err != nil {
		return 0, fmt.Errorf("advancing serial counter: %w", err)
	}
	return next, nil
}
