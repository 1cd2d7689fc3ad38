package reader

import (
	"encoding/binary"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketPositions = []byte("read_positions") // path -> offset

// boltPositionStore implements PositionStore using BoltDB.
type boltPositionStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltPositionStore creates a BoltDB-based position store.
func NewBoltPositionStore(db *bolt.DB) (PositionStore, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketPositions)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create positions bucket: %w", err)
	}

	return &boltPositionStore{db: db}, nil
}

// GetPosition implements PositionStore.GetPosition.
func (s *boltPositionStore) GetPosition(path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var offset int64
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPositions).Get([]byte(path))
		if data == nil {
			offset = 0
			return nil
		}
		if len(data) != 8 {
			return fmt.Errorf("corrupt offset for %s: %d bytes", path, len(data))
		}
		offset = int64(binary.BigEndian.Uint64(data)) // nolint:gosec
		return nil
	})
	if err != nil {
		return 0, err
	}

	return offset, nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *boltPositionStore) SetPosition(path string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		var data [8]byte
		binary.BigEndian.PutUint64(data[:], uint64(offset)) // nolint:gosec
		if err := tx.Bucket(bucketPositions).Put([]byte(path), data[:]); err != nil {
			return fmt.Errorf("failed to store position: %w", err)
		}
		return nil
	})
}

// memoryPositionStore implements PositionStore with a map. Useful for
// tests and one-shot runs that need no persistence.
type memoryPositionStore struct {
	positions map[string]int64
	mu        sync.RWMutex
}

// NewMemoryPositionStore creates an in-memory position store.
func NewMemoryPositionStore() PositionStore {
	return &memoryPositionStore{
		positions: make(map[string]int64),
	}
}

// GetPosition implements PositionStore.GetPosition.
func (s *memoryPositionStore) GetPosition(path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.positions[path], nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *memoryPositionStore) SetPosition(path string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[path] = offset
	return nil
}
