// Package store persists aggregated record snapshots in BoltDB.
//
// A snapshot is the grouped output of one aggregation run for a named
// job. Because every grouped record carries self-describing, re-mergeable
// metadata, a loaded snapshot can re-enter the engine as input: either
// to merge partials produced by independent workers, or to augment an
// earlier result with newly arrived raw records.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/statfold/statfold/pkg/record"
)

var (
	bucketSnapshots = []byte("snapshots")     // job name -> snapshot ID
	bucketPayloads  = []byte("snapshot_data") // snapshot ID -> payload
)

// Snapshot is one persisted aggregation result.
type Snapshot struct {
	// ID uniquely identifies this snapshot.
	ID string `json:"id"`

	// Job is the job name the snapshot belongs to.
	Job string `json:"job"`

	// TakenAt is when the snapshot was saved.
	TakenAt time.Time `json:"takenAt"`

	// Records is the grouped, metadata-bearing output.
	Records []record.Record `json:"records"`
}

// SnapshotStore persists and retrieves aggregation snapshots.
type SnapshotStore interface {
	// Save stores records as the current snapshot for job, replacing
	// any previous one, and returns the snapshot ID.
	Save(job string, records []record.Record) (string, error)

	// Load returns the current snapshot for job.
	Load(job string) (*Snapshot, error)

	// List returns the job names that have a snapshot.
	List() ([]string, error)

	// Delete removes the snapshot for job. Deleting a job without a
	// snapshot is a no-op.
	Delete(job string) error
}

// boltSnapshotStore implements SnapshotStore using BoltDB.
type boltSnapshotStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltSnapshotStore creates a BoltDB-based snapshot store.
func NewBoltSnapshotStore(db *bolt.DB) (SnapshotStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSnapshots); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketPayloads)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot buckets: %w", err)
	}

	return &boltSnapshotStore{db: db}, nil
}

// Save implements SnapshotStore.Save.
func (s *boltSnapshotStore) Save(job string, records []record.Record) (string, error) {
	if job == "" {
		return "", ErrNoJobName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Sanitize so non-finite derived values do not break marshaling.
	clean := make([]record.Record, len(records))
	for i, r := range records {
		clean[i] = record.Sanitize(r)
	}

	snap := Snapshot{
		ID:      uuid.NewString(),
		Job:     job,
		TakenAt: time.Now().UTC(),
		Records: clean,
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		jobs := tx.Bucket(bucketSnapshots)
		payloads := tx.Bucket(bucketPayloads)

		// Drop the payload of the snapshot being replaced.
		if old := jobs.Get([]byte(job)); old != nil {
			if delErr := payloads.Delete(old); delErr != nil {
				return delErr
			}
		}

		if putErr := payloads.Put([]byte(snap.ID), payload); putErr != nil {
			return putErr
		}
		return jobs.Put([]byte(job), []byte(snap.ID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to store snapshot: %w", err)
	}

	return snap.ID, nil
}

// Load implements SnapshotStore.Load.
func (s *boltSnapshotStore) Load(job string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketSnapshots).Get([]byte(job))
		if id == nil {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, job)
		}

		payload := tx.Bucket(bucketPayloads).Get(id)
		if payload == nil {
			return fmt.Errorf("%w: %s (dangling id %s)", ErrSnapshotNotFound, job, id)
		}

		return decodeSnapshot(payload, &snap)
	})
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// List implements SnapshotStore.List.
func (s *boltSnapshotStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, _ []byte) error {
			jobs = append(jobs, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// Delete implements SnapshotStore.Delete.
func (s *boltSnapshotStore) Delete(job string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		jobs := tx.Bucket(bucketSnapshots)
		id := jobs.Get([]byte(job))
		if id == nil {
			return nil
		}
		if err := tx.Bucket(bucketPayloads).Delete(id); err != nil {
			return err
		}
		return jobs.Delete([]byte(job))
	})
}

// decodeSnapshot unmarshals a payload with numeric precision preserved,
// so metadata decimals survive the storage round trip.
func decodeSnapshot(payload []byte, snap *Snapshot) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(snap); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return nil
}
