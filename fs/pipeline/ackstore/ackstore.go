// Package ackstore persists the batch bookkeeping a pipeline source
// needs to survive a restart without losing track of which batches of
// events it already handed to the dedup pool but has not yet seen
// acknowledged by every consumer.
package ackstore

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Record is what SaveBatch persists for one in-flight batch.
type Record struct {
	EventCount int       `json:"event_count"`
	DedupUsed  bool      `json:"dedup_used"`
	SavedAt    time.Time `json:"saved_at"`
}

// Store wraps a bolt.DB with one bucket per source name.
type Store struct {
	db *bolt.DB
}

// Open connects to (creating if absent) the bolt.DB file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bucketName(source string) []byte {
	return []byte("source:" + source)
}

// SaveBatch records that source handed off a batch of count events,
// identified by id, noting whether the dedup pool touched it.
func (s *Store) SaveBatch(source string, id uuid.UUID, count int, dedupUsed bool) error {
	rec := Record{EventCount: count, DedupUsed: dedupUsed, SavedAt: time.Now()}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(s.bucketName(source))
		if err != nil {
			return err
		}
		return bucket.Put(id[:], encoded)
	})
}

// AckBatch removes a batch's record once every consumer has applied
// it, so a restart no longer replays it.
func (s *Store) AckBatch(source string, id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucketName(source))
		if bucket == nil {
			return nil
		}
		return bucket.Delete(id[:])
	})
}

// Pending lists every unacknowledged batch for source, for a source to
// replay on restart.
func (s *Store) Pending(source string) (map[uuid.UUID]Record, error) {
	out := map[uuid.UUID]Record{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucketName(source))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			id, err := uuid.FromBytes(k)
			if err != nil {
				return err
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out[id] = rec
			return nil
		})
	})
	return out, err
}
