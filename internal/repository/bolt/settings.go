// Package bolt stores per-conversation preferences in a local BoltDB file.
// The dataset is a handful of keys, so a key-value file beats a relational
// table here.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var streamingBucket = []byte("streaming_overrides")

// Settings implements repositories.Settings on BoltDB. The database handle
// stays open for the life of the process.
type Settings struct {
	db *bolt.DB
}

// Open opens (or creates) the settings database at path.
func Open(path string) (*Settings, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(streamingBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings bucket: %w", err)
	}
	return &Settings{db: db}, nil
}

// Close releases the database file lock.
func (s *Settings) Close() error {
	return s.db.Close()
}

func (s *Settings) StreamingOverride(_ context.Context, conversationID string) (value bool, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(streamingBucket).Get([]byte(conversationID))
		if raw == nil {
			return nil
		}
		ok = true
		value = len(raw) == 1 && raw[0] == 1
		return nil
	})
	if err != nil {
		return false, false, fmt.Errorf("read streaming override: %w", err)
	}
	return value, ok, nil
}

func (s *Settings) SetStreamingOverride(_ context.Context, conversationID string, value bool) error {
	raw := []byte{0}
	if value {
		raw[0] = 1
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(streamingBucket).Put([]byte(conversationID), raw)
	})
	if err != nil {
		return fmt.Errorf("write streaming override: %w", err)
	}
	return nil
}

func (s *Settings) ClearStreamingOverride(_ context.Context, conversationID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(streamingBucket).Delete([]byte(conversationID))
	})
	if err != nil {
		return fmt.Errorf("clear streaming override: %w", err)
	}
	return nil
}
