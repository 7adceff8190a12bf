package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"onomast/internal/verdict"
)

var verdictBucket = []byte("verdicts")

// BoltStore is a single-file embedded store for local runs.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("bolt path is required")
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(verdictBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, digest string) (verdict.Record, error) {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return verdict.Record{}, fmt.Errorf("digest is required")
	}
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(verdictBucket).Get([]byte(digest)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return verdict.Record{}, err
	}
	if raw == nil {
		return verdict.Record{}, verdict.ErrNotFound
	}
	return decodeRecord(raw)
}

func (s *BoltStore) Put(_ context.Context, rec verdict.Record) error {
	if err := check(rec); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(verdictBucket)
		if prev := b.Get([]byte(rec.Digest)); prev != nil {
			if old, err := decodeRecord(prev); err == nil {
				rec.CreatedAt = old.CreatedAt
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.Digest), data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
