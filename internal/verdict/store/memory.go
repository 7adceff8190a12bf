// Package store holds the verdict.Store backends: in-process memory, SQL
// (Postgres or SQLite), Redis, S3-compatible object storage and bbolt.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"onomast/internal/verdict"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]verdict.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]verdict.Record)}
}

func (s *MemoryStore) Get(_ context.Context, digest string) (verdict.Record, error) {
	if s == nil {
		return verdict.Record{}, fmt.Errorf("store is nil")
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return verdict.Record{}, fmt.Errorf("digest is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[digest]
	if !ok {
		return verdict.Record{}, verdict.ErrNotFound
	}
	return clone(rec), nil
}

func (s *MemoryStore) Put(_ context.Context, rec verdict.Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := check(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.data[rec.Digest]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	s.data[rec.Digest] = clone(rec)
	return nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func clone(rec verdict.Record) verdict.Record {
	rec.SimilarNames = append([]string{}, rec.SimilarNames...)
	return rec
}

func check(rec verdict.Record) error {
	if strings.TrimSpace(rec.Digest) == "" {
		return fmt.Errorf("digest is required")
	}
	if rec.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !rec.Sentiment.Valid() {
		return fmt.Errorf("invalid vibe %q", rec.Sentiment)
	}
	return nil
}
