package verdict

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	verdictrepo "onomast/internal/verdict"
)

type fakeOriginStore struct {
	mu sync.Mutex

	data map[string]verdictrepo.Record

	getCalls int
	putCalls int

	failPut bool
	failGet bool
}

func newFakeOriginStore() *fakeOriginStore {
	return &fakeOriginStore{data: map[string]verdictrepo.Record{}}
}

func (s *fakeOriginStore) Put(_ context.Context, rec verdictrepo.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.failPut {
		return fmt.Errorf("put failed")
	}
	if prev, ok := s.data[rec.Digest]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	s.data[rec.Digest] = rec
	return nil
}

func (s *fakeOriginStore) Get(_ context.Context, digest string) (verdictrepo.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.failGet {
		return verdictrepo.Record{}, fmt.Errorf("get failed")
	}
	rec, ok := s.data[digest]
	if !ok {
		return verdictrepo.Record{}, verdictrepo.ErrNotFound
	}
	return rec, nil
}

func record(digest string) verdictrepo.Record {
	return verdictrepo.Record{
		Digest: digest, Name: "Flux", Positivity: 70, Sentiment: verdictrepo.Positive,
		SimilarNames: []string{"Fluxx"},
	}
}

func TestCachedStoreReadThroughAndMetrics(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["d1"] = record("d1")
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, "d1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != "Flux" {
			t.Fatalf("unexpected record: %+v", got)
		}
	}
	if origin.getCalls != 1 {
		t.Fatalf("origin get calls = %d, want 1", origin.getCalls)
	}
	m := store.Metrics()
	if m.Hits != 2 || m.Misses != 1 || m.OriginReads != 1 || m.Entries != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestCachedStoreMissIsNotCached(t *testing.T) {
	origin := newFakeOriginStore()
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.Get(ctx, "nope"); err != verdictrepo.ErrNotFound {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if origin.getCalls != 2 {
		t.Fatalf("origin get calls = %d, want 2", origin.getCalls)
	}
	if m := store.Metrics(); m.OriginReadErr != 2 {
		t.Fatalf("origin read errors = %d, want 2", m.OriginReadErr)
	}
}

func TestCachedStorePutEvictsStaleEntry(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["d1"] = record("d1")
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	if _, err := store.Get(ctx, "d1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	updated := record("d1")
	updated.Positivity = 20
	if err := store.Put(ctx, updated); err != nil {
		t.Fatalf("put: %v", err)
	}
	if n := store.Metrics().Entries; n != 0 {
		t.Fatalf("entries after put = %d, want 0", n)
	}
	got, err := store.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Positivity != 20 {
		t.Fatalf("positivity = %d, want 20", got.Positivity)
	}
	if origin.getCalls != 2 {
		t.Fatalf("origin get calls = %d, want 2", origin.getCalls)
	}
}

func TestCachedStoreKeepsOriginCreatedAt(t *testing.T) {
	origin := newFakeOriginStore()
	first := record("d1")
	first.CreatedAt = time.UnixMilli(1000).UTC()
	origin.data["d1"] = first
	// Cold cache, as after a restart or eviction.
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	again := record("d1")
	again.CreatedAt = time.UnixMilli(2000).UTC()
	if err := store.Put(ctx, again); err != nil {
		t.Fatalf("put: %v", err)
	}
	for i := 0; i < 2; i++ {
		got, err := store.Get(ctx, "d1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.CreatedAt.Equal(first.CreatedAt) {
			t.Fatalf("created_at = %v, want %v", got.CreatedAt, first.CreatedAt)
		}
	}
}

func TestCachedStoreFailedPutDoesNotPopulate(t *testing.T) {
	origin := newFakeOriginStore()
	origin.failPut = true
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	if err := store.Put(ctx, record("d1")); err == nil {
		t.Fatalf("expected put error")
	}
	if _, err := store.Get(ctx, "d1"); err != verdictrepo.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	m := store.Metrics()
	if m.OriginWrites != 1 || m.OriginWriteErr != 1 || m.Entries != 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestCachedStoreReturnsCopies(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["d1"] = record("d1")
	store := NewCachedStore(origin, CacheConfig{TTL: time.Minute, MaxEntries: 8})
	ctx := context.Background()

	got, _ := store.Get(ctx, "d1")
	got.SimilarNames[0] = "mutated"
	again, _ := store.Get(ctx, "d1")
	if again.SimilarNames[0] != "Fluxx" {
		t.Fatalf("cache entry was mutated: %v", again.SimilarNames)
	}
}

func TestCachedStoreExpires(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["d1"] = record("d1")
	store := NewCachedStore(origin, CacheConfig{TTL: 20 * time.Millisecond, MaxEntries: 8})
	ctx := context.Background()

	_, _ = store.Get(ctx, "d1")
	time.Sleep(60 * time.Millisecond)
	_, _ = store.Get(ctx, "d1")
	if origin.getCalls != 2 {
		t.Fatalf("origin get calls = %d, want 2 after expiry", origin.getCalls)
	}
}
