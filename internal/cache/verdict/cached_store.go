package verdict

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	verdictrepo "onomast/internal/verdict"
)

type Store = verdictrepo.Store

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        10 * time.Minute,
		MaxEntries: 1024,
	}
}

type MetricsSnapshot struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	Entries        int    `json:"entries"`
	OriginReads    uint64 `json:"originReads"`
	OriginWrites   uint64 `json:"originWrites"`
	OriginReadErr  uint64 `json:"originReadErr"`
	OriginWriteErr uint64 `json:"originWriteErr"`
}

type Metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through LRU in front of a durable verdict store.
// Entries only ever come from origin reads: a Put evicts its key, so the
// next Get sees the row the origin actually kept (created_at included).
type CachedStore struct {
	origin  Store
	lru     *expirable.LRU[string, verdictrepo.Record]
	metrics Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &CachedStore{
		origin: origin,
		lru:    expirable.NewLRU[string, verdictrepo.Record](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, rec verdictrepo.Record) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, rec); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.lru.Remove(strings.TrimSpace(rec.Digest))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, digest string) (verdictrepo.Record, error) {
	key := strings.TrimSpace(digest)
	if rec, ok := s.lru.Get(key); ok {
		s.metrics.hits.Add(1)
		return copyRecord(rec), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	rec, err := s.origin.Get(ctx, key)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return verdictrepo.Record{}, err
	}
	s.lru.Add(key, copyRecord(rec))
	return rec, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	snap := s.metrics.snapshot()
	snap.Entries = s.lru.Len()
	return snap
}

func copyRecord(rec verdictrepo.Record) verdictrepo.Record {
	rec.SimilarNames = append([]string{}, rec.SimilarNames...)
	return rec
}
