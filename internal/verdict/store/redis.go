package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"onomast/internal/verdict"
)

const redisKeyPrefix = "onomast:verdict:"

// RedisStore keeps one JSON value per digest. Put runs under WATCH so the
// first CreatedAt survives concurrent writers.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Addr string
	DB   int
	// TTL of zero keeps verdicts forever.
	TTL time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: cfg.TTL}, nil
}

func (s *RedisStore) Get(ctx context.Context, digest string) (verdict.Record, error) {
	if s == nil || s.rdb == nil {
		return verdict.Record{}, fmt.Errorf("store is nil")
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return verdict.Record{}, fmt.Errorf("digest is required")
	}
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+digest).Bytes()
	if errors.Is(err, goredis.Nil) {
		return verdict.Record{}, verdict.ErrNotFound
	}
	if err != nil {
		return verdict.Record{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeRecord(raw)
}

func (s *RedisStore) Put(ctx context.Context, rec verdict.Record) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("store is nil")
	}
	if err := check(rec); err != nil {
		return err
	}
	key := redisKeyPrefix + rec.Digest
	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return err
		default:
			if prev, derr := decodeRecord(raw); derr == nil {
				rec.CreatedAt = prev.CreatedAt
			}
		}
		out, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, out, s.ttl)
			return nil
		})
		return err
	}
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func decodeRecord(raw []byte) (verdict.Record, error) {
	var rec verdict.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return verdict.Record{}, fmt.Errorf("decode verdict: %w", err)
	}
	if rec.SimilarNames == nil {
		rec.SimilarNames = []string{}
	}
	return rec, nil
}
