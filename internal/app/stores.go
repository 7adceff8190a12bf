package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	verdictcache "onomast/internal/cache/verdict"
	"onomast/internal/config"
	"onomast/internal/db"
	"onomast/internal/logger"
	"onomast/internal/savedsearch"
	"onomast/internal/verdict"
	verdictstore "onomast/internal/verdict/store"
)

type stores struct {
	verdicts *verdictcache.CachedStore
	saved    savedsearch.Store
	closers  []io.Closer
}

// initStores builds the verdict origin named by cfg.Store.Backend behind an
// in-process LRU. Saved searches live in the SQL database when there is one
// and in memory otherwise.
func initStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *stores, err error) {
	out := &stores{}
	defer func() {
		if err != nil {
			_ = out.Close()
		}
	}()
	var origin verdict.Store

	switch strings.ToLower(cfg.Store.Backend) {
	case "postgres":
		conn, err := openSQL(ctx, db.Postgres, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		out.closers = append(out.closers, conn)
		if origin, out.saved, err = sqlStores(conn, db.Postgres); err != nil {
			return nil, err
		}
	case "sqlite":
		conn, err := openSQL(ctx, db.SQLite, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		out.closers = append(out.closers, conn)
		if origin, out.saved, err = sqlStores(conn, db.SQLite); err != nil {
			return nil, err
		}
	case "redis":
		rs, err := verdictstore.NewRedisStore(verdictstore.RedisConfig{Addr: cfg.Store.RedisAddr, DB: cfg.Store.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis verdict store: %w", err)
		}
		out.closers = append(out.closers, rs)
		origin = rs
	case "s3":
		a := cfg.Store.Artifact
		s3, err := verdictstore.NewS3Store(verdictstore.S3Config{
			Endpoint:  a.Endpoint,
			Region:    a.Region,
			AccessKey: a.AccessKey,
			SecretKey: a.SecretKey,
			Bucket:    a.Bucket,
			UseSSL:    a.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 verdict store: %w", err)
		}
		origin = s3
	case "bolt":
		bs, err := verdictstore.NewBoltStore(cfg.Store.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt verdict store: %w", err)
		}
		out.closers = append(out.closers, bs)
		origin = bs
	default:
		origin = verdictstore.NewMemoryStore()
	}
	if out.saved == nil {
		out.saved = savedsearch.NewMemoryStore()
	}

	out.verdicts = verdictcache.NewCachedStore(origin, verdictcache.CacheConfig{
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.Size,
	})
	log.Info("verdict store ready", "backend", cfg.Store.Backend, "cache_entries", cfg.Cache.Size, "cache_ttl", cfg.Cache.TTL)
	return out, nil
}

func openSQL(ctx context.Context, dialect db.Dialect, dsn string) (*sql.DB, error) {
	conn, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func sqlStores(conn *sql.DB, dialect db.Dialect) (verdict.Store, savedsearch.Store, error) {
	vs, err := verdictstore.NewSQLStore(conn, dialect)
	if err != nil {
		return nil, nil, err
	}
	ss, err := savedsearch.NewSQLStore(conn, dialect)
	if err != nil {
		return nil, nil, err
	}
	return vs, ss, nil
}

func (s *stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
