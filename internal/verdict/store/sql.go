package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"onomast/internal/db"
	"onomast/internal/verdict"
)

const verdictTable = "vibe_checks"

var verdictColumns = []string{
	"input_hash", "name", "description", "region", "language", "locale",
	"positivity", "vibe", "reason", "why_good", "why_bad", "reddit_take", "similar_companies",
	"model", "prompt_version", "created_at", "updated_at",
}

// verdictMutable is what an upsert overwrites; input_hash and created_at stay.
var verdictMutable = []string{
	"name", "description", "region", "language", "locale",
	"positivity", "vibe", "reason", "why_good", "why_bad", "reddit_take", "similar_companies",
	"model", "prompt_version", "updated_at",
}

// SQLStore keeps verdicts in the vibe_checks table. The unique index on
// input_hash makes concurrent Puts for one digest converge on a single row.
type SQLStore struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewSQLStore(conn *sql.DB, dialect db.Dialect) (*SQLStore, error) {
	if conn == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &SQLStore{db: conn, dialect: dialect}, nil
}

func (s *SQLStore) Get(ctx context.Context, digest string) (verdict.Record, error) {
	if s == nil || s.db == nil {
		return verdict.Record{}, fmt.Errorf("store is nil")
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return verdict.Record{}, fmt.Errorf("digest is required")
	}
	var (
		rec       verdict.Record
		vibe      string
		similar   string
		createdAt int64
		updatedAt int64
	)
	b := s.dialect.Builder()
	query, args := b.Select(verdictColumns...).
		From(b.Table(verdictTable)).
		Where(entsql.EQ("input_hash", digest)).
		Query()
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.Digest, &rec.Name, &rec.Description, &rec.Region, &rec.Language, &rec.Locale,
		&rec.Positivity, &vibe, &rec.Reason, &rec.WhyGood, &rec.WhyBad, &rec.RedditTake, &similar,
		&rec.Model, &rec.PromptVersion, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return verdict.Record{}, verdict.ErrNotFound
	}
	if err != nil {
		return verdict.Record{}, fmt.Errorf("select verdict: %w", err)
	}
	rec.Sentiment = verdict.Sentiment(vibe)
	rec.SimilarNames = []string{}
	if similar != "" {
		if err := json.Unmarshal([]byte(similar), &rec.SimilarNames); err != nil {
			return verdict.Record{}, fmt.Errorf("decode similar_companies: %w", err)
		}
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return rec, nil
}

func (s *SQLStore) Put(ctx context.Context, rec verdict.Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	if err := check(rec); err != nil {
		return err
	}
	similar := rec.SimilarNames
	if similar == nil {
		similar = []string{}
	}
	raw, err := json.Marshal(similar)
	if err != nil {
		return fmt.Errorf("encode similar_companies: %w", err)
	}
	query, args := upsertVerdict(s.dialect,
		rec.Digest, rec.Name, rec.Description, rec.Region, rec.Language, rec.Locale,
		rec.Positivity, string(rec.Sentiment), rec.Reason, rec.WhyGood, rec.WhyBad, rec.RedditTake, string(raw),
		rec.Model, rec.PromptVersion, rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert verdict: %w", err)
	}
	return nil
}

// upsertVerdict inserts one row in verdictColumns order, or overwrites the
// mutable columns of the row already holding that input_hash.
func upsertVerdict(d db.Dialect, values ...any) (string, []any) {
	return d.Builder().
		Insert(verdictTable).
		Columns(verdictColumns...).
		Values(values...).
		OnConflict(
			entsql.ConflictColumns("input_hash"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range verdictMutable {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
}
