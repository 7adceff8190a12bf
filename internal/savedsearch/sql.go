package savedsearch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"onomast/internal/db"
)

const savedTable = "saved_searches"

var savedColumns = []string{
	"id", "user_id", "normalized_name", "name", "description",
	"region", "language", "latin_name", "created_at", "updated_at",
}

// savedMutable is what a repeat save overwrites; id and created_at stay.
var savedMutable = []string{"name", "description", "region", "language", "latin_name", "updated_at"}

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

func (s *SQLStore) Upsert(ctx context.Context, r SavedSearch) error {
	query, args := s.dialect.Builder().
		Insert(savedTable).
		Columns(savedColumns...).
		Values(
			r.ID, r.UserID, r.NormalizedName, r.Name, r.Description,
			r.Region, r.Language, r.LatinName, r.CreatedAt.UnixMilli(), r.UpdatedAt.UnixMilli(),
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "normalized_name"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range savedMutable {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert saved search: %w", err)
	}
	return nil
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]SavedSearch, error) {
	b := s.dialect.Builder()
	query, args := b.Select(savedColumns...).
		From(b.Table(savedTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("updated_at")).
		Limit(limit).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list saved searches: %w", err)
	}
	defer rows.Close()

	out := make([]SavedSearch, 0, limit)
	for rows.Next() {
		var (
			r                SavedSearch
			created, updated int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.NormalizedName, &r.Name, &r.Description,
			&r.Region, &r.Language, &r.LatinName, &created, &updated); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		r.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query, args := leaderboardQuery(s.dialect, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		var (
			e    LeaderboardEntry
			last int64
		)
		if err := rows.Scan(&e.NormalizedName, &e.Name, &e.Saves, &last); err != nil {
			return nil, err
		}
		e.LastSavedAt = time.UnixMilli(last).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// leaderboardQuery groups saves by normalized name. The display name is the
// most recently saved spelling. Ties fall back to recency, then name.
func leaderboardQuery(d db.Dialect, limit int) (string, []any) {
	b := d.Builder()
	outer := b.Table(savedTable).As("s")
	inner := b.Table(savedTable).As("t")
	latestName := b.Select(inner.C("name")).
		From(inner).
		Where(entsql.ColumnsEQ(inner.C("normalized_name"), outer.C("normalized_name"))).
		OrderBy(entsql.Desc(inner.C("updated_at"))).
		Limit(1)

	sel := b.Select(outer.C("normalized_name")).From(outer)
	return sel.
		AppendSelectExprAs(latestName, "name").
		AppendSelectAs(entsql.Count("*"), "saves").
		AppendSelectAs(entsql.Max(outer.C("updated_at")), "last_saved").
		GroupBy(outer.C("normalized_name")).
		OrderBy(entsql.Desc("saves"), entsql.Desc("last_saved"), outer.C("normalized_name")).
		Limit(limit).
		Query()
}
