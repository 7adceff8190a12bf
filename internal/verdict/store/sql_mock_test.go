package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onomast/internal/db"
	"onomast/internal/verdict"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	s, err := NewSQLStore(conn, db.Postgres)
	require.NoError(t, err)
	return s, mock
}

const (
	selectPattern = `SELECT .+ FROM "vibe_checks" WHERE "input_hash" = \$1`
	upsertPattern = `INSERT INTO "vibe_checks" .+ VALUES \(\$1, .+\$17\) ON CONFLICT \("input_hash"\) DO UPDATE SET .*updated_at`
)

func TestSQLStoreGetPostgres(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(selectPattern).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(verdictColumns).AddRow(
			"abc", "Flux", "", "", "", "ko",
			61, "positive", "r", "g", "b", "t", `["A","B"]`,
			"gemini-2.5-flash", 3, int64(1_700_000_000_000), int64(1_700_000_360_000),
		))

	rec, err := s.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ko", rec.Locale)
	assert.Equal(t, verdict.Positive, rec.Sentiment)
	assert.Equal(t, []string{"A", "B"}, rec.SimilarNames)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(selectPattern).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(verdictColumns))

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, verdict.ErrNotFound)
}

func TestSQLStoreGetError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(selectPattern).
		WithArgs("abc").
		WillReturnError(errors.New("connection reset"))

	_, err := s.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, verdict.ErrNotFound)
}

func TestSQLStorePutUpserts(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.UnixMilli(1_700_000_000_000)
	rec := sampleRecord("abc", at)
	rec.SimilarNames = nil

	mock.ExpectExec(upsertPattern).
		WithArgs(
			"abc", "Flux", "a build tool", "", "", "en",
			72, "positive", "short", "memorable", "crowded", "bold", "[]",
			"gemini-2.5-flash", verdict.PromptVersion, at.UnixMilli(), at.UnixMilli(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Put(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreUpsertKeepsCreatedAt(t *testing.T) {
	query, _ := upsertVerdict(db.Postgres, make([]any, len(verdictColumns))...)
	_, set, ok := strings.Cut(query, "DO UPDATE SET")
	require.True(t, ok, query)
	assert.NotContains(t, set, `"created_at"`)
	assert.NotContains(t, set, `"input_hash"`)
	assert.Contains(t, set, `"updated_at"`)
}
