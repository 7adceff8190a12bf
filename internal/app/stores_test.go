package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onomast/internal/config"
	"onomast/internal/logger"
	"onomast/internal/savedsearch"
	"onomast/internal/verdict"
	verdictstore "onomast/internal/verdict/store"
)

func TestInitStoresMemory(t *testing.T) {
	cfg := config.Default()
	st, err := initStores(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	defer st.Close()

	_, err = st.verdicts.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, verdict.ErrNotFound)
	_, ok := st.saved.(*savedsearch.MemoryStore)
	assert.True(t, ok)
}

func TestInitStoresSQLiteSharesDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "sqlite"
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "onomast.db")
	st, err := initStores(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	defer st.Close()

	_, ok := st.saved.(*savedsearch.SQLStore)
	assert.True(t, ok)

	now := time.Now().UTC()
	rec := verdict.Record{
		Digest: "abc", Name: "Flux", Locale: "en", Positivity: 60, Sentiment: verdict.Positive,
		Reason: "r", WhyGood: "g", WhyBad: "b", RedditTake: "t", SimilarNames: []string{},
		Model: "m", PromptVersion: verdict.PromptVersion, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.verdicts.Put(context.Background(), rec))
	got, err := st.verdicts.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Flux", got.Name)
}

func TestInitStoresBolt(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "bolt"
	cfg.Store.BoltPath = filepath.Join(t.TempDir(), "onomast.bolt")
	st, err := initStores(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}

func TestNewLLMClientFallsBackToFake(t *testing.T) {
	cfg := config.Default()
	c, err := newLLMClient(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "FakeLLM", c.Name())
}

func TestNewReleasesStoresOnFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "bolt"
	cfg.Store.BoltPath = filepath.Join(t.TempDir(), "onomast.bolt")
	cfg.LLM.Provider = "groq"
	cfg.LLM.GroqAPIKey = ""

	_, err := New(context.Background(), &cfg, logger.Nop())
	require.Error(t, err)

	// bbolt holds an exclusive file lock; reopening only works if New let go.
	bs, err := verdictstore.NewBoltStore(cfg.Store.BoltPath)
	require.NoError(t, err)
	assert.NoError(t, bs.Close())
}
