// Package verdict turns a complete availability picture plus the user's
// framing of a name into an AI opinion, memoized by a digest of every input
// that can change that opinion.
package verdict

import (
	"context"
	"errors"
	"time"

	"onomast/internal/availability"
)

// PromptVersion is part of every digest. Bumping it is the only way to
// invalidate cached verdicts in bulk.
const PromptVersion = 3

var (
	ErrNotFound     = errors.New("verdict: not found")
	ErrInvalidInput = errors.New("verdict: invalid input")
	// ErrSignalsPending is returned when asked for a verdict before every
	// probe has settled.
	ErrSignalsPending = errors.New("verdict: availability snapshot not ready")
)

// OwnedAssets are sources the user already controls. They are declared, not
// probed, and are sorted before hashing.
type OwnedAssets struct {
	Domains  []string `json:"domains"`
	Social   []string `json:"social"`
	Packages []string `json:"packages"`
	GitHub   bool     `json:"github"`
}

// Input is everything that may influence a verdict's text. Nothing outside
// it is allowed into the prompt.
type Input struct {
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Region        string                `json:"region"`
	Language      string                `json:"language"`
	Locale        string                `json:"locale"`
	Handle        string                `json:"handle"`
	Snapshot      availability.Snapshot `json:"snapshot"`
	Owned         OwnedAssets           `json:"owned"`
	Model         string                `json:"model"`
	PromptVersion int                   `json:"promptVersion"`
}

type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

func (s Sentiment) Valid() bool {
	return s == Positive || s == Neutral || s == Negative
}

// Record is a generated verdict together with the canonical inputs it was
// generated for. At most one Record exists per Digest.
type Record struct {
	Digest        string    `json:"inputHash"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Region        string    `json:"region,omitempty"`
	Language      string    `json:"language,omitempty"`
	Locale        string    `json:"locale"`
	Positivity    int       `json:"positivity"`
	Sentiment     Sentiment `json:"vibe"`
	Reason        string    `json:"reason"`
	WhyGood       string    `json:"whyGood"`
	WhyBad        string    `json:"whyBad"`
	RedditTake    string    `json:"redditTake"`
	SimilarNames  []string  `json:"similarCompanies"`
	Model         string    `json:"model"`
	PromptVersion int       `json:"promptVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store is the content-addressed verdict cache. Get returns ErrNotFound on a
// miss. Put upserts by Digest; concurrent Puts for one digest leave exactly
// one record (last write wins) and keep the first CreatedAt.
type Store interface {
	Get(ctx context.Context, digest string) (Record, error)
	Put(ctx context.Context, rec Record) error
}
