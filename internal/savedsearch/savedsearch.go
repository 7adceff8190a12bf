// Package savedsearch records the names a user has bookmarked and ranks
// names by how many users saved them.
package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	listLimit          = 20
	defaultLeaderboard = 50
	maxLeaderboard     = 100
)

var (
	ErrUnauthenticated = errors.New("savedsearch: unauthenticated")
	ErrInvalidInput    = errors.New("savedsearch: invalid input")
)

type SaveInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Region      string `json:"region,omitempty"`
	Language    string `json:"language,omitempty"`
	LatinName   string `json:"latinName,omitempty"`
}

type SavedSearch struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	NormalizedName string    `json:"normalizedName"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Region         string    `json:"region,omitempty"`
	Language       string    `json:"language,omitempty"`
	LatinName      string    `json:"latinName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type LeaderboardEntry struct {
	NormalizedName string    `json:"normalizedName"`
	Name           string    `json:"name"`
	Saves          int       `json:"saves"`
	LastSavedAt    time.Time `json:"lastSavedAt"`
}

// Store persists saved searches. Upsert matches on (UserID, NormalizedName)
// and keeps the existing ID and CreatedAt.
type Store interface {
	Upsert(ctx context.Context, s SavedSearch) error
	ListByUser(ctx context.Context, userID string, limit int) ([]SavedSearch, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("savedsearch: store is required")
	}
	return &Service{store: store, now: time.Now}, nil
}

// Normalize is the grouping key for a name: trimmed and lower-cased.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Service) Save(ctx context.Context, userID string, in SaveInput) (SavedSearch, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SavedSearch{}, ErrUnauthenticated
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return SavedSearch{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	rec := SavedSearch{
		ID:             uuid.NewString(),
		UserID:         userID,
		NormalizedName: Normalize(name),
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		Region:         strings.TrimSpace(in.Region),
		Language:       strings.TrimSpace(in.Language),
		LatinName:      strings.TrimSpace(in.LatinName),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return SavedSearch{}, fmt.Errorf("savedsearch: save: %w", err)
	}
	return rec, nil
}

// List returns the user's most recently saved names, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]SavedSearch, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	out, err := s.store.ListByUser(ctx, userID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("savedsearch: list: %w", err)
	}
	if out == nil {
		out = []SavedSearch{}
	}
	return out, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	out, err := s.store.Leaderboard(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("savedsearch: leaderboard: %w", err)
	}
	if out == nil {
		out = []LeaderboardEntry{}
	}
	return out, nil
}

// ClampLimit maps a requested leaderboard size into [1, 100]; zero means the
// default of 50.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultLeaderboard
	case limit < 1:
		return 1
	case limit > maxLeaderboard:
		return maxLeaderboard
	}
	return limit
}
