package savedsearch

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	rows map[[2]string]SavedSearch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[[2]string]SavedSearch)}
}

func (m *MemoryStore) Upsert(_ context.Context, s SavedSearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{s.UserID, s.NormalizedName}
	if prev, ok := m.rows[key]; ok {
		s.ID = prev.ID
		s.CreatedAt = prev.CreatedAt
	}
	m.rows[key] = s
	return nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]SavedSearch, error) {
	m.mu.RLock()
	out := make([]SavedSearch, 0, limit)
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	byName := make(map[string]*LeaderboardEntry)
	for _, s := range m.rows {
		e, ok := byName[s.NormalizedName]
		if !ok {
			byName[s.NormalizedName] = &LeaderboardEntry{
				NormalizedName: s.NormalizedName,
				Name:           s.Name,
				Saves:          1,
				LastSavedAt:    s.UpdatedAt,
			}
			continue
		}
		e.Saves++
		if s.UpdatedAt.After(e.LastSavedAt) {
			e.LastSavedAt = s.UpdatedAt
			e.Name = s.Name
		}
	}
	m.mu.RUnlock()

	out := make([]LeaderboardEntry, 0, len(byName))
	for _, e := range byName {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Saves != out[j].Saves {
			return out[i].Saves > out[j].Saves
		}
		if !out[i].LastSavedAt.Equal(out[j].LastSavedAt) {
			return out[i].LastSavedAt.After(out[j].LastSavedAt)
		}
		return out[i].NormalizedName < out[j].NormalizedName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
