package catalog

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mu        sync.Mutex
	tracks    map[string]Track
	playlists []Playlist

	loadErr error
	saveErr error
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{tracks: make(map[string]Track)}
}

func (m *MockStore) LoadTracks() ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) SaveTracks(tracks []Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, t := range tracks {
		m.tracks[t.ID] = t
	}
	return nil
}

func (m *MockStore) LoadPlaylists() ([]Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]Playlist, len(m.playlists))
	copy(out, m.playlists)
	return out, nil
}

func (m *MockStore) SavePlaylists(playlists []Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.playlists = make([]Playlist, len(playlists))
	copy(m.playlists, playlists)
	return nil
}

func (m *MockStore) IncrementPlayCount(trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracks[trackID]
	if !ok {
		return fmt.Errorf("track %s not found", trackID)
	}
	t.PlayCount++
	now := time.Now()
	t.LastPlayedAt = &now
	m.tracks[trackID] = t
	return nil
}

func (m *MockStore) ToggleFavorite(trackID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracks[trackID]
	if !ok {
		return false, fmt.Errorf("track %s not found", trackID)
	}
	t.Favorite = !t.Favorite
	m.tracks[trackID] = t
	return t.Favorite, nil
}

func (m *MockStore) RecentlyPlayed(limit int) ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Track
	for _, t := range m.tracks {
		if t.LastPlayedAt != nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastPlayedAt.After(*out[j].LastPlayedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) TopHits(limit int) ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Track
	for _, t := range m.tracks {
		if t.PlayCount > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayCount > out[j].PlayCount })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) Favorites() ([]Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Track
	for _, t := range m.tracks {
		if t.Favorite {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) Close() error { return nil }

// Test helpers

func (m *MockStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Track returns the stored record for id, if any.
func (m *MockStore) Track(id string) (Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracks[id]
	return t, ok
}
