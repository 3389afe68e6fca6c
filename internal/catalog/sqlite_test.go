package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTrack(id string) Track {
	return Track{
		ID:       id,
		Title:    "Title " + id,
		Artist:   "Artist " + id,
		Media:    "/music/" + id + ".mp3",
		Duration: 3 * time.Minute,
		Tags:     []string{"rock"},
	}
}

func TestSQLiteStore_TrackRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := []Track{testTrack("a"), testTrack("b")}
	require.NoError(t, s.SaveTracks(in))

	out, err := s.LoadTracks()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "Title a", out[0].Title)
	assert.Equal(t, 3*time.Minute, out[0].Duration)
	assert.Equal(t, []string{"rock"}, out[0].Tags)
	assert.Nil(t, out[0].LastPlayedAt)

	// Upsert keeps identity, updates fields.
	in[0].Title = "Renamed"
	in[0].Tags = []string{"jazz", "live"}
	require.NoError(t, s.SaveTracks(in[:1]))

	out, err = s.LoadTracks()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Renamed", out[0].Title)
	assert.Equal(t, []string{"jazz", "live"}, out[0].Tags)
}

func TestSQLiteStore_NullColumnsScanAsEmpty(t *testing.T) {
	s := openTestStore(t)

	// Rows written by older tooling may carry NULL artist/artwork.
	_, err := s.db.Exec(
		`INSERT INTO tracks (id, title, artist, artwork, media) VALUES (?, ?, NULL, NULL, ?)`,
		"n1", "Untagged", "/music/n1.mp3")
	require.NoError(t, err)

	out, err := s.LoadTracks()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].Artist)
	assert.Equal(t, "", out[0].Artwork)
}

func TestSQLiteStore_IncrementPlayCount(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTracks([]Track{testTrack("a")}))

	require.NoError(t, s.IncrementPlayCount("a"))
	require.NoError(t, s.IncrementPlayCount("a"))

	out, err := s.LoadTracks()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].PlayCount)
	require.NotNil(t, out[0].LastPlayedAt)
	assert.WithinDuration(t, time.Now(), *out[0].LastPlayedAt, time.Minute)
}

func TestSQLiteStore_ToggleFavorite(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTracks([]Track{testTrack("a")}))

	fav, err := s.ToggleFavorite("a")
	require.NoError(t, err)
	assert.True(t, fav)

	fav, err = s.ToggleFavorite("a")
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestSQLiteStore_DerivedViews(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTracks([]Track{
		testTrack("a"), testTrack("b"), testTrack("c"),
	}))

	// a played twice, b once, c never.
	require.NoError(t, s.IncrementPlayCount("a"))
	require.NoError(t, s.IncrementPlayCount("a"))
	time.Sleep(5 * time.Millisecond) // distinct last_played_at
	require.NoError(t, s.IncrementPlayCount("b"))
	_, err := s.ToggleFavorite("c")
	require.NoError(t, err)

	recent, err := s.RecentlyPlayed(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID, "newest play first")

	top, err := s.TopHits(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].ID, "highest count first")
	assert.Equal(t, 2, top[0].PlayCount)

	favs, err := s.Favorites()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "c", favs[0].ID)

	system, err := s.SystemPlaylists(10)
	require.NoError(t, err)
	require.Len(t, system, 3)
	for _, p := range system {
		assert.True(t, p.System)
	}
	assert.Equal(t, RecentlyPlayedName, system[0].Name)
	assert.Equal(t, []string{"b", "a"}, system[0].TrackIDs)
}

func TestSQLiteStore_PlaylistRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTracks([]Track{testTrack("a"), testTrack("b")}))

	in := []Playlist{
		{
			ID:          "p1",
			Name:        "Road Trip",
			Description: "long drives",
			TrackIDs:    []string{"b", "a", "missing"},
		},
		{ID: "system:top", Name: TopHitsName, System: true},
	}
	require.NoError(t, s.SavePlaylists(in))

	out, err := s.LoadPlaylists()
	require.NoError(t, err)
	require.Len(t, out, 1, "system playlists are never stored")
	assert.Equal(t, "Road Trip", out[0].Name)
	assert.Equal(t, []string{"b", "a"}, out[0].TrackIDs,
		"ids missing from the catalog are filtered at read time")
}

func TestSQLiteStore_PrunePlaylistOrphans(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTracks([]Track{testTrack("a"), testTrack("b")}))
	require.NoError(t, s.SavePlaylists([]Playlist{
		{ID: "p1", Name: "Mix", TrackIDs: []string{"a", "b"}},
	}))

	// b's file disappeared during a catalog refresh.
	removed, err := s.DeleteTracksNotIn(map[string]bool{"/music/a.mp3": true})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	pruned, err := s.PrunePlaylistOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	out, err := s.LoadPlaylists()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a"}, out[0].TrackIDs)
}
