package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-player/cadenza/internal/catalog"
)

func openTestStore(t *testing.T) *catalog.SQLiteStore {
	t.Helper()
	s, err := catalog.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// writeFakeTrack drops a file with a playable extension but no real
// audio content: tag reading falls back to the filename.
func writeFakeTrack(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))
	return path
}

func TestRunImportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFakeTrack(t, dir, "artist/album/01 - Intro.mp3")
	writeFakeTrack(t, dir, "artist/album/02 - Outro.flac")
	writeFakeTrack(t, dir, "artist/album/cover.jpg") // not playable, ignored

	store := openTestStore(t)
	stats, err := New(store).Run([]string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 0, stats.Kept)

	tracks, err := store.LoadTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	titles := []string{tracks[0].Title, tracks[1].Title}
	assert.ElementsMatch(t, []string{"01 - Intro", "02 - Outro"}, titles,
		"unreadable tags fall back to the filename")
	assert.NotEmpty(t, tracks[0].ID)
	assert.NotEqual(t, tracks[0].ID, tracks[1].ID)
}

func TestRunPreservesExistingRecords(t *testing.T) {
	dir := t.TempDir()
	media := writeFakeTrack(t, dir, "song.mp3")

	store := openTestStore(t)
	require.NoError(t, store.SaveTracks([]catalog.Track{{
		ID:    "keep-me",
		Title: "Curated Title",
		Media: media,
	}}))
	require.NoError(t, store.IncrementPlayCount("keep-me"))

	stats, err := New(store).Run([]string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 1, stats.Kept)

	tracks, err := store.LoadTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "keep-me", tracks[0].ID, "rescan must not reassign IDs")
	assert.Equal(t, "Curated Title", tracks[0].Title)
	assert.Equal(t, 1, tracks[0].PlayCount, "play counts survive a rescan")
}

func TestRunRemovesVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	kept := writeFakeTrack(t, dir, "kept.mp3")
	gone := writeFakeTrack(t, dir, "gone.mp3")

	store := openTestStore(t)
	_, err := New(store).Run([]string{dir}, nil)
	require.NoError(t, err)

	tracks, err := store.LoadTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	var goneID string
	for _, tr := range tracks {
		if tr.Media == gone {
			goneID = tr.ID
		}
	}
	require.NoError(t, store.SavePlaylists([]catalog.Playlist{
		{ID: "p1", Name: "Mix", TrackIDs: []string{goneID}},
	}))

	require.NoError(t, os.Remove(gone))
	stats, err := New(store).Run([]string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.Pruned)
	assert.Equal(t, 1, stats.Kept)

	tracks, err = store.LoadTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, kept, tracks[0].Media)
}

func TestRunReportsProgressPhases(t *testing.T) {
	dir := t.TempDir()
	writeFakeTrack(t, dir, "a.mp3")

	store := openTestStore(t)
	progress := make(chan Progress)

	var phases []string
	var finalStats *Stats
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			phases = append(phases, p.Phase)
			if p.Stats != nil {
				finalStats = p.Stats
			}
		}
	}()

	_, err := New(store).Run([]string{dir}, progress)
	require.NoError(t, err)
	<-done

	assert.Equal(t, "scanning", phases[0])
	assert.Equal(t, "done", phases[len(phases)-1])
	assert.Contains(t, phases, "processing")
	assert.Contains(t, phases, "cleaning")
	require.NotNil(t, finalStats)
	assert.Equal(t, 1, finalStats.Added)
}

func TestRunMissingSourceIsSkipped(t *testing.T) {
	store := openTestStore(t)
	stats, err := New(store).Run([]string{"/does/not/exist"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Added)
}
