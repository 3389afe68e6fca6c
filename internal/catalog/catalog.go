package catalog

import (
	"time"

	"github.com/cadenza-player/cadenza/internal/queue"
)

// Track is a persisted catalog record: immutable identity plus mutable
// play statistics. The id is the only field used for equality and lookup.
type Track struct {
	ID           string
	Title        string
	Artist       string
	Artwork      string // artwork file reference
	Media        string // media file reference
	Duration     time.Duration
	PlayCount    int
	LastPlayedAt *time.Time
	Favorite     bool
	Tags         []string
}

// Playlist is a named ordered-by-membership collection of track ids.
//
// System playlists (Recently Played, Top Hits, Favorites) are computed
// views over track statistics; their membership is never stored and
// never edited directly. Non-system membership may reference ids no
// longer in the catalog; readers filter those out instead of
// dereferencing them.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Artwork     string
	TrackIDs    []string
	System      bool
}

// Names of the derived system playlists.
const (
	RecentlyPlayedName = "Recently Played"
	TopHitsName        = "Top Hits"
	FavoritesName      = "Favorites"
)

// QueueTrack converts a catalog record into the snapshot form the
// playback queue holds.
func (t Track) QueueTrack() queue.Track {
	return queue.Track{
		ID:        t.ID,
		Title:     t.Title,
		Artist:    t.Artist,
		Artwork:   t.Artwork,
		Media:     t.Media,
		Duration:  t.Duration,
		PlayCount: t.PlayCount,
		Favorite:  t.Favorite,
	}
}

// QueueTracks converts a batch of catalog records to queue snapshots.
func QueueTracks(tracks []Track) []queue.Track {
	out := make([]queue.Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.QueueTrack()
	}
	return out
}
