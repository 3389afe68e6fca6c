package catalog

// Store is the persisted-metadata collaborator of the playback core.
//
// Load failures degrade to empty collections and save failures are for
// the caller to log; neither may ever block playback.
type Store interface {
	LoadTracks() ([]Track, error)
	SaveTracks(tracks []Track) error

	LoadPlaylists() ([]Playlist, error)
	SavePlaylists(playlists []Playlist) error

	IncrementPlayCount(trackID string) error
	ToggleFavorite(trackID string) (bool, error)

	// Derived read views over track statistics.
	RecentlyPlayed(limit int) ([]Track, error)
	TopHits(limit int) ([]Track, error)
	Favorites() ([]Track, error)

	Close() error
}
