package catalog

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/cadenza-player/cadenza/internal/db"
)

const (
	appName    = "cadenza"
	dbFileName = "cadenza.db"
)

// SQLiteStore persists the catalog in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// DefaultPath returns the catalog database location under the XDG data dir.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (creating if needed) the catalog database at path.
// An empty path selects the default XDG location.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadTracks returns all catalog tracks ordered by artist and title.
func (s *SQLiteStore) LoadTracks() ([]Track, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, artwork, media, duration_ms,
		       play_count, last_played_at, favorite
		FROM tracks
		ORDER BY artist COLLATE NOCASE, title COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// SaveTracks upserts the given tracks by id, replacing their tag sets.
func (s *SQLiteStore) SaveTracks(tracks []Track) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		upsert, err := tx.Prepare(`
			INSERT INTO tracks (id, title, artist, artwork, media, duration_ms,
			                    play_count, last_played_at, favorite)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				artist = excluded.artist,
				artwork = excluded.artwork,
				media = excluded.media,
				duration_ms = excluded.duration_ms,
				play_count = excluded.play_count,
				last_played_at = excluded.last_played_at,
				favorite = excluded.favorite
		`)
		if err != nil {
			return err
		}
		defer upsert.Close()

		for _, t := range tracks {
			_, err := upsert.Exec(t.ID, t.Title, t.Artist, t.Artwork, t.Media,
				t.Duration.Milliseconds(), t.PlayCount,
				dbutil.TimePtrToNull(t.LastPlayedAt), t.Favorite)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM track_tags WHERE track_id = ?`, t.ID); err != nil {
				return err
			}
			for _, tag := range t.Tags {
				_, err := tx.Exec(`INSERT OR IGNORE INTO track_tags (track_id, tag) VALUES (?, ?)`,
					t.ID, tag)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteTracksNotIn removes tracks whose media path is not in keep.
// Used by the importer to drop records for files that disappeared.
func (s *SQLiteStore) DeleteTracksNotIn(keep map[string]bool) (int, error) {
	rows, err := s.db.Query(`SELECT id, media FROM tracks`)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var id, media string
		if err := rows.Scan(&id, &media); err != nil {
			rows.Close()
			return 0, err
		}
		if !keep[media] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		for _, id := range stale {
			if _, err := tx.Exec(`DELETE FROM tracks WHERE id = ?`, id); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM track_tags WHERE track_id = ?`, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

// LoadPlaylists returns all stored (non-system) playlists. Membership
// ids that no longer resolve to catalog tracks are filtered out, not
// dereferenced.
func (s *SQLiteStore) LoadPlaylists() ([]Playlist, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, artwork FROM playlists ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Artwork); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		ids, err := s.playlistTrackIDs(playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].TrackIDs = ids
	}
	return playlists, nil
}

// playlistTrackIDs returns membership filtered to ids still in the catalog.
func (s *SQLiteStore) playlistTrackIDs(playlistID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT pt.track_id
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SavePlaylists replaces the stored playlists. System playlists are
// computed views and are skipped.
func (s *SQLiteStore) SavePlaylists(playlists []Playlist) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_tracks`); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM playlists`); err != nil {
			return err
		}
		for _, p := range playlists {
			if p.System {
				continue
			}
			_, err := tx.Exec(`
				INSERT INTO playlists (id, name, description, artwork)
				VALUES (?, ?, ?, ?)
			`, p.ID, p.Name, p.Description, p.Artwork)
			if err != nil {
				return err
			}
			for pos, trackID := range p.TrackIDs {
				_, err := tx.Exec(`
					INSERT INTO playlist_tracks (playlist_id, position, track_id)
					VALUES (?, ?, ?)
				`, p.ID, pos, trackID)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// PrunePlaylistOrphans deletes playlist membership rows whose track no
// longer exists. Run after a catalog refresh. Returns the row count.
func (s *SQLiteStore) PrunePlaylistOrphans() (int, error) {
	res, err := s.db.Exec(`
		DELETE FROM playlist_tracks
		WHERE track_id NOT IN (SELECT id FROM tracks)
	`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// IncrementPlayCount bumps the play count and stamps last-played.
func (s *SQLiteStore) IncrementPlayCount(trackID string) error {
	_, err := s.db.Exec(`
		UPDATE tracks
		SET play_count = play_count + 1, last_played_at = ?
		WHERE id = ?
	`, time.Now(), trackID)
	return err
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *SQLiteStore) ToggleFavorite(trackID string) (bool, error) {
	if _, err := s.db.Exec(`
		UPDATE tracks SET favorite = NOT favorite WHERE id = ?
	`, trackID); err != nil {
		return false, err
	}
	var fav bool
	err := s.db.QueryRow(`SELECT favorite FROM tracks WHERE id = ?`, trackID).Scan(&fav)
	return fav, err
}

// RecentlyPlayed returns the most recently played tracks, newest first.
func (s *SQLiteStore) RecentlyPlayed(limit int) ([]Track, error) {
	return s.queryTracks(`
		SELECT id, title, artist, artwork, media, duration_ms,
		       play_count, last_played_at, favorite
		FROM tracks
		WHERE last_played_at IS NOT NULL
		ORDER BY last_played_at DESC
		LIMIT ?
	`, limit)
}

// TopHits returns the most played tracks, highest count first.
func (s *SQLiteStore) TopHits(limit int) ([]Track, error) {
	return s.queryTracks(`
		SELECT id, title, artist, artwork, media, duration_ms,
		       play_count, last_played_at, favorite
		FROM tracks
		WHERE play_count > 0
		ORDER BY play_count DESC, last_played_at DESC
		LIMIT ?
	`, limit)
}

// Favorites returns all favorited tracks.
func (s *SQLiteStore) Favorites() ([]Track, error) {
	return s.queryTracks(`
		SELECT id, title, artist, artwork, media, duration_ms,
		       play_count, last_played_at, favorite
		FROM tracks
		WHERE favorite
		ORDER BY artist COLLATE NOCASE, title COLLATE NOCASE
	`)
}

// SystemPlaylists assembles the derived playlist views.
func (s *SQLiteStore) SystemPlaylists(limit int) ([]Playlist, error) {
	recent, err := s.RecentlyPlayed(limit)
	if err != nil {
		return nil, err
	}
	top, err := s.TopHits(limit)
	if err != nil {
		return nil, err
	}
	favs, err := s.Favorites()
	if err != nil {
		return nil, err
	}
	return []Playlist{
		{ID: "system:recent", Name: RecentlyPlayedName, TrackIDs: trackIDs(recent), System: true},
		{ID: "system:top", Name: TopHitsName, TrackIDs: trackIDs(top), System: true},
		{ID: "system:favorites", Name: FavoritesName, TrackIDs: trackIDs(favs), System: true},
	}, nil
}

func trackIDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func (s *SQLiteStore) queryTracks(query string, args ...any) ([]Track, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func scanTracks(rows *sql.Rows) ([]Track, error) {
	var tracks []Track
	for rows.Next() {
		var t Track
		var durationMS int64
		var artist, artwork sql.NullString
		var lastPlayed sql.NullTime
		err := rows.Scan(&t.ID, &t.Title, &artist, &artwork, &t.Media,
			&durationMS, &t.PlayCount, &lastPlayed, &t.Favorite)
		if err != nil {
			return nil, err
		}
		t.Artist = dbutil.NullStringValue(artist)
		t.Artwork = dbutil.NullStringValue(artwork)
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.LastPlayedAt = dbutil.NullTimeToPtr(lastPlayed)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *SQLiteStore) attachTags(tracks []Track) error {
	if len(tracks) == 0 {
		return nil
	}
	rows, err := s.db.Query(`SELECT track_id, tag FROM track_tags ORDER BY tag`)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[string][]string)
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return err
		}
		byID[id] = append(byID[id], tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range tracks {
		tracks[i].Tags = byID[tracks[i].ID]
	}
	return nil
}
