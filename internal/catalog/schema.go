package catalog

import "database/sql"

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT,
			artwork TEXT,
			media TEXT NOT NULL UNIQUE,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			play_count INTEGER NOT NULL DEFAULT 0,
			last_played_at TIMESTAMP,
			favorite INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_last_played ON tracks(last_played_at DESC);
		CREATE INDEX IF NOT EXISTS idx_tracks_play_count ON tracks(play_count DESC);

		CREATE TABLE IF NOT EXISTS track_tags (
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			UNIQUE(track_id, tag)
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			artwork TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			UNIQUE(playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist
			ON playlist_tracks(playlist_id, position);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: add favorite column if missing
	_, _ = db.Exec(`ALTER TABLE tracks ADD COLUMN favorite INTEGER NOT NULL DEFAULT 0`)

	return nil
}
