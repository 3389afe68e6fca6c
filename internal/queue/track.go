package queue

import "time"

// Track is a snapshot of a catalog track taken when it is queued.
// A later catalog update does not change an already-queued entry until
// the queue is explicitly refreshed.
type Track struct {
	ID        string // catalog identity, the only field used for lookup
	Title     string
	Artist    string
	Artwork   string // artwork file reference
	Media     string // media file reference for playback
	Duration  time.Duration
	PlayCount int
	Favorite  bool
}
