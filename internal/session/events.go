package session

import (
	"time"

	"github.com/cadenza-player/cadenza/internal/queue"
)

// StateChange is emitted when the session status changes.
type StateChange struct {
	Previous Status
	Current  Status
}

// TrackChange is emitted when playback starts on a different track.
//
// Queue navigation without playback does not emit; only a successful
// open of new media does. Side effects (notifications, artwork,
// now-playing surfaces) belong in handlers of this event.
type TrackChange struct {
	Previous *queue.Track
	Current  *queue.Track
	Index    int
}

// TrackReady is emitted when a queue replacement selects a first track,
// so consumers can pre-warm the audio backend without starting playback.
type TrackReady struct {
	Track queue.Track
}

// QueueChange is emitted when the queue contents or cursor change.
type QueueChange struct {
	Tracks []queue.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode queue.RepeatMode
	Shuffle    bool
}

// PositionChange is emitted when a seek occurs.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when an operation fails during playback.
type ErrorEvent struct {
	Operation string // e.g., "play", "count"
	Media     string // media reference if applicable
	Err       error
}
