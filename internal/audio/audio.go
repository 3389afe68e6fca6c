package audio

import (
	"path/filepath"
	"strings"
	"time"
)

// State represents the backend playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Output is the audio backend contract the session controller drives.
//
// Play is best-effort: a failure to open or decode the media is reported
// as an error without any partial playback. FinishedChan delivers one
// value per playback session when the media reaches its natural end;
// the value is false when the backend aborted on an error. Stop never
// fires a finished event.
type Output interface {
	Play(media string) error
	Stop()
	Pause()
	Resume()
	Seek(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	State() State
	FinishedChan() <-chan bool
}

// supported playback formats, keyed by lowercase extension
var playableExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
}

// IsPlayable reports whether the file extension is a playable media format.
func IsPlayable(path string) bool {
	return playableExtensions[strings.ToLower(filepath.Ext(path))]
}
