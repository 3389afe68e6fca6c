package session

// Status represents the session playback state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing or paused).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}
