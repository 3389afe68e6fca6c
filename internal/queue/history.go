package queue

// history is a bounded stack of previously-current tracks.
// Pushing past capacity evicts the oldest entry.
type history struct {
	entries []Track
	maxSize int
}

func newHistory(maxSize int) *history {
	return &history{
		entries: make([]Track, 0, maxSize),
		maxSize: maxSize,
	}
}

// push appends a track, evicting the oldest entry when over capacity.
func (h *history) push(t Track) {
	h.entries = append(h.entries, t)
	if len(h.entries) > h.maxSize {
		excess := len(h.entries) - h.maxSize
		h.entries = h.entries[excess:]
	}
}

// pop removes and returns the most recent entry.
// Returns false if the history is empty.
func (h *history) pop() (Track, bool) {
	if len(h.entries) == 0 {
		return Track{}, false
	}
	t := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return t, true
}

func (h *history) size() int {
	return len(h.entries)
}

func (h *history) clear() {
	h.entries = h.entries[:0]
}

// tracks returns a copy of all entries, oldest first.
func (h *history) tracks() []Track {
	out := make([]Track, len(h.entries))
	copy(out, h.entries)
	return out
}
