package queue

import (
	"math/rand"
	"time"
)

// historySize bounds the play-history stack.
const historySize = 50

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Queue owns the ordered track list, the play cursor, shuffle/repeat
// policy, and the play-history stack.
//
// All operations are synchronous state transitions with no I/O. Bounds
// violations are absorbed as no-ops; none of the operations fail loudly.
// Callers that need to detect a no-op compare observable state.
//
// The queue is not safe for concurrent use. It is owned by a single
// writer (the session controller), which provides the synchronization.
type Queue struct {
	tracks   []Track
	original []Track // pre-shuffle order, equal to tracks while shuffle is off
	cursor   int
	hist     *history
	shuffle  bool
	repeat   RepeatMode
	rng      *rand.Rand
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		hist: newHistory(historySize),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// --- Read model ---

// Current returns a copy of the current track, or nil if the queue is empty.
func (q *Queue) Current() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	t := q.tracks[q.cursor]
	return &t
}

// CurrentIndex returns the cursor position (0 for an empty queue).
func (q *Queue) CurrentIndex() int { return q.cursor }

// Tracks returns a copy of the queued tracks in play order.
func (q *Queue) Tracks() []Track {
	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int { return len(q.tracks) }

// IsEmpty returns true if nothing is queued.
func (q *Queue) IsEmpty() bool { return len(q.tracks) == 0 }

// Shuffle returns whether shuffle is enabled.
func (q *Queue) Shuffle() bool { return q.shuffle }

// RepeatMode returns the active repeat mode.
func (q *Queue) RepeatMode() RepeatMode { return q.repeat }

// History returns a copy of the play history, oldest first.
func (q *Queue) History() []Track { return q.hist.tracks() }

// --- Mutation ---

// SetQueue replaces the queue contents. Empty input is a no-op.
//
// With shuffle enabled the tracks are shuffled and the track originally
// at startIndex is pinned to position 0; otherwise the cursor is set to
// startIndex clamped to bounds. Returns the new current track so the
// caller can pre-warm the audio backend without starting playback.
func (q *Queue) SetQueue(tracks []Track, startIndex int) *Track {
	if len(tracks) == 0 {
		return nil
	}
	q.original = make([]Track, len(tracks))
	copy(q.original, tracks)

	q.tracks = make([]Track, len(tracks))
	copy(q.tracks, tracks)
	q.hist.clear()

	if q.shuffle {
		start := clamp(startIndex, 0, len(q.tracks)-1)
		startID := q.tracks[start].ID
		q.rng.Shuffle(len(q.tracks), func(i, j int) {
			q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
		})
		q.pinToFront(startID)
		q.cursor = 0
	} else {
		q.cursor = clamp(startIndex, 0, len(q.tracks)-1)
	}
	return q.Current()
}

// Append adds a single track to the end of the queue.
// A track whose id is already queued is refused (duplicate suppression).
// Returns false when the track was not added.
func (q *Queue) Append(t Track) bool {
	if q.indexOf(t.ID) >= 0 {
		return false
	}
	q.tracks = append(q.tracks, t)
	q.original = append(q.original, t)
	return true
}

// AppendAll adds tracks to the end of the queue without duplicate checks.
func (q *Queue) AppendAll(tracks []Track) {
	q.tracks = append(q.tracks, tracks...)
	q.original = append(q.original, tracks...)
}

// PlayNext schedules a track immediately after the current one, removing
// any other occurrence of it first. Scheduling the current track itself
// is a no-op. On an empty queue the track becomes the sole, current entry.
func (q *Queue) PlayNext(t Track) {
	if len(q.tracks) == 0 {
		q.tracks = []Track{t}
		q.original = []Track{t}
		q.cursor = 0
		return
	}
	currentID := q.tracks[q.cursor].ID
	if currentID == t.ID {
		return
	}
	if i := q.indexOf(t.ID); i >= 0 {
		q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)
		q.resolveCursor(currentID)
	}
	q.insertAt(q.cursor+1, t)

	q.removeFromOriginal(t.ID)
	q.insertIntoOriginalAfter(currentID, t)
}

// RemoveAt removes the track at index. Removing the current track or an
// out-of-bounds index is a no-op; returns false in either case.
func (q *Queue) RemoveAt(index int) bool {
	if index == q.cursor || index < 0 || index >= len(q.tracks) {
		return false
	}
	currentID := q.tracks[q.cursor].ID
	removedID := q.tracks[index].ID

	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	q.removeFromOriginal(removedID)

	if index < q.cursor {
		q.cursor--
	}
	q.resolveCursor(currentID)
	return true
}

// Move relocates the track at from to position to. Moving the current
// track is a no-op. The target is clamped to valid insertion bounds and
// the cursor is re-derived from the current track's identity.
func (q *Queue) Move(from, to int) bool {
	if from == q.cursor || from < 0 || from >= len(q.tracks) {
		return false
	}
	currentID := q.tracks[q.cursor].ID
	moved := q.tracks[from]

	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	to = clamp(to, 0, len(q.tracks))
	q.insertAt(to, moved)

	// While shuffle is off the shadow order mirrors the visible order.
	// While shuffled, membership is unchanged so the pre-shuffle order
	// stays as the user arranged it.
	if !q.shuffle {
		q.original = make([]Track, len(q.tracks))
		copy(q.original, q.tracks)
	}

	q.resolveCursor(currentID)
	return true
}

// Clear collapses the queue to just the current track, or empties it
// entirely when nothing is current.
func (q *Queue) Clear() {
	if cur := q.Current(); cur != nil {
		q.tracks = []Track{*cur}
		q.original = []Track{*cur}
	} else {
		q.tracks = nil
		q.original = nil
	}
	q.cursor = 0
}

// --- Navigation ---

// Next advances the cursor according to the repeat mode and returns the
// new current track. The boolean is false exactly when repeat-off hit
// the end of the queue and nothing changed.
func (q *Queue) Next() (*Track, bool) {
	if len(q.tracks) == 0 {
		return nil, false
	}
	switch q.repeat {
	case RepeatOne:
		return q.Current(), true
	case RepeatAll:
		q.cursor = (q.cursor + 1) % len(q.tracks)
		return q.Current(), true
	default:
		if q.cursor >= len(q.tracks)-1 {
			return q.Current(), false
		}
		q.hist.push(q.tracks[q.cursor])
		q.cursor++
		return q.Current(), true
	}
}

// Previous steps back through the play history when one exists,
// otherwise it moves the cursor back one position. A popped history
// entry that is no longer queued is re-inserted at position 0, growing
// the queue. With repeat-all, an exhausted history at position 0 wraps
// the cursor to the last index.
func (q *Queue) Previous() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	if q.repeat != RepeatOne {
		if t, ok := q.hist.pop(); ok {
			if i := q.indexOf(t.ID); i >= 0 {
				q.cursor = i
			} else {
				q.insertAt(0, t)
				q.original = append([]Track{t}, q.original...)
				q.cursor = 0
			}
			return q.Current()
		}
	}
	if q.cursor > 0 {
		q.cursor--
		return q.Current()
	}
	if q.repeat == RepeatAll {
		q.cursor = len(q.tracks) - 1
	}
	return q.Current()
}

// JumpTo moves the cursor to index, recording the previous current track
// in the history. Out-of-bounds indexes are a no-op.
func (q *Queue) JumpTo(index int) *Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	if index != q.cursor {
		q.hist.push(q.tracks[q.cursor])
	}
	q.cursor = index
	return q.Current()
}

// EnsureCurrent reconciles the queue with a track some other component
// believes is current. An unqueued track is inserted right after the
// cursor and made current; a queued one just gets the cursor.
func (q *Queue) EnsureCurrent(t Track) {
	if len(q.tracks) == 0 {
		q.tracks = []Track{t}
		q.original = []Track{t}
		q.cursor = 0
		return
	}
	i := q.indexOf(t.ID)
	if i < 0 {
		q.insertAt(q.cursor+1, t)
		q.insertIntoOriginalAfter(q.tracks[q.cursor].ID, t)
		q.cursor++
		return
	}
	q.cursor = i
}

// --- Modes ---

// ToggleShuffle flips shuffle mode and returns the new value.
//
// Enabling randomizes the order with the current track pinned at
// position 0. Disabling restores the pre-shuffle order and re-resolves
// the cursor by the current track's identity.
func (q *Queue) ToggleShuffle() bool {
	q.shuffle = !q.shuffle
	if len(q.tracks) == 0 {
		return q.shuffle
	}
	currentID := q.tracks[q.cursor].ID
	if q.shuffle {
		q.rng.Shuffle(len(q.tracks), func(i, j int) {
			q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
		})
		q.pinToFront(currentID)
		q.cursor = 0
	} else {
		q.tracks = make([]Track, len(q.original))
		copy(q.tracks, q.original)
		q.cursor = 0
		q.resolveCursor(currentID)
	}
	return q.shuffle
}

// CycleRepeatMode advances off -> all -> one -> off and returns the new mode.
func (q *Queue) CycleRepeatMode() RepeatMode {
	switch q.repeat {
	case RepeatOff:
		q.repeat = RepeatAll
	case RepeatAll:
		q.repeat = RepeatOne
	default:
		q.repeat = RepeatOff
	}
	return q.repeat
}

// SetRepeatMode sets the repeat mode directly.
func (q *Queue) SetRepeatMode(m RepeatMode) { q.repeat = m }

// --- internals ---

// resolveCursor re-derives the cursor from the current track's identity.
// Every structural edit ends here: trusting arithmetic index adjustments
// alone is how cursors drift.
func (q *Queue) resolveCursor(currentID string) {
	if i := q.indexOf(currentID); i >= 0 {
		q.cursor = i
		return
	}
	q.cursor = clamp(q.cursor, 0, max(len(q.tracks)-1, 0))
}

func (q *Queue) indexOf(id string) int {
	for i := range q.tracks {
		if q.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) insertAt(index int, t Track) {
	index = clamp(index, 0, len(q.tracks))
	q.tracks = append(q.tracks[:index], append([]Track{t}, q.tracks[index:]...)...)
}

func (q *Queue) pinToFront(id string) {
	for i := range q.tracks {
		if q.tracks[i].ID == id {
			t := q.tracks[i]
			q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)
			q.tracks = append([]Track{t}, q.tracks...)
			return
		}
	}
}

func (q *Queue) removeFromOriginal(id string) {
	for i := range q.original {
		if q.original[i].ID == id {
			q.original = append(q.original[:i], q.original[i+1:]...)
			return
		}
	}
}

func (q *Queue) insertIntoOriginalAfter(id string, t Track) {
	for i := range q.original {
		if q.original[i].ID == id {
			q.original = append(q.original[:i+1], append([]Track{t}, q.original[i+1:]...)...)
			return
		}
	}
	q.original = append(q.original, t)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
