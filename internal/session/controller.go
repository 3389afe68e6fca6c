package session

import (
	"errors"
	"sync"
	"time"

	"github.com/cadenza-player/cadenza/internal/audio"
	"github.com/cadenza-player/cadenza/internal/catalog"
	"github.com/cadenza-player/cadenza/internal/queue"
)

const (
	// playCountThreshold is how long a track must play before it counts
	// as a listen.
	playCountThreshold = 10 * time.Second
	// dwellGuard is the minimum time after a successful start before a
	// finish signal from the backend is trusted. Some backends emit a
	// spurious finish while initializing.
	dwellGuard = time.Second
	// restartWindow: a "previous" intent this far into a track restarts
	// it instead of moving the cursor.
	restartWindow = 3 * time.Second
)

// Controller owns what is audible right now. It translates queue cursor
// changes and user intents into audio backend calls, decides when a
// natural track completion should advance the queue, and records play
// counts through the catalog store.
//
// The controller is the queue's single writer: timers and backend
// callbacks are marshaled through its mutex before touching any state.
type Controller struct {
	mu    sync.Mutex
	queue *queue.Queue
	out   audio.Output
	store catalog.Store

	status     Status
	lastPlayed *queue.Track

	// load supersession guards: a newer play request always wins, and a
	// late open result for an older target is discarded. loadMu
	// serializes backend opens so a superseded one can silence itself
	// before the winner opens its media.
	loadMu     sync.Mutex
	loadGen    uint64
	intendedID string

	// genuine-start guards for spurious finish suppression
	genuineStart bool
	startedAt    time.Time

	// play-count bookkeeping
	playCounted    bool
	countProgress  time.Duration
	countStartedAt time.Time
	countTimer     *time.Timer
	countThreshold time.Duration

	dwell   time.Duration
	restart time.Duration

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates a controller over the given queue, audio output, and
// catalog store, and starts watching the output's finished events.
func New(q *queue.Queue, out audio.Output, store catalog.Store) *Controller {
	c := &Controller{
		queue:          q,
		out:            out,
		store:          store,
		status:         StatusIdle,
		countThreshold: playCountThreshold,
		dwell:          dwellGuard,
		restart:        restartWindow,
		done:           make(chan struct{}),
	}
	go c.watchFinished()
	return c
}

// --- Session intents ---

// Play makes track current in the queue and starts playing it,
// superseding any in-flight load.
func (c *Controller) Play(t queue.Track) error {
	c.mu.Lock()
	c.queue.EnsureCurrent(t)
	c.mu.Unlock()
	c.publishQueue()
	return c.start(t)
}

// PlayAt starts playback of the track at the given queue index.
func (c *Controller) PlayAt(index int) error {
	c.mu.Lock()
	t := c.queue.JumpTo(index)
	c.mu.Unlock()
	if t == nil {
		return nil
	}
	c.publishQueue()
	return c.start(*t)
}

// TogglePlayPause pauses or resumes playback. With nothing loaded and a
// non-empty queue it starts the queue's current track.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	switch c.status {
	case StatusPlaying:
		c.out.Pause()
		if c.countTimer != nil && !c.playCounted {
			c.countProgress += time.Since(c.countStartedAt)
		}
		c.cancelCountLocked()
		c.status = StatusPaused
		c.mu.Unlock()
		c.publishState(StatusPlaying, StatusPaused)
		return nil

	case StatusPaused:
		c.out.Resume()
		if !c.playCounted {
			remaining := c.countThreshold - c.countProgress
			if remaining <= 0 {
				remaining = time.Millisecond
			}
			c.startCountTimerLocked(remaining)
		}
		c.status = StatusPlaying
		c.mu.Unlock()
		c.publishState(StatusPaused, StatusPlaying)
		return nil

	default:
		cur := c.queue.Current()
		c.mu.Unlock()
		if cur == nil {
			return nil
		}
		return c.start(*cur)
	}
}

// Pause suspends playback. Interruptions (audio hardware taken by
// another app) are forwarded here.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.status != StatusPlaying {
		c.mu.Unlock()
		return
	}
	c.out.Pause()
	if c.countTimer != nil && !c.playCounted {
		c.countProgress += time.Since(c.countStartedAt)
	}
	c.cancelCountLocked()
	c.status = StatusPaused
	c.mu.Unlock()
	c.publishState(StatusPlaying, StatusPaused)
}

// Advance skips to the next queue entry. Hitting the end of the queue
// with repeat off stops playback; that is how end-of-queue surfaces.
func (c *Controller) Advance() error {
	c.mu.Lock()
	c.cancelCountLocked()
	t, ok := c.queue.Next()
	c.mu.Unlock()
	c.publishQueue()
	if t == nil {
		return nil
	}
	if !ok {
		c.stopPlayback()
		return nil
	}
	return c.start(*t)
}

// Retreat restarts the current track when more than a few seconds in,
// otherwise it steps the queue back and plays the resulting current.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	active := c.status.IsActive()
	c.mu.Unlock()

	if active && c.out.Position() > c.restart {
		c.Seek(0)
		return nil
	}

	c.mu.Lock()
	c.cancelCountLocked()
	t := c.queue.Previous()
	c.mu.Unlock()
	c.publishQueue()
	if t == nil {
		return nil
	}
	return c.start(*t)
}

// Seek jumps to an absolute position, clamped to the media bounds. The
// position event is published optimistically.
func (c *Controller) Seek(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	if d := c.out.Duration(); d > 0 && pos > d {
		pos = d
	}
	c.out.Seek(pos)
	c.publish(func(s *Subscription) { s.sendPosition(pos) })
}

// Stop halts playback and returns the session to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.cancelCountLocked()
	c.genuineStart = false
	c.mu.Unlock()
	c.stopPlayback()
}

// --- Queue intents ---

// ReplaceQueue replaces the queue contents and announces the first
// track so consumers can pre-warm the backend. Playback does not start.
func (c *Controller) ReplaceQueue(tracks []queue.Track, startIndex int) {
	c.mu.Lock()
	first := c.queue.SetQueue(tracks, startIndex)
	c.mu.Unlock()
	if first == nil {
		return
	}
	c.publishQueue()
	c.publish(func(s *Subscription) { s.sendReady(TrackReady{Track: *first}) })
}

// Append adds a track to the end of the queue (duplicates refused).
func (c *Controller) Append(t queue.Track) bool {
	c.mu.Lock()
	added := c.queue.Append(t)
	c.mu.Unlock()
	if added {
		c.publishQueue()
	}
	return added
}

// AppendAll adds tracks to the end of the queue without duplicate checks.
func (c *Controller) AppendAll(tracks []queue.Track) {
	if len(tracks) == 0 {
		return
	}
	c.mu.Lock()
	c.queue.AppendAll(tracks)
	c.mu.Unlock()
	c.publishQueue()
}

// PlayNext schedules a track right after the current one.
func (c *Controller) PlayNext(t queue.Track) {
	c.mu.Lock()
	c.queue.PlayNext(t)
	c.mu.Unlock()
	c.publishQueue()
}

// RemoveAt removes the queue entry at index (the current one is refused).
func (c *Controller) RemoveAt(index int) bool {
	c.mu.Lock()
	removed := c.queue.RemoveAt(index)
	c.mu.Unlock()
	if removed {
		c.publishQueue()
	}
	return removed
}

// Move relocates a queue entry.
func (c *Controller) Move(from, to int) bool {
	c.mu.Lock()
	moved := c.queue.Move(from, to)
	c.mu.Unlock()
	if moved {
		c.publishQueue()
	}
	return moved
}

// ClearQueue collapses the queue to the current track.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	c.queue.Clear()
	c.mu.Unlock()
	c.publishQueue()
}

// JumpTo moves the queue cursor without starting playback.
func (c *Controller) JumpTo(index int) {
	c.mu.Lock()
	t := c.queue.JumpTo(index)
	c.mu.Unlock()
	if t != nil {
		c.publishQueue()
	}
}

// ToggleShuffle flips shuffle mode.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	on := c.queue.ToggleShuffle()
	mode := c.queue.RepeatMode()
	c.mu.Unlock()
	c.publishQueue()
	c.publish(func(s *Subscription) {
		s.sendMode(ModeChange{RepeatMode: mode, Shuffle: on})
	})
	return on
}

// CycleRepeatMode advances the repeat mode.
func (c *Controller) CycleRepeatMode() queue.RepeatMode {
	c.mu.Lock()
	mode := c.queue.CycleRepeatMode()
	on := c.queue.Shuffle()
	c.mu.Unlock()
	c.publish(func(s *Subscription) {
		s.sendMode(ModeChange{RepeatMode: mode, Shuffle: on})
	})
	return mode
}

// --- Read model ---

// Status returns the session status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsPlaying returns true while audio is audible.
func (c *Controller) IsPlaying() bool {
	return c.Status() == StatusPlaying
}

// Current returns the queue's current track, or nil.
func (c *Controller) Current() *queue.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Current()
}

// Position returns the elapsed playback time.
func (c *Controller) Position() time.Duration { return c.out.Position() }

// Duration returns the loaded media length.
func (c *Controller) Duration() time.Duration { return c.out.Duration() }

// QueueTracks returns a snapshot of the queue in play order.
func (c *Controller) QueueTracks() []queue.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Tracks()
}

// QueueIndex returns the queue cursor.
func (c *Controller) QueueIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.CurrentIndex()
}

// QueueLen returns the number of queued tracks.
func (c *Controller) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// Shuffle returns whether shuffle is enabled.
func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Shuffle()
}

// RepeatMode returns the active repeat mode.
func (c *Controller) RepeatMode() queue.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.RepeatMode()
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Close stops playback and shuts the controller down.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancelCountLocked()
	close(c.done)
	c.mu.Unlock()

	c.out.Stop()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	return nil
}

// --- internals ---

// start opens t in the audio backend, replacing whatever is audible.
// A load superseded by a newer request is abandoned; on open failure
// the session reports not-playing and the cursor stays where the queue
// put it.
//
// Opens are serialized through loadMu and the load generation is
// checked on both sides of the open: a request superseded while waiting
// never touches the backend, and one superseded mid-open silences its
// own media again before the winning request opens. Without this a
// slow stale open could land after the winner and leave the backend
// audibly playing a track the session no longer considers current.
func (c *Controller) start(t queue.Track) error {
	c.mu.Lock()
	prevStatus := c.status
	c.cancelCountLocked()
	c.playCounted = false
	c.countProgress = 0
	c.genuineStart = false
	c.loadGen++
	gen := c.loadGen
	c.intendedID = t.ID
	c.status = StatusLoading
	c.mu.Unlock()

	c.publishState(prevStatus, StatusLoading)

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	stale := gen != c.loadGen
	c.mu.Unlock()
	if stale {
		return nil
	}

	c.out.Stop()
	err := c.out.Play(t.Media)

	c.mu.Lock()
	if gen != c.loadGen || c.intendedID != t.ID {
		c.mu.Unlock()
		// superseded while opening; undo the open so the winner,
		// still waiting on loadMu, finds a silent backend
		if err == nil {
			c.out.Stop()
		}
		return nil
	}
	if err != nil {
		c.status = StatusIdle
		c.mu.Unlock()
		c.publishState(StatusLoading, StatusIdle)
		c.publish(func(s *Subscription) {
			s.sendError(ErrorEvent{Operation: "play", Media: t.Media, Err: err})
		})
		return err
	}

	prev := c.lastPlayed
	cur := t
	c.lastPlayed = &cur
	c.status = StatusPlaying
	c.genuineStart = true
	c.startedAt = time.Now()
	c.startCountTimerLocked(c.countThreshold)
	idx := c.queue.CurrentIndex()
	c.mu.Unlock()

	c.publishState(StatusLoading, StatusPlaying)
	if prev == nil || prev.ID != t.ID {
		c.publish(func(s *Subscription) {
			s.sendTrack(TrackChange{Previous: prev, Current: &cur, Index: idx})
		})
	}
	return nil
}

// stopPlayback halts the backend and idles the session. The load
// generation is bumped so an in-flight open cannot resurrect playback
// after the stop.
func (c *Controller) stopPlayback() {
	c.mu.Lock()
	prev := c.status
	c.genuineStart = false
	c.loadGen++
	c.status = StatusIdle
	c.mu.Unlock()

	c.out.Stop()
	if prev != StatusIdle {
		c.publishState(prev, StatusIdle)
	}
}

func (c *Controller) watchFinished() {
	for {
		select {
		case ok := <-c.out.FinishedChan():
			c.handleFinished(ok)
		case <-c.done:
			return
		}
	}
}

// handleFinished reacts to a backend end-of-media event. Finish signals
// arriving before the dwell guard, or without a genuine start, are
// discarded: some backends fire a bogus completion during initialization.
func (c *Controller) handleFinished(success bool) {
	c.mu.Lock()
	if !c.genuineStart || time.Since(c.startedAt) < c.dwell {
		c.genuineStart = false
		c.startedAt = time.Time{}
		c.mu.Unlock()
		return
	}
	c.genuineStart = false
	c.cancelCountLocked()
	cur := c.queue.Current()
	c.mu.Unlock()

	if !success {
		media := ""
		if cur != nil {
			media = cur.Media
		}
		c.publish(func(s *Subscription) {
			s.sendError(ErrorEvent{Operation: "playback", Media: media, Err: errors.New("backend aborted playback")})
		})
		c.stopPlayback()
		return
	}

	c.mu.Lock()
	t, ok := c.queue.Next()
	c.mu.Unlock()
	c.publishQueue()
	if t == nil || !ok {
		c.stopPlayback()
		return
	}
	_ = c.start(*t)
}

func (c *Controller) startCountTimerLocked(d time.Duration) {
	if c.playCounted {
		return
	}
	c.countStartedAt = time.Now()
	id := c.intendedID
	c.countTimer = time.AfterFunc(d, func() { c.firePlayCount(id) })
}

// firePlayCount records a listen once the threshold elapsed while still
// playing the same track. Skipping earlier never increments the count.
func (c *Controller) firePlayCount(id string) {
	c.mu.Lock()
	if c.playCounted || c.status != StatusPlaying || c.intendedID != id {
		c.mu.Unlock()
		return
	}
	c.playCounted = true
	c.mu.Unlock()

	if err := c.store.IncrementPlayCount(id); err != nil {
		c.publish(func(s *Subscription) {
			s.sendError(ErrorEvent{Operation: "count", Err: err})
		})
	}
}

func (c *Controller) cancelCountLocked() {
	if c.countTimer != nil {
		c.countTimer.Stop()
		c.countTimer = nil
	}
}

// --- publishing ---

func (c *Controller) publish(fn func(*Subscription)) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, s := range c.subs {
		fn(s)
	}
}

func (c *Controller) publishState(prev, cur Status) {
	if prev == cur {
		return
	}
	c.publish(func(s *Subscription) {
		s.sendState(StateChange{Previous: prev, Current: cur})
	})
}

func (c *Controller) publishQueue() {
	c.mu.Lock()
	e := QueueChange{Tracks: c.queue.Tracks(), Index: c.queue.CurrentIndex()}
	c.mu.Unlock()
	c.publish(func(s *Subscription) { s.sendQueue(e) })
}
