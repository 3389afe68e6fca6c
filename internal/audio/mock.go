package audio

import (
	"sync"
	"time"
)

// Mock is a test double for Output.
type Mock struct {
	mu        sync.Mutex
	state     State
	media     string
	position  time.Duration
	duration  time.Duration
	playErr   error
	playDelay time.Duration
	playCalls []string
	seekCalls []time.Duration
	finished  chan bool
}

var _ Output = (*Mock)(nil)

// NewMock creates a stopped mock output.
func NewMock() *Mock {
	return &Mock{
		state:    Stopped,
		finished: make(chan bool, 1),
	}
}

func (m *Mock) Play(media string) error {
	m.mu.Lock()
	delay := m.playDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls = append(m.playCalls, media)
	if m.playErr != nil {
		m.state = Stopped
		return m.playErr
	}
	m.state = Playing
	m.media = media
	m.position = 0
	return nil
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
	m.media = ""
	m.position = 0
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Playing
	}
}

func (m *Mock) Seek(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) FinishedChan() <-chan bool {
	return m.finished
}

// Test helpers

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetPlayDelay makes Play block for d before completing, simulating a
// slow media open.
func (m *Mock) SetPlayDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playDelay = d
}

func (m *Mock) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) PlayCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.playCalls))
	copy(out, m.playCalls)
	return out
}

// CurrentMedia returns the media the mock is currently playing, or ""
// when stopped.
func (m *Mock) CurrentMedia() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.seekCalls))
	copy(out, m.seekCalls)
	return out
}

// SimulateFinished delivers an end-of-media event as the backend would.
func (m *Mock) SimulateFinished(ok bool) {
	m.mu.Lock()
	m.state = Stopped
	m.media = ""
	m.mu.Unlock()
	select {
	case m.finished <- ok:
	default:
	}
}
