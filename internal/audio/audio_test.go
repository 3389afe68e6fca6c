package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
)

func TestIsPlayable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.FLAC", true},
		{"/music/song.wav", true},
		{"/music/song.ogg", true},
		{"/music/song.m4a", false},
		{"/music/cover.jpg", false},
		{"/music/song", false},
	}
	for _, tt := range tests {
		if got := IsPlayable(tt.path); got != tt.want {
			t.Errorf("IsPlayable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMock_StateTransitions(t *testing.T) {
	m := NewMock()

	if err := m.Play("/a.mp3"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if m.State() != Playing {
		t.Errorf("State() = %v, want Playing", m.State())
	}

	m.Pause()
	if m.State() != Paused {
		t.Errorf("State() = %v, want Paused", m.State())
	}

	m.Resume()
	if m.State() != Playing {
		t.Errorf("State() = %v, want Playing", m.State())
	}

	m.Stop()
	if m.State() != Stopped {
		t.Errorf("State() = %v, want Stopped", m.State())
	}
}

func TestMock_PlayError(t *testing.T) {
	m := NewMock()
	m.SetPlayError(errors.New("no device"))

	if err := m.Play("/a.mp3"); err == nil {
		t.Fatal("Play() should fail")
	}
	if m.State() != Stopped {
		t.Errorf("State() = %v, want Stopped after failed play", m.State())
	}
	if calls := m.PlayCalls(); len(calls) != 1 || calls[0] != "/a.mp3" {
		t.Errorf("PlayCalls() = %v, want [/a.mp3]", calls)
	}
}

func TestPlayerNotifyFinished(t *testing.T) {
	p := NewPlayer()
	p.mu.Lock()
	p.state = Playing
	p.session = 2
	p.mu.Unlock()

	// The end-of-media callback dispatches from the speaker goroutine;
	// it must be safe to run while another goroutine is using the
	// player's public API.
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.notifyFinished(2, true)
	}()

	select {
	case ok := <-p.FinishedChan():
		if !ok {
			t.Error("finished event should carry success")
		}
	case <-time.After(time.Second):
		t.Fatal("no finished event delivered")
	}
	<-done
	if p.State() != Stopped {
		t.Errorf("State() = %v, want Stopped", p.State())
	}

	// A callback from a replaced session is dropped.
	p.mu.Lock()
	p.state = Playing
	p.session = 3
	p.mu.Unlock()
	p.notifyFinished(2, true)

	select {
	case <-p.FinishedChan():
		t.Error("stale session callback must not deliver an event")
	default:
	}
	if p.State() != Playing {
		t.Errorf("State() = %v, want Playing after stale callback", p.State())
	}
}

func TestResampledMatchesSpeakerRate(t *testing.T) {
	s := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		return 0, false
	})

	if _, ok := resampled(s, 44100, 44100).(*beep.Resampler); ok {
		t.Error("matching rates must pass the streamer through untouched")
	}
	if _, ok := resampled(s, 48000, 44100).(*beep.Resampler); !ok {
		t.Error("mismatched rates must wrap the streamer in a resampler")
	}
}

func TestMock_SimulateFinished(t *testing.T) {
	m := NewMock()
	_ = m.Play("/a.mp3")

	m.SimulateFinished(true)

	select {
	case ok := <-m.FinishedChan():
		if !ok {
			t.Error("finished event should carry success")
		}
	case <-time.After(time.Second):
		t.Fatal("no finished event delivered")
	}
	if m.State() != Stopped {
		t.Errorf("State() = %v, want Stopped", m.State())
	}
}
