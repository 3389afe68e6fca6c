package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Player is the speaker-backed Output implementation.
type Player struct {
	mu       sync.Mutex
	state    State
	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
	format   beep.Format
	file     *os.File
	session  uint64 // guards finished callbacks from stopped sessions
	finished chan bool
}

var _ Output = (*Player)(nil)

// The speaker is initialized once, at the first track's sample rate.
// Tracks decoded at any other rate are resampled to this rate, or they
// would play at the wrong speed and pitch.
var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
)

// NewPlayer creates a stopped player.
func NewPlayer() *Player {
	return &Player{
		state:    Stopped,
		finished: make(chan bool, 1),
	}
}

// Play opens the media file and starts playback, replacing any current
// session. The error path leaves the player stopped.
func (p *Player) Play(media string) error {
	p.Stop()

	f, streamer, format, err := decode(media)
	if err != nil {
		return err
	}

	var initErr error
	speakerOnce.Do(func() {
		speakerRate = format.SampleRate
		initErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	if initErr != nil {
		streamer.Close()
		f.Close()
		return initErr
	}

	p.mu.Lock()
	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: resampled(streamer, format.SampleRate, speakerRate)}
	p.state = Playing
	p.session++
	session := p.session
	p.mu.Unlock()

	// The callback fires on the speaker's streaming goroutine with the
	// speaker mutex held. notifyFinished takes p.mu, and every other
	// method takes p.mu before the speaker mutex, so the callback must
	// hop to its own goroutine or a concurrent Stop/Pause/Position call
	// deadlocks both goroutines.
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		go p.notifyFinished(session, true)
	})))
	return nil
}

// resampled adapts a streamer decoded at from to a speaker running at
// to. Matching rates pass through untouched.
func resampled(s beep.Streamer, from, to beep.SampleRate) beep.Streamer {
	if from == to {
		return s
	}
	return beep.Resample(4, from, to, s)
}

// decode opens a media file with the decoder matching its extension.
// The caller owns the returned file and streamer.
func decode(media string) (*os.File, beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(media)
	if err != nil {
		return nil, nil, beep.Format{}, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch strings.ToLower(filepath.Ext(media)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, nil, beep.Format{}, fmt.Errorf("unsupported format: %s", filepath.Ext(media))
	}
	if err != nil {
		f.Close()
		return nil, nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(media), err)
	}
	return f, streamer, format, nil
}

// ProbeDuration decodes just enough of a media file to report its length.
func ProbeDuration(media string) (time.Duration, error) {
	f, streamer, format, err := decode(media)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// notifyFinished forwards the backend's end-of-media callback, dropping
// callbacks from sessions that have already been stopped or replaced.
func (p *Player) notifyFinished(session uint64, ok bool) {
	p.mu.Lock()
	stale := session != p.session || p.state == Stopped
	if !stale {
		p.state = Stopped
	}
	p.mu.Unlock()
	if stale {
		return
	}
	select {
	case p.finished <- ok:
	default:
	}
}

// Stop halts playback and releases the media file. No finished event fires.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Stopped {
		return
	}

	speaker.Clear()
	p.session++

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.ctrl = nil
	p.state = Stopped
}

// Pause suspends playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Resume continues paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Seek jumps to an absolute position, clamped to the media bounds.
func (p *Player) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return
	}
	speaker.Lock()
	sample := p.format.SampleRate.N(pos)
	if sample < 0 {
		sample = 0
	}
	if sample > p.streamer.Len() {
		sample = p.streamer.Len()
	}
	_ = p.streamer.Seek(sample)
	speaker.Unlock()
}

// Position returns the elapsed playback time.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the decoded media length.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// State returns the backend state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// FinishedChan returns the end-of-media event channel.
func (p *Player) FinishedChan() <-chan bool {
	return p.finished
}
