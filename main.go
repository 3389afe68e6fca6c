package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cadenza-player/cadenza/internal/audio"
	"github.com/cadenza-player/cadenza/internal/catalog"
	"github.com/cadenza-player/cadenza/internal/config"
	"github.com/cadenza-player/cadenza/internal/queue"
	"github.com/cadenza-player/cadenza/internal/session"
)

var (
	playerBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	playingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("84"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type tickMsg time.Time

type (
	stateMsg session.StateChange
	trackMsg session.TrackChange
	queueMsg session.QueueChange
	modeMsg  session.ModeChange
	errorMsg session.ErrorEvent
	doneMsg  struct{}
)

type model struct {
	ctrl  *session.Controller
	store *catalog.SQLiteStore
	sub   *session.Subscription

	tracks   []queue.Track
	index    int // playing position in the queue
	selected int // UI cursor
	status   session.Status
	shuffle  bool
	repeat   queue.RepeatMode
	lastErr  string

	width  int
	height int
}

func initialModel() (model, error) {
	cfg, err := config.Load()
	if err != nil {
		return model{}, err
	}

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return model{}, err
	}

	all, err := store.LoadTracks()
	if err != nil {
		store.Close()
		return model{}, err
	}
	if len(all) == 0 {
		store.Close()
		return model{}, fmt.Errorf("catalog is empty; run mediascan over your library first")
	}

	pb := cfg.GetPlaybackConfig()
	ctrl := session.New(queue.New(), audio.NewPlayer(), store)
	ctrl.ReplaceQueue(seedQueue(all, pb.SeedQueueSize), 0)
	if pb.Shuffle {
		ctrl.ToggleShuffle()
	}

	m := model{
		ctrl:    ctrl,
		store:   store,
		sub:     ctrl.Subscribe(),
		tracks:  ctrl.QueueTracks(),
		index:   ctrl.QueueIndex(),
		status:  ctrl.Status(),
		shuffle: ctrl.Shuffle(),
		repeat:  ctrl.RepeatMode(),
	}
	m.selected = m.index
	return m, nil
}

// seedQueue picks a random sample from the catalog to start the session
// with, so launching the app always has something to play.
func seedQueue(all []catalog.Track, size int) []queue.Track {
	perm := rand.Perm(len(all))
	if size > len(all) {
		size = len(all)
	}
	picked := make([]catalog.Track, size)
	for i := 0; i < size; i++ {
		picked[i] = all[perm[i]]
	}
	return catalog.QueueTracks(picked)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(listenCmd(m.sub), tickCmd())
}

// listenCmd forwards the next session event into the bubbletea loop.
func listenCmd(sub *session.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return stateMsg(e)
		case e := <-sub.TrackChanged:
			return trackMsg(e)
		case e := <-sub.QueueChanged:
			return queueMsg(e)
		case e := <-sub.ModeChanged:
			return modeMsg(e)
		case e := <-sub.Error:
			return errorMsg(e)
		case <-sub.Done:
			return doneMsg{}
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case stateMsg:
		m.status = msg.Current
		return m, listenCmd(m.sub)

	case trackMsg:
		m.index = msg.Index
		return m, listenCmd(m.sub)

	case queueMsg:
		m.tracks = msg.Tracks
		m.index = msg.Index
		m.selected = clamp(m.selected, 0, len(m.tracks)-1)
		return m, listenCmd(m.sub)

	case modeMsg:
		m.repeat = msg.RepeatMode
		m.shuffle = msg.Shuffle
		return m, listenCmd(m.sub)

	case errorMsg:
		m.lastErr = msg.Err.Error()
		return m, listenCmd(m.sub)

	case doneMsg:
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.ctrl.Close()
		m.store.Close()
		return m, tea.Quit

	case "up", "k":
		m.selected = clamp(m.selected-1, 0, len(m.tracks)-1)
	case "down", "j":
		m.selected = clamp(m.selected+1, 0, len(m.tracks)-1)

	case "enter":
		_ = m.ctrl.PlayAt(m.selected)
	case " ":
		_ = m.ctrl.TogglePlayPause()
	case "n":
		_ = m.ctrl.Advance()
	case "p":
		_ = m.ctrl.Retreat()
	case "s":
		m.ctrl.ToggleShuffle()
	case "r":
		m.ctrl.CycleRepeatMode()
	case "d":
		m.ctrl.RemoveAt(m.selected)
	case "c":
		m.ctrl.ClearQueue()
	case "J":
		if m.ctrl.Move(m.selected, m.selected+1) {
			m.selected = clamp(m.selected+1, 0, len(m.tracks)-1)
		}
	case "K":
		if m.ctrl.Move(m.selected, m.selected-1) {
			m.selected = clamp(m.selected-1, 0, len(m.tracks)-1)
		}
	case "f":
		if cur := m.ctrl.Current(); cur != nil {
			if _, err := m.store.ToggleFavorite(cur.ID); err != nil {
				m.lastErr = err.Error()
			}
		}
	case "left":
		m.ctrl.Seek(m.ctrl.Position() - 5*time.Second)
	case "right":
		m.ctrl.Seek(m.ctrl.Position() + 5*time.Second)
	}
	return m, nil
}

const playerBarHeight = 3 // top border + content + bottom border

func (m model) View() string {
	listHeight := m.height - playerBarHeight - 1
	if listHeight < 1 {
		listHeight = 1
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf(" queue · %d tracks · shuffle %s · repeat %s",
		len(m.tracks), onOff(m.shuffle), m.repeat)))
	b.WriteString("\n")

	start := clamp(m.selected-listHeight/2, 0, max(0, len(m.tracks)-listHeight))
	end := min(start+listHeight, len(m.tracks))
	for i := start; i < end; i++ {
		t := m.tracks[i]
		marker := "  "
		if i == m.index {
			marker = "▸ "
		}
		line := fmt.Sprintf("%s%s — %s", marker, t.Artist, t.Title)
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case i == m.index:
			line = playingStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.playerBar())
	if m.lastErr != "" {
		b.WriteString("\n" + dimStyle.Render(" "+m.lastErr))
	}
	return b.String()
}

func (m model) playerBar() string {
	innerWidth := m.width - 2
	if innerWidth < 0 {
		innerWidth = 0
	}

	cur := m.ctrl.Current()
	if cur == nil || !m.status.IsActive() {
		return playerBarStyle.Width(innerWidth).Render(" nothing playing")
	}

	status := "▶"
	if m.status == session.StatusPaused {
		status = "⏸"
	}

	left := fmt.Sprintf(" %s  %s — %s", status, cur.Artist, cur.Title)
	right := fmt.Sprintf("%s / %s ",
		formatDuration(m.ctrl.Position()), formatDuration(m.ctrl.Duration()))

	padding := innerWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	content := left + strings.Repeat(" ", padding) + right
	return playerBarStyle.Width(innerWidth).Render(content)
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func main() {
	m, err := initialModel()
	if err != nil {
		fmt.Printf("Error initializing: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
