// Package ui hosts the engine in a bubbletea program: it pumps frames,
// composites the stage and maps keys to engine, rotation and playback
// controls.
package ui

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/audioverlay/internal/engine"
	"github.com/olivier-w/audioverlay/internal/rotation"
	"github.com/olivier-w/audioverlay/internal/speech"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// chromeLines is the header, status and help rows around the stage.
const chromeLines = 3

const noticeTTL = 4 * time.Second

// lyricWords is how many recent words the status line keeps.
const lyricWords = 8

// Transport is the playback surface of a file source. Live input has none.
type Transport interface {
	TogglePause()
	Paused() bool
	Seek(delta time.Duration)
	AdjustVolume(delta float64)
	Volume() float64
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
	Restart()
	Close()
}

// Speech is a running transcription sidecar.
type Speech interface {
	Messages() <-chan speech.Message
	SetEnabled(on bool) error
	Enabled() bool
}

// Options wires the model to its collaborators.
type Options struct {
	Engine    *engine.Engine
	Rotation  *rotation.Controller // may be nil
	Transport Transport            // nil for live input
	Speech    Speech               // may be nil
	Title     string
	// FrameInterval is the time between frame ticks.
	FrameInterval time.Duration
	Profile       stage.Profile
	// Palette overrides every module's color scheme when set.
	Palette string
	Logger  *log.Logger
}

// Model is the Bubbletea model for the visualizer host.
type Model struct {
	engine    *engine.Engine
	rotation  *rotation.Controller
	transport Transport
	speech    Speech
	title     string
	interval  time.Duration
	profile   stage.Profile
	log       *log.Logger

	palettes []string
	palette  int // index into palettes, -1 keeps module defaults

	keys     keyMap
	help     help.Model
	progress progress.Model

	words        []string
	speechStatus string

	loop     bool
	width    int
	height   int
	notice   string
	noticeAt time.Time
	lastTick time.Time
	quitting bool

	unsub func()
}

// New creates a new Model.
func New(opts Options) *Model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / 30
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	m := &Model{
		engine:    opts.Engine,
		rotation:  opts.Rotation,
		transport: opts.Transport,
		speech:    opts.Speech,
		title:     opts.Title,
		interval:  opts.FrameInterval,
		profile:   opts.Profile,
		log:       opts.Logger,
		palettes:  stage.PaletteNames(),
		palette:   -1,
		keys:      newKeyMap(opts.Transport != nil, opts.Speech != nil),
		help:      help.New(),
		progress: progress.New(
			progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
			progress.WithoutPercentage(),
			progress.WithWidth(12),
		),
	}
	if opts.Palette != "" {
		m.palette = slices.Index(m.palettes, opts.Palette)
	}
	m.unsub = m.engine.Subscribe(m.observe)
	return m
}

// observe surfaces engine failures in the status line.
func (m *Model) observe(ev engine.Event) {
	switch ev.Kind {
	case engine.InstanceFailed:
		m.log.Printf("ui: %s failed: %v", ev.ID, ev.Err)
	case engine.InstanceRemoved:
		m.setNotice(fmt.Sprintf("%s removed after repeated errors", ev.ID), ev.At)
	}
}

func (m *Model) setNotice(s string, at time.Time) {
	if at.IsZero() {
		at = m.lastTick
	}
	m.notice = s
	m.noticeAt = at
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd(m.interval), tea.SetWindowTitle(m.windowTitle())}
	if m.transport != nil {
		cmds = append(cmds, checkDone(m.transport))
	}
	if m.speech != nil {
		cmds = append(cmds, waitSpeech(m.speech.Messages()))
	}
	return tea.Batch(cmds...)
}

func checkDone(t Transport) tea.Cmd {
	return func() tea.Msg {
		<-t.Done()
		return playbackEndedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case frameMsg:
		now := time.Time(msg)
		m.lastTick = now
		m.engine.Tick(now)
		if m.rotation != nil {
			m.rotation.Tick(now)
		}
		if m.notice != "" && now.Sub(m.noticeAt) > noticeTTL {
			m.notice = ""
		}
		return m, frameCmd(m.interval)

	case playbackEndedMsg:
		if m.loop {
			m.transport.Restart()
			return m, checkDone(m.transport)
		}
		return m, m.quit()

	case speechMsg:
		m.handleSpeech(speech.Message(msg))
		if m.speech == nil {
			return m, nil
		}
		return m, waitSpeech(m.speech.Messages())

	case speechClosedMsg:
		m.speech = nil
		m.speechStatus = ""
		m.keys.Speech.SetEnabled(false)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.engine.Resize(msg.Width, max(1, msg.Height-chromeLines))
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Next):
		m.step(1)
	case key.Matches(msg, m.keys.Prev):
		m.step(-1)
	case key.Matches(msg, m.keys.Rotate):
		if m.rotation != nil {
			m.rotation.SetEnabled(!m.rotation.Config().Enabled)
		}
	case key.Matches(msg, m.keys.Order):
		if m.rotation != nil {
			m.rotation.SetOrder(m.rotation.Config().Order.Next())
		}
	case key.Matches(msg, m.keys.Palette):
		m.cyclePalette()
	case key.Matches(msg, m.keys.Speech):
		if m.speech != nil {
			if err := m.speech.SetEnabled(!m.speech.Enabled()); err != nil {
				m.setNotice("speech: "+err.Error(), time.Time{})
			}
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Pause):
		m.transport.TogglePause()
		return tea.SetWindowTitle(m.windowTitle())
	case key.Matches(msg, m.keys.SeekBack):
		m.transport.Seek(-5 * time.Second)
	case key.Matches(msg, m.keys.SeekFwd):
		m.transport.Seek(5 * time.Second)
	case key.Matches(msg, m.keys.VolUp):
		m.transport.AdjustVolume(0.05)
	case key.Matches(msg, m.keys.VolDown):
		m.transport.AdjustVolume(-0.05)
	case key.Matches(msg, m.keys.Loop):
		m.loop = !m.loop
	}
	return nil
}

func (m *Model) handleSpeech(msg speech.Message) {
	switch msg.Type {
	case speech.TypeWord:
		m.words = append(m.words, msg.Word.Word)
		if len(m.words) > lyricWords {
			m.words = m.words[len(m.words)-lyricWords:]
		}
	case speech.TypeStatus:
		m.speechStatus = msg.Status
		if msg.Status == "disabled" {
			m.words = nil
		}
	case speech.TypeReady:
		m.speechStatus = "ready"
	case speech.TypeError:
		m.setNotice("speech: "+msg.Message, time.Time{})
	}
}

// step switches to the module delta places away from the current target.
func (m *Model) step(delta int) {
	ids := m.engine.Registry().IDs()
	if len(ids) == 0 {
		return
	}
	next := ids[0]
	if cur := slices.Index(ids, m.engine.TargetID()); cur >= 0 {
		next = ids[((cur+delta)%len(ids)+len(ids))%len(ids)]
	}
	if err := m.engine.SwitchTo(next, m.paletteConfig()); err != nil {
		m.setNotice(err.Error(), time.Time{})
	}
}

func (m *Model) paletteConfig() visualizer.Config {
	if m.palette < 0 || m.palette >= len(m.palettes) {
		return nil
	}
	return visualizer.Config{"colorScheme": m.palettes[m.palette]}
}

func (m *Model) cyclePalette() {
	if len(m.palettes) == 0 {
		return
	}
	m.palette = (m.palette + 1) % len(m.palettes)
	if err := m.engine.UpdateConfig(m.paletteConfig()); err != nil {
		m.setNotice(err.Error(), time.Time{})
	}
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	if m.rotation != nil {
		m.rotation.Close()
	}
	m.engine.Shutdown()
	if m.transport != nil {
		m.transport.Close()
	}
	return tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteByte('\n')
	b.WriteString(m.engine.Stage().Compose(m.profile))
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) headerLine() string {
	st := m.engine.State()
	line := headerStyle.Render("audioverlay") + "  " + titleStyle.Render(m.moduleLabel(st.ActiveID))
	if st.State != engine.Steady {
		line += targetStyle.Render(fmt.Sprintf("  %s → %s ", st.State, m.moduleLabel(st.TargetID)))
		line += m.progress.ViewAs(st.Progress)
	}
	return line
}

func (m *Model) moduleLabel(id string) string {
	if id == "" {
		return "none"
	}
	if meta, ok := m.engine.Registry().Lookup(id); ok {
		return meta.Label()
	}
	return id
}

func (m *Model) statusLine() string {
	parts := make([]string, 0, 5)
	if m.title != "" {
		parts = append(parts, m.title)
	}
	if m.transport != nil {
		bar := max(10, m.width/4)
		s := renderTransport(m.transport.Paused(), m.transport.Position(), m.transport.Duration(), m.transport.Volume(), bar)
		if m.loop {
			s += "  [repeat]"
		}
		parts = append(parts, s)
	} else {
		parts = append(parts, "● live input")
	}
	if m.rotation != nil {
		parts = append(parts, renderRotation(m.rotation.Status()))
	}
	if p := m.paletteConfig(); p != nil {
		parts = append(parts, "colors "+m.palettes[m.palette])
	}
	if m.speech != nil {
		if len(m.words) > 0 {
			parts = append(parts, "♪ "+strings.Join(m.words, " "))
		} else if m.speechStatus != "" {
			parts = append(parts, "lyrics "+m.speechStatus)
		}
	}
	line := statusStyle.Render(strings.Join(parts, "  ·  "))
	if m.notice != "" {
		line += "  " + noticeStyle.Render(m.notice)
	}
	return line
}

func (m *Model) windowTitle() string {
	name := m.title
	if name == "" {
		name = "live input"
	}
	if m.transport != nil && m.transport.Paused() {
		return "⏸ " + name + " - audioverlay"
	}
	return "▶ " + name + " - audioverlay"
}
