package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"

	"github.com/olivier-w/audioverlay/internal/media"
)

// BrowserResult is what the picker chose: a file, the microphone, or nothing.
type BrowserResult struct {
	Path      string
	Mic       bool
	Cancelled bool
}

type audioItem struct {
	name string
	ext  string
}

func (i audioItem) Title() string       { return i.name }
func (i audioItem) Description() string { return i.ext }
func (i audioItem) FilterValue() string { return i.name }

type micItem struct{}

func (micItem) Title() string       { return "Listen to microphone" }
func (micItem) Description() string { return "visualize the default input device" }
func (micItem) FilterValue() string { return "mic" }

type pathItem struct{}

func (pathItem) Title() string       { return "Open path..." }
func (pathItem) Description() string { return "type the path of an audio file" }
func (pathItem) FilterValue() string { return "path" }

// BrowserModel lets the user pick an audio source before the visualizer starts.
type BrowserModel struct {
	list     list.Model
	input    textinput.Model
	pathMode bool
	inputErr string
	result   *BrowserResult
	err      error
}

// NewBrowser lists the playable files in dir.
func NewBrowser(dir string) BrowserModel {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BrowserModel{err: fmt.Errorf("cannot read directory: %w", err)}
	}

	items := []list.Item{micItem{}, pathItem{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !media.IsSupportedExt(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		items = append(items, audioItem{name: filepath.Join(dir, name), ext: filepath.Ext(e.Name())})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "audioverlay"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "~/music/track.flac"
	ti.CharLimit = 4096
	ti.Width = 60

	return BrowserModel{list: l, input: ti}
}

// Error returns the initialization error, if any.
func (m BrowserModel) Error() error {
	return m.err
}

// Result returns the browser result after the program finishes.
func (m BrowserModel) Result() BrowserResult {
	if m.result != nil {
		return *m.result
	}
	return BrowserResult{Cancelled: true}
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("audioverlay")
}

func (m BrowserModel) finish(r BrowserResult) (tea.Model, tea.Cmd) {
	m.result = &r
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.pathMode {
		return m.updatePathInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case micItem:
				return m.finish(BrowserResult{Mic: true})
			case pathItem:
				m.pathMode = true
				m.input.Focus()
				return m, textinput.Blink
			case audioItem:
				return m.finish(BrowserResult{Path: item.name + item.ext})
			}
		case "q", "esc", "ctrl+c":
			return m.finish(BrowserResult{Cancelled: true})
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) updatePathInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			path := strings.TrimSpace(m.input.Value())
			if path == "" {
				return m, nil
			}
			if expanded, err := homedir.Expand(path); err == nil {
				path = expanded
			}
			if !media.IsSupportedExt(filepath.Ext(path)) {
				m.inputErr = "unsupported format (supported: " + media.SupportedExtsList() + ")"
				return m, nil
			}
			return m.finish(BrowserResult{Path: path})
		case "esc":
			m.pathMode = false
			m.inputErr = ""
			m.input.Reset()
			m.input.Blur()
			return m, nil
		case "ctrl+c":
			return m.finish(BrowserResult{Cancelled: true})
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if !m.pathMode {
		return m.list.View()
	}
	s := "\n"
	s += "  " + headerStyle.Render("audioverlay") + "\n"
	s += "\n"
	s += "  " + statusStyle.Render("Audio file:") + "\n"
	s += "  " + m.input.View() + "\n"
	if m.inputErr != "" {
		s += "  " + noticeStyle.Render(m.inputErr) + "\n"
	}
	s += "\n"
	s += "  " + helpStyle.Render("enter confirm  esc back  ctrl+c quit") + "\n"
	return s
}
