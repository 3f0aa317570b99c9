package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/audioverlay/internal/speech"
)

type frameMsg time.Time
type playbackEndedMsg struct{}
type speechMsg speech.Message
type speechClosedMsg struct{}

func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitSpeech(ch <-chan speech.Message) tea.Cmd {
	return func() tea.Msg {
		m, ok := <-ch
		if !ok {
			return speechClosedMsg{}
		}
		return speechMsg(m)
	}
}
