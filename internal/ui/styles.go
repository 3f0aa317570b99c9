package ui

import "github.com/charmbracelet/lipgloss"

var (
	faint  = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
	muted  = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	normal = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	strong = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}
	accent = lipgloss.AdaptiveColor{Light: "#AA3300", Dark: "#FF8C00"}
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(muted)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(strong)
	targetStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	statusStyle = lipgloss.NewStyle().Foreground(normal)
	noticeStyle = lipgloss.NewStyle().Foreground(accent)
	helpStyle   = lipgloss.NewStyle().Foreground(faint)
)
