package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Rotate   key.Binding
	Order    key.Binding
	Palette  key.Binding
	Pause    key.Binding
	SeekBack key.Binding
	SeekFwd  key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Loop     key.Binding
	Speech   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap(hasTransport, hasSpeech bool) keyMap {
	k := keyMap{
		Next:     key.NewBinding(key.WithKeys("n", "tab"), key.WithHelp("n", "next viz")),
		Prev:     key.NewBinding(key.WithKeys("p", "shift+tab"), key.WithHelp("p", "prev viz")),
		Rotate:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-rotate")),
		Order:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),
		Palette:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "colors")),
		Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		SeekBack: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "seek -5s")),
		SeekFwd:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "seek +5s")),
		VolUp:    key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+", "volume up")),
		VolDown:  key.NewBinding(key.WithKeys("-", "down"), key.WithHelp("-", "volume down")),
		Loop:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "loop")),
		Speech:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "lyrics")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	if !hasTransport {
		for _, b := range []*key.Binding{&k.Pause, &k.SeekBack, &k.SeekFwd, &k.VolUp, &k.VolDown, &k.Loop} {
			b.SetEnabled(false)
		}
	}
	k.Speech.SetEnabled(hasSpeech)
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Rotate, k.Palette, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Rotate, k.Order, k.Palette},
		{k.Pause, k.SeekBack, k.SeekFwd, k.Loop},
		{k.VolUp, k.VolDown, k.Speech, k.Help, k.Quit},
	}
}
