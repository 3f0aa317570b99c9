package visualizer

// Renderer is the drawing backend a module needs from its surface.
type Renderer string

const (
	// RendererText draws uncolored glyphs.
	RendererText Renderer = "text"
	// RendererANSI draws colored glyphs.
	RendererANSI Renderer = "ansi"
	// RendererBraille draws colored 2x4 braille dots per cell.
	RendererBraille Renderer = "braille"
)

// Valid reports whether r is a known renderer.
func (r Renderer) Valid() bool {
	switch r {
	case RendererText, RendererANSI, RendererBraille:
		return true
	}
	return false
}

// Transition is how the engine hands off to a module.
type Transition string

const (
	TransitionCrossfade Transition = "crossfade"
	TransitionCut       Transition = "cut"
	TransitionZoom      Transition = "zoom"
)

// Valid reports whether t is a known transition.
func (t Transition) Valid() bool {
	switch t {
	case TransitionCrossfade, TransitionCut, TransitionZoom:
		return true
	}
	return false
}

// Meta is the static description every module declares once.
type Meta struct {
	ID         string
	Name       string // display label; defaults to ID
	Renderer   Renderer
	Transition Transition
}

// Label returns Name, or ID when Name is empty.
func (m Meta) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
