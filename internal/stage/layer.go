package stage

// Mode selects how a layer's cells are composited.
type Mode uint8

const (
	// ModePlain drops colors.
	ModePlain Mode = iota
	// ModeColor keeps per-cell colors.
	ModeColor
)

// Layer is one surface on the stage. It is handed to a visualization as its
// container; the visualization acquires the canvas in Init and releases it
// in Destroy.
type Layer struct {
	id      int
	mode    Mode
	width   int
	height  int
	canvas  *Canvas
	opacity float64
	scale   float64
}

func (l *Layer) ID() int          { return l.id }
func (l *Layer) Mode() Mode       { return l.mode }
func (l *Layer) Size() (int, int) { return l.width, l.height }

// Acquire allocates the layer's canvas on first use and returns it.
func (l *Layer) Acquire() *Canvas {
	if l.canvas == nil {
		l.canvas = NewCanvas(l.width, l.height)
	}
	return l.canvas
}

// Release drops the canvas.
func (l *Layer) Release() {
	l.canvas = nil
}

// Acquired reports whether the canvas is currently held.
func (l *Layer) Acquired() bool { return l.canvas != nil }

func (l *Layer) Opacity() float64 { return l.opacity }

// SetOpacity sets the blend weight, clamped to [0,1].
func (l *Layer) SetOpacity(v float64) { l.opacity = Clamp01(v) }

func (l *Layer) Scale() float64 { return l.scale }

// SetScale sets the zoom factor around the layer center. Non-positive values hide the layer.
func (l *Layer) SetScale(v float64) { l.scale = v }

func (l *Layer) resize(width, height int) {
	l.width = width
	l.height = height
	if l.canvas != nil {
		l.canvas.Resize(width, height)
	}
}
