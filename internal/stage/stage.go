package stage

import "slices"

// Stage is the ordered set of layers composited into one frame, bottom first.
type Stage struct {
	width  int
	height int
	layers []*Layer
	nextID int
}

// New creates an empty stage of the given cell size.
func New(width, height int) *Stage {
	return &Stage{width: width, height: height}
}

func (s *Stage) Size() (int, int) { return s.width, s.height }

// AddLayer pushes a fresh, fully opaque layer on top.
func (s *Stage) AddLayer(mode Mode) *Layer {
	s.nextID++
	l := &Layer{
		id:      s.nextID,
		mode:    mode,
		width:   s.width,
		height:  s.height,
		opacity: 1,
		scale:   1,
	}
	s.layers = append(s.layers, l)
	return l
}

// Remove detaches l from the stage and drops its canvas.
func (s *Stage) Remove(l *Layer) {
	if l == nil {
		return
	}
	l.Release()
	s.layers = slices.DeleteFunc(s.layers, func(x *Layer) bool { return x == l })
}

// Resize changes the stage size and every layer with it.
func (s *Stage) Resize(width, height int) {
	s.width = width
	s.height = height
	for _, l := range s.layers {
		l.resize(width, height)
	}
}

// Layers returns the layers bottom first.
func (s *Stage) Layers() []*Layer {
	return slices.Clone(s.layers)
}

// Acquired counts layers whose canvas is currently held.
func (s *Stage) Acquired() int {
	n := 0
	for _, l := range s.layers {
		if l.Acquired() {
			n++
		}
	}
	return n
}
