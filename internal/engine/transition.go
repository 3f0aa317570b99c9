package engine

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// Smoothstep returns 3t^2 - 2t^3 for t in [0,1], clamped outside it.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// easeOutCubic decelerates into 1.
func easeOutCubic(t float64) float64 {
	t = stage.Clamp01(t)
	u := 1 - t
	return 1 - u*u*u
}

// Weights returns the outgoing and incoming blend weights at progress p.
// They always sum to 1.
func Weights(p float64) (out, in float64) {
	s := Smoothstep(p)
	return 1 - s, s
}

// transition tracks one in-flight hand-off. For a cut, incoming is nil until
// the next tick performs it.
type transition struct {
	kind     visualizer.Transition
	target   string
	cfg      visualizer.Config
	incoming *slot
	elapsed  time.Duration
	duration time.Duration
}

func (t *transition) progress() float64 {
	if t.duration <= 0 {
		return 1
	}
	return stage.Clamp01(float64(t.elapsed) / float64(t.duration))
}

// apply writes the blend for the current progress onto both layers.
func (t *transition) apply(old *slot, zoomFrom float64) {
	p := t.progress()
	wOut, wIn := Weights(p)
	if old != nil {
		old.layer.SetOpacity(wOut)
	}
	if t.incoming == nil {
		return
	}
	t.incoming.layer.SetOpacity(wIn)
	if t.kind == visualizer.TransitionZoom {
		t.incoming.layer.SetScale(zoomFrom + (1-zoomFrom)*easeOutCubic(p))
	}
}
