// Package modes holds the built-in visualizations. Each one draws into the
// canvas its container hands out and reads nothing but AudioData.
package modes

import (
	"errors"
	"math"

	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

var (
	errNoContainer    = errors.New("nil container")
	errNotInitialized = errors.New("not initialized")
)

// All returns every built-in module in display order.
func All() []visualizer.Module {
	return []visualizer.Module{
		module("spectrum", "Spectrum", visualizer.RendererANSI, visualizer.TransitionCrossfade, func() visualizer.Visualization { return NewSpectrum() }),
		module("waveform", "Waveform", visualizer.RendererANSI, visualizer.TransitionCrossfade, func() visualizer.Visualization { return NewWaveform() }),
		module("braille", "Braille", visualizer.RendererBraille, visualizer.TransitionCrossfade, func() visualizer.Visualization { return NewBraille() }),
		module("vu", "VU Meter", visualizer.RendererANSI, visualizer.TransitionCut, func() visualizer.Visualization { return NewVUMeter() }),
		module("dense", "Dense", visualizer.RendererText, visualizer.TransitionCut, func() visualizer.Visualization { return NewDense() }),
		module("waterfall", "Waterfall", visualizer.RendererANSI, visualizer.TransitionZoom, func() visualizer.Visualization { return NewWaterfall() }),
		module("matrix", "Matrix", visualizer.RendererANSI, visualizer.TransitionZoom, func() visualizer.Visualization { return NewMatrix() }),
		module("scope", "Scope", visualizer.RendererANSI, visualizer.TransitionZoom, func() visualizer.Visualization { return NewScope() }),
	}
}

func module(id, name string, r visualizer.Renderer, tr visualizer.Transition, fn func() visualizer.Visualization) visualizer.Module {
	return visualizer.Module{
		Meta: visualizer.Meta{ID: id, Name: name, Renderer: r, Transition: tr},
		New:  fn,
	}
}

// base is the lifecycle state every mode shares.
type base struct {
	container visualizer.Container
	canvas    *stage.Canvas
	cfg       visualizer.Config
	palette   stage.Gradient
}

func (b *base) init(c visualizer.Container, cfg visualizer.Config) error {
	if c == nil {
		return errNoContainer
	}
	b.container = c
	b.canvas = c.Acquire()
	b.cfg = cfg.Clone()
	b.palette = b.cfg.Palette()
	return nil
}

func (b *base) merge(partial visualizer.Config) error {
	if b.cfg == nil {
		return errNotInitialized
	}
	b.cfg.Merge(partial)
	b.palette = b.cfg.Palette()
	return nil
}

// frame returns the cleared canvas for a new frame.
func (b *base) frame() (*stage.Canvas, error) {
	if b.canvas == nil {
		return nil, errNotInitialized
	}
	b.canvas.Clear()
	return b.canvas, nil
}

func (b *base) release() {
	if b.container != nil {
		b.container.Release()
	}
	b.container = nil
	b.canvas = nil
}

func (b *base) gain() float64 { return b.cfg.Sensitivity() }

// logBands averages byte magnitudes into n log-spaced bands in [0,1].
// Bin 0 is skipped.
func logBands(freq []byte, n int, dst []float64) []float64 {
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	clear(dst)
	maxBin := len(freq)
	if maxBin < 2 {
		return dst
	}
	for b := range n {
		lo := int(math.Pow(float64(maxBin), float64(b)/float64(n)))
		hi := int(math.Pow(float64(maxBin), float64(b+1)/float64(n)))
		lo = max(lo, 1)
		if hi <= lo {
			hi = lo + 1
		}
		hi = min(hi, maxBin)
		if lo >= hi {
			continue
		}
		sum := 0
		for i := lo; i < hi; i++ {
			sum += int(freq[i])
		}
		dst[b] = float64(sum) / float64(hi-lo) / 255
	}
	return dst
}

// resample linearly interpolates levels across n points.
func resample(levels []float64, n int) []float64 {
	out := make([]float64, n)
	if len(levels) == 0 || n == 0 {
		return out
	}
	last := len(levels) - 1
	den := max(n-1, 1)
	for i := range n {
		frac := float64(i) / float64(den) * float64(last)
		lo := int(frac)
		hi := min(lo+1, last)
		t := frac - float64(lo)
		out[i] = levels[lo]*(1-t) + levels[hi]*t
	}
	return out
}

// centered maps a time-domain byte to [-1,1].
func centered(b byte) float64 { return (float64(b) - 128) / 128 }
