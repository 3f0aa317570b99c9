package modes

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

var waterfallChars = []rune{' ', '.', ':', '-', '=', '+', '*', '#', '%', '@'}

// Waterfall renders a scrolling spectrogram, newest line on top.
type Waterfall struct {
	base
	smooth  springField
	bands   []float64
	history [][]float64
}

func NewWaterfall() *Waterfall {
	return &Waterfall{smooth: newSpringField(8.5, 0.72)}
}

func (w *Waterfall) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"fade": {
			Type: visualizer.FieldNumber, Label: "Age fade", Default: 0.65,
			Min: visualizer.Float(0), Max: visualizer.Float(1), Step: visualizer.Float(0.05),
		},
	})
}

func (w *Waterfall) Init(c visualizer.Container, cfg visualizer.Config) error {
	return w.init(c, cfg)
}

func (w *Waterfall) Render(data audio.AudioData, dt time.Duration) error {
	canvas, err := w.frame()
	if err != nil {
		return err
	}
	cols, height := canvas.Width(), canvas.Height()
	if cols < 1 || height < 1 {
		return nil
	}
	w.bands = logBands(data.FrequencyData, 36, w.bands)
	targets := resample(w.bands, cols)

	w.smooth.resize(cols)
	w.smooth.retime(dt)
	if len(w.history) != height || len(w.history[0]) != cols {
		w.history = make([][]float64, height)
		for r := range height {
			w.history[r] = make([]float64, cols)
		}
	}
	// Rotate rows so the oldest buffer becomes the new top line.
	oldest := w.history[height-1]
	copy(w.history[1:], w.history[:height-1])
	w.history[0] = oldest

	gain := w.gain()
	for c, target := range targets {
		oldest[c] = stage.Clamp01(w.smooth.step(c, stage.Clamp01(target*gain)))
	}

	fade := stage.Clamp01(w.cfg.Float("fade", 0.65))
	bg := stage.Color{R: 18, G: 22, B: 32}
	last := len(waterfallChars) - 1
	for r := range height {
		age := float64(r) / float64(height)
		for c := range cols {
			v := w.history[r][c]
			idx := min(int(v*float64(last)), last)
			if idx == 0 {
				continue
			}
			col := stage.Lerp(w.palette.At(v), bg, age*fade)
			canvas.Set(c, r, waterfallChars[idx], col)
		}
	}
	return nil
}

func (w *Waterfall) Resize(int, int) error {
	w.history = nil
	return nil
}

func (w *Waterfall) UpdateConfig(partial visualizer.Config) error { return w.merge(partial) }

func (w *Waterfall) Destroy() {
	w.release()
	w.history = nil
	w.bands = nil
}
