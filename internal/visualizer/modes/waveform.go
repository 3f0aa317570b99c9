package modes

import (
	"math"
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// Mask values for the waveform grid.
const (
	maskEmpty uint8 = iota
	maskTrace
	maskMid
)

// Waveform renders the time-domain signal as a spring-smoothed trace.
type Waveform struct {
	base
	trace springField
	mask  [][]uint8
}

func NewWaveform() *Waveform {
	return &Waveform{trace: newSpringField(14.0, 0.8)}
}

func (w *Waveform) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"midline": {Type: visualizer.FieldBoolean, Label: "Midline", Default: true},
	})
}

func (w *Waveform) Init(c visualizer.Container, cfg visualizer.Config) error {
	return w.init(c, cfg)
}

func (w *Waveform) Render(data audio.AudioData, dt time.Duration) error {
	canvas, err := w.frame()
	if err != nil {
		return err
	}
	cols, height := canvas.Width(), canvas.Height()
	if cols < 2 || height < 1 {
		return nil
	}
	w.trace.resize(cols)
	w.trace.retime(dt)

	td := data.TimeDomainData
	gain := w.gain()
	spc := float64(len(td)) / float64(cols)
	for c := range cols {
		lo := int(float64(c) * spc)
		hi := min(int(float64(c+1)*spc), len(td))
		target := 0.0
		if hi > lo {
			sum := 0.0
			for _, b := range td[lo:hi] {
				sum += centered(b)
			}
			target = sum / float64(hi-lo) * gain
		}
		w.trace.step(c, max(-1, min(1, target)))
	}

	w.resetMask(cols, height)
	if w.cfg.Bool("midline", true) {
		for c := range cols {
			w.mask[height/2][c] = maskMid
		}
	}
	prev := ampToRow(w.trace.pos[0], height)
	for c := 1; c < cols; c++ {
		y := ampToRow(w.trace.pos[c], height)
		drawLineMask(w.mask, c-1, prev, c, y)
		prev = y
	}

	den := float64(max(1, cols-1))
	for r := range height {
		for c := range cols {
			switch w.mask[r][c] {
			case maskTrace:
				col := w.palette.At(0.35 + 0.65*float64(c)/den)
				canvas.Set(c, r, '●', col)
			case maskMid:
				fade := 0.15 + 0.15*float64(c)/den
				canvas.Set(c, r, '·', stage.HSV(0.6, 0.2, fade))
			}
		}
	}
	return nil
}

func (w *Waveform) resetMask(cols, height int) {
	if len(w.mask) != height || len(w.mask[0]) != cols {
		w.mask = make([][]uint8, height)
		for r := range height {
			w.mask[r] = make([]uint8, cols)
		}
		return
	}
	for _, row := range w.mask {
		clear(row)
	}
}

func ampToRow(amp float64, height int) int {
	if height <= 1 {
		return 0
	}
	amp = stage.Clamp01((amp + 1) / 2)
	row := int(math.Round((1 - amp) * float64(height-1)))
	return max(0, min(row, height-1))
}

// drawLineMask marks a Bresenham line between two grid points.
func drawLineMask(mask [][]uint8, x0, y0, x1, y1 int) {
	maxY := len(mask)
	if maxY == 0 {
		return
	}
	maxX := len(mask[0])

	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy

	for {
		if y0 >= 0 && y0 < maxY && x0 >= 0 && x0 < maxX {
			mask[y0][x0] = maskTrace
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (w *Waveform) Resize(int, int) error {
	w.mask = nil
	return nil
}

func (w *Waveform) UpdateConfig(partial visualizer.Config) error { return w.merge(partial) }

func (w *Waveform) Destroy() {
	w.release()
	w.mask = nil
}
