package modes

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// Spectrum renders log-spaced frequency bands as vertical bars.
type Spectrum struct {
	base
	raw   []float64
	bands []float64
}

func NewSpectrum() *Spectrum { return &Spectrum{} }

func (s *Spectrum) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"bars": {
			Type: visualizer.FieldNumber, Label: "Bars", Default: 16.0,
			Min: visualizer.Float(4), Max: visualizer.Float(64), Step: visualizer.Float(1),
		},
		"decay": {
			Type: visualizer.FieldNumber, Label: "Decay", Default: 0.3,
			Min: visualizer.Float(0), Max: visualizer.Float(0.95), Step: visualizer.Float(0.05),
		},
	})
}

func (s *Spectrum) Init(c visualizer.Container, cfg visualizer.Config) error {
	return s.init(c, cfg)
}

func (s *Spectrum) Render(data audio.AudioData, _ time.Duration) error {
	canvas, err := s.frame()
	if err != nil {
		return err
	}
	n := max(1, int(s.cfg.Float("bars", 16)))
	if len(s.bands) != n {
		s.bands = make([]float64, n)
	}
	s.raw = logBands(data.FrequencyData, n, s.raw)

	decay := stage.Clamp01(s.cfg.Float("decay", 0.3))
	gain := s.gain()
	for b := range n {
		s.bands[b] = s.bands[b]*decay + stage.Clamp01(s.raw[b]*gain)*(1-decay)
	}

	width, height := canvas.Width(), canvas.Height()
	if width < 1 || height < 1 {
		return nil
	}
	colWidth := max(1, width/n)
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	for row := range height {
		rowFromBottom := float64(height - 1 - row)
		col := s.palette.At(rowFromBottom / float64(max(1, height-1)))
		x := 0
		for b := range n {
			level := s.bands[b] * float64(height)
			idx := 0
			if level > rowFromBottom+1 {
				idx = len(barChars) - 1
			} else if level > rowFromBottom {
				idx = int((level - rowFromBottom) * float64(len(barChars)-1))
			}
			for range colWidth - gap {
				if idx > 0 {
					canvas.Set(x, row, barChars[idx], col)
				}
				x++
			}
			x += gap
		}
	}
	return nil
}

func (s *Spectrum) Resize(int, int) error { return nil }

func (s *Spectrum) UpdateConfig(partial visualizer.Config) error { return s.merge(partial) }

func (s *Spectrum) Destroy() {
	s.release()
	s.bands = nil
	s.raw = nil
}
