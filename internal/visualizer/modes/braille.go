package modes

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// Braille renders a high-resolution spectrum with braille dots, two dot
// columns and four dot rows per cell.
type Braille struct {
	base
	bands []float64
}

func NewBraille() *Braille { return &Braille{} }

func (b *Braille) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"bands": {
			Type: visualizer.FieldNumber, Label: "Bands", Default: 32.0,
			Min: visualizer.Float(8), Max: visualizer.Float(96), Step: visualizer.Float(8),
		},
		"fill": {Type: visualizer.FieldBoolean, Label: "Fill", Default: true},
	})
}

func (b *Braille) Init(c visualizer.Container, cfg visualizer.Config) error {
	return b.init(c, cfg)
}

func (b *Braille) Render(data audio.AudioData, _ time.Duration) error {
	canvas, err := b.frame()
	if err != nil {
		return err
	}
	dotCols, dotRows := canvas.DotSize()
	if dotCols == 0 || dotRows == 0 {
		return nil
	}
	n := max(2, int(b.cfg.Float("bands", 32)))
	b.bands = logBands(data.FrequencyData, n, b.bands)
	levels := resample(b.bands, dotCols)

	gain := b.gain()
	fill := b.cfg.Bool("fill", true)
	for x, lv := range levels {
		top := int(min(1, lv*gain) * float64(dotRows))
		for h := range top {
			if !fill && h != top-1 {
				continue
			}
			col := b.palette.At(float64(h) / float64(dotRows))
			canvas.Dot(x, dotRows-1-h, col)
		}
	}
	return nil
}

func (b *Braille) Resize(int, int) error { return nil }

func (b *Braille) UpdateConfig(partial visualizer.Config) error { return b.merge(partial) }

func (b *Braille) Destroy() {
	b.release()
	b.bands = nil
}
