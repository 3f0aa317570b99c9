package modes

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

var densityRamp = []rune(" .:-=+*#%@")

// Dense renders a filled area chart with density characters, dense at the
// baseline and sparse toward the surface. It draws uncolored text.
type Dense struct {
	base
	bands []float64
}

func NewDense() *Dense { return &Dense{} }

func (d *Dense) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"bands": {
			Type: visualizer.FieldNumber, Label: "Bands", Default: 24.0,
			Min: visualizer.Float(4), Max: visualizer.Float(64), Step: visualizer.Float(4),
		},
	})
}

func (d *Dense) Init(c visualizer.Container, cfg visualizer.Config) error {
	return d.init(c, cfg)
}

func (d *Dense) Render(data audio.AudioData, _ time.Duration) error {
	canvas, err := d.frame()
	if err != nil {
		return err
	}
	cols, height := canvas.Width(), canvas.Height()
	if cols < 1 || height < 1 {
		return nil
	}
	d.bands = logBands(data.FrequencyData, max(2, int(d.cfg.Float("bands", 24))), d.bands)
	levels := resample(d.bands, cols)

	gain := d.gain()
	last := len(densityRamp) - 1
	for row := range height {
		rowFromBottom := float64(height - 1 - row)
		for c, lv := range levels {
			dist := stage.Clamp01(lv*gain)*float64(height) - rowFromBottom
			if dist <= 0 {
				continue
			}
			depth := dist
			if dist >= 1 {
				depth = dist / float64(height)
			}
			idx := min(int(depth*float64(last)), last)
			if idx > 0 {
				canvas.Set(c, row, densityRamp[idx], stage.Color{})
			}
		}
	}
	return nil
}

func (d *Dense) Resize(int, int) error { return nil }

func (d *Dense) UpdateConfig(partial visualizer.Config) error { return d.merge(partial) }

func (d *Dense) Destroy() {
	d.release()
	d.bands = nil
}
