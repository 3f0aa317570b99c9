package modes

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// vuMeters are the rows drawn, top to bottom.
var vuMeters = [...]string{"VOL", "BAS", "MID", "TRE"}

// VUMeter renders volume and the three bands as horizontal meters with
// peak hold.
type VUMeter struct {
	base
	level [len(vuMeters)]float64
	peak  [len(vuMeters)]float64
}

func NewVUMeter() *VUMeter { return &VUMeter{} }

func (v *VUMeter) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"peakHold": {Type: visualizer.FieldBoolean, Label: "Peak hold", Default: true},
	})
}

func (v *VUMeter) Init(c visualizer.Container, cfg visualizer.Config) error {
	return v.init(c, cfg)
}

func (v *VUMeter) Render(data audio.AudioData, dt time.Duration) error {
	canvas, err := v.frame()
	if err != nil {
		return err
	}
	const (
		attack    = 0.6
		release   = 0.15
		peakDecay = 0.4 // per second
	)
	gain := v.gain()
	raw := [len(vuMeters)]float64{data.Volume, data.Bass, data.Mid, data.Treble}
	for i, r := range raw {
		r = stage.Clamp01(r * gain)
		if r > v.level[i] {
			v.level[i] = v.level[i]*(1-attack) + r*attack
		} else {
			v.level[i] = v.level[i]*(1-release) + r*release
		}
		if v.level[i] > v.peak[i] {
			v.peak[i] = v.level[i]
		} else {
			v.peak[i] = max(0, v.peak[i]-peakDecay*dt.Seconds())
		}
	}

	width, height := canvas.Width(), canvas.Height()
	barWidth := width - 5
	if barWidth < 1 || height < 1 {
		return nil
	}
	spacing := max(1, height/len(vuMeters))
	label := stage.Color{R: 180, G: 180, B: 190}
	hold := v.cfg.Bool("peakHold", true)
	for i, name := range vuMeters {
		row := i * spacing
		if row >= height {
			break
		}
		canvas.Text(0, row, name, label)
		v.drawBar(canvas, 4, row, barWidth, v.level[i], v.peak[i], hold)
	}
	return nil
}

func (v *VUMeter) drawBar(canvas *stage.Canvas, x0, row, width int, level, peak float64, hold bool) {
	filled := int(level * float64(width))
	peakPos := min(int(peak*float64(width)), width-1)
	for i := range width {
		var ch rune
		switch {
		case i < filled:
			ch = '█'
		case hold && i == peakPos && peakPos > 0:
			canvas.Set(x0+i, row, '│', stage.Color{R: 255, G: 252, B: 210})
			continue
		default:
			ch = '─'
		}
		var col stage.Color
		switch {
		case i < width*6/10:
			col = stage.Color{R: 60, G: 224, B: 116}
		case i < width*8/10:
			col = stage.Color{R: 240, G: 198, B: 72}
		default:
			col = stage.Color{R: 242, G: 96, B: 86}
		}
		if ch == '─' {
			col = col.Scale(0.35)
		}
		canvas.Set(x0+i, row, ch, col)
	}
}

func (v *VUMeter) Resize(int, int) error { return nil }

func (v *VUMeter) UpdateConfig(partial visualizer.Config) error { return v.merge(partial) }

func (v *VUMeter) Destroy() { v.release() }
