package modes

import (
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

var scopeTrail = []rune{'·', '•', '✶', '✹'}

type scopePoint struct{ x, y float64 }

// Scope renders a phase-space plot of the signal against a delayed copy of
// itself, leaving a fading trail.
type Scope struct {
	base
	spring harmonica.Spring
	dt     time.Duration
	trail  []scopePoint
	cx, vx float64
	cy, vy float64
}

func NewScope() *Scope {
	return &Scope{cx: 0.5, cy: 0.5}
}

func (s *Scope) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"lag": {
			Type: visualizer.FieldNumber, Label: "Delay (samples)", Default: 16.0,
			Min: visualizer.Float(1), Max: visualizer.Float(128), Step: visualizer.Float(1),
		},
	})
}

func (s *Scope) Init(c visualizer.Container, cfg visualizer.Config) error {
	return s.init(c, cfg)
}

func (s *Scope) Render(data audio.AudioData, dt time.Duration) error {
	canvas, err := s.frame()
	if err != nil {
		return err
	}
	cols, rows := canvas.Width(), canvas.Height()
	if cols < 2 || rows < 2 {
		return nil
	}
	maxTrail := max(32, cols*4)

	td := data.TimeDomainData
	lag := max(1, int(s.cfg.Float("lag", 16)))
	if dt > 0 && len(td) > lag {
		if dt != s.dt {
			s.dt = dt
			// Points per frame are stepped at a fraction of the frame delta.
			s.spring = harmonica.NewSpring(dt.Seconds()/float64(cols), 10.0, 0.7)
		}
		gain := s.gain()
		n := len(td) - lag
		step := max(1, n/(cols*2))
		for i := 0; i < n; i += step {
			tx := stage.Clamp01((centered(td[i])*gain + 1) / 2)
			ty := stage.Clamp01((centered(td[i+lag])*gain + 1) / 2)
			s.cx, s.vx = s.spring.Update(s.cx, s.vx, tx)
			s.cy, s.vy = s.spring.Update(s.cy, s.vy, ty)
			s.trail = append(s.trail, scopePoint{x: s.cx, y: s.cy})
		}
	}
	if len(s.trail) > maxTrail {
		s.trail = append(s.trail[:0], s.trail[len(s.trail)-maxTrail:]...)
	}

	last := max(1, len(s.trail)-1)
	for i, p := range s.trail {
		x := int(stage.Clamp01(p.x) * float64(cols-1))
		y := int((1 - stage.Clamp01(p.y)) * float64(rows-1))
		freshness := float64(i) / float64(last)
		ch := scopeTrail[min(len(scopeTrail)-1, int(freshness*float64(len(scopeTrail)-1)))]
		col := s.palette.At(0.2 + 0.8*float64(x)/float64(cols-1)).Scale(0.3 + 0.7*freshness)
		canvas.Set(x, y, ch, col)
	}
	return nil
}

func (s *Scope) Resize(int, int) error {
	s.trail = s.trail[:0]
	return nil
}

func (s *Scope) UpdateConfig(partial visualizer.Config) error { return s.merge(partial) }

func (s *Scope) Destroy() {
	s.release()
	s.trail = nil
}
