package modes

import (
	"time"

	"github.com/charmbracelet/harmonica"
)

// springField smooths a row of values toward per-frame targets.
type springField struct {
	frequency float64
	damping   float64
	dt        time.Duration
	spring    harmonica.Spring
	pos       []float64
	vel       []float64
}

func newSpringField(frequency, damping float64) springField {
	return springField{frequency: frequency, damping: damping}
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// retime rebuilds the spring coefficients when the frame delta changes.
func (s *springField) retime(dt time.Duration) {
	if dt == s.dt {
		return
	}
	s.dt = dt
	if dt > 0 {
		s.spring = harmonica.NewSpring(dt.Seconds(), s.frequency, s.damping)
	}
}

// step advances value i toward target. A zero delta holds position.
func (s *springField) step(i int, target float64) float64 {
	if s.dt <= 0 {
		return s.pos[i]
	}
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return p
}
