package modes

import (
	"math/rand/v2"
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

const (
	matrixTrailLen = 8
	matrixBands    = 24
	// matrixRate is how many rows per second a speed of 1 advances.
	matrixRate = 20
)

// Matrix renders falling glyph rain. Column activity and fall speed follow
// the frequency band under each column.
type Matrix struct {
	base
	rng     *rand.Rand
	bands   []float64
	columns []matrixCol
}

type matrixCol struct {
	active bool
	headY  float64 // fractional row of the falling head
	speed  float64
	chars  []rune
}

func NewMatrix() *Matrix {
	return &Matrix{rng: rand.New(rand.NewPCG(42, 42))}
}

func (m *Matrix) ConfigSchema() visualizer.ConfigSchema {
	return visualizer.CommonSchema().With(visualizer.ConfigSchema{
		visualizer.KeyColorScheme: {
			Type: visualizer.FieldSelect, Label: "Color scheme", Default: "matrix",
			Options: stage.PaletteNames(),
		},
		"density": {
			Type: visualizer.FieldNumber, Label: "Density", Default: 0.15,
			Min: visualizer.Float(0.05), Max: visualizer.Float(0.6), Step: visualizer.Float(0.05),
		},
	})
}

func (m *Matrix) Init(c visualizer.Container, cfg visualizer.Config) error {
	return m.init(c, cfg)
}

func (m *Matrix) randomChar() rune {
	n := m.rng.IntN(36)
	if n < 10 {
		return rune('0' + n)
	}
	return rune('A' + n - 10)
}

func (m *Matrix) Render(data audio.AudioData, dt time.Duration) error {
	canvas, err := m.frame()
	if err != nil {
		return err
	}
	cols, height := canvas.Width(), canvas.Height()
	if cols < 1 || height < 1 {
		return nil
	}
	if len(m.columns) != cols {
		m.columns = make([]matrixCol, cols)
		for i := range m.columns {
			m.columns[i].chars = make([]rune, matrixTrailLen)
			for j := range m.columns[i].chars {
				m.columns[i].chars[j] = m.randomChar()
			}
		}
	}
	m.bands = logBands(data.FrequencyData, matrixBands, m.bands)

	gain := m.gain()
	density := m.cfg.Float("density", 0.15)
	rows := dt.Seconds() * matrixRate
	for c := range cols {
		magnitude := min(1, m.bands[c*matrixBands/cols]*gain)
		col := &m.columns[c]
		if !col.active {
			if magnitude > 0 && m.rng.Float64() < magnitude*density {
				col.active = true
				col.headY = 0
				col.speed = 0.3 + magnitude*1.2
				for j := range col.chars {
					col.chars[j] = m.randomChar()
				}
			}
			continue
		}
		col.headY += col.speed * rows
		col.chars[0] = m.randomChar()
		if int(col.headY)-matrixTrailLen > height {
			col.active = false
		}
	}

	for c := range cols {
		col := &m.columns[c]
		if !col.active {
			continue
		}
		head := int(col.headY)
		for t := range matrixTrailLen {
			row := head - t
			if row < 0 || row >= height {
				continue
			}
			// The head is brightest; the tail fades toward the gradient start.
			shade := m.palette.At(1 - float64(t)/matrixTrailLen)
			canvas.Set(c, row, col.chars[t], shade)
		}
	}
	return nil
}

func (m *Matrix) Resize(int, int) error {
	m.columns = nil
	return nil
}

func (m *Matrix) UpdateConfig(partial visualizer.Config) error { return m.merge(partial) }

func (m *Matrix) Destroy() {
	m.release()
	m.columns = nil
}
