package modes

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

func loudData(n int) audio.AudioData {
	d := audio.AudioData{
		FrequencyData:  make([]byte, n),
		TimeDomainData: make([]byte, n),
		Volume:         0.8,
		Bass:           0.9,
		Mid:            0.6,
		Treble:         0.4,
	}
	for i := range n {
		d.FrequencyData[i] = 220
		d.TimeDomainData[i] = byte(128 + 100*math.Sin(2*math.Pi*float64(i)/64))
	}
	return d
}

func countCells(c *stage.Canvas) int {
	n := 0
	for y := range c.Height() {
		for x := range c.Width() {
			if c.At(x, y).Ch != 0 {
				n++
			}
		}
	}
	return n
}

func newRegistry(t *testing.T) *visualizer.Registry {
	t.Helper()
	reg := visualizer.NewRegistry()
	if report := reg.RegisterAll(All()...); !report.OK() {
		t.Fatalf("RegisterAll() rejected %v", report.Rejected)
	}
	return reg
}

func TestAllCoversEveryTransition(t *testing.T) {
	reg := newRegistry(t)
	seen := map[visualizer.Transition]bool{}
	renderers := map[visualizer.Renderer]bool{}
	for _, m := range reg.List() {
		seen[m.Transition] = true
		renderers[m.Renderer] = true
		if m.Name == "" {
			t.Errorf("%s has no display name", m.ID)
		}
	}
	for _, tr := range []visualizer.Transition{visualizer.TransitionCrossfade, visualizer.TransitionCut, visualizer.TransitionZoom} {
		if !seen[tr] {
			t.Errorf("no module uses %s", tr)
		}
	}
	if len(renderers) != 3 {
		t.Errorf("expected all three renderers in use, got %v", renderers)
	}
}

func TestLifecycle(t *testing.T) {
	reg := newRegistry(t)
	data := loudData(1024)
	for _, id := range reg.IDs() {
		t.Run(id, func(t *testing.T) {
			st := stage.New(24, 8)
			layer := st.AddLayer(stage.ModeColor)
			v, err := reg.Create(id, layer, nil)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if !layer.Acquired() {
				t.Fatal("Init did not acquire the canvas")
			}
			for i := range 5 {
				if err := v.Render(data, time.Duration(i)*16*time.Millisecond); err != nil {
					t.Fatalf("Render() error = %v", err)
				}
			}
			if err := v.Render(audio.SilentData(0), 16*time.Millisecond); err != nil {
				t.Fatalf("Render(empty) error = %v", err)
			}

			st.Resize(30, 10)
			if err := v.Resize(30, 10); err != nil {
				t.Fatalf("Resize() error = %v", err)
			}
			if err := v.UpdateConfig(visualizer.Config{visualizer.KeySensitivity: 2.0, visualizer.KeyColorScheme: "neon"}); err != nil {
				t.Fatalf("UpdateConfig() error = %v", err)
			}
			if err := v.Render(data, 16*time.Millisecond); err != nil {
				t.Fatalf("Render() after resize error = %v", err)
			}
			if w, h := layer.Acquire().Width(), layer.Acquire().Height(); w != 30 || h != 10 {
				t.Fatalf("canvas size = %dx%d, want 30x10", w, h)
			}

			v.Destroy()
			if layer.Acquired() {
				t.Fatal("Destroy did not release the canvas")
			}
			if err := v.Render(data, 0); !errors.Is(err, errNotInitialized) {
				t.Fatalf("Render() after Destroy error = %v", err)
			}
		})
	}
}

func TestRenderBeforeInit(t *testing.T) {
	if err := NewSpectrum().Render(loudData(8), 0); !errors.Is(err, errNotInitialized) {
		t.Fatalf("Render() error = %v, want errNotInitialized", err)
	}
	if err := NewWaveform().Init(nil, visualizer.BaseConfig()); !errors.Is(err, errNoContainer) {
		t.Fatalf("Init(nil) error = %v, want errNoContainer", err)
	}
	if err := NewVUMeter().UpdateConfig(visualizer.Config{}); !errors.Is(err, errNotInitialized) {
		t.Fatalf("UpdateConfig() error = %v, want errNotInitialized", err)
	}
}

func TestSpectrumFollowsAudio(t *testing.T) {
	st := stage.New(32, 8)
	layer := st.AddLayer(stage.ModeColor)
	s := NewSpectrum()
	if err := s.Init(layer, s.ConfigSchema().Defaults()); err != nil {
		t.Fatal(err)
	}
	canvas := layer.Acquire()

	if err := s.Render(audio.SilentData(1024), 0); err != nil {
		t.Fatal(err)
	}
	if n := countCells(canvas); n != 0 {
		t.Fatalf("silence drew %d cells", n)
	}
	if err := s.Render(loudData(1024), 0); err != nil {
		t.Fatal(err)
	}
	if countCells(canvas) == 0 {
		t.Fatal("loud input drew nothing")
	}
}

func TestFilledModesDrawOnLoudInput(t *testing.T) {
	reg := newRegistry(t)
	for _, id := range []string{"spectrum", "braille", "dense", "vu", "waveform"} {
		st := stage.New(24, 8)
		layer := st.AddLayer(stage.ModeColor)
		v, err := reg.Create(id, layer, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := v.Render(loudData(1024), 16*time.Millisecond); err != nil {
			t.Fatal(err)
		}
		if countCells(layer.Acquire()) == 0 {
			t.Errorf("%s drew nothing on loud input", id)
		}
		v.Destroy()
	}
}

func TestDenseUsesRamp(t *testing.T) {
	st := stage.New(16, 6)
	layer := st.AddLayer(stage.ModePlain)
	d := NewDense()
	if err := d.Init(layer, d.ConfigSchema().Defaults()); err != nil {
		t.Fatal(err)
	}
	if err := d.Render(loudData(512), 0); err != nil {
		t.Fatal(err)
	}
	canvas := layer.Acquire()
	for y := range canvas.Height() {
		for x := range canvas.Width() {
			ch := canvas.At(x, y).Ch
			if ch == 0 {
				continue
			}
			found := false
			for _, r := range densityRamp {
				if r == ch {
					found = true
				}
			}
			if !found {
				t.Fatalf("unexpected rune %q at %d,%d", ch, x, y)
			}
		}
	}
}

func TestMatrixDefaultsToMatrixPalette(t *testing.T) {
	reg := newRegistry(t)
	st := stage.New(8, 4)
	v, err := reg.Create("matrix", st.AddLayer(stage.ModeColor), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(*Matrix).cfg.String(visualizer.KeyColorScheme, ""); got != "matrix" {
		t.Fatalf("colorScheme = %q, want matrix", got)
	}
}

func TestLogBands(t *testing.T) {
	full := make([]byte, 512)
	for i := range full {
		full[i] = 255
	}
	for i, v := range logBands(full, 16, nil) {
		if v != 1 {
			t.Fatalf("band %d = %v, want 1", i, v)
		}
	}
	for i, v := range logBands(nil, 4, nil) {
		if v != 0 {
			t.Fatalf("band %d of empty input = %v", i, v)
		}
	}
	onlyDC := make([]byte, 64)
	onlyDC[0] = 255
	for i, v := range logBands(onlyDC, 8, nil) {
		if v != 0 {
			t.Fatalf("band %d picked up bin 0: %v", i, v)
		}
	}
}

func TestResampleEndpoints(t *testing.T) {
	out := resample([]float64{0, 1}, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("resample = %v, want %v", out, want)
		}
	}
}

func TestSpringFieldHoldsOnZeroDelta(t *testing.T) {
	f := newSpringField(10, 0.8)
	f.resize(1)
	f.retime(0)
	if got := f.step(0, 1); got != 0 {
		t.Fatalf("step with zero delta moved to %v", got)
	}
	f.retime(16 * time.Millisecond)
	prev := 0.0
	for range 10 {
		got := f.step(0, 1)
		if got <= prev && got < 1 {
			t.Fatalf("spring not approaching target: %v after %v", got, prev)
		}
		prev = got
	}
}
