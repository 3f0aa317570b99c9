package rotation

import (
	"io"
	"log"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/olivier-w/audioverlay/internal/engine"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
	"github.com/olivier-w/audioverlay/internal/visualizer/vistest"
)

var t0 = time.Unix(1_700_000_000, 0)

func sec(s int) time.Time { return t0.Add(time.Duration(s) * time.Second) }

type fakeSwitcher struct {
	target string
	known  map[string]bool
	calls  []string
	cfgs   []visualizer.Config
	subs   map[int]func(engine.Event)
	nextID int
}

func newFakeSwitcher(target string, known ...string) *fakeSwitcher {
	f := &fakeSwitcher{target: target, known: map[string]bool{}, subs: map[int]func(engine.Event){}}
	for _, id := range known {
		f.known[id] = true
	}
	return f
}

func (f *fakeSwitcher) SwitchTo(id string, cfg visualizer.Config) error {
	f.calls = append(f.calls, id)
	f.cfgs = append(f.cfgs, cfg)
	if !f.known[id] {
		return &visualizer.LookupError{ID: id}
	}
	from := f.target
	f.target = id
	for _, fn := range f.subs {
		fn(engine.Event{Kind: engine.SwitchStarted, ID: id, From: from})
	}
	return nil
}

func (f *fakeSwitcher) TargetID() string { return f.target }

func (f *fakeSwitcher) Subscribe(fn func(engine.Event)) func() {
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

// manual simulates a user-initiated switch.
func (f *fakeSwitcher) manual(id string) {
	f.calls = append(f.calls, "manual:"+id)
	f.target = id
	for _, fn := range f.subs {
		fn(engine.Event{Kind: engine.SwitchStarted, ID: id})
	}
}

type fakeCatalog struct {
	ids    []string
	schema visualizer.ConfigSchema
}

func (c fakeCatalog) List() []visualizer.Meta {
	out := make([]visualizer.Meta, len(c.ids))
	for i, id := range c.ids {
		out[i] = visualizer.Meta{ID: id}
	}
	return out
}

func (c fakeCatalog) Schema(string) (visualizer.ConfigSchema, bool) {
	return c.schema, c.schema != nil
}

var quiet = WithLogger(log.New(io.Discard, "", 0))

func seeded() Option { return WithRand(rand.New(rand.NewPCG(7, 11))) }

func TestSequentialVisitsAllInOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: 10 * time.Second}, quiet)

	for s := 0; s <= 50; s++ {
		c.Tick(sec(s))
	}
	want := []string{"b", "c", "d", "a", "b"}
	if !slices.Equal(sw.calls, want) {
		t.Fatalf("rotation calls = %v, want %v", sw.calls, want)
	}
	if st := c.Status(); st.Rotations != 5 || st.LastID != "b" {
		t.Fatalf("Status() = %+v", st)
	}
}

func TestSequentialStartsAtFirstWhenIdle(t *testing.T) {
	ids := []string{"a", "b"}
	sw := newFakeSwitcher("", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: time.Second}, quiet)
	c.Tick(sec(0))
	c.Tick(sec(1))
	if !slices.Equal(sw.calls, []string{"a"}) {
		t.Fatalf("calls = %v, want [a]", sw.calls)
	}
}

func TestRandomExcludesCurrent(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: time.Second, Order: Random}, quiet, seeded())

	seen := map[string]int{}
	prev := sw.target
	for s := 0; s <= 200; s++ {
		c.Tick(sec(s))
		if sw.target != prev {
			seen[sw.target]++
			prev = sw.target
		}
	}
	if len(sw.calls) != 200 {
		t.Fatalf("expected 200 rotations, got %d", len(sw.calls))
	}
	for i := 1; i < len(sw.calls); i++ {
		if sw.calls[i] == sw.calls[i-1] {
			t.Fatalf("rotation %d picked the current id %s", i, sw.calls[i])
		}
	}
	for _, id := range ids {
		if seen[id] == 0 {
			t.Errorf("random order never picked %s", id)
		}
	}
}

func TestRandomWithSingleModuleDoesNothing(t *testing.T) {
	sw := newFakeSwitcher("a", "a")
	c := New(sw, fakeCatalog{ids: []string{"a"}}, Config{Enabled: true, Interval: time.Second, Order: Random}, quiet)
	for s := 0; s <= 5; s++ {
		c.Tick(sec(s))
	}
	if len(sw.calls) != 0 {
		t.Fatalf("calls = %v, want none", sw.calls)
	}
}

func TestDelayedTicksFireOnce(t *testing.T) {
	ids := []string{"a", "b", "c"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: 10 * time.Second}, quiet)

	c.Tick(sec(0))
	c.Tick(sec(35))
	c.Tick(sec(36))
	if len(sw.calls) != 1 {
		t.Fatalf("calls after a stall = %v, want one", sw.calls)
	}
	c.Tick(sec(45))
	if len(sw.calls) != 2 {
		t.Fatalf("calls = %v, want two", sw.calls)
	}
}

func TestManualSwitchResetsTimer(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: 10 * time.Second}, quiet)

	c.Tick(sec(0))
	c.Tick(sec(8))
	sw.manual("c")
	c.Tick(sec(9))
	c.Tick(sec(12))
	c.Tick(sec(18))
	if len(sw.calls) != 1 {
		t.Fatalf("rotation fired right after a manual switch: %v", sw.calls)
	}
	c.Tick(sec(19))
	if !slices.Equal(sw.calls, []string{"manual:c", "d"}) {
		t.Fatalf("calls = %v, want [manual:c d]", sw.calls)
	}
}

func TestUnknownTargetIsSkipped(t *testing.T) {
	sw := newFakeSwitcher("a", "a", "b")
	c := New(sw, fakeCatalog{ids: []string{"a", "ghost", "b"}}, Config{Enabled: true, Interval: time.Second}, quiet)

	c.Tick(sec(0))
	c.Tick(sec(1))
	if !slices.Equal(sw.calls, []string{"ghost", "b"}) || sw.target != "b" {
		t.Fatalf("calls = %v target = %s, want ghost skipped for b", sw.calls, sw.target)
	}
	c.Tick(sec(2))
	if sw.target != "a" {
		t.Fatalf("target = %s, want rotation to continue to a", sw.target)
	}
}

func TestEnableRestartsTimer(t *testing.T) {
	ids := []string{"a", "b"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Interval: 10 * time.Second}, quiet)

	c.Tick(sec(0))
	c.Tick(sec(30))
	if len(sw.calls) != 0 {
		t.Fatal("disabled controller rotated")
	}
	c.SetEnabled(true)
	c.Tick(sec(31))
	if len(sw.calls) != 0 {
		t.Fatal("enabling fired immediately")
	}
	if st := c.Status(); st.Remaining != 10*time.Second {
		t.Fatalf("Remaining = %v, want 10s", st.Remaining)
	}
	c.Tick(sec(41))
	if len(sw.calls) != 1 {
		t.Fatalf("calls = %v, want one", sw.calls)
	}
}

func TestRandomizedConfigRespectsSchema(t *testing.T) {
	schema := visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"bars":   {Type: visualizer.FieldNumber, Min: visualizer.Float(2), Max: visualizer.Float(10), Step: visualizer.Float(2)},
		"mirror": {Type: visualizer.FieldBoolean},
		"shape":  {Type: visualizer.FieldSelect, Options: []string{"dot", "bar"}},
		"tint":   {Type: visualizer.FieldColor},
		"free":   {Type: visualizer.FieldNumber},
	})
	ids := []string{"a", "b"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids, schema: schema},
		Config{Enabled: true, Interval: time.Second, RandomizeConfig: true, RandomizeColors: true},
		quiet, seeded())

	for s := 0; s <= 50; s++ {
		c.Tick(sec(s))
	}
	if len(sw.cfgs) != 50 {
		t.Fatalf("expected 50 configs, got %d", len(sw.cfgs))
	}
	for _, cfg := range sw.cfgs {
		bars := cfg.Float("bars", -1)
		if bars < 2 || bars > 10 || int(bars)%2 != 0 {
			t.Fatalf("bars = %v, want an even value in [2,10]", bars)
		}
		if _, ok := cfg["mirror"].(bool); !ok {
			t.Fatalf("mirror = %v, want bool", cfg["mirror"])
		}
		if shape := cfg.String("shape", ""); shape != "dot" && shape != "bar" {
			t.Fatalf("shape = %q", shape)
		}
		if tint := cfg.String("tint", ""); len(tint) != 7 || tint[0] != '#' {
			t.Fatalf("tint = %q", tint)
		}
		if _, ok := cfg["free"]; ok {
			t.Fatal("unbounded number field should be left alone")
		}
		if !stage.HasPalette(cfg.String(visualizer.KeyColorScheme, "")) {
			t.Fatalf("colorScheme = %v", cfg[visualizer.KeyColorScheme])
		}
		sens := cfg.Sensitivity()
		if sens < 0.1 || sens > 4 {
			t.Fatalf("sensitivity = %v", sens)
		}
	}
}

func TestPlainRotationSendsNoConfig(t *testing.T) {
	ids := []string{"a", "b"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: time.Second}, quiet)
	c.Tick(sec(0))
	c.Tick(sec(1))
	if len(sw.cfgs) != 1 || sw.cfgs[0] != nil {
		t.Fatalf("cfgs = %v, want one nil config", sw.cfgs)
	}
}

func TestCloseStopsWatchingSwitches(t *testing.T) {
	ids := []string{"a", "b"}
	sw := newFakeSwitcher("a", ids...)
	c := New(sw, fakeCatalog{ids: ids}, Config{Enabled: true, Interval: 10 * time.Second}, quiet)
	c.Close()
	c.Close()
	if len(sw.subs) != 0 {
		t.Fatal("expected Close to unsubscribe")
	}
}

func TestRotatesRealEngine(t *testing.T) {
	rec := vistest.NewRecorder()
	reg := visualizer.NewRegistry()
	reg.RegisterAll(
		rec.Module("a", visualizer.TransitionCut),
		rec.Module("b", visualizer.TransitionCut),
		rec.Module("c", visualizer.TransitionCut),
	)
	logger := log.New(io.Discard, "", 0)
	e := engine.New(reg, nil, stage.New(4, 2), engine.Options{Logger: logger})
	if err := e.SwitchTo("a", nil); err != nil {
		t.Fatal(err)
	}
	c := New(e, reg, Config{Enabled: true, Interval: 5 * time.Second}, WithLogger(logger))

	var active []string
	for s := 0; s <= 16; s++ {
		e.Tick(sec(s))
		c.Tick(sec(s))
		if id := e.ActiveID(); len(active) == 0 || active[len(active)-1] != id {
			active = append(active, id)
		}
	}
	// Each rotation lands on the tick after it was issued.
	if !slices.Equal(active, []string{"a", "b", "c", "a"}) {
		t.Fatalf("active sequence = %v", active)
	}

	// A manual switch through the engine restarts the timer.
	if err := e.SwitchTo("c", nil); err != nil {
		t.Fatal(err)
	}
	e.Tick(sec(17))
	c.Tick(sec(17))
	e.Tick(sec(21))
	c.Tick(sec(21))
	if e.TargetID() != "c" {
		t.Fatal("rotation fired too soon after a manual switch")
	}
	e.Shutdown()
	c.Close()
	if rec.Live() != 0 {
		t.Fatalf("%d instances still live", rec.Live())
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"sequential", Sequential, false},
		{"random", Random, false},
		{"shuffle", Random, false},
		{"", Sequential, false},
		{"sideways", Sequential, true},
	}
	for _, tt := range tests {
		got, err := ParseOrder(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOrder(%q) = %v, %v", tt.in, got, err)
		}
	}
	if Sequential.Next() != Random || Random.Next() != Sequential {
		t.Fatal("Next should toggle between the two orders")
	}
	if Random.String() != "random" || Sequential.String() != "sequential" {
		t.Fatal("unexpected order names")
	}
}
