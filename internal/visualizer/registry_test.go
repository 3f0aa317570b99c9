package visualizer_test

import (
	"errors"
	"testing"

	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
	"github.com/olivier-w/audioverlay/internal/visualizer/vistest"
)

func TestRegisterAllRejectsInvalidAndKeepsRest(t *testing.T) {
	rec := vistest.NewRecorder()
	bad := rec.Module("weird", visualizer.TransitionCut)
	bad.Meta.Renderer = "webgl"
	noTransition := rec.Module("flat", "wipe")
	noFactory := rec.Module("ghost", visualizer.TransitionCut)
	noFactory.New = nil

	reg := visualizer.NewRegistry()
	report := reg.RegisterAll(
		rec.Module("a", visualizer.TransitionCrossfade),
		rec.Module("", visualizer.TransitionCut),
		bad,
		noTransition,
		noFactory,
		rec.Module("b", visualizer.TransitionZoom),
	)

	if got := reg.IDs(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("IDs() = %v, want [a b]", got)
	}
	if len(report.Rejected) != 4 {
		t.Fatalf("expected 4 rejections, got %d", len(report.Rejected))
	}
	wants := []error{
		visualizer.ErrEmptyID,
		visualizer.ErrUnknownRenderer,
		visualizer.ErrUnknownTransition,
		visualizer.ErrNilFactory,
	}
	for i, want := range wants {
		if !errors.Is(report.Rejected[i], want) {
			t.Errorf("rejection %d = %v, want %v", i, report.Rejected[i], want)
		}
	}
}

func TestRegisterAllDuplicateDoesNotReplace(t *testing.T) {
	rec := vistest.NewRecorder()
	reg := visualizer.NewRegistry()
	reg.RegisterAll(rec.Module("a", visualizer.TransitionCrossfade))
	report := reg.RegisterAll(rec.Module("a", visualizer.TransitionCut))

	if report.OK() || !errors.Is(report.Rejected[0], visualizer.ErrDuplicateID) {
		t.Fatalf("expected duplicate rejection, got %+v", report)
	}
	meta, ok := reg.Lookup("a")
	if !ok || meta.Transition != visualizer.TransitionCrossfade {
		t.Fatalf("expected first registration to win, got %+v", meta)
	}
	if n := len(reg.List()); n != 1 {
		t.Fatalf("List() has %d entries, want 1", n)
	}
}

func TestCreateUnknownIsLookupError(t *testing.T) {
	reg := visualizer.NewRegistry()
	_, err := reg.Create("missing", nil, nil)

	var lookup *visualizer.LookupError
	if !errors.As(err, &lookup) || lookup.ID != "missing" {
		t.Fatalf("expected LookupError for missing, got %v", err)
	}
	if !errors.Is(err, visualizer.ErrNotFound) {
		t.Fatal("expected LookupError to match ErrNotFound")
	}
}

func TestCreateInitializesIndependentInstances(t *testing.T) {
	rec := vistest.NewRecorder()
	schema := visualizer.CommonSchema().With(visualizer.ConfigSchema{
		"bars": {Type: visualizer.FieldNumber, Label: "Bars", Default: 16.0},
	})
	reg := visualizer.NewRegistry()
	reg.RegisterAll(rec.Module("a", visualizer.TransitionCut, vistest.Behavior{Schema: schema}))

	st := stage.New(10, 4)
	first, err := reg.Create("a", st.AddLayer(stage.ModeColor), visualizer.Config{"bars": 32.0})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := reg.Create("a", st.AddLayer(stage.ModeColor), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first == second {
		t.Fatal("expected independent instances")
	}

	cfg := first.(*vistest.Fake).Config
	if cfg.Float("bars", 0) != 32 {
		t.Fatalf("bars = %v, want initial override 32", cfg["bars"])
	}
	if cfg.Sensitivity() != 1 || cfg.String(visualizer.KeyColorScheme, "") != stage.DefaultPalette {
		t.Fatalf("expected base defaults, got %v", cfg)
	}
	if got := second.(*vistest.Fake).Config.Float("bars", 0); got != 16 {
		t.Fatalf("bars = %v, want schema default 16", got)
	}
	if st.Acquired() != 2 {
		t.Fatalf("expected both instances to acquire a canvas, got %d", st.Acquired())
	}
}

func TestCreateDestroysOnInitFailure(t *testing.T) {
	rec := vistest.NewRecorder()
	reg := visualizer.NewRegistry()
	reg.RegisterAll(rec.Module("a", visualizer.TransitionCut, vistest.Behavior{InitErr: vistest.ErrBroken}))

	if _, err := reg.Create("a", nil, nil); !errors.Is(err, vistest.ErrBroken) {
		t.Fatalf("Create() error = %v, want ErrBroken", err)
	}
	inst := rec.Instances("a")
	if len(inst) != 1 || inst[0].Destroys != 1 {
		t.Fatal("expected the failed instance to be destroyed exactly once")
	}
}

func TestConfigMergeKeepsUnsetFields(t *testing.T) {
	cfg := visualizer.BaseConfig()
	cfg.Merge(visualizer.Config{visualizer.KeySensitivity: 2.5})
	if cfg.Sensitivity() != 2.5 {
		t.Fatalf("Sensitivity() = %v, want 2.5", cfg.Sensitivity())
	}
	if cfg.String(visualizer.KeyColorScheme, "") != stage.DefaultPalette {
		t.Fatal("expected colorScheme to survive a partial merge")
	}
}

func TestCreateRecoversInitPanic(t *testing.T) {
	rec := vistest.NewRecorder()
	reg := visualizer.NewRegistry()
	reg.RegisterAll(rec.Module("a", visualizer.TransitionCut, vistest.Behavior{InitPanic: true}))

	v, err := reg.Create("a", nil, nil)
	if err == nil || v != nil {
		t.Fatalf("Create() = %v, %v; want nil and an error", v, err)
	}
	inst := rec.Instances("a")
	if len(inst) != 1 || inst[0].Destroys != 1 {
		t.Fatal("expected the panicking instance to be destroyed exactly once")
	}
}

func TestSchemaDestroysEveryInstanceItCreates(t *testing.T) {
	rec := vistest.NewRecorder()
	reg := visualizer.NewRegistry()
	reg.RegisterAll(
		rec.Module("a", visualizer.TransitionCut),
		rec.Module("b", visualizer.TransitionCut),
	)

	for range 5 {
		if _, ok := reg.Schema("a"); !ok {
			t.Fatal("expected a schema for a")
		}
	}
	inst := rec.Instances("a")
	if len(inst) != 1 || inst[0].Destroys != 1 || inst[0].Inited {
		t.Fatalf("expected one uninitialized throwaway instance destroyed once, got %d", len(inst))
	}

	if _, err := reg.Create("b", nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Schema("b"); !ok {
		t.Fatal("expected a schema for b")
	}
	if n := len(rec.Instances("b")); n != 1 {
		t.Fatalf("Schema created %d extra instances after Create", n-1)
	}
	if _, ok := reg.Schema("missing"); ok {
		t.Fatal("expected no schema for an unknown id")
	}
}
