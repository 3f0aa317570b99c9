// Package vistest provides recording visualizations for tests of the
// registry, engine and rotation controller.
package vistest

import (
	"errors"
	"fmt"
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// ErrBroken is returned by fakes configured to fail.
var ErrBroken = errors.New("broken visualization")

// Recorder collects lifecycle calls from every fake it created, in order.
type Recorder struct {
	Calls     []string
	instances []*Fake
	seq       int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(f *Fake, op string) {
	r.Calls = append(r.Calls, fmt.Sprintf("%s:%s", op, f.Name()))
}

// Instances returns every fake created for id, oldest first.
func (r *Recorder) Instances(id string) []*Fake {
	var out []*Fake
	for _, f := range r.instances {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}

// All returns every fake created so far.
func (r *Recorder) All() []*Fake { return r.instances }

// Live counts fakes that were initialized and not yet destroyed.
func (r *Recorder) Live() int {
	n := 0
	for _, f := range r.instances {
		if f.Inited && f.Destroys == 0 {
			n++
		}
	}
	return n
}

// Behavior configures how a fake misbehaves.
type Behavior struct {
	InitErr     error
	InitPanic   bool
	RenderErr   error
	RenderPanic bool
	ResizeErr   error
	Schema      visualizer.ConfigSchema
}

// Fake is a Visualization that records every call.
type Fake struct {
	ID  string
	Seq int

	rec      *Recorder
	behavior Behavior

	Container visualizer.Container
	Canvas    *stage.Canvas
	Config    visualizer.Config

	Inited   bool
	Renders  int
	Destroys int
	Resizes  [][2]int
	Updates  []visualizer.Config
	LastData audio.AudioData
	LastDT   time.Duration
}

// Name is id#seq, unique per instance.
func (f *Fake) Name() string { return fmt.Sprintf("%s#%d", f.ID, f.Seq) }

// Layer returns the stage layer the fake was initialized on, if any.
func (f *Fake) Layer() *stage.Layer {
	l, _ := f.Container.(*stage.Layer)
	return l
}

// SetBehavior changes how the fake responds from now on.
func (f *Fake) SetBehavior(b Behavior) { f.behavior = b }

func (f *Fake) Init(c visualizer.Container, cfg visualizer.Config) error {
	f.rec.record(f, "init")
	if f.behavior.InitPanic {
		panic("init exploded")
	}
	if f.behavior.InitErr != nil {
		return f.behavior.InitErr
	}
	f.Container = c
	if c != nil {
		f.Canvas = c.Acquire()
	}
	f.Config = cfg.Clone()
	f.Inited = true
	return nil
}

func (f *Fake) Render(data audio.AudioData, dt time.Duration) error {
	f.rec.record(f, "render")
	if f.behavior.RenderPanic {
		panic("render exploded")
	}
	if f.behavior.RenderErr != nil {
		return f.behavior.RenderErr
	}
	f.Renders++
	f.LastData = data
	f.LastDT = dt
	if f.Canvas != nil {
		f.Canvas.Set(0, 0, '*', stage.Color{})
	}
	return nil
}

func (f *Fake) Resize(width, height int) error {
	f.rec.record(f, "resize")
	if f.behavior.ResizeErr != nil {
		return f.behavior.ResizeErr
	}
	f.Resizes = append(f.Resizes, [2]int{width, height})
	return nil
}

func (f *Fake) UpdateConfig(partial visualizer.Config) error {
	f.rec.record(f, "update")
	f.Updates = append(f.Updates, partial.Clone())
	f.Config.Merge(partial)
	return nil
}

func (f *Fake) Destroy() {
	f.rec.record(f, "destroy")
	f.Destroys++
	if f.Container != nil {
		f.Container.Release()
	}
	f.Canvas = nil
}

func (f *Fake) ConfigSchema() visualizer.ConfigSchema {
	if f.behavior.Schema != nil {
		return f.behavior.Schema
	}
	return visualizer.CommonSchema()
}

// Module returns a registrable module whose instances are recorded by rec.
func (r *Recorder) Module(id string, tr visualizer.Transition, b ...Behavior) visualizer.Module {
	var behavior Behavior
	if len(b) > 0 {
		behavior = b[0]
	}
	return visualizer.Module{
		Meta: visualizer.Meta{ID: id, Renderer: visualizer.RendererANSI, Transition: tr},
		New: func() visualizer.Visualization {
			r.seq++
			f := &Fake{ID: id, Seq: r.seq, rec: r, behavior: behavior}
			r.instances = append(r.instances, f)
			return f
		},
	}
}
