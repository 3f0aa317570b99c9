// Package engine runs the frame loop that drives live visualizations and
// hands off between them with crossfade, cut and zoom transitions.
package engine

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// ErrClosed is returned by SwitchTo after Shutdown.
var ErrClosed = errors.New("engine is shut down")

// Sampler yields one audio snapshot per call.
type Sampler interface {
	Sample() audio.AudioData
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() audio.AudioData

func (f SamplerFunc) Sample() audio.AudioData { return f() }

// Options tunes transitions and failure handling. Zero fields take defaults.
type Options struct {
	CrossfadeDuration time.Duration
	ZoomDuration      time.Duration
	// ZoomFrom is the incoming layer's starting scale during a zoom.
	ZoomFrom float64
	// MaxDelta caps the dt handed to Render after a stall.
	MaxDelta time.Duration
	// FailureThreshold is how many consecutive failures remove an instance.
	FailureThreshold int
	Logger           *log.Logger
}

const (
	defaultCrossfade        = time.Second
	defaultZoom             = 800 * time.Millisecond
	defaultZoomFrom         = 0.6
	defaultMaxDelta         = 100 * time.Millisecond
	defaultFailureThreshold = 3
)

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		CrossfadeDuration: defaultCrossfade,
		ZoomDuration:      defaultZoom,
		ZoomFrom:          defaultZoomFrom,
		MaxDelta:          defaultMaxDelta,
		FailureThreshold:  defaultFailureThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CrossfadeDuration <= 0 {
		o.CrossfadeDuration = d.CrossfadeDuration
	}
	if o.ZoomDuration <= 0 {
		o.ZoomDuration = d.ZoomDuration
	}
	if o.ZoomFrom <= 0 || o.ZoomFrom > 1 {
		o.ZoomFrom = d.ZoomFrom
	}
	if o.MaxDelta <= 0 {
		o.MaxDelta = d.MaxDelta
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = d.FailureThreshold
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// slot is one live instance and the layer it draws on.
type slot struct {
	id       string
	inst     visualizer.Visualization
	layer    *stage.Layer
	failures int
	released bool
}

// Engine owns every live visualization instance. It is driven from a single
// goroutine and is not safe for concurrent use.
type Engine struct {
	reg     *visualizer.Registry
	sampler Sampler
	stage   *stage.Stage
	opts    Options
	log     *log.Logger

	state   State
	active  *slot
	trans   *transition
	removed map[string]bool

	lastTick time.Time
	ticked   bool
	closed   bool

	subs    []subscriber
	nextSub int
}

// New creates an idle engine drawing onto st. A nil sampler renders silence.
func New(reg *visualizer.Registry, sampler Sampler, st *stage.Stage, opts Options) *Engine {
	opts = opts.withDefaults()
	if sampler == nil {
		sampler = SamplerFunc(func() audio.AudioData { return audio.SilentData(0) })
	}
	if st == nil {
		st = stage.New(0, 0)
	}
	return &Engine{
		reg:     reg,
		sampler: sampler,
		stage:   st,
		opts:    opts,
		log:     opts.Logger,
		removed: make(map[string]bool),
	}
}

// Registry returns the registry the engine creates instances from.
func (e *Engine) Registry() *visualizer.Registry { return e.reg }

// SwitchTo makes id the active visualization using its declared transition.
// A switch during a transition cancels the in-flight one first. Switching to
// the settled active id only merges cfg into it.
func (e *Engine) SwitchTo(id string, cfg visualizer.Config) error {
	if e.closed {
		return ErrClosed
	}
	meta, ok := e.reg.Lookup(id)
	if !ok {
		return &visualizer.LookupError{ID: id}
	}

	if e.trans != nil {
		e.cancel(nil)
	}
	if e.active != nil && e.active.id == id {
		return e.updateSlot(e.active, cfg)
	}

	from := e.ActiveID()
	if e.active == nil {
		s, err := e.spawn(id, cfg)
		if err != nil {
			return err
		}
		e.active = s
		e.emit(SwitchStarted, id, from, nil)
		e.emit(SwitchCompleted, id, from, nil)
		return nil
	}

	t := &transition{kind: meta.Transition, target: id, cfg: cfg.Clone()}
	switch meta.Transition {
	case visualizer.TransitionCut:
		e.state = TransitioningCut
	case visualizer.TransitionZoom, visualizer.TransitionCrossfade:
		s, err := e.spawn(id, cfg)
		if err != nil {
			return err
		}
		t.incoming = s
		t.duration = e.opts.CrossfadeDuration
		e.state = TransitioningCrossfade
		if meta.Transition == visualizer.TransitionZoom {
			t.duration = e.opts.ZoomDuration
			e.state = TransitioningZoom
		}
	}
	e.trans = t
	if t.incoming != nil {
		t.apply(e.active, e.opts.ZoomFrom)
	}
	e.emit(SwitchStarted, id, from, nil)
	return nil
}

// Tick advances the engine to now: it steps the transition, samples audio
// once and renders every live instance, outgoing first.
func (e *Engine) Tick(now time.Time) {
	if e.closed {
		return
	}
	var dt time.Duration
	if e.ticked {
		dt = now.Sub(e.lastTick)
		dt = max(0, min(dt, e.opts.MaxDelta))
	}
	if !e.ticked || now.After(e.lastTick) {
		e.lastTick = now
	}
	e.ticked = true

	e.advance(dt)

	data := e.sampler.Sample()
	for _, s := range e.live() {
		if s.released {
			continue
		}
		e.call(s, "render", func() error { return s.inst.Render(data, dt) })
	}
}

// Resize resizes the stage and every live instance.
func (e *Engine) Resize(width, height int) {
	e.stage.Resize(width, height)
	for _, s := range e.live() {
		if s.released {
			continue
		}
		e.call(s, "resize", func() error { return s.inst.Resize(width, height) })
	}
}

// UpdateConfig merges partial into every live instance, and into the
// config of a pending cut.
func (e *Engine) UpdateConfig(partial visualizer.Config) error {
	if e.trans != nil && e.trans.incoming == nil {
		e.trans.cfg.Merge(partial)
	}
	var errs []error
	for _, s := range e.live() {
		if s.released {
			continue
		}
		if err := e.updateSlot(s, partial); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown destroys every live instance. Further calls do nothing.
func (e *Engine) Shutdown() {
	if e.closed {
		return
	}
	e.closed = true
	if t := e.trans; t != nil {
		e.trans = nil
		e.release(t.incoming)
	}
	e.release(e.active)
	e.active = nil
	e.state = Steady
}

// State returns a snapshot of the engine.
func (e *Engine) State() EngineState {
	st := EngineState{
		State:    e.state,
		ActiveID: e.ActiveID(),
		TargetID: e.TargetID(),
		LastTick: e.lastTick,
		Live:     len(e.live()),
		Closed:   e.closed,
	}
	if e.trans != nil && e.trans.incoming != nil {
		st.Progress = e.trans.progress()
	}
	return st
}

// ActiveID is the id of the settled or outgoing instance, or "".
func (e *Engine) ActiveID() string {
	if e.active == nil {
		return ""
	}
	return e.active.id
}

// TargetID is where the engine is heading: the incoming or pending id while
// transitioning, the active id otherwise.
func (e *Engine) TargetID() string {
	if e.trans != nil {
		return e.trans.target
	}
	return e.ActiveID()
}

// Layers returns the stage layers bottom first, for compositing.
func (e *Engine) Layers() []*stage.Layer { return e.stage.Layers() }

// Stage returns the surface the engine draws onto.
func (e *Engine) Stage() *stage.Stage { return e.stage }

func (e *Engine) live() []*slot {
	out := make([]*slot, 0, 2)
	if e.active != nil {
		out = append(out, e.active)
	}
	if e.trans != nil && e.trans.incoming != nil {
		out = append(out, e.trans.incoming)
	}
	return out
}

func layerMode(r visualizer.Renderer) stage.Mode {
	if r == visualizer.RendererText {
		return stage.ModePlain
	}
	return stage.ModeColor
}

// spawn creates id on a fresh top layer. An id that fails to come up is
// marked removed until a later spawn of it succeeds.
func (e *Engine) spawn(id string, cfg visualizer.Config) (*slot, error) {
	meta, ok := e.reg.Lookup(id)
	if !ok {
		return nil, &visualizer.LookupError{ID: id}
	}
	layer := e.stage.AddLayer(layerMode(meta.Renderer))
	var inst visualizer.Visualization
	err := guard(func() (err error) {
		inst, err = e.reg.Create(id, layer, cfg)
		return err
	})
	if err != nil {
		e.stage.Remove(layer)
		e.removed[id] = true
		e.log.Printf("engine: creating %s: %v", id, err)
		return nil, err
	}
	delete(e.removed, id)
	return &slot{id: id, inst: inst, layer: layer}, nil
}

// release is the only teardown path: it destroys the instance once and
// removes its layer.
func (e *Engine) release(s *slot) {
	if s == nil || s.released {
		return
	}
	s.released = true
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Printf("engine: %s destroy panicked: %v", s.id, r)
			}
		}()
		s.inst.Destroy()
	}()
	e.stage.Remove(s.layer)
}

func settle(s *slot) {
	if s == nil {
		return
	}
	s.layer.SetOpacity(1)
	s.layer.SetScale(1)
}

// cancel abandons the in-flight transition and keeps the active instance.
func (e *Engine) cancel(err error) {
	t := e.trans
	if t == nil {
		return
	}
	e.trans = nil
	e.state = Steady
	e.release(t.incoming)
	settle(e.active)
	e.emit(SwitchCancelled, t.target, e.ActiveID(), err)
}

// complete destroys the outgoing instance and promotes the incoming one.
func (e *Engine) complete() {
	t := e.trans
	old := e.active
	from := e.ActiveID()
	e.trans = nil
	e.state = Steady
	e.release(old)
	e.active = t.incoming
	settle(e.active)
	e.emit(SwitchCompleted, e.active.id, from, nil)
}

func (e *Engine) advance(dt time.Duration) {
	t := e.trans
	if t == nil {
		return
	}
	if t.kind == visualizer.TransitionCut {
		s, err := e.spawn(t.target, t.cfg)
		if err != nil {
			e.log.Printf("engine: cut to %s failed: %v", t.target, err)
			e.cancel(err)
			return
		}
		t.incoming = s
		e.complete()
		return
	}
	t.elapsed += dt
	t.apply(e.active, e.opts.ZoomFrom)
	if t.elapsed >= t.duration {
		e.complete()
	}
}

func (e *Engine) updateSlot(s *slot, cfg visualizer.Config) error {
	if len(cfg) == 0 {
		return nil
	}
	return e.call(s, "updateConfig", func() error { return s.inst.UpdateConfig(cfg) })
}

// call runs one lifecycle call on s, converting panics to errors. Failures
// are counted per instance; a success resets the count.
func (e *Engine) call(s *slot, op string, fn func() error) error {
	err := guard(fn)
	if err == nil {
		s.failures = 0
		return nil
	}
	rerr := &visualizer.RenderError{ID: s.id, Op: op, Err: err}
	s.failures++
	e.log.Printf("engine: %v (%d/%d)", rerr, s.failures, e.opts.FailureThreshold)
	e.emit(InstanceFailed, s.id, "", rerr)
	if s.failures >= e.opts.FailureThreshold {
		e.forceRemove(s, rerr)
	}
	return rerr
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// forceRemove cuts away from a persistently failing instance.
func (e *Engine) forceRemove(s *slot, err error) {
	e.removed[s.id] = true
	t := e.trans

	switch {
	case t != nil && t.incoming == s:
		e.trans = nil
		e.state = Steady
		e.release(s)
		settle(e.active)
		e.emit(InstanceRemoved, s.id, "", err)
		e.emit(SwitchCancelled, s.id, e.ActiveID(), err)

	case s == e.active && t != nil && t.incoming != nil:
		e.trans = nil
		e.state = Steady
		e.release(s)
		e.active = t.incoming
		settle(e.active)
		e.emit(InstanceRemoved, s.id, "", err)
		e.emit(SwitchCompleted, e.active.id, s.id, nil)

	case s == e.active:
		e.release(s)
		e.active = nil
		e.emit(InstanceRemoved, s.id, "", err)
		if t == nil {
			e.fallback(s.id)
		}
	}
}

// fallback activates the next registered id after the failed one that has
// not itself been force-removed.
func (e *Engine) fallback(after string) {
	ids := e.reg.IDs()
	start := slices.Index(ids, after)
	for i := 1; i <= len(ids); i++ {
		id := ids[(start+i+len(ids))%len(ids)]
		if e.removed[id] {
			continue
		}
		s, err := e.spawn(id, nil)
		if err != nil {
			e.log.Printf("engine: fallback to %s failed: %v", id, err)
			continue
		}
		e.active = s
		e.emit(SwitchCompleted, id, after, nil)
		return
	}
	e.log.Printf("engine: no visualization left after removing %s", after)
}
