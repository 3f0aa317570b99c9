// Package rotation advances the engine to another visualization on a timer.
package rotation

import (
	"log"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/olivier-w/audioverlay/internal/engine"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// Switcher is the part of the engine the controller drives.
type Switcher interface {
	SwitchTo(id string, cfg visualizer.Config) error
	TargetID() string
	Subscribe(fn func(engine.Event)) (cancel func())
}

// Catalog lists rotation candidates.
type Catalog interface {
	List() []visualizer.Meta
	Schema(id string) (visualizer.ConfigSchema, bool)
}

// Config is the rotation schedule.
type Config struct {
	Enabled         bool
	Interval        time.Duration
	Order           Order
	RandomizeColors bool
	RandomizeConfig bool
}

// Status is a snapshot for display.
type Status struct {
	Enabled  bool
	Interval time.Duration
	Order    Order
	// Remaining is the time left before the next rotation, as of the last tick.
	Remaining time.Duration
	LastID    string
	Rotations int
}

type Option func(*Controller)

// WithRand sets the source used for random order and randomized configs.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller owns the rotation schedule. It is ticked from the same
// goroutine as the engine.
type Controller struct {
	sw  Switcher
	cat Catalog
	cfg Config
	rng *rand.Rand
	log *log.Logger

	started  bool
	reset    bool
	issuing  bool
	lastFire time.Time
	lastTick time.Time
	lastID   string
	fires    int
	unsub    func()
}

// New creates a controller and starts watching sw for manual switches.
func New(sw Switcher, cat Catalog, cfg Config, opts ...Option) *Controller {
	c := &Controller{sw: sw, cat: cat, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.log == nil {
		c.log = log.Default()
	}
	c.unsub = sw.Subscribe(c.observe)
	return c
}

// observe restarts the timer when someone else switches.
func (c *Controller) observe(ev engine.Event) {
	if ev.Kind == engine.SwitchStarted && !c.issuing {
		c.reset = true
	}
}

// Tick rotates once if enabled and a full interval has passed since the
// last rotation. Delayed ticks never fire more than once.
func (c *Controller) Tick(now time.Time) {
	c.lastTick = now
	if !c.started || c.reset {
		c.started = true
		c.reset = false
		c.lastFire = now
	}
	if !c.cfg.Enabled || c.cfg.Interval <= 0 {
		return
	}
	if now.Sub(c.lastFire) < c.cfg.Interval {
		return
	}
	c.lastFire = now
	c.rotate()
}

// rotate tries candidates in order until one switch succeeds.
func (c *Controller) rotate() {
	for _, id := range c.candidates() {
		cfg := c.randomConfig(id)
		c.issuing = true
		err := c.sw.SwitchTo(id, cfg)
		c.issuing = false
		if err != nil {
			c.log.Printf("rotation: skipping %s: %v", id, err)
			continue
		}
		c.lastID = id
		c.fires++
		return
	}
}

// candidates returns every id except the current target, best first.
func (c *Controller) candidates() []string {
	metas := c.cat.List()
	ids := make([]string, 0, len(metas))
	for _, m := range metas {
		ids = append(ids, m.ID)
	}
	current := c.sw.TargetID()
	start := slices.Index(ids, current)

	out := make([]string, 0, len(ids))
	for i := 1; i <= len(ids); i++ {
		id := ids[(start+i+len(ids))%len(ids)]
		if id != current {
			out = append(out, id)
		}
	}
	if c.cfg.Order == Random {
		c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

// SetEnabled turns rotation on or off. Enabling restarts the timer.
func (c *Controller) SetEnabled(on bool) {
	if on && !c.cfg.Enabled {
		c.reset = true
	}
	c.cfg.Enabled = on
}

func (c *Controller) SetOrder(o Order) { c.cfg.Order = o }

// SetInterval changes the interval without restarting the timer.
func (c *Controller) SetInterval(d time.Duration) { c.cfg.Interval = d }

// Config returns the current schedule.
func (c *Controller) Config() Config { return c.cfg }

// Status reports the schedule and the time left as of the last tick.
func (c *Controller) Status() Status {
	s := Status{
		Enabled:   c.cfg.Enabled,
		Interval:  c.cfg.Interval,
		Order:     c.cfg.Order,
		LastID:    c.lastID,
		Rotations: c.fires,
	}
	if c.cfg.Enabled && c.started && !c.reset {
		s.Remaining = max(0, c.cfg.Interval-c.lastTick.Sub(c.lastFire))
	} else if c.cfg.Enabled {
		s.Remaining = c.cfg.Interval
	}
	return s
}

// Close stops watching the engine.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}
