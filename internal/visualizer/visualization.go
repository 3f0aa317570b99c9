package visualizer

import (
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/stage"
)

// Container is the surface a visualization draws into. Init acquires the
// canvas and Destroy releases it; the container outlives neither call.
type Container interface {
	Size() (width, height int)
	Acquire() *stage.Canvas
	Release()
}

// Visualization is the lifecycle every visual module implements. The engine
// depends only on this interface.
type Visualization interface {
	// Init acquires the drawing surface and applies the initial config.
	Init(c Container, cfg Config) error
	// Render draws exactly one frame.
	Render(data audio.AudioData, dt time.Duration) error
	Resize(width, height int) error
	// UpdateConfig merges partial into the current config.
	UpdateConfig(partial Config) error
	// Destroy releases everything the instance owns.
	Destroy()
	// ConfigSchema declares the tunable fields for a settings surface.
	ConfigSchema() ConfigSchema
}

// Module is a registrable visual module: its static metadata plus a factory
// for independent instances.
type Module struct {
	Meta Meta
	New  func() Visualization
}
