package engine

import "time"

// State is the transition state machine's current state.
type State int

const (
	Steady State = iota
	TransitioningCrossfade
	TransitioningCut
	TransitioningZoom
)

func (s State) String() string {
	switch s {
	case Steady:
		return "steady"
	case TransitioningCrossfade:
		return "crossfade"
	case TransitioningCut:
		return "cut"
	case TransitioningZoom:
		return "zoom"
	}
	return "unknown"
}

// EngineState is a read-only snapshot of the engine.
type EngineState struct {
	State    State
	ActiveID string
	// TargetID is the incoming or pending id while transitioning.
	TargetID string
	// Progress runs 0..1 across a crossfade or zoom.
	Progress float64
	LastTick time.Time
	Live     int
	Closed   bool
}
