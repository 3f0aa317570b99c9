package engine

import "time"

// EventKind classifies engine notifications.
type EventKind int

const (
	SwitchStarted EventKind = iota
	SwitchCompleted
	SwitchCancelled
	InstanceFailed
	InstanceRemoved
)

func (k EventKind) String() string {
	switch k {
	case SwitchStarted:
		return "switch-started"
	case SwitchCompleted:
		return "switch-completed"
	case SwitchCancelled:
		return "switch-cancelled"
	case InstanceFailed:
		return "instance-failed"
	case InstanceRemoved:
		return "instance-removed"
	}
	return "unknown"
}

// Event is delivered synchronously to subscribers.
type Event struct {
	Kind  EventKind
	ID    string
	From  string
	State State
	At    time.Time
	Err   error
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every subsequent event. The returned function
// removes it.
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) emit(kind EventKind, id, from string, err error) {
	ev := Event{Kind: kind, ID: id, From: from, State: e.state, At: e.lastTick, Err: err}
	for _, s := range append([]subscriber(nil), e.subs...) {
		s.fn(ev)
	}
}
