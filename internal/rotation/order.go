package rotation

import "fmt"

// Order is how the controller picks the next visualization.
type Order int

const (
	// Sequential follows registration order.
	Sequential Order = iota
	// Random picks uniformly among every id except the current one.
	Random
)

// Next cycles to the other order.
func (o Order) Next() Order {
	if o == Sequential {
		return Random
	}
	return Sequential
}

// String returns the name of the order.
func (o Order) String() string {
	if o == Random {
		return "random"
	}
	return "sequential"
}

// Icon returns a visual indicator for the order.
func (o Order) Icon() string {
	if o == Random {
		return "[shuffle]"
	}
	return "[cycle]"
}

// ParseOrder accepts the names String returns.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "sequential", "seq", "":
		return Sequential, nil
	case "random", "shuffle":
		return Random, nil
	}
	return Sequential, fmt.Errorf("unknown rotation order %q", s)
}
