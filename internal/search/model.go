package search

import (
	"errors"
	"time"
)

// ErrNoAssignment is returned when no complete feasible assignment was found
// within the time budget.
var ErrNoAssignment = errors.New("search: no feasible assignment")

// Strategy selects the first-solution construction heuristic.
type Strategy int

const (
	// CheapestArc extends each vehicle's route by the cheapest feasible arc.
	CheapestArc Strategy = iota
)

// TransitFunc evaluates a resource transit (or arc cost) between two positions.
type TransitFunc func(from, to int) int64

// Dimension accumulates a scalar resource along each vehicle's route and
// bounds the cumulative value at the route end. The cumul starts at zero at
// every vehicle's start position.
type Dimension struct {
	Name    string
	Transit TransitFunc
	// Caps holds the per-vehicle hard bound on the end cumul.
	Caps []int64
	// SoftBound, when > 0, adds (endCumul - SoftBound) * SoftPenalty to the
	// objective instead of forbidding the excess.
	SoftBound   int64
	SoftPenalty int64
}

// Disjunction marks a position the search may leave unassigned at a cost.
type Disjunction struct {
	Position int
	Penalty  int64
}

// Model is a fully constrained routing model over route positions. Positions
// are opaque to the engine; the caller owns the mapping back to its own node
// identifiers.
type Model struct {
	Size         int   // total number of positions
	Starts, Ends []int // per-vehicle start and end positions
	ArcCost      TransitFunc
	Dims         []Dimension
	Disjunctions []Disjunction
}

// Vehicles returns the fleet size.
func (m *Model) Vehicles() int { return len(m.Starts) }

// Assignment is a complete successor function over positions. Each vehicle's
// chain runs Starts[v] -> ... -> Ends[v]; a dropped position is its own
// successor.
type Assignment struct {
	Next []int
	// Cost is the objective value: arc costs plus soft-bound and drop penalties.
	Cost int64
}

// Params configure a single search invocation. TimeLimit is the sole
// cancellation mechanism besides the caller's context; there is no early exit
// on proven optimality.
type Params struct {
	Strategy  Strategy
	TimeLimit time.Duration
	Seed      int64
}
