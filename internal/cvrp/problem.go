// Package cvrp formulates and solves the capacitated vehicle routing problem:
// it builds a constrained routing model from a distance matrix and a demand
// vector, hands the model to a time-bounded search, and decodes the raw
// assignment into per-vehicle stop sequences.
package cvrp

import (
	"errors"
	"fmt"
	"time"
)

// Defaults resolved by Normalize for zero-valued options.
const (
	DefaultVehicleCap          = 26
	DefaultDistanceLimit       = 100000
	DefaultSoftDistancePenalty = 100000
	DefaultSearchTime          = 5 * time.Second
)

var (
	// ErrInvalidProblem wraps every configuration error detected before the
	// search is invoked.
	ErrInvalidProblem = errors.New("cvrp: invalid problem")
	// ErrNoSolution reports that the search found no feasible assignment
	// within the time budget. Distinct from configuration errors.
	ErrNoSolution = errors.New("cvrp: no solution found")
)

// Node is a geographic position. Index 0 is conventionally the depot.
type Node struct {
	Lat float64
	Lon float64
}

// Problem is the immutable input to Solve. Zero values mean "use the default";
// Normalize resolves them once, before model construction.
//
// The distance matrix is precision-scaled: callers convert real distances to
// integers at a known precision before building the Problem.
type Problem struct {
	Nodes  []Node
	Matrix [][]int64
	// Demand maps node index to demand units. May omit the depot entry: a
	// vector of length len(Matrix)-1 is left-padded with a zero for the depot.
	Demand []int64
	Depot  int

	VehicleCap  int64 // default 26
	NumVehicles int   // default: number of non-depot demand entries

	DistanceLimit int64 // hard per-vehicle bound, default 100000 scaled units
	// SoftDistanceLimit is the soft end-of-route bound. Zero means "default to
	// 75% of DistanceLimit"; a negative value disables the soft bound.
	SoftDistanceLimit   int64
	SoftDistancePenalty int64 // objective cost per scaled unit above the soft bound

	SearchTime time.Duration // wall-clock search budget, default 5s

	// AllowDrop permits leaving nodes unvisited at DropPenalty cost each,
	// via one disjunction per non-depot node.
	AllowDrop   bool
	DropPenalty int64

	// Seed fixes the search RNG; zero seeds from the clock.
	Seed int64
}

// Normalize returns a copy with the demand vector padded and every unset
// option resolved to its default. Pure; the receiver is not modified.
func (p Problem) Normalize() Problem {
	if len(p.Nodes) == 0 && len(p.Matrix) > 0 {
		// Coordinates are optional; routes over a bare matrix decode with
		// zero-valued positions.
		p.Nodes = make([]Node, len(p.Matrix))
	}
	if len(p.Demand) == len(p.Matrix)-1 {
		padded := make([]int64, 0, len(p.Matrix))
		padded = append(padded, 0)
		padded = append(padded, p.Demand...)
		p.Demand = padded
	}
	if p.VehicleCap == 0 {
		p.VehicleCap = DefaultVehicleCap
	}
	if p.NumVehicles == 0 {
		n := len(p.Demand) - 1
		if n < 0 {
			n = 0
		}
		p.NumVehicles = n
	}
	if p.DistanceLimit == 0 {
		p.DistanceLimit = DefaultDistanceLimit
	}
	if p.SoftDistanceLimit == 0 {
		p.SoftDistanceLimit = p.DistanceLimit * 3 / 4
	}
	if p.SoftDistancePenalty == 0 {
		p.SoftDistancePenalty = DefaultSoftDistancePenalty
	}
	if p.SearchTime == 0 {
		p.SearchTime = DefaultSearchTime
	}
	return p
}

// Validate checks a normalized problem. All errors wrap ErrInvalidProblem and
// are detected before any search time is spent.
func (p *Problem) Validate() error {
	n := len(p.Matrix)
	if n == 0 {
		return fmt.Errorf("%w: empty distance matrix", ErrInvalidProblem)
	}
	if len(p.Nodes) != n {
		return fmt.Errorf("%w: %d nodes for a %dx%d matrix", ErrInvalidProblem, len(p.Nodes), n, n)
	}
	for i, row := range p.Matrix {
		if len(row) != n {
			return fmt.Errorf("%w: matrix row %d has %d entries, want %d", ErrInvalidProblem, i, len(row), n)
		}
		for j, c := range row {
			if c < 0 {
				return fmt.Errorf("%w: negative cost %d at matrix[%d][%d]", ErrInvalidProblem, c, i, j)
			}
		}
	}
	if len(p.Demand) != n {
		return fmt.Errorf("%w: demand length %d, want %d or %d", ErrInvalidProblem, len(p.Demand), n, n-1)
	}
	for i, d := range p.Demand {
		if d < 0 {
			return fmt.Errorf("%w: negative demand %d at node %d", ErrInvalidProblem, d, i)
		}
	}
	if p.Depot < 0 || p.Depot >= n {
		return fmt.Errorf("%w: depot index %d out of range [0,%d)", ErrInvalidProblem, p.Depot, n)
	}
	if p.VehicleCap <= 0 {
		return fmt.Errorf("%w: vehicle capacity %d must be positive", ErrInvalidProblem, p.VehicleCap)
	}
	if p.NumVehicles <= 0 {
		return fmt.Errorf("%w: vehicle count %d must be positive", ErrInvalidProblem, p.NumVehicles)
	}
	if p.DistanceLimit <= 0 {
		return fmt.Errorf("%w: distance limit %d must be positive", ErrInvalidProblem, p.DistanceLimit)
	}
	if p.SearchTime <= 0 {
		return fmt.Errorf("%w: search time %s must be positive", ErrInvalidProblem, p.SearchTime)
	}
	if p.AllowDrop && p.DropPenalty <= 0 {
		return fmt.Errorf("%w: drop penalty %d must be positive when dropping is allowed", ErrInvalidProblem, p.DropPenalty)
	}
	return nil
}
