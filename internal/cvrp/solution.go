package cvrp

import (
	"fmt"
	"strings"
)

// Stop is one visited position in a route: the logical node, its coordinates,
// its demand, and the cost of the arc arriving at it from the previous stop
// (zero for the leading depot).
type Stop struct {
	Node     int
	Lat      float64
	Lon      float64
	Demand   int64
	Distance int64
}

// Route is an ordered stop sequence for one vehicle. The first and last stop
// are both the depot. Load and Distance are the route totals (Load excludes
// the trailing depot).
type Route struct {
	Vehicle  int
	Stops    []Stop
	Load     int64
	Distance int64
}

// Solution holds one Route per vehicle that was actually used, ordered by
// vehicle index. Unused vehicles are omitted entirely. Routes are independent
// snapshots with no references back into solver state.
type Solution struct {
	Routes []Route
	// Dropped lists logical node ids left unvisited. Empty unless the problem
	// allowed dropping.
	Dropped []int
	// TotalDistance is the summed arc distance over all routes.
	TotalDistance int64
	// Objective is the search objective: total distance plus soft-bound and
	// drop penalties.
	Objective int64
}

// String renders the solution one route per block, for logs and debugging.
func (s *Solution) String() string {
	var b strings.Builder
	for i, r := range s.Routes {
		fmt.Fprintf(&b, "Route(vehicle=%d idx=%d)\n", r.Vehicle, i)
		for j, st := range r.Stops {
			fmt.Fprintf(&b, "%d: node=%d demand=%d dist=%d\n", j, st.Node, st.Demand, st.Distance)
		}
		b.WriteString("\n")
	}
	return b.String()
}
