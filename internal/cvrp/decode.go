package cvrp

import "vrpsolve/internal/search"

// decodeSolution walks the successor assignment per vehicle and rebuilds the
// caller-facing solution. Vehicles whose start leads directly to their end
// carried no stops and are skipped; everything else becomes a depot-to-depot
// route.
func decodeSolution(p *Problem, mgr *Manager, asg *search.Assignment) *Solution {
	sol := &Solution{Objective: asg.Cost}
	for v := 0; v < p.NumVehicles; v++ {
		if asg.Next[mgr.Start(v)] == mgr.End(v) {
			continue
		}
		route := decodeRoute(p, mgr, asg, v)
		sol.TotalDistance += route.Distance
		sol.Routes = append(sol.Routes, route)
	}
	sol.Dropped = DroppedNodes(mgr, asg)
	return sol
}

// decodeRoute is a pure function from (assignment, vehicle) to the ordered
// stop sequence, depot included at both ends. Incremental distance is the
// matrix cost from the previous logical node, zero for the first stop.
func decodeRoute(p *Problem, mgr *Manager, asg *search.Assignment, v int) Route {
	route := Route{Vehicle: v}
	prev := -1
	for pos := mgr.Start(v); ; pos = asg.Next[pos] {
		node := mgr.IndexToNode(pos)
		var dist int64
		if prev >= 0 {
			dist = p.Matrix[prev][node]
		}
		route.Stops = append(route.Stops, Stop{
			Node:     node,
			Lat:      p.Nodes[node].Lat,
			Lon:      p.Nodes[node].Lon,
			Demand:   p.Demand[node],
			Distance: dist,
		})
		route.Distance += dist
		if mgr.IsEnd(pos) {
			break
		}
		prev = node
	}
	for _, st := range route.Stops[:len(route.Stops)-1] {
		route.Load += st.Demand
	}
	return route
}

// DroppedNodes returns the logical nodes whose interior position is its own
// successor — the assignment convention for "not visited by any vehicle".
// Meaningful only when the model was built with node dropping enabled; the
// default model never drops, so this reports an empty set.
func DroppedNodes(mgr *Manager, asg *search.Assignment) []int {
	var dropped []int
	for pos := 0; pos < mgr.Size(); pos++ {
		if mgr.IsStart(pos) || mgr.IsEnd(pos) {
			continue
		}
		if asg.Next[pos] == pos {
			dropped = append(dropped, mgr.IndexToNode(pos))
		}
	}
	return dropped
}
