package cvrp

import "vrpsolve/internal/search"

// Dimension names registered on the routing model.
const (
	DimDistance = "Distance"
	DimCapacity = "Capacity"
)

// matrixTransit evaluates the arc distance between two route positions. It is
// both the arc cost (total distance is the minimized objective) and the
// Distance dimension's transit.
type matrixTransit struct {
	matrix [][]int64
	mgr    *Manager
}

func (t matrixTransit) cost(from, to int) int64 {
	return t.matrix[t.mgr.IndexToNode(from)][t.mgr.IndexToNode(to)]
}

// demandTransit is the Capacity dimension's unary transit: the demand of the
// position being entered. Entering a start or end position contributes the
// depot's demand (zero after normalization of a depot-exclusive vector).
type demandTransit struct {
	demand []int64
	mgr    *Manager
}

func (t demandTransit) cost(_, to int) int64 {
	return t.demand[t.mgr.IndexToNode(to)]
}

// buildModel encodes a normalized, validated problem as a search model: the
// index manager, the arc cost evaluator, the two resource dimensions, and the
// optional per-node disjunctions.
func buildModel(p *Problem) (*search.Model, *Manager) {
	mgr := NewManager(len(p.Nodes), p.NumVehicles, p.Depot)

	starts := make([]int, p.NumVehicles)
	ends := make([]int, p.NumVehicles)
	for v := 0; v < p.NumVehicles; v++ {
		starts[v] = mgr.Start(v)
		ends[v] = mgr.End(v)
	}

	distCaps := make([]int64, p.NumVehicles)
	loadCaps := make([]int64, p.NumVehicles)
	for v := range distCaps {
		distCaps[v] = p.DistanceLimit
		loadCaps[v] = p.VehicleCap
	}

	dist := search.Dimension{
		Name:    DimDistance,
		Transit: matrixTransit{matrix: p.Matrix, mgr: mgr}.cost,
		Caps:    distCaps,
	}
	if p.SoftDistanceLimit > 0 {
		dist.SoftBound = p.SoftDistanceLimit
		dist.SoftPenalty = p.SoftDistancePenalty
	}

	load := search.Dimension{
		Name:    DimCapacity,
		Transit: demandTransit{demand: p.Demand, mgr: mgr}.cost,
		Caps:    loadCaps,
	}

	m := &search.Model{
		Size:    mgr.Size(),
		Starts:  starts,
		Ends:    ends,
		ArcCost: dist.Transit,
		Dims:    []search.Dimension{dist, load},
	}

	if p.AllowDrop {
		for node := range p.Nodes {
			if node == p.Depot {
				continue
			}
			m.Disjunctions = append(m.Disjunctions, search.Disjunction{
				Position: mgr.NodeToIndex(node),
				Penalty:  p.DropPenalty,
			})
		}
	}
	return m, mgr
}
