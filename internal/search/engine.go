package search

import (
	"context"
	"math/rand"
	"time"
)

// plan is the engine's working representation: interior positions in visit
// order per vehicle, plus the pool of currently unassigned positions.
type plan struct {
	routes     [][]int
	unassigned []int
}

func (p *plan) clone() *plan {
	out := &plan{routes: make([][]int, len(p.routes))}
	for i, r := range p.routes {
		out.routes[i] = append([]int(nil), r...)
	}
	out.unassigned = append([]int(nil), p.unassigned...)
	return out
}

// Solve runs a single time-bounded search: cheapest-arc construction followed
// by a removal/reinsertion improvement loop with 2-opt passes. It returns the
// best complete feasible assignment found, or ErrNoAssignment.
func Solve(ctx context.Context, m *Model, params Params) (*Assignment, error) {
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	deadline := time.Now().Add(params.TimeLimit)

	curr := constructCheapestArc(m)
	greedyInsert(m, curr)
	twoOptImprove(m, curr)

	var best *plan
	if complete(m, curr) {
		best = curr.clone()
	}

	for time.Now().Before(deadline) && ctx.Err() == nil {
		cand := curr.clone()
		k := 1 + rng.Intn(3)
		removeRandom(cand, k, rng)
		greedyInsert(m, cand)
		twoOptImprove(m, cand)

		switch {
		case complete(m, cand) && (best == nil || planCost(m, cand) < planCost(m, best)):
			best = cand.clone()
			curr = cand
		case best == nil:
			// keep wandering until something complete appears
			curr = cand
		case planCost(m, cand) < planCost(m, curr):
			curr = cand
		}
	}

	if best == nil {
		return nil, ErrNoAssignment
	}
	return toAssignment(m, best), nil
}

// interiors returns all positions that are neither a start nor an end.
func interiors(m *Model) []int {
	endpoint := make([]bool, m.Size)
	for _, s := range m.Starts {
		endpoint[s] = true
	}
	for _, e := range m.Ends {
		endpoint[e] = true
	}
	out := make([]int, 0, m.Size)
	for p := 0; p < m.Size; p++ {
		if !endpoint[p] {
			out = append(out, p)
		}
	}
	return out
}

// constructCheapestArc builds one route per vehicle by repeatedly extending
// the current tail with the cheapest unvisited position that keeps every
// dimension within its hard bound. Leftovers go to the unassigned pool.
func constructCheapestArc(m *Model) *plan {
	p := &plan{routes: make([][]int, m.Vehicles())}
	visited := make(map[int]bool)
	pool := interiors(m)

	for v := 0; v < m.Vehicles(); v++ {
		tail := m.Starts[v]
		route := []int{}
		for {
			next, bestCost := -1, int64(0)
			for _, cand := range pool {
				if visited[cand] {
					continue
				}
				if !feasibleAppend(m, v, route, cand) {
					continue
				}
				c := m.ArcCost(tail, cand)
				if next == -1 || c < bestCost || (c == bestCost && cand < next) {
					next, bestCost = cand, c
				}
			}
			if next == -1 {
				break
			}
			route = append(route, next)
			visited[next] = true
			tail = next
		}
		p.routes[v] = route
	}
	for _, pos := range pool {
		if !visited[pos] {
			p.unassigned = append(p.unassigned, pos)
		}
	}
	return p
}

// feasibleAppend reports whether appending pos to vehicle v's route keeps
// every dimension's end cumul within its cap.
func feasibleAppend(m *Model, v int, route []int, pos int) bool {
	cand := append(append([]int(nil), route...), pos)
	return feasibleRoute(m, v, cand)
}

func feasibleRoute(m *Model, v int, route []int) bool {
	for _, d := range m.Dims {
		if len(d.Caps) == 0 {
			continue
		}
		if dimCumul(m, d, v, route) > d.Caps[v] {
			return false
		}
	}
	return true
}

// dimCumul is the dimension's cumulative value at vehicle v's end position.
func dimCumul(m *Model, d Dimension, v int, route []int) int64 {
	cumul := int64(0)
	prev := m.Starts[v]
	for _, p := range route {
		cumul += d.Transit(prev, p)
		prev = p
	}
	cumul += d.Transit(prev, m.Ends[v])
	return cumul
}

// greedyInsert moves positions from the unassigned pool into their cheapest
// feasible insertion point across all vehicles. Positions with no feasible
// slot stay unassigned.
func greedyInsert(m *Model, p *plan) {
	pool := p.unassigned
	p.unassigned = nil
	for len(pool) > 0 {
		bestNode, bestVehicle, bestPos := -1, -1, -1
		bestDelta := int64(0)
		for ni, pos := range pool {
			for v, route := range p.routes {
				for at := 0; at <= len(route); at++ {
					cand := insertAt(route, pos, at)
					if !feasibleRoute(m, v, cand) {
						continue
					}
					delta := insertDelta(m, v, route, pos, at)
					if bestNode == -1 || delta < bestDelta {
						bestNode, bestVehicle, bestPos, bestDelta = ni, v, at, delta
					}
				}
			}
		}
		if bestNode == -1 {
			p.unassigned = append(p.unassigned, pool...)
			return
		}
		pos := pool[bestNode]
		p.routes[bestVehicle] = insertAt(p.routes[bestVehicle], pos, bestPos)
		pool = append(pool[:bestNode], pool[bestNode+1:]...)
	}
}

func insertAt(route []int, pos, at int) []int {
	out := make([]int, 0, len(route)+1)
	out = append(out, route[:at]...)
	out = append(out, pos)
	out = append(out, route[at:]...)
	return out
}

// insertDelta approximates the arc-cost change of inserting pos at slot `at`.
func insertDelta(m *Model, v int, route []int, pos, at int) int64 {
	prev := m.Starts[v]
	if at > 0 {
		prev = route[at-1]
	}
	next := m.Ends[v]
	if at < len(route) {
		next = route[at]
	}
	return m.ArcCost(prev, pos) + m.ArcCost(pos, next) - m.ArcCost(prev, next)
}

// removeRandom detaches k random assigned positions into the unassigned pool.
func removeRandom(p *plan, k int, rng *rand.Rand) {
	type loc struct{ v, i int }
	var all []loc
	for v, route := range p.routes {
		for i := range route {
			all = append(all, loc{v, i})
		}
	}
	if len(all) == 0 {
		return
	}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if k > len(all) {
		k = len(all)
	}
	removed := make(map[int]map[int]bool)
	for _, l := range all[:k] {
		if removed[l.v] == nil {
			removed[l.v] = map[int]bool{}
		}
		removed[l.v][l.i] = true
	}
	for v, route := range p.routes {
		if removed[v] == nil {
			continue
		}
		kept := route[:0]
		for i, pos := range route {
			if removed[v][i] {
				p.unassigned = append(p.unassigned, pos)
			} else {
				kept = append(kept, pos)
			}
		}
		p.routes[v] = kept
	}
}

// twoOptImprove applies intra-route 2-opt moves while they reduce arc cost
// and stay feasible.
func twoOptImprove(m *Model, p *plan) {
	for v, route := range p.routes {
		n := len(route)
		if n < 3 {
			continue
		}
		improved := true
		for improved {
			improved = false
			for i := 0; i < n-1; i++ {
				for k := i + 1; k < n; k++ {
					cand := append([]int(nil), route...)
					for a, b := i, k; a < b; a, b = a+1, b-1 {
						cand[a], cand[b] = cand[b], cand[a]
					}
					if !feasibleRoute(m, v, cand) {
						continue
					}
					if routeArcCost(m, v, cand) < routeArcCost(m, v, route) {
						route = cand
						improved = true
					}
				}
			}
		}
		p.routes[v] = route
	}
}

func routeArcCost(m *Model, v int, route []int) int64 {
	total := int64(0)
	prev := m.Starts[v]
	for _, p := range route {
		total += m.ArcCost(prev, p)
		prev = p
	}
	total += m.ArcCost(prev, m.Ends[v])
	return total
}

// complete reports whether every unassigned position is covered by a
// disjunction, i.e. the plan is a valid (possibly node-dropping) assignment.
func complete(m *Model, p *plan) bool {
	if len(p.unassigned) == 0 {
		return true
	}
	droppable := make(map[int]bool, len(m.Disjunctions))
	for _, d := range m.Disjunctions {
		droppable[d.Position] = true
	}
	for _, pos := range p.unassigned {
		if !droppable[pos] {
			return false
		}
	}
	return true
}

// planCost is the full objective: arc costs, soft-bound penalties at each
// vehicle's end cumul, and drop penalties for unassigned positions.
func planCost(m *Model, p *plan) int64 {
	total := int64(0)
	for v, route := range p.routes {
		total += routeArcCost(m, v, route)
		for _, d := range m.Dims {
			if d.SoftBound <= 0 {
				continue
			}
			if cumul := dimCumul(m, d, v, route); cumul > d.SoftBound {
				total += (cumul - d.SoftBound) * d.SoftPenalty
			}
		}
	}
	penalty := make(map[int]int64, len(m.Disjunctions))
	for _, d := range m.Disjunctions {
		penalty[d.Position] = d.Penalty
	}
	for _, pos := range p.unassigned {
		total += penalty[pos]
	}
	return total
}

// toAssignment flattens a plan into the successor representation.
func toAssignment(m *Model, p *plan) *Assignment {
	next := make([]int, m.Size)
	for i := range next {
		next[i] = i
	}
	for v, route := range p.routes {
		prev := m.Starts[v]
		for _, pos := range route {
			next[prev] = pos
			prev = pos
		}
		next[prev] = m.Ends[v]
	}
	return &Assignment{Next: next, Cost: planCost(m, p)}
}
