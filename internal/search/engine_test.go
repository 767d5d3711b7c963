package search

import (
	"context"
	"testing"
	"time"
)

// lineModel builds a model with n interior positions on a line plus one
// vehicle. Arc cost is the index distance; one dimension counts visits.
func lineModel(interior, vehicles int, visitCap int64) *Model {
	size := interior + 2*vehicles
	starts := make([]int, vehicles)
	ends := make([]int, vehicles)
	caps := make([]int64, vehicles)
	for v := 0; v < vehicles; v++ {
		starts[v] = interior + v
		ends[v] = interior + vehicles + v
		caps[v] = visitCap
	}
	coord := func(p int) int64 {
		if p < interior {
			return int64(p + 1)
		}
		return 0 // starts and ends sit at the origin
	}
	arc := func(i, j int) int64 {
		d := coord(i) - coord(j)
		if d < 0 {
			d = -d
		}
		return d
	}
	visits := func(_, to int) int64 {
		if to < interior {
			return 1
		}
		return 0
	}
	return &Model{
		Size:    size,
		Starts:  starts,
		Ends:    ends,
		ArcCost: arc,
		Dims:    []Dimension{{Name: "Visits", Transit: visits, Caps: caps}},
	}
}

func TestSolveAssignsAllPositions(t *testing.T) {
	m := lineModel(4, 2, 3)
	asg, err := Solve(context.Background(), m, Params{TimeLimit: 50 * time.Millisecond, Seed: 1})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	seen := map[int]bool{}
	for v := 0; v < m.Vehicles(); v++ {
		pos := m.Starts[v]
		for steps := 0; ; steps++ {
			if steps > m.Size {
				t.Fatalf("vehicle %d: successor chain does not terminate", v)
			}
			pos = asg.Next[pos]
			if pos == m.Ends[v] {
				break
			}
			if seen[pos] {
				t.Fatalf("position %d visited twice", pos)
			}
			seen[pos] = true
		}
	}
	if len(seen) != 4 {
		t.Fatalf("visited %d interior positions, want 4", len(seen))
	}
}

func TestSolveRespectsCaps(t *testing.T) {
	// 4 visits across 2 vehicles, each capped at 2: both must be full.
	m := lineModel(4, 2, 2)
	asg, err := Solve(context.Background(), m, Params{TimeLimit: 50 * time.Millisecond, Seed: 1})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	for v := 0; v < m.Vehicles(); v++ {
		count := 0
		for pos := asg.Next[m.Starts[v]]; pos != m.Ends[v]; pos = asg.Next[pos] {
			count++
		}
		if count != 2 {
			t.Fatalf("vehicle %d visits %d positions, want 2", v, count)
		}
	}
}

func TestSolveInfeasible(t *testing.T) {
	// 4 visits, one vehicle capped at 3: no complete assignment exists.
	m := lineModel(4, 1, 3)
	start := time.Now()
	if _, err := Solve(context.Background(), m, Params{TimeLimit: 50 * time.Millisecond, Seed: 1}); err != ErrNoAssignment {
		t.Fatalf("want ErrNoAssignment, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("search overran its budget: %v", elapsed)
	}
}

func TestSolveDropsOnlyDisjunctions(t *testing.T) {
	m := lineModel(4, 1, 3)
	for p := 0; p < 4; p++ {
		m.Disjunctions = append(m.Disjunctions, Disjunction{Position: p, Penalty: 1000})
	}
	asg, err := Solve(context.Background(), m, Params{TimeLimit: 50 * time.Millisecond, Seed: 1})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	dropped := 0
	for p := 0; p < 4; p++ {
		if asg.Next[p] == p {
			dropped++
		}
	}
	if dropped != 1 {
		t.Fatalf("dropped %d positions, want 1", dropped)
	}
	if asg.Cost < 1000 {
		t.Fatalf("objective %d does not reflect the drop penalty", asg.Cost)
	}
}

func TestSolveSoftBoundPenalizesObjective(t *testing.T) {
	m := lineModel(2, 1, 10)
	// Distance dimension mirrors the arc cost with a soft bound far below the
	// cheapest tour (0->1->2->0 costs 4).
	m.Dims = append(m.Dims, Dimension{
		Name:        "Distance",
		Transit:     m.ArcCost,
		Caps:        []int64{1000},
		SoftBound:   1,
		SoftPenalty: 100,
	})
	asg, err := Solve(context.Background(), m, Params{TimeLimit: 20 * time.Millisecond, Seed: 1})
	if err != nil {
		t.Fatalf("soft bound must not block feasibility: %v", err)
	}
	if asg.Cost <= 4 {
		t.Fatalf("objective %d should include the soft-bound penalty", asg.Cost)
	}
}

func TestSolveCancelledContextStillReturnsConstruction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := lineModel(3, 1, 5)
	asg, err := Solve(ctx, m, Params{TimeLimit: time.Second, Seed: 1})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if asg == nil {
		t.Fatal("expected the construction solution despite cancellation")
	}
}
