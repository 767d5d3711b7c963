package cvrp

import (
	"context"
	"errors"

	"vrpsolve/internal/search"
)

// SearchFunc is the contract of the search collaborator: given the fully
// constrained model and search parameters, produce a complete successor
// assignment or search.ErrNoAssignment. The core treats the result as opaque.
type SearchFunc func(ctx context.Context, m *search.Model, params search.Params) (*search.Assignment, error)

// Solve validates the problem, builds the constrained model, runs one
// time-bounded search, and decodes the result. Returns ErrNoSolution when the
// search finds no feasible assignment within the budget, and a configuration
// error (wrapping ErrInvalidProblem) before any search time is spent.
func Solve(ctx context.Context, p Problem) (*Solution, error) {
	return SolveWith(ctx, p, search.Solve)
}

// SolveWith is Solve with an explicit search collaborator, for callers that
// substitute their own engine.
func SolveWith(ctx context.Context, p Problem, fn SearchFunc) (*Solution, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m, mgr := buildModel(&p)
	asg, err := fn(ctx, m, search.Params{
		Strategy:  search.CheapestArc,
		TimeLimit: p.SearchTime,
		Seed:      p.Seed,
	})
	if err != nil {
		if errors.Is(err, search.ErrNoAssignment) {
			return nil, ErrNoSolution
		}
		return nil, err
	}
	return decodeSolution(&p, mgr, asg), nil
}
