package api

import (
	"fmt"

	"vrpsolve/internal/model"
)

// validateSolveRequest rejects shapes the solver cannot even normalize.
// Structural checks (square matrix, demand bounds, depot range) remain with
// the solver so the two layers cannot disagree.
func validateSolveRequest(req *model.SolveRequest) error {
	if len(req.DistanceMatrix) == 0 {
		return fmt.Errorf("distanceMatrix is required")
	}
	if len(req.Nodes) > 0 && len(req.Nodes) != len(req.DistanceMatrix) {
		return fmt.Errorf("nodes length %d does not match matrix size %d", len(req.Nodes), len(req.DistanceMatrix))
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if req.TimeBudgetMs > 60000 {
		return fmt.Errorf("timeBudgetMs must be <= 60000")
	}
	if req.NumVehicles < 0 {
		return fmt.Errorf("numVehicles must be >= 0")
	}
	return nil
}
