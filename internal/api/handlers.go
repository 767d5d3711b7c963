package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"vrpsolve/internal/buildinfo"
	"vrpsolve/internal/cache"
	"vrpsolve/internal/cvrp"
	"vrpsolve/internal/metrics"
	"vrpsolve/internal/model"
	"vrpsolve/internal/store"
	"vrpsolve/internal/viz"
	"vrpsolve/internal/webhooks"
)

// SolveHandler handles POST /v1/solve: synchronous solve with result caching
// and job persistence.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}

	key := cache.Key(req)
	if job, ok := s.Cache.Get(r.Context(), key); ok {
		metrics.SolveCacheHits.WithLabelValues("hit").Inc()
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, job)
		return
	}
	metrics.SolveCacheHits.WithLabelValues("miss").Inc()

	job, status := s.runSolve(r.Context(), req)
	if status == http.StatusBadRequest {
		writeProblem(w, status, "Invalid solve request", job.Status, r.URL.Path)
		return
	}
	if err := s.Store.SaveJob(r.Context(), job); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save job failed", err.Error(), r.URL.Path)
		return
	}
	if job.Status == model.JobSolved {
		s.Cache.Set(r.Context(), key, job)
		s.Pub.Emit(r.Context(), webhooks.EventSolveCompleted, job)
	} else {
		s.Pub.Emit(r.Context(), webhooks.EventSolveFailed, job)
	}
	writeJSON(w, status, job)
}

// runSolve executes one solve and shapes the outcome as a job. The returned
// status is 200 for solved, 422 for no solution, 400 for config errors (the
// job then carries the error text in Status and must not be persisted).
func (s *Server) runSolve(ctx context.Context, req model.SolveRequest) (model.SolveJob, int) {
	p := problemFromRequest(req, s.Cfg.SolveBudget)
	ctx, cancel := context.WithTimeout(ctx, p.SearchTime+2*time.Second)
	defer cancel()

	start := time.Now()
	sol, err := s.solve(ctx, p)
	elapsed := time.Since(start)
	metrics.SolveDuration.Observe(elapsed.Seconds())

	job := model.SolveJob{
		ID:        uuid.NewString(),
		ElapsedMs: elapsed.Milliseconds(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	switch {
	case err == nil:
		metrics.Solves.WithLabelValues("solved").Inc()
		job.Status = model.JobSolved
		job.Routes = routesOut(sol)
		job.Dropped = sol.Dropped
		job.TotalDistance = sol.TotalDistance
		job.Objective = sol.Objective
		return job, http.StatusOK
	case errors.Is(err, cvrp.ErrNoSolution):
		metrics.Solves.WithLabelValues("no_solution").Inc()
		job.Status = model.JobNoSolution
		return job, http.StatusUnprocessableEntity
	default:
		metrics.Solves.WithLabelValues("invalid").Inc()
		job.Status = err.Error()
		return job, http.StatusBadRequest
	}
}

// JobsHandler handles GET /v1/jobs
func (s *Server) JobsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListJobs(r.Context(), cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List jobs failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// JobByIDHandler handles GET /v1/jobs/{id} and GET /v1/jobs/{id}/geojson
func (s *Server) JobByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	job, err := s.Store.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Job not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Get job failed", err.Error(), r.URL.Path)
		return
	}
	if len(parts) > 1 && parts[1] == "geojson" {
		if job.Status != model.JobSolved {
			writeProblem(w, http.StatusConflict, "Job has no routes", "status: "+job.Status, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, viz.RoutesGeoJSON(solutionFromJob(job)))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": subs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" || id == r.URL.Path {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.Store.ListJobs(r.Context(), "", 1); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func problemFromRequest(req model.SolveRequest, defaultBudget time.Duration) cvrp.Problem {
	p := cvrp.Problem{
		Matrix:              req.DistanceMatrix,
		Demand:              req.Demand,
		Depot:               req.DepotIndex,
		VehicleCap:          req.VehicleCapacity,
		NumVehicles:         req.NumVehicles,
		DistanceLimit:       req.DistanceLimit,
		SoftDistanceLimit:   req.SoftDistanceLimit,
		SoftDistancePenalty: req.SoftDistancePenalty,
		AllowDrop:           req.AllowDrop,
		DropPenalty:         req.DropPenalty,
		Seed:                req.Seed,
	}
	for _, n := range req.Nodes {
		p.Nodes = append(p.Nodes, cvrp.Node{Lat: n.Lat, Lon: n.Lon})
	}
	if req.TimeBudgetMs > 0 {
		p.SearchTime = time.Duration(req.TimeBudgetMs) * time.Millisecond
	} else {
		p.SearchTime = defaultBudget
	}
	return p
}

func routesOut(sol *cvrp.Solution) []model.RouteOut {
	out := make([]model.RouteOut, 0, len(sol.Routes))
	for _, rt := range sol.Routes {
		ro := model.RouteOut{Vehicle: rt.Vehicle, Load: rt.Load, Distance: rt.Distance}
		for _, st := range rt.Stops {
			ro.Stops = append(ro.Stops, model.StopOut{Node: st.Node, Lat: st.Lat, Lon: st.Lon, Demand: st.Demand, Distance: st.Distance})
		}
		out = append(out, ro)
	}
	return out
}

func solutionFromJob(job model.SolveJob) *cvrp.Solution {
	sol := &cvrp.Solution{Dropped: job.Dropped, TotalDistance: job.TotalDistance, Objective: job.Objective}
	for _, ro := range job.Routes {
		rt := cvrp.Route{Vehicle: ro.Vehicle, Load: ro.Load, Distance: ro.Distance}
		for _, st := range ro.Stops {
			rt.Stops = append(rt.Stops, cvrp.Stop{Node: st.Node, Lat: st.Lat, Lon: st.Lon, Demand: st.Demand, Distance: st.Distance})
		}
		sol.Routes = append(sol.Routes, rt)
	}
	return sol
}
