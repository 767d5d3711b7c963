package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vrpsolve/internal/config"
	"vrpsolve/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.SolveBudget = 150 * time.Millisecond
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func solveBody(t *testing.T, capacity int64, vehicles int) []byte {
	t.Helper()
	req := model.SolveRequest{
		DistanceMatrix: [][]int64{
			{0, 5, 5, 5},
			{5, 0, 8, 8},
			{5, 8, 0, 8},
			{5, 8, 8, 0},
		},
		Demand:          []int64{0, 10, 10, 10},
		VehicleCapacity: capacity,
		NumVehicles:     vehicles,
		DistanceLimit:   1000,
		TimeBudgetMs:    100,
		Seed:            1,
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestSolveAndFetchJob(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody(t, 20, 2)))
	req.Header.Set("Content-Type", "application/json")
	s.SolveHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d body=%s", rr.Code, rr.Body.String())
	}
	var job model.SolveJob
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != model.JobSolved || len(job.Routes) != 2 {
		t.Fatalf("job = %+v", job)
	}
	if job.TotalDistance <= 0 {
		t.Fatalf("total distance = %d", job.TotalDistance)
	}

	// fetch it back
	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("get job: %d", rr.Code)
	}

	// geojson view
	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID+"/geojson", nil))
	if rr.Code != 200 {
		t.Fatalf("geojson: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "FeatureCollection") {
		t.Fatalf("geojson body: %s", rr.Body.String())
	}

	// list
	rr = httptest.NewRecorder()
	s.JobsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs?limit=5", nil))
	if rr.Code != 200 {
		t.Fatalf("list jobs: %d", rr.Code)
	}
}

func TestSolveCacheHit(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody(t, 20, 2)))
		s.SolveHandler(rr, req)
		if rr.Code != 200 {
			t.Fatalf("solve %d: got %d", i, rr.Code)
		}
		if i == 1 && rr.Header().Get("X-Cache") != "hit" {
			t.Fatal("second identical request should hit the cache")
		}
	}
}

func TestSolveNoSolution(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	// capacity 15 cannot cover three 10-demand nodes with two vehicles
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody(t, 15, 2)))
	s.SolveHandler(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	var job model.SolveJob
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.Status != model.JobNoSolution {
		t.Fatalf("status = %q", job.Status)
	}
	// the failed attempt is still recorded as a job
	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("get no_solution job: %d", rr.Code)
	}
}

func TestSolveRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{not json`,
		`{}`,
		`{"distanceMatrix":[[0,5],[5,0]],"demand":[0,10],"timeBudgetMs":-1}`,
		`{"distanceMatrix":[[0,5],[5,0]],"demand":[0,10],"nodes":[{"lat":1,"lon":2}]}`,
	}
	for _, body := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(body))
		s.SolveHandler(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got %d", body, rr.Code)
		}
	}
}

func TestJobNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestSubscriptionsCRUD(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"url":"https://example.com/hook","events":["solve.completed"],"secret":"s3cr3t"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body))
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", rr.Code, rr.Body.String())
	}
	var sub model.Subscription
	if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil {
		t.Fatal(err)
	}

	rr = httptest.NewRecorder()
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil))
	if rr.Code != 200 {
		t.Fatalf("list: %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "s3cr3t") {
		t.Fatal("list must not leak secrets")
	}

	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("double delete: %d", rr.Code)
	}
}

func TestSolveEnqueuesWebhook(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"url":"https://example.com/hook","events":["*"]}`)
	rr := httptest.NewRecorder()
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(solveBody(t, 20, 2))))
	if rr.Code != 200 {
		t.Fatalf("solve: %d", rr.Code)
	}

	due, err := s.Store.FetchDueWebhookDeliveries(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].EventType != "solve.completed" {
		t.Fatalf("deliveries = %+v", due)
	}
}
