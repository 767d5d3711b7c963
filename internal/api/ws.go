package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"vrpsolve/internal/cache"
	"vrpsolve/internal/model"
	"vrpsolve/internal/webhooks"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SolveWSHandler handles /v1/solve/ws. The client sends solve frames
// ({type:"solve", id, payload:SolveRequest}); each gets a result or error
// frame with the same id. Solves run sequentially per connection.
func (s *Server) SolveWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 22)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	write := func(v any) error { return conn.WriteJSON(v) }
	writeErr := func(id string, status int, title, detail string) {
		payload, _ := json.Marshal(newProblem(status, title, detail, "/v1/solve/ws"))
		_ = write(wsMessage{Type: "error", ID: id, Payload: payload})
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong", ID: msg.ID})
		case "solve":
			var req model.SolveRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				writeErr(msg.ID, http.StatusBadRequest, "Invalid JSON", err.Error())
				continue
			}
			if err := validateSolveRequest(&req); err != nil {
				writeErr(msg.ID, http.StatusBadRequest, "Invalid solve request", err.Error())
				continue
			}
			_ = write(wsMessage{Type: "accepted", ID: msg.ID})
			key := cache.Key(req)
			job, ok := s.Cache.Get(r.Context(), key)
			if !ok {
				var status int
				job, status = s.runSolve(r.Context(), req)
				if status == http.StatusBadRequest {
					writeErr(msg.ID, status, "Invalid solve request", job.Status)
					continue
				}
				if err := s.Store.SaveJob(r.Context(), job); err != nil {
					writeErr(msg.ID, http.StatusInternalServerError, "Save job failed", err.Error())
					continue
				}
				if job.Status == model.JobSolved {
					s.Cache.Set(r.Context(), key, job)
					s.Pub.Emit(r.Context(), webhooks.EventSolveCompleted, job)
				} else {
					s.Pub.Emit(r.Context(), webhooks.EventSolveFailed, job)
				}
			}
			payload, _ := json.Marshal(job)
			_ = write(wsMessage{Type: "result", ID: msg.ID, Payload: payload})
		default:
			// ignore
		}
	}
}
