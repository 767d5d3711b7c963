package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vrpsolve/internal/model"
)

func TestSolveWS(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.SolveWSHandler))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/solve/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(wsMessage{Type: "solve", ID: "1", Payload: solveBody(t, 20, 2)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "accepted" || msg.ID != "1" {
		t.Fatalf("frame = %+v", msg)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "result" || msg.ID != "1" {
		t.Fatalf("frame = %+v", msg)
	}
	var job model.SolveJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		t.Fatal(err)
	}
	if job.Status != model.JobSolved || len(job.Routes) != 2 {
		t.Fatalf("job = %+v", job)
	}

	// malformed payload gets an error frame on the same id
	if err := conn.WriteJSON(wsMessage{Type: "solve", ID: "2", Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || msg.ID != "2" {
		t.Fatalf("frame = %+v", msg)
	}
}
