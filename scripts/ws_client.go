// Package main runs a demo WebSocket client against /v1/solve/ws.
package main

import (
	"encoding/json"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solve/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	// Small 4-node instance: depot plus three customers.
	req := map[string]any{
		"distanceMatrix": [][]int64{
			{0, 5, 5, 5},
			{5, 0, 8, 8},
			{5, 8, 0, 8},
			{5, 8, 8, 0},
		},
		"demand":          []int64{0, 10, 10, 10},
		"vehicleCapacity": 20,
		"numVehicles":     2,
		"timeBudgetMs":    500,
	}
	pl, _ := json.Marshal(req)
	if err := c.WriteJSON(wsMessage{Type: "solve", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	_ = c.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Fatal("read:", err)
		}
		log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		if m.Type == "result" || m.Type == "error" {
			return
		}
	}
}
