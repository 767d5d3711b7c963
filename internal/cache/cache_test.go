package cache

import (
	"context"
	"testing"
	"time"

	"vrpsolve/internal/model"
)

func TestKeyStableAndDistinct(t *testing.T) {
	a := model.SolveRequest{DistanceMatrix: [][]int64{{0, 5}, {5, 0}}, Demand: []int64{0, 10}}
	b := model.SolveRequest{DistanceMatrix: [][]int64{{0, 5}, {5, 0}}, Demand: []int64{0, 10}}
	c := model.SolveRequest{DistanceMatrix: [][]int64{{0, 7}, {7, 0}}, Demand: []int64{0, 10}}
	if Key(a) != Key(b) {
		t.Fatal("identical requests should share a key")
	}
	if Key(a) == Key(c) {
		t.Fatal("different matrices should not collide")
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(20 * time.Millisecond)
	job := model.SolveJob{ID: "j1", Status: model.JobSolved, TotalDistance: 28}

	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("empty cache should miss")
	}
	m.Set(ctx, "k", job)
	got, ok := m.Get(ctx, "k")
	if !ok || got.ID != "j1" || got.TotalDistance != 28 {
		t.Fatalf("get = %+v, %v", got, ok)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("entry should expire after TTL")
	}
}
