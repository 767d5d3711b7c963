package store

import (
	"context"
	"testing"
	"time"

	"vrpsolve/internal/model"
)

func TestMemoryJobs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.SaveJob(ctx, model.SolveJob{ID: id, Status: model.JobSolved}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	job, err := m.GetJob(ctx, "b")
	if err != nil || job.ID != "b" {
		t.Fatalf("get: %v %+v", err, job)
	}
	if _, err := m.GetJob(ctx, "zz"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	items, _, err := m.ListJobs(ctx, "", 10)
	if err != nil || len(items) != 3 {
		t.Fatalf("list: %v %d", err, len(items))
	}
	items, _, err = m.ListJobs(ctx, "a", 10)
	if err != nil || len(items) != 2 || items[0].ID != "b" {
		t.Fatalf("cursor list: %v %+v", err, items)
	}
}

func TestMemorySubscriptionsAndDeliveries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sub, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		URL: "http://example.com/hook", Events: []string{"solve.completed"}, Secret: "s",
	})
	if err != nil || sub.ID == "" {
		t.Fatalf("create: %v", err)
	}
	subs, err := m.GetSubscriptionsForEvent(ctx, "solve.completed")
	if err != nil || len(subs) != 1 {
		t.Fatalf("match: %v %d", err, len(subs))
	}
	if subs, _ := m.GetSubscriptionsForEvent(ctx, "solve.failed"); len(subs) != 0 {
		t.Fatalf("unexpected match: %+v", subs)
	}

	id, err := m.EnqueueWebhook(ctx, sub.ID, "solve.completed", sub.URL, "s", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 || due[0].ID != id {
		t.Fatalf("due: %v %+v", err, due)
	}

	// Retry pushes the next attempt into the future.
	next := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if due, _ := m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 0 {
		t.Fatalf("delivery should not be due yet: %+v", due)
	}

	if err := m.DeleteSubscription(ctx, sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteSubscription(ctx, sub.ID); err != ErrNotFound {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}
