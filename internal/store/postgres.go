package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vrpsolve/internal/model"
)

// Postgres persists jobs, subscriptions, and webhook deliveries.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if it does not exist (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solve_jobs (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL,
			routes JSONB,
			dropped JSONB,
			total_distance BIGINT NOT NULL DEFAULT 0,
			objective BIGINT NOT NULL DEFAULT 0,
			elapsed_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL,
			events JSONB NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id UUID PRIMARY KEY,
			subscription_id UUID,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload BYTEA,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_error TEXT,
			response_code INT,
			latency_ms INT,
			delivered_at TIMESTAMPTZ
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveJob(ctx context.Context, job model.SolveJob) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO solve_jobs (id, status, routes, dropped, total_distance, objective, elapsed_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET status=$2, routes=$3, dropped=$4,
			total_distance=$5, objective=$6, elapsed_ms=$7`,
		job.ID, job.Status, toJSON(job.Routes), toJSON(job.Dropped),
		job.TotalDistance, job.Objective, job.ElapsedMs)
	return err
}

func (p *Postgres) GetJob(ctx context.Context, id string) (model.SolveJob, error) {
	var (
		job             model.SolveJob
		routes, dropped []byte
		created         time.Time
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id::text, status, routes, dropped, total_distance, objective, elapsed_ms, created_at
		FROM solve_jobs WHERE id=$1`, id).
		Scan(&job.ID, &job.Status, &routes, &dropped, &job.TotalDistance, &job.Objective, &job.ElapsedMs, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SolveJob{}, ErrNotFound
	}
	if err != nil {
		return model.SolveJob{}, err
	}
	_ = json.Unmarshal(routes, &job.Routes)
	_ = json.Unmarshal(dropped, &job.Dropped)
	job.CreatedAt = created.UTC().Format(time.RFC3339)
	return job, nil
}

func (p *Postgres) ListJobs(ctx context.Context, cursor string, limit int) ([]model.SolveJob, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id::text, status, total_distance, objective, elapsed_ms, created_at
		FROM solve_jobs
		WHERE ($1 = '' OR id::text > $1)
		ORDER BY id
		LIMIT $2`, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	items := []model.SolveJob{}
	for rows.Next() {
		var (
			job     model.SolveJob
			created time.Time
		)
		if err := rows.Scan(&job.ID, &job.Status, &job.TotalDistance, &job.Objective, &job.ElapsedMs, &created); err != nil {
			return nil, "", err
		}
		job.CreatedAt = created.UTC().Format(time.RFC3339)
		items = append(items, job)
	}
	next := ""
	if len(items) > limit {
		items = items[:limit]
		next = items[limit-1].ID
	}
	return items, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		sub.ID, sub.URL, toJSON(sub.Events), sub.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, events, secret FROM subscriptions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var (
			sub    model.Subscription
			events []byte
		)
		if err := rows.Scan(&sub.ID, &sub.URL, &events, &sub.Secret); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(events, &sub.Events)
		for _, e := range sub.Events {
			if e == eventType || e == "*" {
				out = append(out, sub)
				break
			}
		}
	}
	return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, events FROM subscriptions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var (
			sub    model.Subscription
			events []byte
		)
		if err := rows.Scan(&sub.ID, &sub.URL, &events); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(events, &sub.Events)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload)
		VALUES ($1, NULLIF($2,'')::uuid, $3, $4, $5, $6)`,
		id, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id::text, COALESCE(subscription_id::text,''), event_type, url, secret, payload, status, attempts
		FROM webhook_deliveries
		WHERE status='pending' AND next_attempt_at <= now()
		ORDER BY next_attempt_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx, `
			UPDATE webhook_deliveries
			SET status='delivered', attempts=attempts+1, last_error=$2,
				response_code=$3, latency_ms=$4, delivered_at=now()
			WHERE id=$1`, id, lastError, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET attempts=attempts+1, next_attempt_at=COALESCE($2, next_attempt_at),
			last_error=$3, response_code=$4, latency_ms=$5
		WHERE id=$1`, id, nextAttemptAt, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4
		WHERE id=$1`, id, lastError, responseCode, latencyMs)
	return err
}

func toJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
