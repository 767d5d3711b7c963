package api

import (
	"context"
	"log"
	"os"
	"strings"

	"vrpsolve/internal/cache"
	"vrpsolve/internal/config"
	"vrpsolve/internal/cvrp"
	"vrpsolve/internal/store"
	"vrpsolve/internal/webhooks"
)

type Server struct {
	Store store.Store
	Cache cache.Cache
	Pub   *webhooks.Publisher
	Cfg   config.Config

	// solve defaults to cvrp.Solve; tests swap in a stub.
	solve func(ctx context.Context, p cvrp.Problem) (*cvrp.Solution, error)
}

// NewServer wires the store, cache, and webhook publisher from config.
// With no DATABASE_URL everything runs in memory.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}

	var c cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Printf("redis cache unavailable, using memory: %v", err)
			c = cache.NewMemory(cfg.CacheTTL)
		} else {
			c = rc
		}
	} else {
		c = cache.NewMemory(cfg.CacheTTL)
	}

	return &Server{Store: s, Cache: c, Pub: webhooks.NewPublisher(s), Cfg: cfg, solve: cvrp.Solve}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
