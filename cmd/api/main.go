package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vrpsolve/internal/api"
	"vrpsolve/internal/config"
	"vrpsolve/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (optional; env overrides apply)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	srv, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Solve
	mux.HandleFunc("/v1/solve", srv.SolveHandler)
	mux.HandleFunc("/v1/solve/ws", srv.SolveWSHandler)

	// Jobs
	mux.HandleFunc("/v1/jobs", srv.JobsHandler)
	mux.HandleFunc("/v1/jobs/", srv.JobByIDHandler) // includes /geojson

	// Subscriptions
	mux.HandleFunc("/v1/subscriptions", srv.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", srv.SubscriptionByIDHandler)

	// Health + metrics
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	limiter := api.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	defer limiter.Stop()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Instrument(limiter.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Webhook deliveries drain in the background.
	worker := srv.NewWebhookWorker()
	worker.Start()

	log.Printf("API listening on :%s", cfg.Port)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
