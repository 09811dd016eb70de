package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/optwhisper/game-engine/internal/config"
	"github.com/optwhisper/game-engine/internal/metrics"
	"github.com/optwhisper/game-engine/internal/scenario"
	"github.com/optwhisper/game-engine/internal/session"
	"github.com/optwhisper/game-engine/internal/state"
	"github.com/optwhisper/game-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	// --- Scenario catalog ---
	catalog := scenario.Default()
	if cfg.ScenarioFile != "" {
		catalog, err = scenario.Load(cfg.ScenarioFile)
		if err != nil {
			slog.Error("scenario file error", "path", cfg.ScenarioFile, "err", err)
			os.Exit(1)
		}
		slog.Info("scenario overrides loaded", "path", cfg.ScenarioFile)
	}

	// --- Initialize store ---
	// Sessions live only while they are played; the store is operational
	// state for multi-instance deployments, not a save-game system.
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (single instance only)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Idle session sweeper ---
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cutoff := time.Now().UTC().Add(-cfg.SessionTTL)
		n, err := st.DeleteIdleBefore(ctx, cutoff)
		if err != nil {
			slog.Error("idle session sweep failed", "err", err)
			return
		}
		if n > 0 {
			metrics.SessionsSwept.Add(float64(n))
			metrics.ActiveSessions.Sub(float64(n))
			slog.Info("idle sessions swept", "count", n, "cutoff", cutoff)
		}
	}); err != nil {
		slog.Error("invalid SWEEP_SCHEDULE", "schedule", cfg.SweepSchedule, "err", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// --- WebSocket hub ---
	wsHub := session.NewHub()
	go wsHub.Run()

	// --- Session service ---
	svc := session.NewService(st, catalog, state.NewReducer(), wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"game-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for narrative event streaming.
		r.Get("/ws", wsHub.HandleWS)

		// Session lifecycle.
		r.Post("/sessions", svc.CreateSession)
		r.Get("/sessions/{sessionID}", svc.GetSession)
		r.Delete("/sessions/{sessionID}", svc.DeleteSession)

		// Dispatch.
		r.Post("/sessions/{sessionID}/name", svc.SetName)
		r.Post("/sessions/{sessionID}/choices", svc.SubmitChoice)
		r.Post("/sessions/{sessionID}/ops", svc.DispatchOps)

		// Scenario catalog lookup.
		r.Get("/scenarios/{scenarioID}", svc.GetScenario)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("game-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down game-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("game-engine stopped")
}
