package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chenhm/gitlab-ci-monitor/internal/app/migrate"
	"github.com/chenhm/gitlab-ci-monitor/internal/dashboard"
	"github.com/chenhm/gitlab-ci-monitor/internal/feed"
	"github.com/chenhm/gitlab-ci-monitor/internal/history"
	"github.com/chenhm/gitlab-ci-monitor/internal/monitor"
	"github.com/chenhm/gitlab-ci-monitor/internal/repository"
	"github.com/chenhm/gitlab-ci-monitor/internal/repository/postgres"
	"github.com/chenhm/gitlab-ci-monitor/internal/store"
	"github.com/chenhm/gitlab-ci-monitor/pkg/config"
	"github.com/chenhm/gitlab-ci-monitor/pkg/logger"
)

func main() {
	cfg := config.LoadMonitorConfig()
	log := logger.New("monitor", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var historyRepo repository.PipelineRunRepository
	var recorder monitor.Recorder
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to history database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
		if err != nil {
			log.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		if err := runner.Ping(ctx); err != nil {
			log.Error("history database ping failed", "error", err)
			os.Exit(1)
		}
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		repo := postgres.New(pool)
		historyRepo = repo
		recorder = history.NewRecorder(repo, log)
	}

	var cache *store.Cache
	var loopCache monitor.SnapshotCache
	if cfg.SnapshotRedisAddr != "" {
		c, err := store.NewCache(cfg.SnapshotRedisAddr, cfg.SnapshotRedisPass, cfg.SnapshotRedisDB, cfg.SnapshotTTL, log)
		if err != nil {
			log.Warn("snapshot cache unavailable", "error", err)
		} else {
			cache = c
			loopCache = c
			defer c.Close()
		}
	}

	hub := dashboard.NewHub(log)
	loop := monitor.NewLoop(cfg.Columns, cfg.CardSelector, cfg.TickInterval, hub, recorder, loopCache, log)

	seedFromCache(ctx, cache, loop, log)

	go loop.Run(ctx)

	client := feed.NewClient(cfg.FeedURL, cfg.FeedTopic, cfg.ReconnectMin, cfg.ReconnectMax, loop, log)
	go client.Run(ctx)

	server, err := dashboard.New(cfg, loop, hub, historyRepo, log)
	if err != nil {
		log.Error("failed to configure dashboard", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("monitor starting", "addr", cfg.Addr, "feed", cfg.FeedURL)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("monitor stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// seedFromCache repaints the board from the last accepted payload so a
// restart does not show an empty wall until the feed reconnects.
func seedFromCache(ctx context.Context, cache *store.Cache, loop *monitor.Loop, log *slog.Logger) {
	if cache == nil {
		return
	}
	raw, err := cache.Load(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		return
	}
	if err != nil {
		log.Warn("snapshot cache load failed", "error", err)
		return
	}
	projects, err := feed.DecodeProjects(raw)
	if err != nil {
		log.Warn("cached snapshot no longer decodes", "error", err)
		return
	}
	loop.SnapshotReplaced(projects, nil)
	log.Info("board seeded from snapshot cache", "projects", len(projects))
}
