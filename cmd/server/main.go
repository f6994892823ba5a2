// Package main provides the entry point for the tick-replay API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/api"
	"github.com/yourusername/tick-replay/internal/cache"
	"github.com/yourusername/tick-replay/internal/config"
	"github.com/yourusername/tick-replay/internal/database"
	"github.com/yourusername/tick-replay/internal/health"
	"github.com/yourusername/tick-replay/internal/logger"
	"github.com/yourusername/tick-replay/internal/metrics"
	"github.com/yourusername/tick-replay/internal/repository"
	"github.com/yourusername/tick-replay/internal/scheduler"
	"github.com/yourusername/tick-replay/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := logger.NewLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to build repositories: %v", err)
	}

	var remote cache.RemoteStore
	if cfg.Cache.RemoteEnabled() {
		store := cache.NewRedisStore(cfg.Cache.RemoteAddress, cfg.Cache.RemotePassword, cfg.Cache.RemoteDB)
		defer store.Close()
		remote = store
	}
	tiered, err := cache.NewTiered(cfg.Cache.LocalMaxEntries, remote, cfg.Cache.RemoteTTL(), log)
	if err != nil {
		log.Fatalf("Failed to build cache: %v", err)
	}

	data := service.NewMarketDataService(repos.Tick, tiered, log)
	svc, err := service.NewBacktestService(data, log)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	server, err := api.NewServer(cfg.Server, cfg.Backtest, svc, log)
	if err != nil {
		log.Fatalf("Failed to build API server: %v", err)
	}

	if cfg.Server.SummaryRefreshCron != "" {
		sched := scheduler.NewScheduler(data, log)
		if err := sched.ScheduleSummaryRefresh(cfg.Server.SummaryRefreshCron); err != nil {
			log.Fatalf("Failed to schedule summary refresh: %v", err)
		}
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Port:        strconv.Itoa(cfg.Server.HealthPort),
		Logger:      log,
		DB:          db,
		Cache:       tiered,
	})
	if err := healthServer.Start(ctx); err != nil {
		log.Fatalf("Failed to start health server: %v", err)
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	healthServer.SetReady(true)

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("API server stopped")
		}
	}

	healthServer.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("API server shutdown failed")
	}
	log.Info("Server stopped")
}
