package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"StockLens/internal/analytics"
	"StockLens/internal/api"
	"StockLens/internal/cache"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/logging"
	"StockLens/internal/recorder"
	"StockLens/internal/scheduler"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load(".env")

	// Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("StockLens starting...")

	// Init cache
	strategy, _ := cache.ParseStrategy(cfg.Cache.Strategy)
	c := cache.New(cache.WithStrategy(strategy), cache.WithSampleTTL(cfg.Cache.SampleTTL))

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.Upstream.BaseURL != "" {
		fetcher = collector.NewEvaluationFetcher(cfg.Upstream.BaseURL, cfg.Upstream.AccessToken, cfg.Proxy, cfg.Upstream.Timeout)
	} else {
		log.Warn().Msg("upstream.base_url not set, serving mock data")
		fetcher = &collector.MockFetcher{}
	}
	log.Info().Str("source", fetcher.Name()).Str("cache_strategy", string(strategy)).Msg("data source ready")

	prices := collector.NewPriceFetcher(fetcher, c, cfg.Cache.TTL, log)
	prices.MaxMinutes = cfg.Upstream.MaxMinutes
	engine := analytics.NewEngine(prices, cfg.Correlation.MaxGap, log)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, c, prices, log)
	if err := sched.RegisterAll(cfg.Cache.SweepCron, cfg.Cache.WarmCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Optional: load the directory before the first request
	if os.Getenv("WARM_ON_START") == "true" {
		if _, err := prices.ResolveDirectory(ctx); err != nil {
			log.Warn().Err(err).Msg("initial directory load failed")
		}
	}

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(api.NewHandler(engine, prices, rec, log), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("StockLens is running. Press Ctrl+C to stop.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	shutdown(srv, log)
	log.Info().Msg("StockLens stopped")
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
