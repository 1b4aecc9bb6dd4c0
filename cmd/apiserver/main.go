// Package main runs the SolemnStats REST API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/websocket"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/catalog"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/config"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/jobs"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/logging"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/metrics"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/version"
)

var (
	configPath = flag.String("config", "", "Config file (default: ~/.solemnstats/config.toml)")
	port       = flag.Int("port", 0, "API server port (overrides config)")
	dbPath     = flag.String("db-path", "", "Database path (overrides config)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting solemnstats api", zap.String("version", version.GetVersion()))

	dbCfg := storage.DefaultConfig(cfg.Storage.Path)
	dbCfg.BusyTimeout = cfg.BusyTimeout()
	if cfg.Storage.MaxOpenConns > 0 {
		dbCfg.MaxOpenConns = cfg.Storage.MaxOpenConns
	}
	db, err := storage.Open(dbCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("error closing database", zap.Error(err))
		}
	}()
	logger.Info("database ready", zap.String("path", db.Path()))

	m := metrics.NewSimulationMetrics()
	cards := catalog.NewClient(catalog.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Timeout:           cfg.CatalogTimeout(),
		MaxRetries:        cfg.Catalog.MaxRetries,
	}, logger)

	matcher, err := combo.ParseMatcher(cfg.Simulation.Matcher)
	if err != nil {
		return err
	}
	svc := analysis.NewService(storage.NewService(db), cards, analysis.Options{
		HandSize:      cfg.Simulation.HandSize,
		Iterations:    cfg.Simulation.Iterations,
		MaxIterations: cfg.Simulation.MaxIterations,
		Workers:       cfg.Simulation.Workers,
		Matcher:       matcher,
		CatalogBudget: cfg.CatalogLookupBudget(),
	}, m, logger)

	hub := websocket.NewHub(cfg.Server.AllowedOrigins, logger)
	manager := jobs.NewManager(svc, hub, jobs.Config{
		MaxConcurrent:    cfg.Jobs.MaxConcurrent,
		MaxRetained:      cfg.Jobs.MaxRetained,
		ProgressInterval: cfg.ProgressInterval(),
	}, logger)

	server := api.NewServer(api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.RequestTimeout(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, api.Deps{
		Analysis: svc,
		Jobs:     manager,
		Catalog:  cards,
		Metrics:  m,
		DB:       db,
		Hub:      hub,
	}, logger)

	if err := server.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn("jobs did not stop in time", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
