package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderquest/coderquest/internal/achievements"
	"github.com/coderquest/coderquest/internal/api"
	"github.com/coderquest/coderquest/internal/catalog"
	"github.com/coderquest/coderquest/internal/config"
	"github.com/coderquest/coderquest/internal/db"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/progression"
	"github.com/coderquest/coderquest/internal/repository/sqlite"
	"github.com/coderquest/coderquest/internal/scheduler"
	"github.com/coderquest/coderquest/internal/session"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("CoderQuest Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("catalog_dir=%s", cfg.CatalogDir)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("username=%s", cfg.Username)
	log.Debug("feedback_delay_ms=%d", cfg.FeedbackDelayMS)
	log.Debug("batch_load_delay_ms=%d", cfg.BatchLoadDelayMS)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	questionCatalog, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Error("failed to load question catalog: %v", err)
		os.Exit(1)
	}
	log.Info("question catalog loaded: %d languages", len(questionCatalog.Languages()))

	ctx := context.Background()
	progressRepo := sqlite.NewProgressRepository(database)
	scoreRepo := sqlite.NewScoreRepository(database)

	progress, err := progression.NewModel(ctx, progressRepo)
	if err != nil {
		log.Error("failed to load player progression: %v", err)
		os.Exit(1)
	}
	engine, err := achievements.NewEngine(ctx, progressRepo)
	if err != nil {
		log.Error("failed to load achievements: %v", err)
		os.Exit(1)
	}

	registry := session.NewRegistry(session.Deps{
		Catalog:      questionCatalog,
		Progress:     progress,
		Achievements: engine,
		Scores:       scoreRepo,
		Scheduler:    scheduler.New(),
		Config: session.Config{
			FeedbackDelay:  time.Duration(cfg.FeedbackDelayMS) * time.Millisecond,
			BatchLoadDelay: time.Duration(cfg.BatchLoadDelayMS) * time.Millisecond,
		},
	}, cfg.Username)

	srv := &api.Server{
		DB:           database,
		Catalog:      questionCatalog,
		Registry:     registry,
		Progress:     progress,
		Achievements: engine,
		Scores:       scoreRepo,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("CoderQuest Server Stopped")
	log.Info("===========================================")
}
