package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/pgnbase/internal/api"
	"github.com/vytor/pgnbase/internal/chesscom"
	"github.com/vytor/pgnbase/internal/config"
	"github.com/vytor/pgnbase/internal/db"
	"github.com/vytor/pgnbase/internal/enrich"
	"github.com/vytor/pgnbase/internal/jobs"
	"github.com/vytor/pgnbase/internal/lichess"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/opening"
	"github.com/vytor/pgnbase/internal/repository"
	"github.com/vytor/pgnbase/internal/repository/remote"
	"github.com/vytor/pgnbase/internal/repository/sqlite"
	"github.com/vytor/pgnbase/internal/services"
	"github.com/vytor/pgnbase/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("pgnbase Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("storage_mode=%s", cfg.StorageMode)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("remote_url=%s", cfg.RemoteURL)
	log.Debug("max_storage_bytes=%d", cfg.MaxStorageBytes)
	log.Debug("opening_tree_url=%s", cfg.OpeningTreeURL)
	log.Debug("enrich_chunk_size=%d", cfg.EnrichChunkSize)
	log.Debug("enrich_worker_count=%d", cfg.EnrichWorkerCount)
	log.Debug("import_worker_count=%d", cfg.ImportWorkerCount)
	log.Debug("lichess_max_games=%d", cfg.LichessMaxGames)
	log.Debug("chesscom_max_concurrent=%d", cfg.ChessComMaxConcurrent)

	// Open the game store
	var (
		gameRepo repository.GameRepository
		pinger   api.Pinger
	)
	switch cfg.StorageMode {
	case config.StorageRemote:
		repo := remote.NewGameRepository(cfg.RemoteURL, cfg.RemoteToken, 30*time.Second)
		gameRepo = repo
		if p, ok := repo.(api.Pinger); ok {
			pinger = p
		}
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			log.Error("failed to open database: %v", err)
			os.Exit(1)
		}
		defer func() {
			log.Debug("closing database connection")
			database.Close()
		}()
		gameRepo = sqlite.NewGameRepository(database.DB)
		pinger = database
	}

	// Opening classification
	index, err := opening.LoadIndex(cfg.EcoCorpusPath)
	if err != nil {
		log.Error("failed to load eco corpus: %v", err)
		os.Exit(1)
	}
	log.Info("eco index loaded: %d lines", index.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tree opening.TreeSource
	if cfg.OpeningTreeURL != "" {
		client := opening.NewTreeClient(cfg.OpeningTreeURL, cfg.OpeningTreeTimeout)
		if _, err := client.Load(ctx); err != nil {
			log.Warn("starting without opening tree: %v", err)
		}
		tree = client
	}
	resolver := opening.NewResolver(index, tree)
	sessions := opening.NewSessions(resolver, cfg.SessionLimit)
	enricher := enrich.New(gameRepo, resolver, cfg.EnrichChunkSize)

	// Initialize worker pools
	enrichPool := worker.NewPool("enrich", cfg.EnrichWorkerCount, cfg.EnrichQueueSize)
	importPool := worker.NewPool("import", cfg.ImportWorkerCount, cfg.ImportQueueSize)

	// Initialize services
	sources := map[string]services.PGNSource{
		models.PlatformLichess:  lichess.New("", cfg.LichessMaxGames),
		models.PlatformChessCom: chesscom.New("", cfg.ChessComMaxConcurrent),
	}
	importService := services.NewImportService(gameRepo, sources, cfg.MaxStorageBytes)
	jobQueue := jobs.NewWorkerQueue(enrichPool, importPool, enricher, importService)

	srv := &api.Server{
		GameService:    services.NewGameService(gameRepo, cfg.MaxStorageBytes),
		ImportService:  importService,
		OpeningService: services.NewOpeningService(resolver, sessions, enricher, jobQueue),
		PGNService:     services.NewPGNService(),
		JobQueue:       jobQueue,
		DB:             pinger,
		APIToken:       cfg.APIToken,
		RequestTimeout: cfg.RequestTimeout,
	}

	enrichPool.Start(ctx)
	importPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
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

	log.Debug("stopping import pool")
	importPool.Stop()
	log.Debug("stopping enrich pool")
	enrichPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("pgnbase Server Stopped")
	log.Info("===========================================")
}
