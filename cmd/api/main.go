package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/api/handlers"
	"github.com/dvloznov/bank-portal-sync/internal/api/middleware"
	"github.com/dvloznov/bank-portal-sync/internal/config"
	"github.com/dvloznov/bank-portal-sync/internal/jobs"
	"github.com/dvloznov/bank-portal-sync/internal/jobs/inmemory"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Parse command-line flags
	var (
		port     = flag.String("port", cfg.APIPort, "HTTP server port (or set API_PORT)")
		schedule = flag.Bool("schedule", false, "Also enqueue a sync every SYNC_INTERVAL")
	)
	flag.Parse()

	// Initialize logger
	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.APIToken == "" {
		log.Warn().Msg("API_TOKEN is empty - the API is unauthenticated")
	}

	ctx := logger.WithContext(context.Background(), log)

	syncer, err := pipeline.NewSyncer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sync")
	}
	defer syncer.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(10, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, syncer.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	if *schedule {
		go jobs.Schedule(workerCtx, jobQueue, cfg.SyncInterval)
	}

	mux := handlers.NewRouter(handlers.Router{
		Sync:     handlers.NewSyncHandler(jobQueue, log),
		Jobs:     handlers.NewJobsHandler(jobStore, log),
		Balances: handlers.NewBalancesHandler(syncer.Repository(), log),
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.Auth(cfg.APIToken, handlers.HealthPath)(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Cancel worker context, then wait for the in-flight sync
	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
