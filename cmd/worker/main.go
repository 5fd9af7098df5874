package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	// Initialize logger
	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	syncer, err := pipeline.NewSyncer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sync")
	}
	defer syncer.Close()

	// Initialize job store and queue
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(10, jobStore)

	log.Info().Dur("interval", cfg.SyncInterval).Msg("Starting worker service")

	// Start consuming jobs
	if err := jobQueue.Start(ctx, syncer.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	go jobs.Schedule(ctx, jobQueue, cfg.SyncInterval)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop the scheduler and the worker
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for the in-flight job
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
