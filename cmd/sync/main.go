package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/config"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/pipeline"
)

func main() {
	timeout := flag.Duration("timeout", 15*time.Minute, "Abort the run after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	summary, err := run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Sync failed")
		os.Exit(1)
	}

	fmt.Printf("Synced %d account(s), %d transaction(s), %d balance histories in %s\n",
		summary.Accounts, summary.Transactions, summary.Histories, summary.Duration.Round(time.Millisecond))
	for _, f := range summary.Failures {
		fmt.Printf("  %s: %s failed: %v\n", f.AccountNumber, f.Stage, f.Err)
	}
}

func run(ctx context.Context, cfg *config.Config) (*pipeline.Summary, error) {
	syncer, err := pipeline.NewSyncer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer syncer.Close()

	return syncer.Sync(ctx)
}
