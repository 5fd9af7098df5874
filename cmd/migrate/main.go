package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/bank-portal-sync/internal/config"
	infraBQ "github.com/dvloznov/bank-portal-sync/internal/infra/bigquery"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		projectID = flag.String("project", cfg.ProjectID, "GCP project ID (or set GCP_PROJECT_ID)")
		datasetID = flag.String("dataset", cfg.Dataset, "BigQuery dataset ID (or set BQ_DATASET)")
		appliedBy = flag.String("applied-by", "migrate-cli", "Name recorded in schema_migrations")
		dryRun    = flag.Bool("dry-run", false, "List the embedded migrations without applying them")
	)
	flag.Parse()

	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if *projectID == "" {
		log.Fatal().Msg("Error: -project is required (or set GCP_PROJECT_ID)")
	}

	ctx := logger.WithContext(context.Background(), log)

	repo, err := infraBQ.NewRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	if *dryRun {
		migrations, err := repo.Migrations()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migrations")
		}
		for _, m := range migrations {
			fmt.Printf("%04d_%s  %s\n", m.Version, m.Name, m.Checksum[:12])
		}
		return
	}

	applied, err := repo.Migrate(ctx, *appliedBy)
	if err != nil {
		log.Fatal().Err(err).Int("applied", applied).Msg("Migration failed")
	}

	if applied == 0 {
		fmt.Println("No new migrations to apply. Dataset is up to date.")
	} else {
		fmt.Printf("Successfully applied %d migration(s) to %s.%s\n", applied, *projectID, *datasetID)
	}
}
