package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/archive"
	"github.com/dvloznov/bank-portal-sync/internal/classify"
	"github.com/dvloznov/bank-portal-sync/internal/config"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/gcsuploader"
	infraBQ "github.com/dvloznov/bank-portal-sync/internal/infra/bigquery"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/dvloznov/bank-portal-sync/internal/pipeline"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
	"github.com/dvloznov/bank-portal-sync/internal/statement"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	switch os.Args[1] {
	case "sync":
		runSync(cfg, log)
	case "parse":
		runParse(cfg, log)
	case "accounts":
		runAccounts(cfg, log)
	case "balances":
		runBalances(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bank Portal Sync CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  sync      Sign in to the portal and import accounts, transactions and balances")
	fmt.Println("  parse     Parse a downloaded archive (.zip) or statement (.csv) without saving")
	fmt.Println("  accounts  List stored accounts")
	fmt.Println("  balances  Show the balance history of an account")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runSync(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	years := fs.Int("years", cfg.HistoryYears, "Years of history to request (max 2)")
	timeout := fs.Duration("timeout", 15*time.Minute, "Abort the run after this long")
	fs.Parse(os.Args[2:])

	cfg.HistoryYears = *years
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	syncer, err := pipeline.NewSyncer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sync")
	}
	defer syncer.Close()

	summary, err := syncer.Sync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Synced %d account(s), %d transaction(s) in %s\n",
		summary.Accounts, summary.Transactions, summary.Duration.Round(time.Millisecond))
	for _, f := range summary.Failures {
		fmt.Printf("  %s: %s failed: %v\n", f.AccountNumber, f.Stage, f.Err)
	}
}

func runParse(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	file := fs.String("file", "", "Local path or gs:// URI of a .zip archive or .csv statement")
	number := fs.String("account", "", "Account number the statement belongs to")
	fs.Parse(os.Args[2:])

	if *file == "" || *number == "" {
		log.Fatal().Msg("Usage: cli parse -file PATH|gs://BUCKET/OBJECT -account NUMBER")
	}

	ctx := logger.WithContext(context.Background(), log)

	data, err := readInput(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	var lines []string
	if strings.EqualFold(filepath.Ext(*file), ".csv") {
		text, err := portal.DecodeLatin1(data)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to decode statement")
		}
		lines = archive.SplitLines(text)
	} else {
		lines, err = archive.Unpack(data)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to unpack archive")
		}
	}

	account := domain.NewAccount(*number, "", domain.AccountType{Kind: domain.KindChecking}, "")
	txs := statement.NewParser(classify.Default()).Parse(ctx, account, lines)

	fmt.Printf("\n=== Transactions (%d) ===\n", len(txs))
	for i, tx := range txs {
		fmt.Printf("\n%d. %s\n", i+1, tx.Label)
		fmt.Printf("   Vendor ID: %s\n", tx.VendorID)
		fmt.Printf("   Date:      %s (booked %s)\n", normalize.FormatDate(tx.Date), normalize.FormatDate(tx.DateOperation))
		fmt.Printf("   Amount:    %s %s\n", tx.Amount.StringFixed(2), tx.Currency)
		fmt.Printf("   Type:      %s\n", tx.Type)
		if tx.CategoryID != "" {
			fmt.Printf("   Category:  %s (%.2f)\n", tx.CategoryID, tx.CategoryConfidence)
		}
	}
	fmt.Println()
}

func readInput(ctx context.Context, file string) ([]byte, error) {
	if !gcsuploader.IsURI(file) {
		return os.ReadFile(file)
	}

	bucket, _, err := gcsuploader.ParseURI(file)
	if err != nil {
		return nil, err
	}
	store, err := gcsuploader.NewArchiveStore(ctx, bucket)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Fetch(ctx, file)
}

func newRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) *infraBQ.Repository {
	if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GCP_PROJECT_ID is required")
	}
	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	return repo
}

func runAccounts(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	repo := newRepository(ctx, cfg, log)
	defer repo.Close()

	rows, err := repo.ListAccounts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list accounts")
	}

	fmt.Printf("\n=== Accounts (%d) ===\n", len(rows))
	for _, row := range rows {
		balance := "-"
		if row.Balance != nil {
			balance = row.Balance.FloatString(2)
		}
		fmt.Printf("%-36s  %-12s  %-14s  %-14s  %12s  %s\n", row.AccountID, row.AccountNumber, row.AccountType, row.AccountCategory, balance, row.Label)
	}
	fmt.Println()
}

func runBalances(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	accountID := fs.String("account-id", "", "Stored account ID (see 'cli accounts')")
	year := fs.Int("year", 0, "Year to show; 0 shows every year")
	fs.Parse(os.Args[2:])

	if *accountID == "" {
		log.Fatal().Msg("Error: -account-id is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	repo := newRepository(ctx, cfg, log)
	defer repo.Close()

	histories, err := repo.ListBalanceHistories(ctx, *accountID, *year)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list balances")
	}
	if len(histories) == 0 {
		fmt.Println("No balance history recorded.")
		return
	}

	for _, h := range histories {
		fmt.Printf("\n=== %d ===\n", h.Year)
		for _, date := range h.Dates() {
			fmt.Printf("%s  %12s\n", date, h.Balances[date].StringFixed(2))
		}
	}
	fmt.Println()
}
