package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/accounts"
	"github.com/dvloznov/bank-portal-sync/internal/archive"
	"github.com/dvloznov/bank-portal-sync/internal/balance"
	"github.com/dvloznov/bank-portal-sync/internal/categorize"
	"github.com/dvloznov/bank-portal-sync/internal/classify"
	"github.com/dvloznov/bank-portal-sync/internal/config"
	"github.com/dvloznov/bank-portal-sync/internal/gcsuploader"
	infra "github.com/dvloznov/bank-portal-sync/internal/infra/bigquery"
	"github.com/dvloznov/bank-portal-sync/internal/jobs"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
	"github.com/dvloznov/bank-portal-sync/internal/statement"
)

// PortalDeps builds the portal-facing collaborators on one session.
func PortalDeps(client *portal.Client, store Store, categorizer categorize.Categorizer, rawStore archive.RawStore) Deps {
	var opts []archive.Option
	if rawStore != nil {
		opts = append(opts, archive.WithRawStore(rawStore))
	}
	return Deps{
		Session:     client,
		Accounts:    accounts.NewExtractor(client),
		Archives:    archive.NewDownloader(client, opts...),
		Parser:      statement.NewParser(classify.Default()),
		Categorizer: categorizer,
		Store:       store,
		Reconciler:  balance.NewReconciler(store),
	}
}

// Syncer runs syncs from configuration. Each run gets a fresh portal
// session; persistence and categorization clients are shared.
type Syncer struct {
	cfg         *config.Config
	repo        *infra.Repository
	archives    *gcsuploader.ArchiveStore
	categorizer categorize.Categorizer
}

// NewSyncer creates the shared clients named by cfg.
func NewSyncer(ctx context.Context, cfg *config.Config) (*Syncer, error) {
	repo, err := infra.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("NewSyncer: %w", err)
	}

	s := &Syncer{cfg: cfg, repo: repo}

	if cfg.ArchiveBucket != "" {
		store, err := gcsuploader.NewArchiveStore(ctx, cfg.ArchiveBucket)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("NewSyncer: %w", err)
		}
		s.archives = store
	}

	s.categorizer, err = NewCategorizer(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("NewSyncer: %w", err)
	}

	return s, nil
}

// NewCategorizer returns the categorizer selected by cfg.Categorizer.
func NewCategorizer(ctx context.Context, cfg *config.Config) (categorize.Categorizer, error) {
	if cfg.Categorizer != config.CategorizerGemini {
		return categorize.NewRuleCategorizer(), nil
	}
	gen, err := categorize.NewGenAIGenerator(ctx, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	return categorize.NewGeminiCategorizer(gen), nil
}

// Repository exposes the shared persistence layer.
func (s *Syncer) Repository() *infra.Repository {
	return s.repo
}

// Sync performs one complete run.
func (s *Syncer) Sync(ctx context.Context) (*Summary, error) {
	client, err := portal.NewClient(s.cfg.PortalBaseURL)
	if err != nil {
		return nil, fmt.Errorf("Sync: %w", err)
	}

	var raw archive.RawStore
	if s.archives != nil {
		raw = s.archives
	}

	deps := PortalDeps(client, s.repo, s.categorizer, raw)
	deps.Credentials = Credentials{Login: s.cfg.Login, Password: s.cfg.Password}
	deps.HistoryYears = s.cfg.HistoryYears
	deps.BalanceMatchKeys = infra.DefaultBalanceMatchKeys

	return Run(ctx, deps, time.Now())
}

// HandleJob runs a queued sync and records its summary on job.
func (s *Syncer) HandleJob(ctx context.Context, job *jobs.SyncJob) error {
	summary, err := s.Sync(ctx)
	if err != nil {
		return err
	}
	job.Result = summary.Result()
	return nil
}

// Close releases the shared clients.
func (s *Syncer) Close() error {
	log := logger.New()
	if s.archives != nil {
		if err := s.archives.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing archive store")
		}
	}
	return s.repo.Close()
}
