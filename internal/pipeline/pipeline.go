// Package pipeline sequences a sync run: sign in, list accounts, fetch each
// account's balance and statement, categorize, save, and record balances.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/categorize"
	"github.com/dvloznov/bank-portal-sync/internal/jobs"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}

// Deps are the collaborators of a sync run. Session, Accounts and Archives
// must share one portal session.
type Deps struct {
	Session     Session
	Accounts    AccountSource
	Archives    ArchiveSource
	Parser      StatementParser
	Categorizer categorize.Categorizer
	Store       Store
	Reconciler  BalanceReconciler
	Credentials Credentials

	HistoryYears     int
	BalanceMatchKeys []string
}

// NewSyncPipeline creates the standard 7-step sync pipeline.
func NewSyncPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&AuthenticateStep{Session: deps.Session, Credentials: deps.Credentials},
		&ListAccountsStep{Accounts: deps.Accounts},
		&FetchAccountDataStep{Accounts: deps.Accounts, Archives: deps.Archives, Parser: deps.Parser},
		&CategorizeStep{Categorizer: deps.Categorizer},
		&SaveStep{Store: deps.Store},
		&ReconcileBalancesStep{Reconciler: deps.Reconciler},
		&SaveBalancesStep{Store: deps.Store, MatchKeys: deps.BalanceMatchKeys},
	)
}

// DateRange is the archive period ending at now: years back, capped at
// what the portal serves.
func DateRange(now time.Time, years int) (begin, end time.Time) {
	if years <= 0 || years > MaxHistoryYears {
		years = MaxHistoryYears
	}
	end = now.In(normalize.Location)
	return end.AddDate(-years, 0, 0), end
}

// Summary describes a finished run.
type Summary struct {
	Accounts     int
	Transactions int
	Histories    int
	Failures     []AccountFailure
	Duration     time.Duration
}

// Result converts the summary for the job store.
func (s *Summary) Result() *jobs.SyncResult {
	r := &jobs.SyncResult{
		Accounts:     s.Accounts,
		Transactions: s.Transactions,
		Histories:    s.Histories,
	}
	for _, f := range s.Failures {
		r.AccountFailures = append(r.AccountFailures, fmt.Sprintf("%s (%s): %v", f.AccountNumber, f.Stage, f.Err))
	}
	return r
}

// Run executes one sync with deps. The portal is only contacted sequentially.
func Run(ctx context.Context, deps Deps, now time.Time) (*Summary, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	state := &PipelineState{}
	state.Begin, state.End = DateRange(now, deps.HistoryYears)

	log.Info().
		Str("begin", normalize.FormatDate(state.Begin)).
		Str("end", normalize.FormatDate(state.End)).
		Msg("Starting sync")

	if err := NewSyncPipeline(deps).Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	summary := &Summary{
		Accounts:     len(state.SavedAccounts),
		Transactions: len(state.Transactions),
		Histories:    len(state.Histories),
		Failures:     state.Failures,
		Duration:     time.Since(start),
	}

	log.Info().
		Int("accounts", summary.Accounts).
		Int("transactions", summary.Transactions).
		Int("failures", len(summary.Failures)).
		Msg("Sync finished")

	return summary, nil
}
