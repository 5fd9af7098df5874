package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/categorize"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
)

// PipelineStep represents a single step of a sync run.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// AccountFailure records a non-fatal error hit while processing one account.
type AccountFailure struct {
	AccountNumber string
	Stage         string
	Err           error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Begin, End time.Time

	Overview      *goquery.Document
	Accounts      []domain.Account
	Transactions  []domain.Transaction
	SavedAccounts []domain.SavedAccount
	Histories     []*domain.BalanceHistory
	Failures      []AccountFailure
}

// Credentials are the portal login and password. They are held in memory only.
type Credentials struct {
	Login    string
	Password string
}

// Step 1: AuthenticateStep signs in and keeps the landing page.
type AuthenticateStep struct {
	Session     Session
	Credentials Credentials
}

func (s *AuthenticateStep) Name() string { return "authenticate" }

func (s *AuthenticateStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	log.Info().Msg("Authenticating")

	if s.Credentials.Login == "" || s.Credentials.Password == "" {
		return fmt.Errorf("%w: missing login or password", apperrors.ErrAuthentication)
	}

	doc, err := s.Session.Signin(ctx, portal.SigninOptions{
		Path:         LoginPath,
		FormSelector: LoginFormSelector,
		Credentials: map[string]string{
			loginField:    s.Credentials.Login,
			passwordField: s.Credentials.Password,
		},
		Validate: func(_ int, doc *goquery.Document) bool {
			return doc.Find(LogoutSelector).Length() > 0
		},
	})
	if err != nil {
		return err
	}

	log.Info().Msg("Successfully logged in")
	state.Overview = doc
	return nil
}

// Step 2: ListAccountsStep extracts the accounts from the landing page.
type ListAccountsStep struct {
	Accounts AccountSource
}

func (s *ListAccountsStep) Name() string { return "list accounts" }

func (s *ListAccountsStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Overview == nil {
		return fmt.Errorf("%w: no accounts page", apperrors.ErrNotFound)
	}
	state.Accounts = s.Accounts.ParseBankAccounts(ctx, state.Overview)
	if len(state.Accounts) == 0 {
		log := logger.FromContext(ctx)
		log.Warn().Msg("No bank accounts found on the overview page")
	}
	return nil
}

// Step 3: FetchAccountDataStep fetches balance and statement of every account,
// one account at a time in listing order. Failures stay local to the account.
type FetchAccountDataStep struct {
	Accounts AccountSource
	Archives ArchiveSource
	Parser   StatementParser
}

func (s *FetchAccountDataStep) Name() string { return "fetch account data" }

func (s *FetchAccountDataStep) Execute(ctx context.Context, state *PipelineState) error {
	for i, account := range state.Accounts {
		log := logger.FromContext(ctx).With().Str("account_number", account.Number).Logger()

		log.Info().Msg("Retrieving the balance")
		updated, err := s.Accounts.FetchBalance(ctx, account)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch balance, keeping previous value")
			state.Failures = append(state.Failures, AccountFailure{account.Number, "balance", err})
		} else {
			account = updated
			state.Accounts[i] = updated
		}

		log.Info().Msg("Downloading statement archive")
		lines, err := s.Archives.Download(ctx, state.Begin, state.End, account)
		if err != nil {
			log.Error().Err(err).Msg("Failed to acquire archive, no transactions for this account")
			state.Failures = append(state.Failures, AccountFailure{account.Number, "archive", err})
			continue
		}

		txs := s.Parser.Parse(ctx, account, lines)
		state.Transactions = append(state.Transactions, txs...)
	}
	return nil
}

// Step 4: CategorizeStep annotates every transaction with a category.
type CategorizeStep struct {
	Categorizer categorize.Categorizer
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	log.Info().Int("transactions", len(state.Transactions)).Msg("Categorizing transactions")
	txs, err := s.Categorizer.Categorize(ctx, state.Transactions)
	if err != nil {
		return err
	}
	state.Transactions = txs
	return nil
}

// Step 5: SaveStep stores accounts and transactions.
type SaveStep struct {
	Store Store
}

func (s *SaveStep) Name() string { return "save" }

func (s *SaveStep) Execute(ctx context.Context, state *PipelineState) error {
	saved, err := s.Store.Save(ctx, state.Accounts, state.Transactions)
	if err != nil {
		return err
	}
	state.SavedAccounts = saved
	return nil
}

// Step 6: ReconcileBalancesStep adds today's balance to each history.
type ReconcileBalancesStep struct {
	Reconciler BalanceReconciler
}

func (s *ReconcileBalancesStep) Name() string { return "reconcile balances" }

func (s *ReconcileBalancesStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	log.Info().Msg("Adding the balance of the day to each balance history")
	histories, err := s.Reconciler.Reconcile(ctx, state.SavedAccounts)
	if err != nil {
		return err
	}
	state.Histories = histories
	return nil
}

// Step 7: SaveBalancesStep stores the balance histories.
type SaveBalancesStep struct {
	Store     Store
	MatchKeys []string
}

func (s *SaveBalancesStep) Name() string { return "save balances" }

func (s *SaveBalancesStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	log.Info().Int("histories", len(state.Histories)).Msg("Saving the balance histories")
	return s.Store.UpdateOrCreate(ctx, state.Histories, s.MatchKeys...)
}
