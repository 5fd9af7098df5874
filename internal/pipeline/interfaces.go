package pipeline

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
)

// Session authenticates against the portal.
type Session interface {
	Signin(ctx context.Context, opts portal.SigninOptions) (*goquery.Document, error)
}

// AccountSource lists accounts and fetches their balances.
type AccountSource interface {
	ParseBankAccounts(ctx context.Context, doc *goquery.Document) []domain.Account
	FetchBalance(ctx context.Context, account domain.Account) (domain.Account, error)
}

// ArchiveSource returns the raw statement lines of an account.
type ArchiveSource interface {
	Download(ctx context.Context, begin, end time.Time, account domain.Account) ([]string, error)
}

// StatementParser turns statement lines into transactions.
type StatementParser interface {
	Parse(ctx context.Context, account domain.Account, lines []string) []domain.Transaction
}

// Store persists accounts, transactions and balance histories.
type Store interface {
	Save(ctx context.Context, accounts []domain.Account, txs []domain.Transaction) ([]domain.SavedAccount, error)
	GetByYearAndAccount(ctx context.Context, year int, accountID string) (*domain.BalanceHistory, error)
	UpdateOrCreate(ctx context.Context, histories []*domain.BalanceHistory, matchKeys ...string) error
}

// BalanceReconciler records today's balances on the yearly histories.
type BalanceReconciler interface {
	Reconcile(ctx context.Context, accounts []domain.SavedAccount) ([]*domain.BalanceHistory, error)
}
