// Package balance folds freshly observed account balances into the yearly
// balance histories.
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
)

// HistoryRepository returns the stored history of an account for a year, or a
// new empty one when none exists.
type HistoryRepository interface {
	GetByYearAndAccount(ctx context.Context, year int, accountID string) (*domain.BalanceHistory, error)
}

// Reconciler sets today's balance on each account's history.
type Reconciler struct {
	repo HistoryRepository
	now  func() time.Time
}

// NewReconciler creates a Reconciler reading histories from repo.
func NewReconciler(repo HistoryRepository) *Reconciler {
	return &Reconciler{repo: repo, now: time.Now}
}

// WithClock returns a copy of the reconciler using now as its clock.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	cp := *r
	cp.now = now
	return &cp
}

// Reconcile returns one updated history per account, in account order.
// Today's entry is overwritten if present. Nothing is persisted here.
func (r *Reconciler) Reconcile(ctx context.Context, accounts []domain.SavedAccount) ([]*domain.BalanceHistory, error) {
	log := logger.FromContext(ctx)

	now := r.now().In(normalize.Location)
	today := normalize.ISODate(now)
	year := now.Year()

	histories := make([]*domain.BalanceHistory, 0, len(accounts))
	for _, account := range accounts {
		if account.ID == "" {
			return nil, fmt.Errorf("Reconcile: account %s has no storage id", account.Number)
		}

		history, err := r.repo.GetByYearAndAccount(ctx, year, account.ID)
		if err != nil {
			return nil, fmt.Errorf("Reconcile: loading %d history of account %s: %w", year, account.Number, err)
		}
		if history == nil {
			history = domain.NewBalanceHistory(year, account.ID)
		}

		history.Set(today, account.Balance)
		histories = append(histories, history)

		log.Debug().
			Str("account_number", account.Number).
			Str("date", today).
			Str("balance", account.Balance.StringFixed(2)).
			Msg("Recorded balance")
	}

	return histories, nil
}
