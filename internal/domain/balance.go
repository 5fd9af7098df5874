package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceHistoryVersion is the schema version written on new balance histories.
const BalanceHistoryVersion = 1

// BalanceHistory is the per (year, account) series of daily balance snapshots.
// Keys of Balances are ISO dates (YYYY-MM-DD); one entry per date.
type BalanceHistory struct {
	ID        string
	Year      int
	AccountID string
	Balances  map[string]decimal.Decimal
	Version   int
}

// NewBalanceHistory returns an empty history for the given year and account.
func NewBalanceHistory(year int, accountID string) *BalanceHistory {
	return &BalanceHistory{
		Year:      year,
		AccountID: accountID,
		Balances:  make(map[string]decimal.Decimal),
		Version:   BalanceHistoryVersion,
	}
}

// Set records the balance for an ISO date, replacing any earlier value for that date.
func (h *BalanceHistory) Set(isoDate string, balance decimal.Decimal) {
	if h.Balances == nil {
		h.Balances = make(map[string]decimal.Decimal)
	}
	h.Balances[isoDate] = balance
}

// Dates returns the recorded dates in ascending order.
func (h *BalanceHistory) Dates() []string {
	dates := make([]string, 0, len(h.Balances))
	for d := range h.Balances {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
