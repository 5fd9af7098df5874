// Package categorize attaches category ids and confidences to transactions.
package categorize

import (
	"context"

	"github.com/dvloznov/bank-portal-sync/internal/classify"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
)

// Categorizer annotates transactions with category ids and confidence scores.
// Implementations return a new slice of the same length and order.
type Categorizer interface {
	Categorize(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error)
}

// Categories is the catalog of category ids a categorizer may assign.
var Categories = map[string]string{
	classify.CategoryCardPayment:   "Card payment",
	classify.CategoryWithdrawal:    "Cash withdrawal",
	classify.CategoryTransferOut:   "Outgoing transfer",
	classify.CategoryDirectDebit:   "Direct debit",
	classify.CategoryCheck:         "Check payment",
	classify.CategoryBankFees:      "Bank fees",
	classify.CategoryLoanRepayment: "Loan repayment",
	classify.CategoryTransferIn:    "Incoming transfer",
	classify.CategoryInterests:     "Interests",
	classify.CategoryRefund:        "Refund",
	classify.CategoryCheckDeposit:  "Check deposit",
	classify.CategoryOtherIncome:   "Other income",
	"200110":                       "Salary",
	"400200":                       "Groceries",
	"400210":                       "Restaurants",
	"400300":                       "Transport",
	"400400":                       "Housing and utilities",
	"400500":                       "Leisure",
	"400800":                       "Health",
	"400900":                       "Taxes",
}

// NeedsCategory reports whether nothing has categorized tx yet.
func NeedsCategory(tx domain.Transaction) bool {
	return tx.CategoryID == "" || tx.CategoryID == classify.CategoryUncategorized
}

// RuleCategorizer keeps the categories found by the keyword rules and marks
// everything else uncategorized.
type RuleCategorizer struct{}

// NewRuleCategorizer returns a RuleCategorizer.
func NewRuleCategorizer() *RuleCategorizer {
	return &RuleCategorizer{}
}

// Categorize never fails.
func (RuleCategorizer) Categorize(_ context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	for i := range out {
		if NeedsCategory(out[i]) {
			out[i].CategoryID = classify.CategoryUncategorized
			out[i].CategoryConfidence = 0
		}
	}
	return out, nil
}
