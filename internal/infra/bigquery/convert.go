package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/shopspring/decimal"
)

func toAccountRow(id string, a domain.Account, now time.Time) *AccountRow {
	return &AccountRow{
		AccountID:        id,
		VendorID:         a.VendorID,
		AccountNumber:    a.Number,
		Label:            a.Label,
		AccountType:      string(a.Type.Kind),
		AccountCategory:  a.Type.CategoryHint,
		InstitutionLabel: a.InstitutionLabel,
		Balance:          a.Balance.Rat(),
		CreatedTS:        now,
		UpdatedTS:        now,
	}
}

func toTransactionRow(id, accountID string, tx domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:      id,
		AccountID:          accountID,
		VendorID:           tx.VendorID,
		VendorAccountID:    tx.VendorAccountID,
		Label:              tx.Label,
		OperationType:      string(tx.Type),
		ValueDate:          civil.DateOf(tx.Date.In(normalize.Location)),
		OperationDate:      civil.DateOf(tx.DateOperation.In(normalize.Location)),
		ImportedTS:         tx.DateImport,
		Amount:             tx.Amount.Rat(),
		Currency:           tx.Currency,
		CategoryID:         tx.CategoryID,
		CategoryConfidence: tx.CategoryConfidence,
	}
}

func toBalanceHistoryRow(h *domain.BalanceHistory, now time.Time) (*BalanceHistoryRow, error) {
	balances := h.Balances
	if balances == nil {
		balances = map[string]decimal.Decimal{}
	}
	raw, err := json.Marshal(balances)
	if err != nil {
		return nil, fmt.Errorf("toBalanceHistoryRow: encoding balances: %w", err)
	}
	return &BalanceHistoryRow{
		HistoryID: h.ID,
		Year:      int64(h.Year),
		AccountID: h.AccountID,
		Balances:  string(raw),
		Version:   int64(h.Version),
		UpdatedTS: now,
	}, nil
}

func fromBalanceHistoryRow(row *BalanceHistoryRow) (*domain.BalanceHistory, error) {
	h := &domain.BalanceHistory{
		ID:        row.HistoryID,
		Year:      int(row.Year),
		AccountID: row.AccountID,
		Balances:  map[string]decimal.Decimal{},
		Version:   int(row.Version),
	}
	if row.Balances != "" {
		if err := json.Unmarshal([]byte(row.Balances), &h.Balances); err != nil {
			return nil, fmt.Errorf("fromBalanceHistoryRow: decoding balances of %s: %w", row.HistoryID, err)
		}
	}
	if h.Version == 0 {
		h.Version = domain.BalanceHistoryVersion
	}
	return h, nil
}
