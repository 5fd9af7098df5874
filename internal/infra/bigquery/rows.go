package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"
)

// AccountRow is one row of the accounts table. Transient listing fields
// (balance link, balance rule, currency) are not stored.
type AccountRow struct {
	AccountID        string    `bigquery:"account_id"` // REQUIRED
	VendorID         string    `bigquery:"vendor_id"`  // REQUIRED, unique
	AccountNumber    string    `bigquery:"account_number"`
	Label            string    `bigquery:"label"`
	AccountType      string    `bigquery:"account_type"`
	AccountCategory  string    `bigquery:"account_category"` // checking, savings, investment, life_insurance
	InstitutionLabel string    `bigquery:"institution_label"`
	Balance          *big.Rat  `bigquery:"balance"` // NUMERIC
	CreatedTS        time.Time `bigquery:"created_ts"`
	UpdatedTS        time.Time `bigquery:"updated_ts"`
}

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	TransactionID      string     `bigquery:"transaction_id"` // REQUIRED
	AccountID          string     `bigquery:"account_id"`     // REQUIRED
	VendorID           string     `bigquery:"vendor_id"`      // REQUIRED, unique per account
	VendorAccountID    string     `bigquery:"vendor_account_id"`
	Label              string     `bigquery:"label"`
	OperationType      string     `bigquery:"operation_type"`
	ValueDate          civil.Date `bigquery:"value_date"`
	OperationDate      civil.Date `bigquery:"operation_date"`
	ImportedTS         time.Time  `bigquery:"imported_ts"`
	Amount             *big.Rat   `bigquery:"amount"` // NUMERIC
	Currency           string     `bigquery:"currency"`
	CategoryID         string     `bigquery:"category_id"`
	CategoryConfidence float64    `bigquery:"category_confidence"`
}

// BalanceHistoryRow is one (year, account) balance series. Balances holds a
// JSON object of ISO date to decimal string.
type BalanceHistoryRow struct {
	HistoryID string    `bigquery:"history_id"` // REQUIRED
	Year      int64     `bigquery:"year"`
	AccountID string    `bigquery:"account_id"`
	Balances  string    `bigquery:"balances"`
	Version   int64     `bigquery:"version"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}
