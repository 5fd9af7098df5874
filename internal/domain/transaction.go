package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the semantic kind of a statement line.
type OperationType string

const (
	OpCard        OperationType = "credit card"
	OpTransfer    OperationType = "transfer"
	OpDirectDebit OperationType = "direct debit"
	OpWithdrawal  OperationType = "cash"
	OpCheck       OperationType = "check"
	OpDeposit     OperationType = "deposit"
	OpBank        OperationType = "bank"
	OpLoan        OperationType = "loan"
	OpNone        OperationType = "none"
)

// Transaction is one normalized statement line.
// Amount is negative for debits and positive for credits.
type Transaction struct {
	Label           string
	Type            OperationType
	Date            time.Time // value date
	DateOperation   time.Time // booking date
	DateImport      time.Time
	Currency        string
	VendorAccountID string
	Amount          decimal.Decimal
	VendorID        string

	CategoryID         string  // empty when nothing classified the line
	CategoryConfidence float64 // 0..1
}
