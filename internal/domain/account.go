package domain

import (
	"github.com/shopspring/decimal"
)

const (
	// InstitutionLabel is the display name of the bank behind the portal.
	InstitutionLabel = "Fortuneo Banque"

	// Currency is the only currency the portal reports.
	Currency = "EUR"
)

// AccountKind is the storage-level type of an account.
type AccountKind string

const (
	KindChecking      AccountKind = "Checkings"
	KindSavings       AccountKind = "Savings"
	KindMarket        AccountKind = "Market"
	KindLifeInsurance AccountKind = "LifeInsurance"
)

// BalanceRule tells the balance fetch where the balance sits on an account's detail page.
type BalanceRule struct {
	Sel  string // CSS selector of the element holding the amount
	Attr string // attribute to read; empty means element text
}

// AccountType is the tagged variant inferred from the account listing markup.
type AccountType struct {
	Kind         AccountKind
	CategoryHint string
	Balance      *BalanceRule // nil when the portal exposes no scrapeable balance
}

// Account describes one bank account as listed by the portal.
// Number is the natural key; VendorID is always derived from it.
type Account struct {
	Number           string
	Label            string
	Type             AccountType
	Balance          decimal.Decimal
	Currency         string
	VendorID         string
	LinkBalance      string
	InstitutionLabel string
}

// NewAccount builds an account with a zero balance and the derived fields set.
func NewAccount(number, label string, accountType AccountType, linkBalance string) Account {
	return Account{
		Number:           number,
		Label:            label,
		Type:             accountType,
		Balance:          decimal.Zero,
		Currency:         Currency,
		VendorID:         number,
		LinkBalance:      linkBalance,
		InstitutionLabel: InstitutionLabel,
	}
}

// WithBalance returns a copy of the account carrying the given balance.
func (a Account) WithBalance(balance decimal.Decimal) Account {
	a.Balance = balance
	return a
}

// SavedAccount is an account as returned by persistence, with its storage identity.
type SavedAccount struct {
	ID string
	Account
}
