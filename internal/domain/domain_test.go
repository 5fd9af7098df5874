package domain_test

import (
	"testing"

	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewAccount(t *testing.T) {
	acc := domain.NewAccount("12345678", "LIVRET", domain.AccountType{Kind: domain.KindSavings}, "/detail")

	assert.Equal(t, "12345678", acc.VendorID)
	assert.Equal(t, domain.Currency, acc.Currency)
	assert.Equal(t, domain.InstitutionLabel, acc.InstitutionLabel)
	assert.True(t, acc.Balance.IsZero())
}

func TestAccount_WithBalanceReturnsCopy(t *testing.T) {
	acc := domain.NewAccount("1", "A", domain.AccountType{}, "")

	updated := acc.WithBalance(decimal.RequireFromString("42.10"))

	assert.True(t, acc.Balance.IsZero(), "original must not change")
	assert.Equal(t, "42.1", updated.Balance.String())
	assert.Equal(t, acc.Number, updated.Number)
}

func TestBalanceHistory_SetOverwrites(t *testing.T) {
	h := domain.NewBalanceHistory(2024, "acc-1")

	h.Set("2024-03-02", decimal.NewFromInt(10))
	h.Set("2024-03-01", decimal.NewFromInt(5))
	h.Set("2024-03-02", decimal.NewFromInt(12))

	assert.Len(t, h.Balances, 2)
	assert.True(t, h.Balances["2024-03-02"].Equal(decimal.NewFromInt(12)))
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, h.Dates())
	assert.Equal(t, domain.BalanceHistoryVersion, h.Version)
}

func TestBalanceHistory_SetOnZeroValue(t *testing.T) {
	var h domain.BalanceHistory
	h.Set("2024-01-01", decimal.NewFromInt(1))
	assert.Len(t, h.Balances, 1)
}
