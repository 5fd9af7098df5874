package statement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/classify"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Date opération;Date valeur;Libellé;Débit;Crédit;"

var importTime = time.Date(2019, 4, 17, 10, 7, 30, 0, time.UTC)

func newTestParser() *Parser {
	return NewParser(classify.Default()).WithClock(func() time.Time { return importTime })
}

func savings(number string) domain.Account {
	return domain.NewAccount(number, "LIVRET", domain.AccountType{Kind: domain.KindSavings}, "")
}

func TestParse_InterestLine(t *testing.T) {
	lines := []string{header, "31/12/18;01/01/19;INTERETS 2018;;38,67;", ""}

	got := newTestParser().Parse(context.Background(), savings("12345678"), lines)
	require.Len(t, got, 1)

	tx := got[0]
	assert.Equal(t, "INTERETS 2018", tx.Label)
	assert.Equal(t, "38.67", tx.Amount.StringFixed(2))
	assert.Equal(t, "12345678_2018-12-30_0", tx.VendorID)
	assert.Equal(t, domain.OpBank, tx.Type)
	assert.Equal(t, classify.CategoryInterests, tx.CategoryID)
	assert.Equal(t, 1.0, tx.CategoryConfidence)
	assert.Equal(t, "EUR", tx.Currency)
	assert.Equal(t, "12345678", tx.VendorAccountID)
	assert.Equal(t, importTime, tx.DateImport)

	assert.Equal(t, "31/12/2018", normalize.FormatDate(tx.Date))
	assert.Equal(t, 24*time.Hour, tx.DateOperation.Sub(tx.Date))
}

func TestParse_DebitIsNegative(t *testing.T) {
	lines := []string{
		header,
		"02/01/19;02/01/19;CARTE 01/01 BOULANGERIE;-4,50;;",
		"03/01/19;03/01/19;PRLV SEPA EDF;62,10;;",
	}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	require.Len(t, got, 2)

	assert.Equal(t, "-4.50", got[0].Amount.StringFixed(2))
	assert.Equal(t, domain.OpCard, got[0].Type)

	assert.Equal(t, "-62.10", got[1].Amount.StringFixed(2))
	assert.Equal(t, domain.OpDirectDebit, got[1].Type)
}

func TestParse_NoAmountStillEmitted(t *testing.T) {
	lines := []string{header, "02/01/19;02/01/19;MYSTERE;;;"}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.IsZero())
	assert.Equal(t, domain.OpNone, got[0].Type)
	assert.Empty(t, got[0].CategoryID)
}

func TestParse_UnclassifiedTypeIsNone(t *testing.T) {
	lines := []string{header, "02/01/19;02/01/19;XYZ;12,00;;"}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	require.Len(t, got, 1)
	assert.Equal(t, domain.OpNone, got[0].Type)
	assert.Equal(t, "-12.00", got[0].Amount.StringFixed(2))
}

func TestParse_SkipsMalformedLinesAndPadding(t *testing.T) {
	lines := []string{
		header,
		"02/01/19;02/01/19;OK;1,00;;",
		"2019-01-02;02/01/19;BAD DATE;1,00;;",
		"02/01/19;02/01/19;BAD AMOUNT;abc;;",
		"02/01/19;02/01/19",
		";;;;",
		"",
		"",
	}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	require.Len(t, got, 1)
	assert.Equal(t, "OK", got[0].Label)
}

func TestParse_HeaderOnly(t *testing.T) {
	p := newTestParser()
	assert.Empty(t, p.Parse(context.Background(), savings("1"), []string{header}))
	assert.Empty(t, p.Parse(context.Background(), savings("1"), nil))
}

func TestParse_ExtraCellsIgnored(t *testing.T) {
	lines := []string{header, "02/01/19;02/01/19;VIR SEPA SALAIRE;;2.500,00;extra;more"}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	require.Len(t, got, 1)
	assert.Equal(t, "2500.00", got[0].Amount.StringFixed(2))
	assert.Equal(t, domain.OpTransfer, got[0].Type)
}

func TestParse_ReplacementCharacterInLabel(t *testing.T) {
	lines := []string{header, "02/01/19;02/01/19;RETRAIT\uFFFDDAB PARIS;20,00;;"}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	require.Len(t, got, 1)
	assert.Equal(t, "RETRAIT DAB PARIS", got[0].Label)
	assert.Equal(t, domain.OpWithdrawal, got[0].Type)
}

func TestParse_EveryLineWithAmountYieldsOneRecord(t *testing.T) {
	lines := []string{header}
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			lines = append(lines, "05/02/19;05/02/19;CARTE ACHAT;3,00;;")
		} else {
			lines = append(lines, "06/02/19;06/02/19;VIR RECU;;7,00;")
		}
	}

	got := newTestParser().Parse(context.Background(), savings("1"), lines)
	assert.Len(t, got, 50)
}

func TestAssignVendorIDs(t *testing.T) {
	day := func(s string) time.Time {
		d, err := normalize.ParseDate(s)
		require.NoError(t, err)
		return d
	}

	txs := []domain.Transaction{
		{Date: day("02/01/2019")},
		{Date: day("03/01/2019")},
		{Date: day("02/01/2019")},
		{Date: day("02/01/2019")},
		{Date: day("03/01/2019")},
	}

	AssignVendorIDs("FR76 123\t45", txs)

	want := []string{
		"FR76_123_45_2019-01-01_0",
		"FR76_123_45_2019-01-02_0",
		"FR76_123_45_2019-01-01_1",
		"FR76_123_45_2019-01-01_2",
		"FR76_123_45_2019-01-02_1",
	}
	seen := map[string]bool{}
	for i, tx := range txs {
		assert.Equal(t, want[i], tx.VendorID)
		assert.False(t, seen[tx.VendorID], "duplicate vendor id %s", tx.VendorID)
		seen[tx.VendorID] = true
	}
}

func TestAssignVendorIDs_Deterministic(t *testing.T) {
	lines := []string{
		header,
		"02/01/19;02/01/19;A;1,00;;",
		"02/01/19;02/01/19;B;2,00;;",
	}
	p := newTestParser()
	first := p.Parse(context.Background(), savings("9"), lines)
	second := p.Parse(context.Background(), savings("9"), lines)

	require.Len(t, first, 2)
	for i := range first {
		assert.Equal(t, first[i].VendorID, second[i].VendorID)
	}
}

func TestParseLine_TooFewCells(t *testing.T) {
	_, err := newTestParser().ParseLine("02/01/19;02/01/19;X", savings("1"), importTime)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFormat))
}
