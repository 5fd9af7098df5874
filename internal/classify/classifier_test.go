package classify

import (
	"testing"

	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/textutil"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDebit(t *testing.T) {
	c := Default()

	tests := []struct {
		label    string
		wantType domain.OperationType
		wantCat  string
	}{
		{"CARTE 12/03 BOULANGERIE PAUL", domain.OpCard, CategoryCardPayment},
		{"ANN CARTE 12/03 AMAZON", domain.OpCard, CategoryRefund},
		{"RETRAIT DAB 14/03 PARIS", domain.OpWithdrawal, CategoryWithdrawal},
		{"RETRAIT GUICHET", domain.OpWithdrawal, CategoryWithdrawal},
		{"PRLV SEPA EDF CLIENTS", domain.OpDirectDebit, CategoryDirectDebit},
		{"VIR SEPA LOYER MARS", domain.OpTransfer, CategoryTransferOut},
		{"CHEQUE 1234567", domain.OpCheck, CategoryCheck},
		{"COTISATION CARTE GOLD", domain.OpCard, CategoryCardPayment},
		{"ECHEANCE PRET 0042", domain.OpLoan, CategoryLoanRepayment},
		{"something else", domain.OpNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := c.ClassifyDebit(textutil.Tokenize(tt.label))
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCat, got.CategoryID)
		})
	}
}

func TestClassifyCredit(t *testing.T) {
	c := Default()

	tests := []struct {
		label    string
		wantType domain.OperationType
		wantCat  string
	}{
		{"INTERETS 2018", domain.OpBank, CategoryInterests},
		{"VIR SEPA EMPLOYEUR SALAIRE", domain.OpTransfer, CategoryTransferIn},
		{"REMISE CHEQUE 998877", domain.OpCheck, CategoryCheckDeposit},
		{"ANN CARTE 02/01 FNAC", domain.OpCard, CategoryRefund},
		{"CARTE 02/01 FNAC", domain.OpNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := c.ClassifyCredit(textutil.Tokenize(tt.label))
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCat, got.CategoryID)
		})
	}
}

func TestMatch_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Keywords: []string{"VIR"}, Type: domain.OpTransfer, CategoryID: "general"},
		{Keywords: []string{"VIR", "SEPA"}, Type: domain.OpTransfer, CategoryID: "specific"},
	}

	got := Match(rules, []string{"VIR", "SEPA", "X"})
	assert.Equal(t, "general", got.CategoryID, "an earlier general rule shadows a later specific one")

	reordered := []Rule{rules[1], rules[0]}
	got = Match(reordered, []string{"VIR", "SEPA", "X"})
	assert.Equal(t, "specific", got.CategoryID)
}

func TestMatch_Confidence(t *testing.T) {
	rules := []Rule{
		{Keywords: []string{"A"}, Type: domain.OpBank, CategoryID: "1"},
		{Keywords: []string{"B"}, Type: domain.OpBank, CategoryID: "2", Confidence: 0.5},
	}

	assert.Equal(t, 1.0, Match(rules, []string{"A"}).Confidence)
	assert.Equal(t, 0.5, Match(rules, []string{"B"}).Confidence)
}

func TestMatch_Unclassified(t *testing.T) {
	got := Match(DebitRules, nil)
	assert.Equal(t, Unclassified, got)
	assert.False(t, got.Matched())
	assert.Zero(t, got.Confidence)

	// rules with no keywords never match
	assert.False(t, Match([]Rule{{Type: domain.OpBank}}, []string{"X"}).Matched())
}

func TestRuleTables_SpecificBeforeGeneral(t *testing.T) {
	for name, rules := range map[string][]Rule{"debit": DebitRules, "credit": CreditRules} {
		for i, later := range rules {
			for _, earlier := range rules[:i] {
				if isSubset(earlier.Keywords, later.Keywords) {
					t.Errorf("%s: rule %v is shadowed by earlier rule %v", name, later.Keywords, earlier.Keywords)
				}
			}
		}
	}
}

func isSubset(sub, super []string) bool {
	set := make(map[string]struct{}, len(super))
	for _, s := range super {
		set[s] = struct{}{}
	}
	return containsAll(set, sub)
}
