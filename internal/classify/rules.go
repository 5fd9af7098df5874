package classify

import "github.com/dvloznov/bank-portal-sync/internal/domain"

// Category identifiers attached by the keyword rules.
const (
	CategoryCardPayment   = "400100"
	CategoryWithdrawal    = "400110"
	CategoryTransferOut   = "400150"
	CategoryDirectDebit   = "400160"
	CategoryCheck         = "400170"
	CategoryBankFees      = "400600"
	CategoryLoanRepayment = "400700"
	CategoryTransferIn    = "200150"
	CategoryInterests     = "200130"
	CategoryRefund        = "200120"
	CategoryCheckDeposit  = "200170"
	CategoryOtherIncome   = "200100"
	CategoryUncategorized = "0"
	defaultRuleConfidence = 1.0
)

// DebitRules classifies lines whose debit cell is filled.
//
// ORDER IS SIGNIFICANT. Rules are evaluated top-down and the first rule whose
// keywords are all present in the label wins. A rule with more keywords must be
// declared before any rule whose keywords are a subset of it, otherwise it can
// never match (e.g. "RETRAIT DAB" before "RETRAIT", "ECHEANCE PRET" before "PRET").
var DebitRules = []Rule{
	{Keywords: []string{"ANN", "CARTE"}, Type: domain.OpCard, CategoryID: CategoryRefund},
	{Keywords: []string{"RETRAIT", "DAB"}, Type: domain.OpWithdrawal, CategoryID: CategoryWithdrawal},
	{Keywords: []string{"ECHEANCE", "PRET"}, Type: domain.OpLoan, CategoryID: CategoryLoanRepayment},
	{Keywords: []string{"PRLV", "SEPA"}, Type: domain.OpDirectDebit, CategoryID: CategoryDirectDebit},
	{Keywords: []string{"VIR", "SEPA"}, Type: domain.OpTransfer, CategoryID: CategoryTransferOut},
	{Keywords: []string{"CARTE"}, Type: domain.OpCard, CategoryID: CategoryCardPayment},
	{Keywords: []string{"RETRAIT"}, Type: domain.OpWithdrawal, CategoryID: CategoryWithdrawal},
	{Keywords: []string{"PRLV"}, Type: domain.OpDirectDebit, CategoryID: CategoryDirectDebit},
	{Keywords: []string{"VIR"}, Type: domain.OpTransfer, CategoryID: CategoryTransferOut},
	{Keywords: []string{"CHEQUE"}, Type: domain.OpCheck, CategoryID: CategoryCheck},
	{Keywords: []string{"COTISATION"}, Type: domain.OpBank, CategoryID: CategoryBankFees},
	{Keywords: []string{"FRAIS"}, Type: domain.OpBank, CategoryID: CategoryBankFees},
	{Keywords: []string{"COMMISSION"}, Type: domain.OpBank, CategoryID: CategoryBankFees},
	{Keywords: []string{"PRET"}, Type: domain.OpLoan, CategoryID: CategoryLoanRepayment},
}

// CreditRules classifies lines whose credit cell is filled.
//
// ORDER IS SIGNIFICANT, with the same first-match-wins contract as DebitRules.
var CreditRules = []Rule{
	{Keywords: []string{"ANN", "CARTE"}, Type: domain.OpCard, CategoryID: CategoryRefund},
	{Keywords: []string{"REMISE", "CHEQUE"}, Type: domain.OpCheck, CategoryID: CategoryCheckDeposit},
	{Keywords: []string{"VIR", "SEPA"}, Type: domain.OpTransfer, CategoryID: CategoryTransferIn},
	{Keywords: []string{"INTERETS"}, Type: domain.OpBank, CategoryID: CategoryInterests},
	{Keywords: []string{"REMBOURSEMENT"}, Type: domain.OpBank, CategoryID: CategoryRefund},
	{Keywords: []string{"VIR"}, Type: domain.OpTransfer, CategoryID: CategoryTransferIn},
	{Keywords: []string{"DEPOT"}, Type: domain.OpDeposit, CategoryID: CategoryOtherIncome},
	{Keywords: []string{"VERSEMENT"}, Type: domain.OpDeposit, CategoryID: CategoryOtherIncome},
	{Keywords: []string{"CHEQUE"}, Type: domain.OpCheck, CategoryID: CategoryCheckDeposit},
}
