package accounts

import (
	"fmt"
	"strings"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
)

var savingsBalance = &domain.BalanceRule{Sel: ".synthese_solde .montant"}

// accountTypes maps the CSS class of a listing entry to its account type.
var accountTypes = map[string]domain.AccountType{
	"compte_courant": {
		Kind:         domain.KindChecking,
		CategoryHint: "checking",
		Balance:      &domain.BalanceRule{Sel: "#solde_compte .montant"},
	},
	"livret": {
		Kind:         domain.KindSavings,
		CategoryHint: "savings",
		Balance:      savingsBalance,
	},
	"epargne": {
		Kind:         domain.KindSavings,
		CategoryHint: "savings",
		Balance:      savingsBalance,
	},
	"compte_titre": {
		Kind:         domain.KindMarket,
		CategoryHint: "investment",
		Balance:      &domain.BalanceRule{Sel: "#valorisation_compte .montant"},
	},
	"pea": {
		Kind:         domain.KindMarket,
		CategoryHint: "investment",
		Balance:      &domain.BalanceRule{Sel: "#valorisation_compte .montant"},
	},
	"assurance_vie": {
		Kind:         domain.KindLifeInsurance,
		CategoryHint: "life_insurance",
	},
}

// TypeFromCSS returns the type of the first class token found in the lookup table.
func TypeFromCSS(class string) (domain.AccountType, error) {
	for _, token := range strings.Fields(class) {
		if t, ok := accountTypes[strings.ToLower(token)]; ok {
			return t, nil
		}
	}
	return domain.AccountType{}, fmt.Errorf("TypeFromCSS: %w: %q", apperrors.ErrUnknownAccountType, class)
}
