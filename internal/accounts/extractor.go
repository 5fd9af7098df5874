// Package accounts reads the account listing and balance pages of the portal.
package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
	"github.com/dvloznov/bank-portal-sync/internal/scrape"
)

// ListingSelector matches one element per account on the overview page.
const ListingSelector = "#menu_mes_comptes ul div.compte"

var listingRules = scrape.Rules{
	"number": {Sel: "a>div", Parse: secondToken},
	"label":  {Sel: "a", Attr: "title", Parse: strings.ToUpper},
	"class":  {Attr: "class"},
	"link":   {Sel: "a", Attr: "href"},
}

func secondToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// Extractor turns portal pages into account descriptors.
type Extractor struct {
	portal portal.Doer
}

// NewExtractor creates an Extractor that fetches balance pages through d.
func NewExtractor(d portal.Doer) *Extractor {
	return &Extractor{portal: d}
}

// ParseBankAccounts returns one account per listing entry, in page order.
// Entries without a number or with an unknown type are logged and skipped.
func (e *Extractor) ParseBankAccounts(ctx context.Context, doc *goquery.Document) []domain.Account {
	log := logger.FromContext(ctx)

	var accounts []domain.Account
	seen := make(map[string]bool)

	for _, rec := range scrape.Scrape(doc.Selection, listingRules, ListingSelector) {
		number := rec["number"]
		if number == "" {
			log.Warn().Str("label", rec["label"]).Msg("Skipping account entry without a number")
			continue
		}
		if seen[number] {
			log.Warn().Str("account_number", number).Msg("Skipping duplicate account entry")
			continue
		}

		accountType, err := TypeFromCSS(rec["class"])
		if err != nil {
			log.Warn().Err(err).Str("account_number", number).Msg("Skipping account with unknown type")
			continue
		}

		seen[number] = true
		accounts = append(accounts, domain.NewAccount(number, rec["label"], accountType, rec["link"]))
	}

	log.Info().Int("count", len(accounts)).Msg("Parsed bank accounts")
	return accounts
}

// FetchBalance loads the account's detail page and returns a copy of the
// account carrying the scraped balance. Accounts whose type has no balance
// rule are returned unchanged.
func (e *Extractor) FetchBalance(ctx context.Context, account domain.Account) (domain.Account, error) {
	rule := account.Type.Balance
	if rule == nil {
		return account, nil
	}
	if account.LinkBalance == "" {
		return account, fmt.Errorf("FetchBalance: %w: account %s has no balance link", apperrors.ErrNotFound, account.Number)
	}

	doc, err := portal.FetchDocument(ctx, e.portal, account.LinkBalance)
	if err != nil {
		return account, fmt.Errorf("FetchBalance: loading %s: %w", account.LinkBalance, err)
	}

	raw := scrape.Value(doc.Selection, scrape.Field{Sel: rule.Sel, Attr: rule.Attr})
	if raw == "" {
		return account, fmt.Errorf("FetchBalance: %w: no balance at %q", apperrors.ErrNotFound, rule.Sel)
	}

	balance, err := normalize.ParseAmount(raw)
	if err != nil {
		return account, fmt.Errorf("FetchBalance: parsing balance %q: %w", raw, err)
	}

	return account.WithBalance(balance), nil
}
