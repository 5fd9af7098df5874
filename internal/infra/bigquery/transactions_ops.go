package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// ExistingVendorIDs returns which of vendorIDs are already stored for the account.
func (r *Repository) ExistingVendorIDs(ctx context.Context, accountID string, vendorIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(vendorIDs) == 0 {
		return existing, nil
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT vendor_id
		FROM %s
		WHERE account_id = @account_id
		  AND vendor_id IN UNNEST(@vendor_ids)
	`, r.tableRef(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "vendor_ids", Value: vendorIDs},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExistingVendorIDs: reading query: %w", err)
	}
	for {
		var row struct {
			VendorID string `bigquery:"vendor_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExistingVendorIDs: iterating: %w", err)
		}
		existing[row.VendorID] = true
	}
	return existing, nil
}

// InsertTransactions streams rows into the transactions table.
func (r *Repository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := r.client.DatasetInProject(r.project, r.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// Save upserts the accounts, inserts the transactions not stored yet and
// returns the accounts with their storage ids, in input order. Transactions
// are matched to accounts by vendor account id and deduplicated by vendor id.
func (r *Repository) Save(ctx context.Context, accounts []domain.Account, txs []domain.Transaction) ([]domain.SavedAccount, error) {
	log := logger.FromContext(ctx)

	saved := make([]domain.SavedAccount, 0, len(accounts))
	idByNumber := make(map[string]string, len(accounts))
	for _, a := range accounts {
		id, err := r.UpsertAccount(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("Save: account %s: %w", a.Number, err)
		}
		idByNumber[a.Number] = id
		saved = append(saved, domain.SavedAccount{ID: id, Account: a})
	}

	for _, group := range groupByAccount(txs) {
		accountID, ok := idByNumber[group.number]
		if !ok {
			log.Warn().Str("account_number", group.number).Int("transactions", len(group.txs)).
				Msg("Dropping transactions of an unknown account")
			continue
		}

		ids := make([]string, len(group.txs))
		for i, tx := range group.txs {
			ids[i] = tx.VendorID
		}
		existing, err := r.ExistingVendorIDs(ctx, accountID, ids)
		if err != nil {
			return nil, fmt.Errorf("Save: account %s: %w", group.number, err)
		}

		rows := newTransactionRows(accountID, group.txs, existing)
		if err := r.InsertTransactions(ctx, rows); err != nil {
			return nil, fmt.Errorf("Save: account %s: %w", group.number, err)
		}

		log.Info().
			Str("account_number", group.number).
			Int("new", len(rows)).
			Int("known", len(group.txs)-len(rows)).
			Msg("Saved transactions")
	}

	return saved, nil
}

type accountTransactions struct {
	number string
	txs    []domain.Transaction
}

// groupByAccount keeps first-seen account order.
func groupByAccount(txs []domain.Transaction) []accountTransactions {
	var groups []accountTransactions
	index := make(map[string]int)
	for _, tx := range txs {
		i, ok := index[tx.VendorAccountID]
		if !ok {
			i = len(groups)
			index[tx.VendorAccountID] = i
			groups = append(groups, accountTransactions{number: tx.VendorAccountID})
		}
		groups[i].txs = append(groups[i].txs, tx)
	}
	return groups
}

// newTransactionRows skips vendor ids already stored or repeated in txs.
func newTransactionRows(accountID string, txs []domain.Transaction, existing map[string]bool) []*TransactionRow {
	seen := make(map[string]bool, len(txs))
	var rows []*TransactionRow
	for _, tx := range txs {
		if existing[tx.VendorID] || seen[tx.VendorID] {
			continue
		}
		seen[tx.VendorID] = true
		rows = append(rows, toTransactionRow(uuid.NewString(), accountID, tx))
	}
	return rows
}
