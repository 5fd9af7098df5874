package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// FindAccountByVendorID returns the stored account with the given vendor id,
// or nil if there is none.
func (r *Repository) FindAccountByVendorID(ctx context.Context, vendorID string) (*AccountRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			account_id,
			vendor_id,
			account_number,
			label,
			account_type,
			account_category,
			institution_label,
			balance,
			created_ts,
			updated_ts
		FROM %s
		WHERE vendor_id = @vendor_id
		ORDER BY created_ts
		LIMIT 1
	`, r.tableRef(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "vendor_id", Value: vendorID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindAccountByVendorID: reading query: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindAccountByVendorID: iterating: %w", err)
	}
	return &row, nil
}

// ListAccounts returns every stored account.
func (r *Repository) ListAccounts(ctx context.Context) ([]*AccountRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			account_id,
			vendor_id,
			account_number,
			label,
			account_type,
			account_category,
			institution_label,
			balance,
			created_ts,
			updated_ts
		FROM %s
		ORDER BY account_number
	`, r.tableRef(accountsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: reading query: %w", err)
	}

	var rows []*AccountRow
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iterating: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// UpsertAccount stores the account keyed by vendor id and returns its storage id.
// Label, type and balance of an existing row are refreshed.
func (r *Repository) UpsertAccount(ctx context.Context, a domain.Account) (string, error) {
	existing, err := r.FindAccountByVendorID(ctx, a.VendorID)
	if err != nil {
		return "", fmt.Errorf("UpsertAccount: finding existing account: %w", err)
	}

	id := uuid.NewString()
	if existing != nil {
		id = existing.AccountID
	}
	row := toAccountRow(id, a, r.now().UTC())

	q := r.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @vendor_id AS vendor_id) S
		ON T.vendor_id = S.vendor_id
		WHEN MATCHED THEN
			UPDATE SET
				label = @label,
				account_type = @account_type,
				account_category = @account_category,
				institution_label = @institution_label,
				balance = @balance,
				updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
			INSERT (
				account_id, vendor_id, account_number, label, account_type,
				account_category, institution_label, balance, created_ts, updated_ts
			)
			VALUES (
				@account_id, @vendor_id, @account_number, @label, @account_type,
				@account_category, @institution_label, @balance, @created_ts, @updated_ts
			)
	`, r.tableRef(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: row.AccountID},
		{Name: "vendor_id", Value: row.VendorID},
		{Name: "account_number", Value: row.AccountNumber},
		{Name: "label", Value: row.Label},
		{Name: "account_type", Value: row.AccountType},
		{Name: "account_category", Value: row.AccountCategory},
		{Name: "institution_label", Value: row.InstitutionLabel},
		{Name: "balance", Value: row.Balance},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("UpsertAccount: %w", err)
	}
	return id, nil
}
