package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// DefaultBalanceMatchKeys identifies a stored balance history by its id.
var DefaultBalanceMatchKeys = []string{"history_id"}

var balanceKeyColumns = map[string]bool{
	"history_id": true,
	"year":       true,
	"account_id": true,
}

// GetByYearAndAccount returns the stored history of the account for year, or
// a new empty history when there is none. New histories are not stored.
func (r *Repository) GetByYearAndAccount(ctx context.Context, year int, accountID string) (*domain.BalanceHistory, error) {
	rows, err := r.queryBalanceHistories(ctx, accountID, year, 1)
	if err != nil {
		return nil, fmt.Errorf("GetByYearAndAccount: %w", err)
	}
	if len(rows) == 0 {
		return domain.NewBalanceHistory(year, accountID), nil
	}
	return rows[0], nil
}

// ListBalanceHistories returns the histories of an account, newest year
// first. A zero year lists every year.
func (r *Repository) ListBalanceHistories(ctx context.Context, accountID string, year int) ([]*domain.BalanceHistory, error) {
	rows, err := r.queryBalanceHistories(ctx, accountID, year, 0)
	if err != nil {
		return nil, fmt.Errorf("ListBalanceHistories: %w", err)
	}
	return rows, nil
}

func (r *Repository) queryBalanceHistories(ctx context.Context, accountID string, year, limit int) ([]*domain.BalanceHistory, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `
		SELECT history_id, year, account_id, balances, version, updated_ts
		FROM %s
		WHERE account_id = @account_id`, r.tableRef(balanceHistoriesTable))

	params := []bigquery.QueryParameter{{Name: "account_id", Value: accountID}}
	if year != 0 {
		b.WriteString("\n\t\t  AND year = @year")
		params = append(params, bigquery.QueryParameter{Name: "year", Value: int64(year)})
	}
	b.WriteString("\n\t\tORDER BY year DESC, updated_ts DESC")
	if limit > 0 {
		fmt.Fprintf(&b, "\n\t\tLIMIT %d", limit)
	}

	q := r.client.Query(b.String())
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var histories []*domain.BalanceHistory
	for {
		var row BalanceHistoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		h, err := fromBalanceHistoryRow(&row)
		if err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}
	return histories, nil
}

// UpdateOrCreate stores each history, updating the row that matches on
// matchKeys or inserting a new one. Histories without an id get one.
func (r *Repository) UpdateOrCreate(ctx context.Context, histories []*domain.BalanceHistory, matchKeys ...string) error {
	if len(matchKeys) == 0 {
		matchKeys = DefaultBalanceMatchKeys
	}
	sql, err := buildBalanceMergeSQL(r.tableRef(balanceHistoriesTable), matchKeys)
	if err != nil {
		return fmt.Errorf("UpdateOrCreate: %w", err)
	}

	for _, h := range histories {
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		row, err := toBalanceHistoryRow(h, r.now().UTC())
		if err != nil {
			return fmt.Errorf("UpdateOrCreate: %w", err)
		}

		q := r.client.Query(sql)
		q.Parameters = []bigquery.QueryParameter{
			{Name: "history_id", Value: row.HistoryID},
			{Name: "year", Value: row.Year},
			{Name: "account_id", Value: row.AccountID},
			{Name: "balances", Value: row.Balances},
			{Name: "version", Value: row.Version},
			{Name: "updated_ts", Value: row.UpdatedTS},
		}
		if err := runDML(ctx, q); err != nil {
			return fmt.Errorf("UpdateOrCreate: history %d/%s: %w", h.Year, h.AccountID, err)
		}
	}
	return nil
}

func buildBalanceMergeSQL(table string, matchKeys []string) (string, error) {
	conds := make([]string, 0, len(matchKeys))
	for _, k := range matchKeys {
		if !balanceKeyColumns[k] {
			return "", fmt.Errorf("%w: %q is not a balance history key", apperrors.ErrValidation, k)
		}
		conds = append(conds, fmt.Sprintf("T.%s = S.%s", k, k))
	}

	return fmt.Sprintf(`
		MERGE %s T
		USING (
			SELECT
				@history_id AS history_id,
				@year AS year,
				@account_id AS account_id
		) S
		ON %s
		WHEN MATCHED THEN
			UPDATE SET
				balances = @balances,
				version = @version,
				updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
			INSERT (history_id, year, account_id, balances, version, updated_ts)
			VALUES (@history_id, @year, @account_id, @balances, @version, @updated_ts)
	`, table, strings.Join(conds, " AND ")), nil
}
