// Package bigquery stores accounts, transactions and balance histories in
// BigQuery.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

const (
	accountsTable         = "accounts"
	transactionsTable     = "transactions"
	balanceHistoriesTable = "balance_histories"
)

// Repository is the persistence layer of a sync run. It holds a shared
// BigQuery client so every operation reuses one connection.
type Repository struct {
	client  *bigquery.Client
	project string
	dataset string
	now     func() time.Time
}

// NewRepository creates a Repository with its own client.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, dataset), nil
}

// NewRepositoryWithClient creates a Repository on an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, dataset string) *Repository {
	return &Repository{
		client:  client,
		project: projectID,
		dataset: dataset,
		now:     time.Now,
	}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// tableRef is the backquoted, fully qualified name used in SQL.
func (r *Repository) tableRef(table string) string {
	return qualifiedTable(r.project, r.dataset, table)
}

func qualifiedTable(project, dataset, table string) string {
	return "`" + project + "." + dataset + "." + table + "`"
}

// runDML runs a statement and waits for it.
func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
