package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const dateFormat = "2006-01-02"

// Repository implements LedgerRepository and SubscriptionRepository on a
// shared BigQuery client. Project and dataset come from configuration so
// the same binary can point at different environments.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository opens a BigQuery client for the given project and dataset.
// The caller owns the repository and must Close it.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client. Close is still safe to
// call; it closes the underlying client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) table(name string) *bigquery.Table {
	// Fully qualified table reference to avoid default-project surprises.
	return r.client.DatasetInProject(r.projectID, r.datasetID).Table(name)
}

func (r *Repository) qualified(name string) string {
	return fmt.Sprintf("%s.%s", r.datasetID, name)
}
