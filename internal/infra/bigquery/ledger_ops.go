package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// InsertTransactions inserts a batch of categorized transactions attributed
// to the given statement.
func (r *Repository) InsertTransactions(ctx context.Context, statementID string, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, TransactionRowFromDomain(tx, statementID, uuid.NewString()))
	}

	inserter := r.table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// QueryTransactions returns transactions with dates in [from, to], ordered by
// date ascending. A zero `to` means no upper bound.
func (r *Repository) QueryTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			statement_id,
			transaction_date,
			description,
			amount,
			category,
			created_ts
		FROM %s
		WHERE transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, r.qualified(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: from.Format(dateFormat)},
		{Name: "end_date", Value: to.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		txs = append(txs, row.ToDomain())
	}

	return txs, nil
}

// CreateStatement records a freshly uploaded statement as PENDING.
func (r *Repository) CreateStatement(ctx context.Context, statementID, gcsURI, originalFilename string) error {
	row := &StatementRow{
		StatementID:      statementID,
		GCSURI:           gcsURI,
		OriginalFilename: originalFilename,
		Status:           StatementStatusPending,
		UploadTS:         time.Now().UTC(),
	}

	inserter := r.table(statementsTable).Inserter()
	if err := inserter.Put(ctx, []*StatementRow{row}); err != nil {
		return fmt.Errorf("CreateStatement: inserting row: %w", err)
	}
	return nil
}

// MarkStatementProcessed flips a statement to SUCCESS.
func (r *Repository) MarkStatementProcessed(ctx context.Context, statementID string, txCount int) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    transaction_count = @transaction_count,
		    processed_ts = @processed_ts,
		    error_message = ""
		WHERE statement_id = @statement_id
	`, r.qualified(statementsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatementStatusSuccess},
		{Name: "transaction_count", Value: txCount},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "statement_id", Value: statementID},
	}

	return r.runDML(ctx, q, "MarkStatementProcessed")
}

// MarkStatementFailed flips a statement to FAILED with the error text.
func (r *Repository) MarkStatementFailed(ctx context.Context, statementID string, errMsg string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    processed_ts = @processed_ts,
		    error_message = @error_message
		WHERE statement_id = @statement_id
	`, r.qualified(statementsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatementStatusFailed},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "statement_id", Value: statementID},
	}

	return r.runDML(ctx, q, "MarkStatementFailed")
}

// ListStatements returns all statement records, newest upload first.
func (r *Repository) ListStatements(ctx context.Context) ([]StatementRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			statement_id,
			gcs_uri,
			original_filename,
			status,
			error_message,
			transaction_count,
			upload_ts,
			processed_ts
		FROM %s
		ORDER BY upload_ts DESC
	`, r.qualified(statementsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStatements: query read: %w", err)
	}

	var rows []StatementRow
	for {
		var row StatementRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListStatements: iter next: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (r *Repository) runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running update query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for update job: %w", op, err)
	}
	if status.Err() != nil {
		return fmt.Errorf("%s: update job failed: %w", op, status.Err())
	}
	return nil
}
