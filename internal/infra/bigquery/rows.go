// Package bigquery persists the transaction ledger, uploaded statement
// records, and manual subscriptions in BigQuery.
package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// Table names within the dataset.
const (
	transactionsTable  = "transactions"
	statementsTable    = "statements"
	subscriptionsTable = "subscriptions"
)

// TransactionRow maps one ledger entry to the transactions table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	StatementID string `bigquery:"statement_id"` // NULLABLE, lineage to the source upload

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Description     string     `bigquery:"description"`      // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC, signed
	Category        string     `bigquery:"category"`         // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// StatementRow records one uploaded statement CSV and its processing status.
type StatementRow struct {
	StatementID      string                 `bigquery:"statement_id"` // REQUIRED
	GCSURI           string                 `bigquery:"gcs_uri"`
	OriginalFilename string                 `bigquery:"original_filename"`
	Status           string                 `bigquery:"status"` // PENDING | SUCCESS | FAILED
	ErrorMessage     string                 `bigquery:"error_message"`
	TransactionCount bigquery.NullInt64     `bigquery:"transaction_count"`
	UploadTS         time.Time              `bigquery:"upload_ts"`
	ProcessedTS      bigquery.NullTimestamp `bigquery:"processed_ts"`
}

// Statement processing statuses.
const (
	StatementStatusPending = "PENDING"
	StatementStatusSuccess = "SUCCESS"
	StatementStatusFailed  = "FAILED"
)

// SubscriptionRow maps a manual subscription to the subscriptions table.
type SubscriptionRow struct {
	SubscriptionID string            `bigquery:"subscription_id"` // REQUIRED
	ServiceName    string            `bigquery:"service_name"`    // REQUIRED
	MonthlyAmount  *big.Rat          `bigquery:"monthly_amount"`  // REQUIRED NUMERIC
	DueDay         int64             `bigquery:"due_day"`         // REQUIRED, 1-31
	Category       string            `bigquery:"category"`
	Active         bool              `bigquery:"active"`
	NextDue        bigquery.NullDate `bigquery:"next_due"`
	CreatedTS      time.Time         `bigquery:"created_ts"`
}

// TransactionRowFromDomain builds a row for insertion. The NUMERIC column
// keeps exact decimal precision; the float64 domain value is converted once
// here and once on the way back out.
func TransactionRowFromDomain(tx domain.Transaction, statementID, transactionID string) *TransactionRow {
	amount := new(big.Rat)
	amount.SetFloat64(tx.Amount)
	return &TransactionRow{
		TransactionID:   transactionID,
		StatementID:     statementID,
		TransactionDate: civil.DateOf(tx.Date),
		Description:     tx.Description,
		Amount:          amount,
		Category:        tx.Category,
		CreatedTS:       time.Now().UTC(),
	}
}

// ToDomain converts a stored row back into the analysis representation.
func (r *TransactionRow) ToDomain() domain.Transaction {
	var amount float64
	if r.Amount != nil {
		amount, _ = r.Amount.Float64()
	}
	return domain.Transaction{
		Date:        r.TransactionDate.In(time.UTC),
		Description: r.Description,
		Amount:      amount,
		Category:    r.Category,
	}
}

// SubscriptionRowFromDomain builds a row for upsert.
func SubscriptionRowFromDomain(s recurrence.Subscription) *SubscriptionRow {
	amount := new(big.Rat)
	amount.SetFloat64(s.MonthlyAmount)
	row := &SubscriptionRow{
		SubscriptionID: s.ID,
		ServiceName:    s.ServiceName,
		MonthlyAmount:  amount,
		DueDay:         int64(s.DueDay),
		Category:       s.Category,
		Active:         s.Active,
		CreatedTS:      time.Now().UTC(),
	}
	if !s.NextDue.IsZero() {
		row.NextDue = bigquery.NullDate{Date: civil.DateOf(s.NextDue), Valid: true}
	}
	return row
}

// ToDomain converts a stored subscription row.
func (r *SubscriptionRow) ToDomain() recurrence.Subscription {
	var amount float64
	if r.MonthlyAmount != nil {
		amount, _ = r.MonthlyAmount.Float64()
	}
	s := recurrence.Subscription{
		ID:            r.SubscriptionID,
		ServiceName:   r.ServiceName,
		MonthlyAmount: amount,
		DueDay:        int(r.DueDay),
		Category:      r.Category,
		Active:        r.Active,
	}
	if r.NextDue.Valid {
		s.NextDue = r.NextDue.Date.In(time.UTC)
	}
	return s
}
