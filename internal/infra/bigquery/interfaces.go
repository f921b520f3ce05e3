package bigquery

import (
	"context"
	"time"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// LedgerRepository stores categorized transactions and the statement
// records they came from.
type LedgerRepository interface {
	// InsertTransactions appends a batch of categorized transactions,
	// all attributed to the given statement.
	InsertTransactions(ctx context.Context, statementID string, txs []domain.Transaction) error

	// QueryTransactions returns transactions with dates in [from, to],
	// ordered by date ascending. A zero `to` means no upper bound.
	QueryTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)

	// CreateStatement records a freshly uploaded statement as PENDING.
	CreateStatement(ctx context.Context, statementID, gcsURI, originalFilename string) error

	// MarkStatementProcessed flips a statement to SUCCESS with the
	// number of transactions extracted from it.
	MarkStatementProcessed(ctx context.Context, statementID string, txCount int) error

	// MarkStatementFailed flips a statement to FAILED with the error text.
	MarkStatementFailed(ctx context.Context, statementID string, errMsg string) error

	// ListStatements returns all statement records, newest upload first.
	ListStatements(ctx context.Context) ([]StatementRow, error)
}

// SubscriptionRepository stores manually tracked subscriptions.
type SubscriptionRepository interface {
	// UpsertSubscription inserts the subscription, replacing any
	// existing row with the same ID.
	UpsertSubscription(ctx context.Context, s recurrence.Subscription) error

	// ListSubscriptions returns every subscription. If activeOnly is
	// set, inactive ones are filtered out.
	ListSubscriptions(ctx context.Context, activeOnly bool) ([]recurrence.Subscription, error)

	// UpdateNextDue persists a recomputed next due date.
	UpdateNextDue(ctx context.Context, subscriptionID string, nextDue time.Time) error

	// Deactivate marks a subscription inactive without deleting it.
	Deactivate(ctx context.Context, subscriptionID string) error
}
