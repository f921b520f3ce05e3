package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// UpsertSubscription inserts the subscription, replacing any existing row
// with the same ID. Delete-then-insert keeps the table free of duplicate IDs
// without requiring a MERGE against a streaming buffer.
func (r *Repository) UpsertSubscription(ctx context.Context, s recurrence.Subscription) error {
	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE subscription_id = @subscription_id
	`, r.qualified(subscriptionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "subscription_id", Value: s.ID},
	}
	if err := r.runDML(ctx, q, "UpsertSubscription"); err != nil {
		return err
	}

	inserter := r.table(subscriptionsTable).Inserter()
	if err := inserter.Put(ctx, []*SubscriptionRow{SubscriptionRowFromDomain(s)}); err != nil {
		return fmt.Errorf("UpsertSubscription: inserting row: %w", err)
	}
	return nil
}

// ListSubscriptions returns every subscription, active ones only when
// activeOnly is set.
func (r *Repository) ListSubscriptions(ctx context.Context, activeOnly bool) ([]recurrence.Subscription, error) {
	query := fmt.Sprintf(`
		SELECT
			subscription_id,
			service_name,
			monthly_amount,
			due_day,
			category,
			active,
			next_due,
			created_ts
		FROM %s
	`, r.qualified(subscriptionsTable))
	if activeOnly {
		query += "\t\tWHERE active = TRUE\n"
	}
	query += "\t\tORDER BY service_name\n"

	q := r.client.Query(query)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSubscriptions: query read: %w", err)
	}

	var subs []recurrence.Subscription
	for {
		var row SubscriptionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListSubscriptions: iter next: %w", err)
		}
		subs = append(subs, row.ToDomain())
	}

	return subs, nil
}

// UpdateNextDue persists a recomputed next due date.
func (r *Repository) UpdateNextDue(ctx context.Context, subscriptionID string, nextDue time.Time) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET next_due = @next_due
		WHERE subscription_id = @subscription_id
	`, r.qualified(subscriptionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "next_due", Value: civil.DateOf(nextDue)},
		{Name: "subscription_id", Value: subscriptionID},
	}

	return r.runDML(ctx, q, "UpdateNextDue")
}

// Deactivate marks a subscription inactive without deleting it.
func (r *Repository) Deactivate(ctx context.Context, subscriptionID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET active = FALSE
		WHERE subscription_id = @subscription_id
	`, r.qualified(subscriptionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "subscription_id", Value: subscriptionID},
	}

	return r.runDML(ctx, q, "Deactivate")
}
