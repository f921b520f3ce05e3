package notify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

type fakeSubs struct {
	subs []recurrence.Subscription
}

func (f *fakeSubs) ListSubscriptions(ctx context.Context, activeOnly bool) ([]recurrence.Subscription, error) {
	return f.subs, nil
}

type fakeProfiles struct {
	profiles []recurrence.MerchantProfile
}

func (f *fakeProfiles) Profiles(ctx context.Context) ([]recurrence.MerchantProfile, error) {
	return f.profiles, nil
}

type captureNotifier struct {
	sent []Reminder
}

func (c *captureNotifier) Notify(ctx context.Context, reminder Reminder) error {
	c.sent = append(c.sent, reminder)
	return nil
}

func TestCheckOnce(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	subs := &fakeSubs{subs: []recurrence.Subscription{
		{ID: "a", ServiceName: "Netflix", MonthlyAmount: 15.49, Active: true, NextDue: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)},
		{ID: "b", ServiceName: "Gym", MonthlyAmount: 40, Active: true, NextDue: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "c", ServiceName: "NoDueDate", MonthlyAmount: 5, Active: true},
	}}
	profiles := &fakeProfiles{profiles: []recurrence.MerchantProfile{
		{
			Description:      "Electricity Co",
			Category:         "Bills",
			AverageAmount:    85.20,
			Pattern:          recurrence.PatternMonthly,
			NextExpectedDate: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			Description:      "Coffee Cart",
			Category:         "Bills",
			AverageAmount:    4.50,
			Pattern:          recurrence.PatternIrregular,
			NextExpectedDate: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}}

	notifier := &captureNotifier{}
	s := NewScheduler(subs, profiles, notifier, 7, zerolog.New(io.Discard))
	s.now = func() time.Time { return today }

	reminders, err := s.CheckOnce(context.Background())
	if err != nil {
		t.Fatalf("CheckOnce: %v", err)
	}

	// Electricity (Mar 11) and Netflix (Mar 12) are inside the 7 day
	// horizon; Gym is not, the subscription without a due date and the
	// irregular merchant are skipped.
	if len(reminders) != 2 {
		t.Fatalf("got %d reminders, want 2: %+v", len(reminders), reminders)
	}
	if reminders[0].Name != "Electricity Co" || reminders[0].Source != SourceRecurring {
		t.Errorf("first reminder = %+v, want Electricity Co via recurring", reminders[0])
	}
	if reminders[1].Name != "Netflix" || reminders[1].Source != SourceSubscription {
		t.Errorf("second reminder = %+v, want Netflix via subscription", reminders[1])
	}
	if len(notifier.sent) != 2 {
		t.Errorf("notifier delivered %d reminders, want 2", len(notifier.sent))
	}
}

func TestCheckOnce_PastDueStillReminds(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	subs := &fakeSubs{subs: []recurrence.Subscription{
		{ID: "a", ServiceName: "Insurance", MonthlyAmount: 120, Active: true, NextDue: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}}

	notifier := &captureNotifier{}
	s := NewScheduler(subs, nil, notifier, 7, zerolog.New(io.Discard))
	s.now = func() time.Time { return today }

	reminders, err := s.CheckOnce(context.Background())
	if err != nil {
		t.Fatalf("CheckOnce: %v", err)
	}
	if len(reminders) != 1 || reminders[0].Name != "Insurance" {
		t.Fatalf("got %+v, want the overdue Insurance reminder", reminders)
	}
}
