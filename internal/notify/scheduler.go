// Package notify surfaces upcoming payment reminders from tracked
// subscriptions and inferred recurring merchants.
package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// Reminder is one upcoming payment worth telling the user about.
type Reminder struct {
	Source  string    `json:"source"` // "subscription" or "recurring"
	Name    string    `json:"name"`
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"due_date"`
}

// Reminder sources.
const (
	SourceSubscription = "subscription"
	SourceRecurring    = "recurring"
)

// Notifier delivers reminders. The default implementation logs them; a
// real deployment would add mail or push delivery behind this interface.
type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}

// LogNotifier writes reminders to the structured log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, reminder Reminder) error {
	n.log.Info().
		Str("source", reminder.Source).
		Str("name", reminder.Name).
		Float64("amount", reminder.Amount).
		Str("due_date", reminder.DueDate.Format("2006-01-02")).
		Msg("Upcoming payment")
	return nil
}

// SubscriptionLister is the slice of the subscription repository the
// scheduler needs.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context, activeOnly bool) ([]recurrence.Subscription, error)
}

// ProfileSource produces current merchant profiles.
type ProfileSource interface {
	Profiles(ctx context.Context) ([]recurrence.MerchantProfile, error)
}

// Scheduler checks for payments coming due within a horizon and hands them
// to the notifier.
type Scheduler struct {
	subs     SubscriptionLister
	profiles ProfileSource
	notifier Notifier
	horizon  time.Duration
	log      zerolog.Logger

	now func() time.Time
}

// NewScheduler creates a scheduler. horizonDays bounds how far ahead a due
// date may be to still trigger a reminder; values below 1 default to 7.
func NewScheduler(subs SubscriptionLister, profiles ProfileSource, notifier Notifier, horizonDays int, log zerolog.Logger) *Scheduler {
	if horizonDays < 1 {
		horizonDays = 7
	}
	return &Scheduler{
		subs:     subs,
		profiles: profiles,
		notifier: notifier,
		horizon:  time.Duration(horizonDays) * 24 * time.Hour,
		log:      log,
		now:      time.Now,
	}
}

// CheckOnce collects all reminders due within the horizon and delivers them.
// Already-passed due dates are included: a missed payment is still worth a
// reminder. Returned reminders are sorted by due date.
func (s *Scheduler) CheckOnce(ctx context.Context) ([]Reminder, error) {
	today := s.now()
	cutoff := today.Add(s.horizon)

	var reminders []Reminder

	subs, err := s.subs.ListSubscriptions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("CheckOnce: listing subscriptions: %w", err)
	}
	for _, sub := range subs {
		if sub.NextDue.IsZero() || sub.NextDue.After(cutoff) {
			continue
		}
		reminders = append(reminders, Reminder{
			Source:  SourceSubscription,
			Name:    sub.ServiceName,
			Amount:  sub.MonthlyAmount,
			DueDate: sub.NextDue,
		})
	}

	if s.profiles != nil {
		profiles, err := s.profiles.Profiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("CheckOnce: building profiles: %w", err)
		}
		for _, p := range profiles {
			if p.NextExpectedDate.IsZero() || p.NextExpectedDate.After(cutoff) {
				continue
			}
			if p.Pattern == recurrence.PatternOneTimeOrNew || p.Pattern == recurrence.PatternIrregular {
				continue
			}
			reminders = append(reminders, Reminder{
				Source:  SourceRecurring,
				Name:    p.Description,
				Amount:  p.AverageAmount,
				DueDate: p.NextExpectedDate,
			})
		}
	}

	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].DueDate.Before(reminders[j].DueDate)
	})

	for _, reminder := range reminders {
		if err := s.notifier.Notify(ctx, reminder); err != nil {
			return reminders, fmt.Errorf("CheckOnce: delivering reminder for %q: %w", reminder.Name, err)
		}
	}

	return reminders, nil
}

// Run checks immediately and then on every tick until the context ends.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.CheckOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("Reminder check failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
