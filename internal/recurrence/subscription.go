package recurrence

import "time"

// Subscription is a user-declared recurring obligation, independent of
// transaction history. Cadence is always monthly and asserted by the user
// rather than inferred.
type Subscription struct {
	ID            string    `json:"id"`
	ServiceName   string    `json:"service_name"`
	MonthlyAmount float64   `json:"monthly_amount"`
	DueDay        int       `json:"due_day"` // day of month, 1-31
	Category      string    `json:"category"`
	Active        bool      `json:"active"`
	NextDue       time.Time `json:"next_due"`
}

// Refresh advances NextDue past today via AdvanceDueDate. Inactive
// subscriptions are left untouched. Returns true when NextDue changed.
func (s *Subscription) Refresh(today time.Time) bool {
	if !s.Active {
		return false
	}

	var last *time.Time
	if !s.NextDue.IsZero() {
		last = &s.NextDue
	}

	next := AdvanceDueDate(last, s.DueDay, today)
	if next.Equal(s.NextDue) {
		return false
	}
	s.NextDue = next
	return true
}
