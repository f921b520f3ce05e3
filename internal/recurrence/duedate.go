package recurrence

import "time"

// AdvanceDueDate rolls a monthly obligation's due date forward so that it is
// never in the past relative to today.
//
//   - A lastDue on or after today is returned unchanged, so repeated calls
//     do not push the date further out.
//   - Otherwise the due day is placed in today's month; if that day is still
//     ahead of today it is the answer.
//   - Otherwise the due day moves to the following month.
//
// A due day that does not exist in the target month clamps to the month's
// last day: day 31 in April becomes the 30th, day 31 in February 2024 the
// 29th. Total for any dueDay in 1..31; dueDay below 1 is treated as 1.
//
// Comparisons happen at calendar-date granularity. Callers pass wall-clock
// times; any time-of-day on today is dropped so a due date is not treated
// as past on the due day itself.
func AdvanceDueDate(lastDue *time.Time, dueDay int, today time.Time) time.Time {
	if dueDay < 1 {
		dueDay = 1
	}

	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	if lastDue != nil && !lastDue.Before(today) {
		return *lastDue
	}

	current := dateWithClampedDay(today.Year(), today.Month(), dueDay, today.Location())
	if current.After(today) {
		return current
	}

	next := today.AddDate(0, 1, -today.Day()+1) // first of the following month
	return dateWithClampedDay(next.Year(), next.Month(), dueDay, today.Location())
}

// dateWithClampedDay builds year/month/day, clamping day to the number of
// days in that month.
func dateWithClampedDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
