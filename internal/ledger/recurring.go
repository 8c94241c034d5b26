package ledger

import (
	"time"

	"github.com/mmynk/fintrack/internal/models"
)

// NextRecurringDate returns date advanced by one interval, or nil when the
// transaction is not recurring.
//
// Month and year steps use time.AddDate, so Jan 31 + 1 month normalizes into March.
func NextRecurringDate(date time.Time, isRecurring bool, interval models.RecurringInterval) *time.Time {
	if !isRecurring || interval == "" {
		return nil
	}

	var next time.Time
	switch interval {
	case models.Daily:
		next = date.AddDate(0, 0, 1)
	case models.Weekly:
		next = date.AddDate(0, 0, 7)
	case models.Monthly:
		next = date.AddDate(0, 1, 0)
	case models.Yearly:
		next = date.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}

// day truncates t to midnight UTC.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
