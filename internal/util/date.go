package util

import "time"

// Today returns the current calendar date at UTC midnight. The ledger works
// in calendar dates without time-of-day.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped advances a date by n months, keeping the anchor day where
// possible and clamping to the last day of shorter months (e.g. Jan 31 + 1
// month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)

	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the first and last day of a calendar month.
func MonthWindow(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}
