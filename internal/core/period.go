package core

import "time"

// ResolvePeriod maps a symbolic period and a reference instant to the concrete
// inclusive date range containing it. The reference time is always explicit so
// callers stay testable without mocking the clock.
//
// Only the reference's calendar date (in its own location) matters. The
// returned bounds are fixed UTC instants, the same representation stored
// record dates use, so a record dated on a period's first or last day always
// falls inside it no matter what zone the reference clock carries.
//
// Weekly ranges follow the ISO convention: Monday 00:00:00 through Sunday
// 23:59:59. An unrecognized period falls back to monthly, matching the
// historical behavior callers depend on.
func ResolvePeriod(period PeriodKind, reference time.Time) DateRange {
	year, month, day := reference.Date()

	switch period {
	case Weekly:
		// Monday-based day-of-week offset: Monday=0 ... Sunday=6.
		offset := (int(reference.Weekday()) + 6) % 7
		start := time.Date(year, month, day-offset, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, month, day-offset+6, 23, 59, 59, 0, time.UTC)
		return DateRange{Start: start, End: end}
	case Yearly:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
		return DateRange{Start: start, End: end}
	case Quarterly:
		q := (int(month) - 1) / 3
		start := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		// Day 0 of the month after the quarter is its last day.
		end := time.Date(year, time.Month(q*3+4), 0, 23, 59, 59, 0, time.UTC)
		return DateRange{Start: start, End: end}
	default: // Monthly
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return DateRange{Start: start, End: end}
	}
}
