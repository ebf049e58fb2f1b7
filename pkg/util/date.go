package util

import "time"

// DayFormat is the wire format for calendar dates (ISO 8601, no time part).
const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string. Returns (t, true) if it parsed.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Day formats a time as YYYY-MM-DD.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

// Today returns the current calendar date in the server's local zone.
func Today() string {
	return Day(time.Now())
}

// PeriodStart maps a chart period selector to its range start, counted back
// from now. Unrecognized selectors fall back to one month.
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case "1m":
		return now.AddDate(0, -1, 0)
	case "3m":
		return now.AddDate(0, -3, 0)
	case "6m":
		return now.AddDate(0, -6, 0)
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "2y":
		return now.AddDate(-2, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}
