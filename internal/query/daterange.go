package query

import "time"

// DateRange is a closed day-granular interval [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FromDaysBack builds the range covering the last daysBack days up to and
// including base. daysBack 0 yields a single-day range.
func FromDaysBack(daysBack int, base time.Time) DateRange {
	end := truncateDay(base)
	return DateRange{
		Start: end.AddDate(0, 0, -daysBack),
		End:   end,
	}
}

// Contains reports whether t falls inside the range, comparing at day
// granularity.
func (r DateRange) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the range duration in days, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
