package generic

import "time"

// =============================================================================
// PERIOD - The billing interval a payment record claims to cover
// =============================================================================

// Period is a closed date interval [Start, End].
//
// Periods arrive from the data-fetch layer as-is, so a Period may be
// malformed (End before Start, or a missing bound). A malformed Period
// contains no dates at all.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthPeriod returns the full calendar month [1st, last day].
func MonthPeriod(year int, month time.Month) Period {
	return Period{
		Start: StartOfMonth(year, month),
		End:   EndOfMonth(year, month),
	}
}

// IsValid reports whether both bounds are set and Start <= End.
func (p Period) IsValid() bool {
	if p.Start.IsZero() || p.End.IsZero() {
		return false
	}
	return p.Start.BeforeOrEqual(p.End)
}

// Contains returns true if the time point is within the period [Start, End].
// Always false for a malformed period.
func (p Period) Contains(t TimePoint) bool {
	if !p.IsValid() || t.IsZero() {
		return false
	}
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns the number of days in the period, inclusive. Zero when malformed.
func (p Period) Days() int {
	if !p.IsValid() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// NextPeriod returns the period of equal length starting the day after End.
func (p Period) NextPeriod() Period {
	newStart := p.End.AddDays(1)
	duration := DaysBetween(p.Start, p.End)
	return Period{Start: newStart, End: newStart.AddDays(duration)}
}
