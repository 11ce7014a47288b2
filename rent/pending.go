package rent

import "github.com/warp/rent-status/generic"

// =============================================================================
// PENDING MONTH ESTIMATOR
// =============================================================================

// EstimatePendingMonths returns how many whole months the tenant owes as of
// the given date. Rules are evaluated in order, first match wins:
//
//  1. No payment records: 0 if check-in is today or later, otherwise
//     max(1, months since check-in).
//  2. Explicit PENDING/FAILED records: one month per record, regardless of
//     their dates.
//  3. Today covered by a PAID or PARTIAL record: 0.
//  4. Otherwise max(1, months since the latest PAID end date), falling back
//     to months since check-in, or 1 without a check-in date.
//
// Months are counted with generic.MonthsBetween, which ignores day-of-month.
func EstimatePendingMonths(s TenantSnapshot, asOf generic.TimePoint) int {
	today := generic.DateOf(asOf.Time)

	if len(s.Payments) == 0 {
		if s.CheckInDate.IsZero() {
			return 1
		}
		if s.CheckInDate.AfterOrEqual(today) {
			return 0
		}
		return atLeastOne(generic.MonthsBetween(s.CheckInDate, today))
	}

	if n := countOutstanding(s.Payments); n > 0 {
		return n
	}

	for _, p := range s.Payments {
		if (p.Status == StatusPaid || p.Status == StatusPartial) && p.Covers(today) {
			return 0
		}
	}

	if last, ok := LastCoveredDate(s); ok {
		return atLeastOne(generic.MonthsBetween(last, today))
	}
	if s.CheckInDate.IsZero() {
		return 1
	}
	return atLeastOne(generic.MonthsBetween(s.CheckInDate, today))
}

// LastCoveredDate returns the latest end date among PAID records.
// PARTIAL records never count as coverage here.
func LastCoveredDate(s TenantSnapshot) (generic.TimePoint, bool) {
	var (
		latest generic.TimePoint
		found  bool
	)
	for _, p := range s.Payments {
		if p.Status != StatusPaid || p.Period.End.IsZero() {
			continue
		}
		if !found || p.Period.End.After(latest) {
			latest = p.Period.End
			found = true
		}
	}
	return latest, found
}

func countOutstanding(payments []PaymentRecord) int {
	n := 0
	for _, p := range payments {
		if p.Status.Outstanding() {
			n++
		}
	}
	return n
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
