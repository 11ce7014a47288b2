/*
status.go - Rent status calculation

PURPOSE:
  Turns one TenantSnapshot into a Result. This answers "is this tenant
  current on rent, and if not, how much do they owe?"

KEY INSIGHT:
  Status is DERIVED, never stored. Payment records can be edited between
  reads, so a cached status would drift. Every call recomputes from the
  snapshot and an explicit as-of date.

CALCULATION ORDER:
  1. Ancillary flags:  any PAID advance / refund
  2. Record flags:     any PARTIAL, any PENDING/FAILED
  3. Coverage gap:     no PAID record covers the as-of date
  4. Pending months:   EstimatePendingMonths
  5. Paid flag:        none of the above failure conditions hold
  6. Due amounts:      partial + pending accumulators, with backfill

DUE AMOUNTS:
  PartialDue = Σ PARTIAL (expected - paid)      (credit policy applies)
  PendingDue = Σ PENDING/FAILED expected
  If the gap is implicit (no explicit pending record was billed):
  PendingDue = RentPrice × PendingMonths
  RentDue    = PartialDue + PendingDue

EXAMPLE:
  Rent 10000, one PAID record for January, as-of February 15:
  no coverage, 1 pending month, PendingDue = RentDue = 10000.

SEE ALSO:
  - pending.go: Pending month estimation
  - classify.go: Bulk classification over many tenants
*/
package rent

import (
	"github.com/shopspring/decimal"
	"github.com/warp/rent-status/generic"
)

// Calculator computes rent status. The zero value uses CreditSurface.
type Calculator struct {
	CreditPolicy CreditPolicy
}

// NewCalculator returns a calculator with the given credit policy.
func NewCalculator(policy CreditPolicy) *Calculator {
	return &Calculator{CreditPolicy: policy}
}

// Calculate derives the status of one tenant as of the given date. It never
// fails: malformed records degrade to "covers nothing" rather than errors.
func (c *Calculator) Calculate(s TenantSnapshot, asOf generic.TimePoint) Result {
	today := generic.DateOf(asOf.Time)

	var (
		hasPartial     bool
		hasOutstanding bool
		covered        bool
		partialDue     = decimal.Zero
		pendingDue     = decimal.Zero
	)

	for _, p := range s.Payments {
		switch {
		case p.Status == StatusPartial:
			hasPartial = true
			partialDue = partialDue.Add(c.policy().apply(p.Shortfall()))
		case p.Status.Outstanding():
			hasOutstanding = true
			pendingDue = pendingDue.Add(p.ExpectedAmount)
		case p.Status == StatusPaid:
			if p.Covers(today) {
				covered = true
			}
		}
	}

	hasGap := !covered
	if len(s.Payments) == 0 {
		hasGap = s.CheckInDate.IsZero() || s.CheckInDate.Before(today)
	}

	pendingMonths := EstimatePendingMonths(s, today)

	if pendingMonths > 0 {
		backfill := s.RentPrice.Mul(decimal.NewFromInt(int64(pendingMonths)))
		switch {
		case len(s.Payments) == 0:
			pendingDue = backfill
		case hasGap && pendingDue.IsZero():
			pendingDue = backfill
		}
	}

	return Result{
		IsRentPaid:       !hasPartial && !hasOutstanding && !hasGap && pendingMonths == 0,
		IsRentPartial:    hasPartial,
		RentDueAmount:    partialDue.Add(pendingDue),
		PartialDueAmount: partialDue,
		PendingDueAmount: pendingDue,
		IsAdvancePaid:    anyAncillaryPaid(s.AdvancePayments),
		IsRefundPaid:     anyAncillaryPaid(s.RefundPayments),
		PendingMonths:    pendingMonths,
	}
}

func (c *Calculator) policy() CreditPolicy {
	if c == nil || c.CreditPolicy == "" {
		return CreditSurface
	}
	return c.CreditPolicy
}

// HasOutstandingRecord reports whether any payment record is PENDING or FAILED.
func HasOutstandingRecord(s TenantSnapshot) bool {
	return countOutstanding(s.Payments) > 0
}

func anyAncillaryPaid(payments []AncillaryPayment) bool {
	for _, p := range payments {
		if p.Status == AncillaryPaid {
			return true
		}
	}
	return false
}
