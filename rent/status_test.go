package rent_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func day(s string) generic.TimePoint { return generic.MustParseDate(s) }

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func record(start, end string, status rent.PaymentStatus, expected, paid string) rent.PaymentRecord {
	return rent.PaymentRecord{
		ID:             generic.PaymentID(start + "-" + string(status)),
		Period:         generic.Period{Start: day(start), End: day(end)},
		Status:         status,
		ExpectedAmount: amt(expected),
		PaidAmount:     amt(paid),
	}
}

func tenant(checkIn string, price string, payments ...rent.PaymentRecord) rent.TenantSnapshot {
	s := rent.TenantSnapshot{
		ID:        "t-1",
		Name:      "Test Tenant",
		RentPrice: amt(price),
		Payments:  payments,
		Active:    true,
	}
	if checkIn != "" {
		s.CheckInDate = day(checkIn)
	}
	return s
}

func paidAdvance() []rent.AncillaryPayment {
	return []rent.AncillaryPayment{{ID: "adv", Status: rent.AncillaryPaid, Amount: amt("10000")}}
}

// assertInvariants checks what must hold for every result.
func assertInvariants(t *testing.T, r rent.Result) {
	t.Helper()
	assert.True(t, r.RentDueAmount.Equal(r.PartialDueAmount.Add(r.PendingDueAmount)),
		"rent due %s != partial %s + pending %s", r.RentDueAmount, r.PartialDueAmount, r.PendingDueAmount)
	assert.GreaterOrEqual(t, r.PendingMonths, 0)
	if r.IsRentPaid {
		assert.Zero(t, r.PendingMonths)
		assert.True(t, r.RentDueAmount.IsZero())
	}
}

var calc = rent.NewCalculator(rent.CreditSurface)

// =============================================================================
// REFERENCE CASES
// =============================================================================

func TestCalculate_JanuaryPaid_AsOfMidFebruary(t *testing.T) {
	// GIVEN: Rent 10000, January paid, advance paid
	s := tenant("2024-01-01", "10000", record("2024-01-01", "2024-01-31", rent.StatusPaid, "10000", "10000"))
	s.AdvancePayments = paidAdvance()

	// WHEN: Calculating as of February 15
	r := calc.Calculate(s, day("2024-02-15"))

	// THEN: One month pending, billed at the rent price
	assert.False(t, r.IsRentPaid)
	assert.False(t, r.IsRentPartial)
	assert.Equal(t, 1, r.PendingMonths)
	assert.True(t, r.PendingDueAmount.Equal(amt("10000")))
	assert.True(t, r.RentDueAmount.Equal(amt("10000")))
	assert.True(t, r.IsAdvancePaid)
	assert.False(t, r.IsRefundPaid)
	assertInvariants(t, r)
}

func TestCalculate_CoveredToday_IsPaid(t *testing.T) {
	// GIVEN: One PAID record for January
	s := tenant("2024-01-01", "10000", record("2024-01-01", "2024-01-31", rent.StatusPaid, "10000", "10000"))

	for _, asOf := range []string{"2024-01-01", "2024-01-15", "2024-01-31"} {
		t.Run(asOf, func(t *testing.T) {
			r := calc.Calculate(s, day(asOf))

			assert.True(t, r.IsRentPaid)
			assert.Zero(t, r.PendingMonths)
			assert.True(t, r.RentDueAmount.IsZero())
			assertInvariants(t, r)
		})
	}
}

func TestCalculate_GapAfterExpiry(t *testing.T) {
	// GIVEN: January paid through the 31st
	s := tenant("2024-01-01", "10000", record("2024-01-01", "2024-01-31", rent.StatusPaid, "10000", "10000"))

	tests := []struct {
		asOf       string
		wantMonths int
	}{
		// The day after coverage ends is already a new calendar month
		{"2024-02-01", 1},
		{"2024-02-29", 1},
		// Month arithmetic ignores day-of-month: Jan -> Mar is two months
		{"2024-03-01", 2},
		{"2024-07-10", 6},
	}

	for _, tt := range tests {
		t.Run(tt.asOf, func(t *testing.T) {
			r := calc.Calculate(s, day(tt.asOf))

			assert.False(t, r.IsRentPaid)
			assert.Equal(t, tt.wantMonths, r.PendingMonths)
			assert.True(t, r.PendingDueAmount.Equal(amt("10000").Mul(decimal.NewFromInt(int64(tt.wantMonths)))))
			assertInvariants(t, r)
		})
	}
}

func TestCalculate_ExplicitPendingOverridesCalendar(t *testing.T) {
	// GIVEN: A PENDING record far in the past and an old PAID record
	s := tenant("2020-01-01", "10000",
		record("2020-01-01", "2020-01-31", rent.StatusPaid, "10000", "10000"),
		record("2020-02-01", "2020-02-29", rent.StatusPending, "9500", "0"),
	)

	// WHEN: Calculating years later
	r := calc.Calculate(s, day("2024-02-15"))

	// THEN: One pending month, billed at the record's expected amount
	assert.Equal(t, 1, r.PendingMonths)
	assert.True(t, r.PendingDueAmount.Equal(amt("9500")), "explicit records are not backfilled")
	assert.False(t, r.IsRentPaid)
	assertInvariants(t, r)
}

func TestCalculate_FailedCountsAsPending(t *testing.T) {
	s := tenant("2024-01-01", "10000",
		record("2024-01-01", "2024-01-31", rent.StatusFailed, "10000", "0"),
		record("2024-02-01", "2024-02-29", rent.StatusPending, "10000", "0"),
	)

	r := calc.Calculate(s, day("2024-02-15"))

	assert.Equal(t, 2, r.PendingMonths)
	assert.True(t, r.PendingDueAmount.Equal(amt("20000")))
	assertInvariants(t, r)
}

func TestCalculate_NoPayments(t *testing.T) {
	tests := []struct {
		name       string
		checkIn    string
		wantMonths int
		wantPaid   bool
	}{
		{"six months ago", "2023-08-15", 6, false},
		{"earlier this month", "2024-02-01", 1, false},
		{"today", "2024-02-15", 0, true},
		{"in the future", "2024-03-01", 0, true},
		{"unknown check-in", "", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: A tenant with no payment records
			s := tenant(tt.checkIn, "10000")

			// WHEN: Calculating as of February 15
			r := calc.Calculate(s, day("2024-02-15"))

			// THEN: The whole elapsed stay is backfilled at the rent price
			assert.Equal(t, tt.wantMonths, r.PendingMonths)
			assert.Equal(t, tt.wantPaid, r.IsRentPaid)
			assert.True(t, r.PendingDueAmount.Equal(amt("10000").Mul(decimal.NewFromInt(int64(tt.wantMonths)))))
			assertInvariants(t, r)
		})
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	s := tenant("2023-06-01", "7500.50",
		record("2023-06-01", "2023-06-30", rent.StatusPaid, "7500.50", "7500.50"),
		record("2023-07-01", "2023-07-31", rent.StatusPartial, "7500.50", "5000"),
	)
	asOf := day("2024-02-15")

	first := calc.Calculate(s, asOf)
	second := calc.Calculate(s, asOf)

	assert.Equal(t, first, second)
	require.Len(t, s.Payments, 2, "snapshot untouched")
}

// =============================================================================
// PARTIAL AMOUNTS & CREDIT POLICY
// =============================================================================

func TestCalculate_PartialCoveringToday(t *testing.T) {
	// GIVEN: January paid, February partially paid
	s := tenant("2024-01-01", "10000",
		record("2024-01-01", "2024-01-31", rent.StatusPaid, "10000", "10000"),
		record("2024-02-01", "2024-02-29", rent.StatusPartial, "10000", "6000"),
	)

	r := calc.Calculate(s, day("2024-02-15"))

	// THEN: Partial, nothing pending, 4000 owed
	assert.True(t, r.IsRentPartial)
	assert.False(t, r.IsRentPaid)
	assert.Zero(t, r.PendingMonths)
	assert.True(t, r.PartialDueAmount.Equal(amt("4000")))
	assert.True(t, r.PendingDueAmount.IsZero())
	assert.Equal(t, rent.LabelPartial, r.Label())
	assertInvariants(t, r)
}

func TestCalculate_PartialAndPending(t *testing.T) {
	s := tenant("2024-01-01", "10000",
		record("2024-01-01", "2024-01-31", rent.StatusPartial, "10000", "7000"),
		record("2024-02-01", "2024-02-29", rent.StatusPending, "10000", "0"),
	)

	r := calc.Calculate(s, day("2024-02-15"))

	assert.True(t, r.IsRentPartial)
	assert.Equal(t, 1, r.PendingMonths)
	assert.True(t, r.PartialDueAmount.Equal(amt("3000")))
	assert.True(t, r.PendingDueAmount.Equal(amt("10000")))
	assert.True(t, r.RentDueAmount.Equal(amt("13000")))
	assertInvariants(t, r)
}

func TestCalculate_OverpaidPartial(t *testing.T) {
	// GIVEN: A PARTIAL record paid above its expected amount
	s := tenant("2024-01-01", "8000",
		record("2024-01-01", "2024-01-31", rent.StatusPaid, "8000", "8000"),
		record("2024-02-01", "2024-02-29", rent.StatusPartial, "8000", "8500"),
	)

	t.Run("surface keeps the credit", func(t *testing.T) {
		r := rent.NewCalculator(rent.CreditSurface).Calculate(s, day("2024-02-15"))
		assert.True(t, r.PartialDueAmount.Equal(amt("-500")))
		assert.True(t, r.RentDueAmount.Equal(amt("-500")))
		assertInvariants(t, r)
	})

	t.Run("clamp floors at zero", func(t *testing.T) {
		r := rent.NewCalculator(rent.CreditClamp).Calculate(s, day("2024-02-15"))
		assert.True(t, r.PartialDueAmount.IsZero())
		assert.True(t, r.RentDueAmount.IsZero())
		assert.True(t, r.IsRentPartial, "still partial even with nothing owed")
		assertInvariants(t, r)
	})

	t.Run("zero value calculator surfaces", func(t *testing.T) {
		r := (&rent.Calculator{}).Calculate(s, day("2024-02-15"))
		assert.True(t, r.PartialDueAmount.Equal(amt("-500")))
	})
}

func TestParseCreditPolicy(t *testing.T) {
	p, err := rent.ParseCreditPolicy("")
	require.NoError(t, err)
	assert.Equal(t, rent.CreditSurface, p)

	p, err = rent.ParseCreditPolicy(" Clamp ")
	require.NoError(t, err)
	assert.Equal(t, rent.CreditClamp, p)

	_, err = rent.ParseCreditPolicy("forgive")
	assert.Error(t, err)
}

// =============================================================================
// MALFORMED INPUT
// =============================================================================

func TestCalculate_ReversedPeriodCoversNothing(t *testing.T) {
	// GIVEN: A PAID record whose end precedes its start, spanning today
	s := tenant("2024-01-01", "10000", record("2024-02-29", "2024-02-01", rent.StatusPaid, "10000", "10000"))

	// WHEN: Calculating inside the nominal range
	r := calc.Calculate(s, day("2024-02-15"))

	// THEN: Not covered; the end date still counts as last coverage
	assert.False(t, r.IsRentPaid)
	assert.Equal(t, 1, r.PendingMonths)
	assertInvariants(t, r)
}

func TestCalculate_ZeroRentPrice(t *testing.T) {
	s := tenant("2023-11-01", "0")

	r := calc.Calculate(s, day("2024-02-15"))

	assert.Equal(t, 3, r.PendingMonths)
	assert.True(t, r.PendingDueAmount.IsZero())
	assert.False(t, r.IsRentPaid)
	assertInvariants(t, r)
}

func TestCalculate_UnknownStatusIgnored(t *testing.T) {
	// GIVEN: A record with a status the engine doesn't know, and January paid
	s := tenant("2024-01-01", "10000",
		record("2024-01-01", "2024-01-31", rent.StatusPaid, "10000", "10000"),
		record("2024-02-01", "2024-02-29", rent.PaymentStatus("REFUNDED"), "10000", "0"),
	)

	r := calc.Calculate(s, day("2024-02-15"))

	assert.False(t, r.IsRentPartial)
	assert.Equal(t, 1, r.PendingMonths)
	assert.True(t, r.PendingDueAmount.Equal(amt("10000")))
	assertInvariants(t, r)
}

func TestCalculate_AncillaryFlags(t *testing.T) {
	s := tenant("2024-01-01", "10000")
	s.AdvancePayments = []rent.AncillaryPayment{
		{Status: rent.AncillaryFailed},
		{Status: rent.AncillaryPending},
	}
	s.RefundPayments = []rent.AncillaryPayment{{Status: rent.AncillaryPaid}}

	r := calc.Calculate(s, day("2024-02-15"))

	assert.False(t, r.IsAdvancePaid)
	assert.True(t, r.IsRefundPaid)
}

func TestResult_Label(t *testing.T) {
	assert.Equal(t, rent.LabelPaid, rent.Result{IsRentPaid: true}.Label())
	assert.Equal(t, rent.LabelPartial, rent.Result{IsRentPartial: true}.Label())
	assert.Equal(t, rent.LabelPending, rent.Result{}.Label())
}
