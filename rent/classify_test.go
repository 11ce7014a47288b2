package rent_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func named(id string, s rent.TenantSnapshot) rent.TenantSnapshot {
	s.ID = generic.TenantID(id)
	return s
}

func ids(list []rent.TenantSnapshot) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, string(s.ID))
	}
	return out
}

// portfolio is evaluated as of 2024-02-15.
func portfolio() []rent.TenantSnapshot {
	paid := named("paid", tenant("2024-01-01", "10000",
		record("2024-02-01", "2024-02-29", rent.StatusPaid, "10000", "10000")))
	paid.AdvancePayments = paidAdvance()

	partial := named("partial", tenant("2024-01-01", "10000",
		record("2024-02-01", "2024-02-29", rent.StatusPartial, "10000", "6000")))
	partial.AdvancePayments = paidAdvance()

	both := named("both", tenant("2024-01-01", "10000",
		record("2024-01-01", "2024-01-31", rent.StatusPartial, "10000", "7000"),
		record("2024-02-01", "2024-02-29", rent.StatusPending, "10000", "0")))
	both.AdvancePayments = paidAdvance()

	lapsed := named("lapsed", tenant("2023-01-01", "10000",
		record("2023-11-01", "2023-11-30", rent.StatusPaid, "10000", "10000")))

	inactive := named("inactive", tenant("2023-01-01", "10000",
		record("2023-01-01", "2023-01-31", rent.StatusPending, "10000", "0")))
	inactive.Active = false

	return []rent.TenantSnapshot{paid, partial, both, lapsed, inactive}
}

func newClassifier(t *testing.T) (*rent.Classifier, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	return rent.NewClassifier(rent.NewCalculator(rent.CreditSurface), logger), hook
}

// =============================================================================
// BUCKETS
// =============================================================================

func TestClassifier_Buckets(t *testing.T) {
	c, _ := newClassifier(t)
	list := portfolio()
	asOf := day("2024-02-15")

	assert.ElementsMatch(t, []string{"both", "lapsed"}, ids(c.PendingRent(list, asOf)))
	assert.ElementsMatch(t, []string{"partial", "both"}, ids(c.PartialRent(list, asOf)))
	assert.ElementsMatch(t, []string{"lapsed"}, ids(c.WithoutAdvance(list, asOf)))
	assert.ElementsMatch(t, []string{"paid"}, ids(c.PaidRent(list, asOf)))
}

func TestClassifier_DualMembership(t *testing.T) {
	// GIVEN: A tenant with a PARTIAL month and a PENDING month
	c, _ := newClassifier(t)
	s := named("both", tenant("2024-01-01", "10000",
		record("2023-12-01", "2023-12-31", rent.StatusPartial, "10000", "9000"),
		record("2024-01-01", "2024-01-31", rent.StatusPending, "10000", "0")))
	list := []rent.TenantSnapshot{s}
	asOf := day("2024-02-15")

	// THEN: It is in both buckets at once
	assert.Len(t, c.PendingRent(list, asOf), 1)
	assert.Len(t, c.PartialRent(list, asOf), 1)
	assert.Empty(t, c.PaidRent(list, asOf))
}

func TestClassifier_InactiveExcludedFromEveryBucket(t *testing.T) {
	c, _ := newClassifier(t)
	s := named("gone", tenant("2023-01-01", "10000"))
	s.Active = false
	list := []rent.TenantSnapshot{s}
	asOf := day("2024-02-15")

	for _, b := range rent.Buckets {
		got, err := c.Classify(b, list, asOf)
		require.NoError(t, err)
		assert.Empty(t, got, string(b))
	}
}

func TestClassifier_Classify(t *testing.T) {
	c, _ := newClassifier(t)

	got, err := c.Classify(rent.BucketPaid, portfolio(), day("2024-02-15"))
	require.NoError(t, err)
	assert.Equal(t, []string{"paid"}, ids(got))

	_, err = c.Classify(rent.Bucket("overdue"), portfolio(), day("2024-02-15"))
	assert.ErrorIs(t, err, generic.ErrInvalidBucket)
}

func TestParseBucket(t *testing.T) {
	b, err := rent.ParseBucket(" Without-Advance ")
	require.NoError(t, err)
	assert.Equal(t, rent.BucketWithoutAdvance, b)

	_, err = rent.ParseBucket("late")
	assert.ErrorIs(t, err, generic.ErrInvalidBucket)
	assert.True(t, generic.IsClientError(err))
}

// =============================================================================
// STATISTICS
// =============================================================================

func TestClassifier_Statistics(t *testing.T) {
	c, _ := newClassifier(t)

	stats := c.Statistics(portfolio(), day("2024-02-15"))

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Active)
	assert.Equal(t, 2, stats.WithPendingRent)
	assert.Equal(t, 2, stats.WithPartialRent)
	assert.Equal(t, 1, stats.WithPaidRent)
	assert.Equal(t, 1, stats.WithoutAdvance)
	// partial 4000 + both 13000 + lapsed 3 × 10000; inactive excluded
	assert.True(t, stats.TotalDueAmount.Equal(amt("47000")), stats.TotalDueAmount.String())
}

func TestClassifier_StatisticsEmpty(t *testing.T) {
	c, _ := newClassifier(t)

	stats := c.Statistics(nil, day("2024-02-15"))

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Active)
	assert.True(t, stats.TotalDueAmount.IsZero())
}

func TestClassifier_Evaluate(t *testing.T) {
	c, _ := newClassifier(t)
	list := portfolio()

	evs := c.Evaluate(list, day("2024-02-15"))

	require.Len(t, evs, len(list))
	assert.Equal(t, generic.TenantID("inactive"), evs[4].Snapshot.ID, "inactive tenants are evaluated too")
	assert.Equal(t, 1, evs[4].Result.PendingMonths)
	assert.True(t, evs[0].Result.IsRentPaid)
}

// =============================================================================
// ISOLATION
// =============================================================================

// panickyCalculator panics for one tenant and delegates otherwise.
type panickyCalculator struct {
	target generic.TenantID
	next   rent.Calculator
}

func (p panickyCalculator) Calculate(s rent.TenantSnapshot, asOf generic.TimePoint) rent.Result {
	if s.ID == p.target {
		panic("corrupt snapshot")
	}
	return p.next.Calculate(s, asOf)
}

func TestClassifier_PanicIsolatedPerTenant(t *testing.T) {
	// GIVEN: A calculator that blows up on one tenant
	logger, hook := logtest.NewNullLogger()
	c := rent.NewClassifier(panickyCalculator{target: "paid"}, logger)
	list := portfolio()
	asOf := day("2024-02-15")

	// WHEN: Evaluating the whole portfolio
	evs := c.Evaluate(list, asOf)

	// THEN: The batch completes and the bad tenant gets the pending fallback
	require.Len(t, evs, len(list))
	assert.True(t, evs[0].Fallback)
	assert.False(t, evs[0].Result.IsRentPaid)
	assert.Equal(t, 1, evs[0].Result.PendingMonths)
	assert.True(t, evs[0].Result.PendingDueAmount.Equal(amt("10000")))
	assert.False(t, evs[1].Fallback)

	require.NotEmpty(t, hook.AllEntries())
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, generic.TenantID("paid"), entry.Data["tenant_id"])

	// And the fallback puts the tenant in the pending bucket
	assert.Contains(t, ids(c.PendingRent(list, asOf)), "paid")
	assert.NotContains(t, ids(c.PaidRent(list, asOf)), "paid")
}

func TestClassifier_InvalidSnapshotLoggedButCalculated(t *testing.T) {
	// GIVEN: A snapshot with a reversed period and a negative rent price
	c, hook := newClassifier(t)
	s := named("odd", tenant("2024-01-01", "-5", record("2024-01-31", "2024-01-01", rent.StatusPaid, "1", "1")))

	// WHEN: Calculating
	ev := c.Calculate(s, day("2024-02-15"))

	// THEN: A warning is logged and a best-effort result returned
	assert.False(t, ev.Fallback)
	assert.Equal(t, 1, ev.Result.PendingMonths)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data["error"], "rent_price")
}

func TestNewClassifier_Defaults(t *testing.T) {
	c := rent.NewClassifier(nil, nil)

	assert.NotNil(t, c.Calculator)
	assert.NotNil(t, c.Logger)
	assert.True(t, c.Calculate(tenant("2024-02-01", "1", record("2024-02-01", "2024-02-29", rent.StatusPaid, "1", "1")), day("2024-02-15")).Result.IsRentPaid)
}
