/*
classify.go - Bulk classification and portfolio statistics

PURPOSE:
  Applies the Calculator across many tenants and partitions them into the
  buckets the presentation layer filters on.

BUCKETS (not mutually exclusive):
  pending:          active && (PENDING/FAILED record || pending months > 0)
  partial:          active && is_rent_partial
  without-advance:  active && !is_advance_paid
  paid:             active && is_rent_paid

  A tenant with a PARTIAL month and a PENDING month is in both "pending"
  and "partial". Bucket counts may therefore add up to more than the number
  of active tenants.

ISOLATION:
  One bad snapshot must not abort the batch. Each tenant is calculated
  under recover(); a panicking tenant is logged and reported with a
  conservative pending result.

CONSISTENCY:
  Every function takes a single as-of date for the whole batch, so a batch
  that runs across midnight still agrees on what "today" is.

SEE ALSO:
  - status.go: Per-tenant calculation
  - api/handlers.go: Bucket and statistics endpoints
*/
package rent

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/rent-status/generic"
)

// =============================================================================
// BUCKETS
// =============================================================================

type Bucket string

const (
	BucketPending        Bucket = "pending"
	BucketPartial        Bucket = "partial"
	BucketWithoutAdvance Bucket = "without-advance"
	BucketPaid           Bucket = "paid"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketPending, BucketPartial, BucketWithoutAdvance, BucketPaid}

func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Buckets {
		if b == known {
			return b, nil
		}
	}
	return "", &generic.ValidationError{Field: "bucket", Value: s, Err: generic.ErrInvalidBucket}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// StatusCalculator derives one tenant's Result. *Calculator is the
// production implementation.
type StatusCalculator interface {
	Calculate(s TenantSnapshot, asOf generic.TimePoint) Result
}

// Classifier runs the calculator over lists of tenants. It holds no state
// between calls and is safe for concurrent use.
type Classifier struct {
	Calculator StatusCalculator
	Logger     logrus.FieldLogger
}

// NewClassifier returns a classifier. A nil calculator uses CreditSurface; a
// nil logger logs to logrus' standard logger.
func NewClassifier(calc StatusCalculator, logger logrus.FieldLogger) *Classifier {
	if calc == nil {
		calc = &Calculator{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Classifier{Calculator: calc, Logger: logger}
}

// Evaluation pairs a snapshot with its derived result.
type Evaluation struct {
	Snapshot TenantSnapshot
	Result   Result
	// Fallback is set when the calculation failed and Result is the
	// conservative pending default.
	Fallback bool
}

// Statistics summarizes a portfolio.
type Statistics struct {
	Total           int             `json:"total"`
	Active          int             `json:"active"`
	WithPendingRent int             `json:"with_pending_rent"`
	WithPartialRent int             `json:"with_partial_rent"`
	WithPaidRent    int             `json:"with_paid_rent"`
	WithoutAdvance  int             `json:"without_advance"`
	TotalDueAmount  decimal.Decimal `json:"total_due_amount"`
}

// Calculate computes one tenant's status with failure isolation. Validation
// problems are logged here; the bucket filters skip that step to avoid
// logging the same tenant once per bucket.
func (c *Classifier) Calculate(s TenantSnapshot, asOf generic.TimePoint) Evaluation {
	if err := s.Validate(); err != nil {
		c.logger().WithFields(logrus.Fields{
			"tenant_id": s.ID,
			"error":     err.Error(),
		}).Warn("tenant snapshot failed validation, calculating best effort")
	}
	return c.calculateSafe(s, asOf)
}

func (c *Classifier) calculateSafe(s TenantSnapshot, asOf generic.TimePoint) (ev Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().WithFields(logrus.Fields{
				"tenant_id": s.ID,
				"error":     fmt.Sprint(r),
			}).Error("rent status calculation failed, using pending fallback")
			ev = Evaluation{Snapshot: s, Result: fallbackResult(s), Fallback: true}
		}
	}()
	return Evaluation{Snapshot: s, Result: c.calculator().Calculate(s, asOf)}
}

// fallbackResult marks a tenant as owing one month of rent.
func fallbackResult(s TenantSnapshot) Result {
	return Result{
		RentDueAmount:    s.RentPrice,
		PartialDueAmount: decimal.Zero,
		PendingDueAmount: s.RentPrice,
		PendingMonths:    1,
	}
}

// Evaluate calculates every tenant in the list, active or not.
func (c *Classifier) Evaluate(list []TenantSnapshot, asOf generic.TimePoint) []Evaluation {
	out := make([]Evaluation, len(list))
	for i, s := range list {
		out[i] = c.Calculate(s, asOf)
	}
	return out
}

// PendingRent returns active tenants with an explicit PENDING/FAILED record
// or at least one pending month.
func (c *Classifier) PendingRent(list []TenantSnapshot, asOf generic.TimePoint) []TenantSnapshot {
	return c.filter(list, asOf, func(ev Evaluation) bool {
		return HasOutstandingRecord(ev.Snapshot) || ev.Result.PendingMonths > 0
	})
}

// PartialRent returns active tenants with at least one PARTIAL record.
func (c *Classifier) PartialRent(list []TenantSnapshot, asOf generic.TimePoint) []TenantSnapshot {
	return c.filter(list, asOf, func(ev Evaluation) bool { return ev.Result.IsRentPartial })
}

// WithoutAdvance returns active tenants with no PAID advance.
func (c *Classifier) WithoutAdvance(list []TenantSnapshot, asOf generic.TimePoint) []TenantSnapshot {
	return c.filter(list, asOf, func(ev Evaluation) bool { return !ev.Result.IsAdvancePaid })
}

// PaidRent returns active tenants who are fully current.
func (c *Classifier) PaidRent(list []TenantSnapshot, asOf generic.TimePoint) []TenantSnapshot {
	return c.filter(list, asOf, func(ev Evaluation) bool { return ev.Result.IsRentPaid })
}

// Classify dispatches to the bucket's filter.
func (c *Classifier) Classify(bucket Bucket, list []TenantSnapshot, asOf generic.TimePoint) ([]TenantSnapshot, error) {
	switch bucket {
	case BucketPending:
		return c.PendingRent(list, asOf), nil
	case BucketPartial:
		return c.PartialRent(list, asOf), nil
	case BucketWithoutAdvance:
		return c.WithoutAdvance(list, asOf), nil
	case BucketPaid:
		return c.PaidRent(list, asOf), nil
	}
	return nil, &generic.ValidationError{Field: "bucket", Value: string(bucket), Err: generic.ErrInvalidBucket}
}

// Statistics aggregates the portfolio. Each bucket count comes from running
// that bucket's filter again, since buckets overlap.
func (c *Classifier) Statistics(list []TenantSnapshot, asOf generic.TimePoint) Statistics {
	stats := Statistics{
		Total:           len(list),
		WithPendingRent: len(c.PendingRent(list, asOf)),
		WithPartialRent: len(c.PartialRent(list, asOf)),
		WithPaidRent:    len(c.PaidRent(list, asOf)),
		WithoutAdvance:  len(c.WithoutAdvance(list, asOf)),
		TotalDueAmount:  decimal.Zero,
	}
	for _, s := range list {
		if !s.Active {
			continue
		}
		stats.Active++
		stats.TotalDueAmount = stats.TotalDueAmount.Add(c.calculateSafe(s, asOf).Result.RentDueAmount)
	}
	return stats
}

func (c *Classifier) filter(list []TenantSnapshot, asOf generic.TimePoint, keep func(Evaluation) bool) []TenantSnapshot {
	var out []TenantSnapshot
	for _, s := range list {
		if !s.Active {
			continue
		}
		if keep(c.calculateSafe(s, asOf)) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Classifier) calculator() StatusCalculator {
	if c.Calculator == nil {
		return &Calculator{}
	}
	return c.Calculator
}

func (c *Classifier) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
