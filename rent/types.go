// Package rent derives a tenant's rent-payment status from an immutable
// snapshot of their payment history. Nothing here stores a status: every
// Result is recomputed from a TenantSnapshot and an explicit as-of date.
package rent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-status/generic"
)

// =============================================================================
// STATUSES
// =============================================================================

// PaymentStatus is the state of one rent billing period.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusPending PaymentStatus = "PENDING"
	StatusFailed  PaymentStatus = "FAILED"
)

// ParsePaymentStatus accepts any letter case.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", &generic.ValidationError{Field: "status", Value: s, Err: generic.ErrInvalidStatus}
	}
	return st, nil
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusPending, StatusFailed:
		return true
	}
	return false
}

// Outstanding reports whether the status represents an owed, unpaid month.
func (s PaymentStatus) Outstanding() bool {
	return s == StatusPending || s == StatusFailed
}

// AncillaryStatus is the state of an advance or refund payment.
type AncillaryStatus string

const (
	AncillaryPaid    AncillaryStatus = "PAID"
	AncillaryPending AncillaryStatus = "PENDING"
	AncillaryFailed  AncillaryStatus = "FAILED"
)

func ParseAncillaryStatus(s string) (AncillaryStatus, error) {
	st := AncillaryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", &generic.ValidationError{Field: "status", Value: s, Err: generic.ErrInvalidStatus}
	}
	return st, nil
}

func (s AncillaryStatus) Valid() bool {
	switch s {
	case AncillaryPaid, AncillaryPending, AncillaryFailed:
		return true
	}
	return false
}

// AncillaryKind tells advances and refunds apart in storage.
type AncillaryKind string

const (
	KindAdvance AncillaryKind = "advance"
	KindRefund  AncillaryKind = "refund"
)

// =============================================================================
// RECORDS
// =============================================================================

// PaymentRecord is one billing period's rent obligation.
type PaymentRecord struct {
	ID             generic.PaymentID
	Period         generic.Period
	Status         PaymentStatus
	ExpectedAmount decimal.Decimal
	PaidAmount     decimal.Decimal
}

// Covers reports whether the record's interval contains the date.
// Malformed intervals cover nothing.
func (p PaymentRecord) Covers(day generic.TimePoint) bool {
	return p.Period.Contains(day)
}

// Shortfall is expected minus paid. Negative means the tenant over-paid.
func (p PaymentRecord) Shortfall() decimal.Decimal {
	return p.ExpectedAmount.Sub(p.PaidAmount)
}

// AncillaryPayment is an advance (deposit) or a refund.
type AncillaryPayment struct {
	ID     generic.PaymentID
	Status AncillaryStatus
	Amount decimal.Decimal
}

// TenantSnapshot is everything the engine needs to classify one tenant.
// Callers build a fresh snapshot per calculation; the engine only reads it.
type TenantSnapshot struct {
	ID              generic.TenantID
	Name            string
	CheckInDate     generic.TimePoint
	CheckOutDate    *generic.TimePoint
	RentPrice       decimal.Decimal
	Payments        []PaymentRecord
	AdvancePayments []AncillaryPayment
	RefundPayments  []AncillaryPayment
	Active          bool
}

// Validate reports every problem with the snapshot. The engine still
// calculates invalid snapshots; callers use this for logging and for
// rejecting writes.
func (s TenantSnapshot) Validate() error {
	var errs []error
	if s.RentPrice.IsNegative() {
		errs = append(errs, &generic.ValidationError{Field: "rent_price", Value: s.RentPrice.String(), Err: generic.ErrInvalidAmount})
	}
	for i, p := range s.Payments {
		if !p.Status.Valid() {
			errs = append(errs, fmt.Errorf("payments[%d]: %w", i,
				&generic.ValidationError{Field: "status", Value: string(p.Status), Err: generic.ErrInvalidStatus}))
		}
		if !p.Period.IsValid() {
			errs = append(errs, fmt.Errorf("payments[%d]: %w", i,
				&generic.ValidationError{Field: "period", Value: p.Period.String(), Err: generic.ErrInvalidPeriod}))
		}
	}
	for i, a := range s.AdvancePayments {
		if !a.Status.Valid() {
			errs = append(errs, fmt.Errorf("advance_payments[%d]: %w", i,
				&generic.ValidationError{Field: "status", Value: string(a.Status), Err: generic.ErrInvalidStatus}))
		}
	}
	for i, r := range s.RefundPayments {
		if !r.Status.Valid() {
			errs = append(errs, fmt.Errorf("refund_payments[%d]: %w", i,
				&generic.ValidationError{Field: "status", Value: string(r.Status), Err: generic.ErrInvalidStatus}))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// RESULT - Derived, never stored
// =============================================================================

// Result is the derived rent status of one tenant. The JSON names are a
// stable contract shared by the summary counters and the detail views.
type Result struct {
	IsRentPaid       bool            `json:"is_rent_paid"`
	IsRentPartial    bool            `json:"is_rent_partial"`
	RentDueAmount    decimal.Decimal `json:"rent_due_amount"`
	PartialDueAmount decimal.Decimal `json:"partial_due_amount"`
	PendingDueAmount decimal.Decimal `json:"pending_due_amount"`
	IsAdvancePaid    bool            `json:"is_advance_paid"`
	IsRefundPaid     bool            `json:"is_refund_paid"`
	PendingMonths    int             `json:"pending_months"`
}

// Label is the single display status for badges and filters.
type Label string

const (
	LabelPaid    Label = "paid"
	LabelPartial Label = "partial"
	LabelPending Label = "pending"
)

// Label collapses the result into one display status. Paid wins, then
// partial; everything else is pending.
func (r Result) Label() Label {
	switch {
	case r.IsRentPaid:
		return LabelPaid
	case r.IsRentPartial:
		return LabelPartial
	default:
		return LabelPending
	}
}
