/*
Package factory converts loosely-typed JSON records into engine snapshots.

PURPOSE:
  Tenants and payments arrive from the outside world (HTTP bodies, demo
  fixtures, exports of the legacy data source) with string statuses, string
  dates and amounts that may be JSON numbers or strings. The factory turns
  them into rent.TenantSnapshot with concrete enums, so the engine never
  sees an unknown status coming through this path.

JSON SCHEMA:
  {
    "id": "t-001",
    "name": "Ana Torres",
    "check_in_date": "2024-01-01",
    "check_out_date": "2024-12-31",
    "rent_price": "10000",
    "active": true,
    "payments": [
      {"id": "p-1", "start_date": "2024-01-01", "end_date": "2024-01-31",
       "status": "paid", "expected_amount": 10000, "paid_amount": "10000"}
    ],
    "advance_payments": [{"status": "PAID", "amount": 10000}],
    "refund_payments": []
  }

RULES:
  - Statuses are case-insensitive; unknown values fail with ErrInvalidStatus
  - Dates are YYYY-MM-DD; anything else fails with ErrInvalidDate
  - Amounts may be numbers or strings; garbage fails with ErrInvalidAmount
  - "active" defaults to true when omitted
  - start_date > end_date is accepted: the engine treats it as covering nothing

SEE ALSO:
  - rent/types.go: Target types
  - api/handlers.go: Uses the factory for every write endpoint
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// =============================================================================
// JSON TYPES
// =============================================================================

// Amount is a decimal that accepts both JSON numbers and JSON strings.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

func amountOf(d decimal.Decimal) Amount { return Amount(d.String()) }

// SnapshotJSON is the wire form of a tenant snapshot.
type SnapshotJSON struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	CheckInDate     string          `json:"check_in_date,omitempty"`
	CheckOutDate    string          `json:"check_out_date,omitempty"`
	RentPrice       Amount          `json:"rent_price"`
	Active          *bool           `json:"active,omitempty"`
	Payments        []PaymentJSON   `json:"payments,omitempty"`
	AdvancePayments []AncillaryJSON `json:"advance_payments,omitempty"`
	RefundPayments  []AncillaryJSON `json:"refund_payments,omitempty"`
}

// PaymentJSON is the wire form of a rent payment record.
type PaymentJSON struct {
	ID             string `json:"id,omitempty"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	ExpectedAmount Amount `json:"expected_amount"`
	PaidAmount     Amount `json:"paid_amount"`
}

// AncillaryJSON is the wire form of an advance or refund.
type AncillaryJSON struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseSnapshot parses one tenant snapshot.
func ParseSnapshot(data []byte) (rent.TenantSnapshot, error) {
	var sj SnapshotJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return rent.TenantSnapshot{}, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return FromJSON(sj)
}

// ParseSnapshots parses a JSON array of tenant snapshots. The first invalid
// element fails the whole batch.
func ParseSnapshots(data []byte) ([]rent.TenantSnapshot, error) {
	var list []SnapshotJSON
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot list JSON: %w", err)
	}
	out := make([]rent.TenantSnapshot, 0, len(list))
	for i, sj := range list {
		s, err := FromJSON(sj)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ParsePayment parses one rent payment record.
func ParsePayment(data []byte) (rent.PaymentRecord, error) {
	var pj PaymentJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return rent.PaymentRecord{}, fmt.Errorf("failed to parse payment JSON: %w", err)
	}
	return PaymentFromJSON(pj)
}

// ParseAncillary parses one advance or refund payment.
func ParseAncillary(data []byte) (rent.AncillaryPayment, error) {
	var aj AncillaryJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return rent.AncillaryPayment{}, fmt.Errorf("failed to parse ancillary payment JSON: %w", err)
	}
	return AncillaryFromJSON(aj)
}

// FromJSON converts the wire form into a snapshot.
func FromJSON(sj SnapshotJSON) (rent.TenantSnapshot, error) {
	checkIn, err := generic.ParseDate(sj.CheckInDate)
	if err != nil {
		return rent.TenantSnapshot{}, fmt.Errorf("check_in_date: %w", err)
	}
	rentPrice, err := generic.ParseDecimal(string(sj.RentPrice))
	if err != nil {
		return rent.TenantSnapshot{}, fmt.Errorf("rent_price: %w", err)
	}

	s := rent.TenantSnapshot{
		ID:          generic.TenantID(sj.ID),
		Name:        sj.Name,
		CheckInDate: checkIn,
		RentPrice:   rentPrice,
		Active:      sj.Active == nil || *sj.Active,
	}

	if sj.CheckOutDate != "" {
		checkOut, err := generic.ParseDate(sj.CheckOutDate)
		if err != nil {
			return rent.TenantSnapshot{}, fmt.Errorf("check_out_date: %w", err)
		}
		s.CheckOutDate = &checkOut
	}

	for i, pj := range sj.Payments {
		p, err := PaymentFromJSON(pj)
		if err != nil {
			return rent.TenantSnapshot{}, fmt.Errorf("payments[%d]: %w", i, err)
		}
		s.Payments = append(s.Payments, p)
	}
	for i, aj := range sj.AdvancePayments {
		a, err := AncillaryFromJSON(aj)
		if err != nil {
			return rent.TenantSnapshot{}, fmt.Errorf("advance_payments[%d]: %w", i, err)
		}
		s.AdvancePayments = append(s.AdvancePayments, a)
	}
	for i, rj := range sj.RefundPayments {
		r, err := AncillaryFromJSON(rj)
		if err != nil {
			return rent.TenantSnapshot{}, fmt.Errorf("refund_payments[%d]: %w", i, err)
		}
		s.RefundPayments = append(s.RefundPayments, r)
	}

	return s, nil
}

func PaymentFromJSON(pj PaymentJSON) (rent.PaymentRecord, error) {
	status, err := rent.ParsePaymentStatus(pj.Status)
	if err != nil {
		return rent.PaymentRecord{}, err
	}
	start, err := generic.ParseDate(pj.StartDate)
	if err != nil {
		return rent.PaymentRecord{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := generic.ParseDate(pj.EndDate)
	if err != nil {
		return rent.PaymentRecord{}, fmt.Errorf("end_date: %w", err)
	}
	expected, err := generic.ParseDecimal(string(pj.ExpectedAmount))
	if err != nil {
		return rent.PaymentRecord{}, fmt.Errorf("expected_amount: %w", err)
	}
	paid, err := generic.ParseDecimal(string(pj.PaidAmount))
	if err != nil {
		return rent.PaymentRecord{}, fmt.Errorf("paid_amount: %w", err)
	}
	return rent.PaymentRecord{
		ID:             generic.PaymentID(pj.ID),
		Period:         generic.Period{Start: start, End: end},
		Status:         status,
		ExpectedAmount: expected,
		PaidAmount:     paid,
	}, nil
}

func AncillaryFromJSON(aj AncillaryJSON) (rent.AncillaryPayment, error) {
	status, err := rent.ParseAncillaryStatus(aj.Status)
	if err != nil {
		return rent.AncillaryPayment{}, err
	}
	amount, err := generic.ParseDecimal(string(aj.Amount))
	if err != nil {
		return rent.AncillaryPayment{}, fmt.Errorf("amount: %w", err)
	}
	return rent.AncillaryPayment{ID: generic.PaymentID(aj.ID), Status: status, Amount: amount}, nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// ToJSON converts a snapshot back to its wire form. Amounts are written as
// strings to keep their exact decimal value.
func ToJSON(s rent.TenantSnapshot) SnapshotJSON {
	active := s.Active
	sj := SnapshotJSON{
		ID:          string(s.ID),
		Name:        s.Name,
		CheckInDate: s.CheckInDate.String(),
		RentPrice:   amountOf(s.RentPrice),
		Active:      &active,
	}
	if s.CheckOutDate != nil {
		sj.CheckOutDate = s.CheckOutDate.String()
	}
	for _, p := range s.Payments {
		sj.Payments = append(sj.Payments, PaymentJSON{
			ID:             string(p.ID),
			StartDate:      p.Period.Start.String(),
			EndDate:        p.Period.End.String(),
			Status:         string(p.Status),
			ExpectedAmount: amountOf(p.ExpectedAmount),
			PaidAmount:     amountOf(p.PaidAmount),
		})
	}
	sj.AdvancePayments = ancillariesToJSON(s.AdvancePayments)
	sj.RefundPayments = ancillariesToJSON(s.RefundPayments)
	return sj
}

func ancillariesToJSON(list []rent.AncillaryPayment) []AncillaryJSON {
	var out []AncillaryJSON
	for _, a := range list {
		out = append(out, AncillaryJSON{ID: string(a.ID), Status: string(a.Status), Amount: amountOf(a.Amount)})
	}
	return out
}
