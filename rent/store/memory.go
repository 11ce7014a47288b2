// Package store provides rent.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	tenants map[generic.TenantID]*rent.TenantSnapshot
	ids     map[generic.PaymentID]bool
}

// Compile-time check that Memory implements rent.Store
var _ rent.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		tenants: make(map[generic.TenantID]*rent.TenantSnapshot),
		ids:     make(map[generic.PaymentID]bool),
	}
}

// SaveTenant upserts the tenant. Payment lists carried on the snapshot are
// appended to whatever the tenant already has.
func (m *Memory) SaveTenant(_ context.Context, s rent.TenantSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = generic.NewTenantID()
	}

	// Check every supplied ID before writing anything
	seen := make(map[generic.PaymentID]bool)
	for _, id := range suppliedIDs(s) {
		if m.ids[id] || seen[id] {
			return generic.ErrDuplicateID
		}
		seen[id] = true
	}

	existing, ok := m.tenants[s.ID]
	stored := rent.TenantSnapshot{
		ID:           s.ID,
		Name:         s.Name,
		CheckInDate:  s.CheckInDate,
		CheckOutDate: s.CheckOutDate,
		RentPrice:    s.RentPrice,
		Active:       s.Active,
	}
	if ok {
		stored.Payments = existing.Payments
		stored.AdvancePayments = existing.AdvancePayments
		stored.RefundPayments = existing.RefundPayments
	}

	for _, p := range s.Payments {
		if err := m.claimLocked(&p.ID); err != nil {
			return err
		}
		stored.Payments = append(stored.Payments, p)
	}
	for _, a := range s.AdvancePayments {
		if err := m.claimLocked(&a.ID); err != nil {
			return err
		}
		stored.AdvancePayments = append(stored.AdvancePayments, a)
	}
	for _, r := range s.RefundPayments {
		if err := m.claimLocked(&r.ID); err != nil {
			return err
		}
		stored.RefundPayments = append(stored.RefundPayments, r)
	}

	m.tenants[s.ID] = &stored
	return nil
}

func (m *Memory) AddPayment(_ context.Context, tenantID generic.TenantID, p rent.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tenants[tenantID]
	if !ok {
		return generic.ErrTenantNotFound
	}
	if err := m.claimLocked(&p.ID); err != nil {
		return err
	}
	t.Payments = append(t.Payments, p)
	return nil
}

func (m *Memory) AddAncillary(_ context.Context, tenantID generic.TenantID, kind rent.AncillaryKind, a rent.AncillaryPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tenants[tenantID]
	if !ok {
		return generic.ErrTenantNotFound
	}
	if err := m.claimLocked(&a.ID); err != nil {
		return err
	}
	switch kind {
	case rent.KindRefund:
		t.RefundPayments = append(t.RefundPayments, a)
	default:
		t.AdvancePayments = append(t.AdvancePayments, a)
	}
	return nil
}

func suppliedIDs(s rent.TenantSnapshot) []generic.PaymentID {
	var ids []generic.PaymentID
	for _, p := range s.Payments {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	for _, a := range append(append([]rent.AncillaryPayment(nil), s.AdvancePayments...), s.RefundPayments...) {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// claimLocked assigns an ID if missing and rejects duplicates.
func (m *Memory) claimLocked(id *generic.PaymentID) error {
	if *id == "" {
		*id = generic.NewPaymentID()
	}
	if m.ids[*id] {
		return generic.ErrDuplicateID
	}
	m.ids[*id] = true
	return nil
}

func (m *Memory) GetSnapshot(_ context.Context, id generic.TenantID) (rent.TenantSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[id]
	if !ok {
		return rent.TenantSnapshot{}, generic.ErrTenantNotFound
	}
	return cloneSnapshot(t), nil
}

// ListSnapshots returns tenants ordered by ID.
func (m *Memory) ListSnapshots(_ context.Context) ([]rent.TenantSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rent.TenantSnapshot, 0, len(m.tenants))
	for _, t := range m.tenants {
		result = append(result, cloneSnapshot(t))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants = make(map[generic.TenantID]*rent.TenantSnapshot)
	m.ids = make(map[generic.PaymentID]bool)
	return nil
}

// cloneSnapshot copies the slices so callers can't mutate stored state.
func cloneSnapshot(t *rent.TenantSnapshot) rent.TenantSnapshot {
	c := *t
	c.Payments = append([]rent.PaymentRecord(nil), t.Payments...)
	c.AdvancePayments = append([]rent.AncillaryPayment(nil), t.AdvancePayments...)
	c.RefundPayments = append([]rent.AncillaryPayment(nil), t.RefundPayments...)
	if t.CheckOutDate != nil {
		out := *t.CheckOutDate
		c.CheckOutDate = &out
	}
	return c
}
