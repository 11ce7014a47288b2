/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built portfolios that populate the store with realistic
	tenants for demos and end-to-end tests. Each scenario exercises a
	different corner of the status engine.

AVAILABLE SCENARIOS:

	all-current:      Everyone paid through this month, advances collected
	mixed-portfolio:  One tenant per interesting case (partial, pending,
	                  lapsed coverage, over-payment, no records, inactive)
	move-ins:         Tenants without any payment records yet

DATES:

	Scenario dates are anchored on the handler's current date, so a freshly
	loaded scenario always looks the same relative to "today".

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Build tenants as factory.SnapshotJSON, exactly as a client would POST them
 3. Convert through the factory and save

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-portfolio"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Tenant and portfolio handlers
  - factory/snapshot.go: Wire format used to build the tenants
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/warp/rent-status/factory"
	"github.com/warp/rent-status/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "all-current",
		Name:        "All Current",
		Description: "Three tenants paid through the current month with advances collected",
	},
	{
		ID:          "mixed-portfolio",
		Name:        "Mixed Portfolio",
		Description: "Paid, partial, pending, lapsed, over-paid, never-paid and inactive tenants",
	},
	{
		ID:          "move-ins",
		Name:        "Move-ins",
		Description: "Tenants with no payment records: future, same-day and past check-ins",
	},
}

type scenarioState struct {
	mu      sync.RWMutex
	current string
}

func (s *scenarioState) set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
}

func (s *scenarioState) get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario.get()
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the store contents with a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tenants, ok := h.scenarioTenants(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	if err := h.loadTenants(r.Context(), tenants); err != nil {
		h.writeStoreError(w, r, "Failed to load scenario", err)
		return
	}
	h.scenario.set(req.ScenarioID)

	h.Logger.WithFields(logrus.Fields{
		"scenario": req.ScenarioID,
		"tenants":  len(tenants),
	}).Info("scenario loaded")

	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		Status:   "ok",
		Scenario: req.ScenarioID,
		Tenants:  len(tenants),
	})
}

// ResetData clears the store.
// POST /api/scenarios/reset
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeStoreError(w, r, "Failed to reset data", err)
		return
	}
	h.scenario.set("")
	h.Logger.Info("store reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) scenarioTenants(id string) ([]factory.SnapshotJSON, bool) {
	b := scenarioBuilder{today: h.today()}
	switch id {
	case "all-current":
		return b.allCurrent(), true
	case "mixed-portfolio":
		return b.mixedPortfolio(), true
	case "move-ins":
		return b.moveIns(), true
	}
	return nil, false
}

func (h *Handler) loadTenants(ctx context.Context, tenants []factory.SnapshotJSON) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	for _, tj := range tenants {
		s, err := factory.FromJSON(tj)
		if err != nil {
			return fmt.Errorf("tenant %s: %w", tj.ID, err)
		}
		if err := h.Store.SaveTenant(ctx, s); err != nil {
			return fmt.Errorf("tenant %s: %w", tj.ID, err)
		}
	}
	return nil
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

type scenarioBuilder struct {
	today generic.TimePoint
}

// month returns the calendar month offset months away from today's month.
func (b scenarioBuilder) month(offset int) generic.Period {
	start := generic.StartOfMonth(b.today.Year(), b.today.Month()).AddMonths(offset)
	return generic.MonthPeriod(start.Year(), start.Month())
}

func (b scenarioBuilder) record(offset int, status, expected, paid string) factory.PaymentJSON {
	p := b.month(offset)
	return factory.PaymentJSON{
		StartDate:      p.Start.String(),
		EndDate:        p.End.String(),
		Status:         status,
		ExpectedAmount: factory.Amount(expected),
		PaidAmount:     factory.Amount(paid),
	}
}

func (b scenarioBuilder) paid(offset int, amount string) factory.PaymentJSON {
	return b.record(offset, "PAID", amount, amount)
}

func (b scenarioBuilder) tenant(id, name, rent string, payments ...factory.PaymentJSON) factory.SnapshotJSON {
	return factory.SnapshotJSON{
		ID:          id,
		Name:        name,
		CheckInDate: b.month(-12).Start.String(),
		RentPrice:   factory.Amount(rent),
		Payments:    payments,
	}
}

func withAdvance(t factory.SnapshotJSON, status string) factory.SnapshotJSON {
	t.AdvancePayments = append(t.AdvancePayments, factory.AncillaryJSON{Status: status, Amount: t.RentPrice})
	return t
}

func (b scenarioBuilder) allCurrent() []factory.SnapshotJSON {
	return []factory.SnapshotJSON{
		withAdvance(b.tenant("t-ana", "Ana Torres", "10000", b.paid(-2, "10000"), b.paid(-1, "10000"), b.paid(0, "10000")), "PAID"),
		withAdvance(b.tenant("t-luis", "Luis Pérez", "8500", b.paid(-1, "8500"), b.paid(0, "8500")), "PAID"),
		withAdvance(b.tenant("t-mara", "Mara Díaz", "12000", b.paid(0, "12000")), "PAID"),
	}
}

func (b scenarioBuilder) mixedPortfolio() []factory.SnapshotJSON {
	newTenant := b.tenant("t-new", "New Tenant", "10000")
	newTenant.CheckInDate = b.today.AddMonths(-2).AddDays(-5).String()

	former := b.tenant("t-former", "Former Tenant", "10000", b.record(-2, "PENDING", "10000", "0"))
	former.Active = active(false)
	former.CheckOutDate = b.month(-2).End.String()

	return []factory.SnapshotJSON{
		withAdvance(b.tenant("t-paid", "Paid Tenant", "10000", b.paid(-1, "10000"), b.paid(0, "10000")), "PAID"),
		withAdvance(b.tenant("t-partial", "Partial Tenant", "10000", b.paid(-1, "10000"), b.record(0, "PARTIAL", "10000", "6000")), "PAID"),
		withAdvance(b.tenant("t-pending", "Pending Tenant", "10000", b.paid(-1, "10000"), b.record(0, "PENDING", "10000", "0")), "PAID"),
		withAdvance(b.tenant("t-lapsed", "Lapsed Tenant", "10000", b.paid(-4, "10000"), b.paid(-3, "10000")), "FAILED"),
		withAdvance(b.tenant("t-mixed", "Partial And Pending", "10000", b.record(-1, "PARTIAL", "10000", "7000"), b.record(0, "PENDING", "10000", "0")), "PAID"),
		withAdvance(b.tenant("t-overpaid", "Over-paid Tenant", "8000", b.paid(-1, "8000"), b.record(0, "PARTIAL", "8000", "8500")), "PAID"),
		newTenant,
		former,
	}
}

func (b scenarioBuilder) moveIns() []factory.SnapshotJSON {
	future := withAdvance(b.tenant("t-future", "Moving In Next Week", "9000"), "PAID")
	future.CheckInDate = b.today.AddDays(7).String()

	sameDay := withAdvance(b.tenant("t-today", "Moving In Today", "9000"), "PENDING")
	sameDay.CheckInDate = b.today.String()

	recent := b.tenant("t-recent", "Moved In Last Month", "9000")
	recent.CheckInDate = b.today.AddDays(-40).String()

	return []factory.SnapshotJSON{future, sameDay, recent}
}

func active(v bool) *bool { return &v }
