/*
handlers.go - HTTP API handlers for the rent status engine

PURPOSE:
  Exposes the rent status engine via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to the store (data fetch)
  and the classifier (derivation).

ENDPOINTS:
  Tenants:
    GET    /api/tenants                 Evaluate all tenants
    POST   /api/tenants                 Create or replace a tenant
    GET    /api/tenants/{id}            Snapshot + derived status
    GET    /api/tenants/{id}/status     Derived status only

  Payments:
    POST   /api/tenants/{id}/payments   Add a rent payment record
    POST   /api/tenants/{id}/advances   Add an advance payment
    POST   /api/tenants/{id}/refunds    Add a refund payment

  Portfolio:
    GET    /api/buckets/{bucket}        Tenants in pending|partial|without-advance|paid
    GET    /api/statistics              Bucket counts and total due
    GET    /api/export                  XLSX workbook

AS-OF DATE:
  Every read accepts ?as_of=YYYY-MM-DD. Without it the handler reads the
  clock once per request and uses that single date for every tenant, so a
  list rendered across midnight is still consistent.

REQUEST FLOW:
  1. Resolve the as-of date
  2. Fetch snapshots from the store
  3. Run the classifier
  4. Serialize the response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Tenant not found
  - 409: Duplicate payment ID
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/rent-status/export"
	"github.com/warp/rent-status/factory"
	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      rent.Store
	Classifier *rent.Classifier
	Logger     logrus.FieldLogger

	// Today supplies the as-of date when a request doesn't pass one.
	Today func() generic.TimePoint

	scenario scenarioState
}

// NewHandler creates a new handler. A nil classifier uses the default
// credit policy; a nil logger uses logrus' standard logger.
func NewHandler(store rent.Store, classifier *rent.Classifier, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if classifier == nil {
		classifier = rent.NewClassifier(nil, logger)
	}
	return &Handler{
		Store:      store,
		Classifier: classifier,
		Logger:     logger,
		Today:      generic.Today,
	}
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants evaluates every tenant, active or not.
// GET /api/tenants
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	snapshots, err := h.Store.ListSnapshots(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list tenants", err)
		return
	}

	evs := h.Classifier.Evaluate(snapshots, asOf)
	writeJSON(w, http.StatusOK, TenantListResponse{
		AsOf:    asOf.String(),
		Count:   len(evs),
		Tenants: toTenantStatusDTOs(evs),
	})
}

// CreateTenant creates or replaces a tenant. Payments in the body are
// appended to any the tenant already has.
// POST /api/tenants
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req factory.SnapshotJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snapshot, err := factory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tenant", err)
		return
	}
	if snapshot.RentPrice.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid tenant",
			&generic.ValidationError{Field: "rent_price", Value: snapshot.RentPrice.String(), Err: generic.ErrInvalidAmount})
		return
	}
	if snapshot.ID == "" {
		snapshot.ID = generic.NewTenantID()
	}

	if err := h.Store.SaveTenant(r.Context(), snapshot); err != nil {
		h.writeStoreError(w, r, "Failed to save tenant", err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"tenant_id": snapshot.ID,
		"payments":  len(snapshot.Payments),
	}).Info("tenant saved")

	h.writeTenantDetail(w, r, http.StatusCreated, snapshot.ID)
}

// GetTenant returns the tenant's snapshot with its derived status.
// GET /api/tenants/{id}
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	h.writeTenantDetail(w, r, http.StatusOK, generic.TenantID(chi.URLParam(r, "id")))
}

// GetTenantStatus returns only the derived status.
// GET /api/tenants/{id}/status
func (h *Handler) GetTenantStatus(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	id := generic.TenantID(chi.URLParam(r, "id"))
	snapshot, err := h.Store.GetSnapshot(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "Failed to get tenant", err)
		return
	}

	ev := h.Classifier.Calculate(snapshot, asOf)
	writeJSON(w, http.StatusOK, StatusDTO{
		TenantID: string(id),
		AsOf:     asOf.String(),
		Label:    ev.Result.Label(),
		Result:   ev.Result,
	})
}

func (h *Handler) writeTenantDetail(w http.ResponseWriter, r *http.Request, status int, id generic.TenantID) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	snapshot, err := h.Store.GetSnapshot(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "Failed to get tenant", err)
		return
	}

	ev := h.Classifier.Calculate(snapshot, asOf)
	writeJSON(w, status, TenantDetailDTO{
		AsOf:           asOf.String(),
		Tenant:         factory.ToJSON(snapshot),
		Label:          ev.Result.Label(),
		CoveredThrough: coveredThrough(snapshot),
		Fallback:       ev.Fallback,
		Status:         ev.Result,
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// AddPayment appends a rent payment record and returns the new status.
// POST /api/tenants/{id}/payments
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req factory.PaymentJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := factory.PaymentFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment", err)
		return
	}

	id := generic.TenantID(chi.URLParam(r, "id"))
	if err := h.Store.AddPayment(r.Context(), id, payment); err != nil {
		h.writeStoreError(w, r, "Failed to add payment", err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"tenant_id": id,
		"status":    payment.Status,
		"period":    payment.Period.String(),
	}).Info("payment recorded")

	h.writeTenantDetail(w, r, http.StatusCreated, id)
}

// AddAdvance appends an advance payment.
// POST /api/tenants/{id}/advances
func (h *Handler) AddAdvance(w http.ResponseWriter, r *http.Request) {
	h.addAncillary(w, r, rent.KindAdvance)
}

// AddRefund appends a refund payment.
// POST /api/tenants/{id}/refunds
func (h *Handler) AddRefund(w http.ResponseWriter, r *http.Request) {
	h.addAncillary(w, r, rent.KindRefund)
}

func (h *Handler) addAncillary(w http.ResponseWriter, r *http.Request, kind rent.AncillaryKind) {
	var req factory.AncillaryJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := factory.AncillaryFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+string(kind)+" payment", err)
		return
	}

	id := generic.TenantID(chi.URLParam(r, "id"))
	if err := h.Store.AddAncillary(r.Context(), id, kind, payment); err != nil {
		h.writeStoreError(w, r, "Failed to add "+string(kind)+" payment", err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"tenant_id": id,
		"kind":      kind,
		"status":    payment.Status,
	}).Info("ancillary payment recorded")

	h.writeTenantDetail(w, r, http.StatusCreated, id)
}

// =============================================================================
// PORTFOLIO HANDLERS
// =============================================================================

// ListBucket returns the active tenants in one bucket.
// GET /api/buckets/{bucket}
func (h *Handler) ListBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := rent.ParseBucket(chi.URLParam(r, "bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown bucket", err)
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	snapshots, err := h.Store.ListSnapshots(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list tenants", err)
		return
	}

	members, err := h.Classifier.Classify(bucket, snapshots, asOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown bucket", err)
		return
	}

	evs := h.Classifier.Evaluate(members, asOf)
	writeJSON(w, http.StatusOK, BucketResponse{
		Bucket:  bucket,
		AsOf:    asOf.String(),
		Count:   len(evs),
		Tenants: toTenantStatusDTOs(evs),
	})
}

// GetStatistics returns portfolio statistics.
// GET /api/statistics
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	snapshots, err := h.Store.ListSnapshots(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list tenants", err)
		return
	}

	writeJSON(w, http.StatusOK, StatisticsResponse{
		AsOf:       asOf.String(),
		Statistics: h.Classifier.Statistics(snapshots, asOf),
	})
}

// ExportWorkbook streams an XLSX workbook of every tenant and the statistics.
// GET /api/export
func (h *Handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	snapshots, err := h.Store.ListSnapshots(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list tenants", err)
		return
	}

	// Render into memory so a failure can still become a JSON error
	var buf bytes.Buffer
	evs := h.Classifier.Evaluate(snapshots, asOf)
	if err := export.WriteWorkbook(&buf, evs, h.Classifier.Statistics(snapshots, asOf)); err != nil {
		h.writeStoreError(w, r, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="rent-status-`+asOf.String()+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.WithError(err).Warn("export write interrupted")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// asOf resolves the request's as-of date, writing a 400 on a malformed value.
func (h *Handler) asOf(w http.ResponseWriter, r *http.Request) (generic.TimePoint, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.today(), true
	}
	asOf, err := generic.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return generic.TimePoint{}, false
	}
	return asOf, true
}

func (h *Handler) today() generic.TimePoint {
	if h.Today == nil {
		return generic.Today()
	}
	return h.Today()
}

// writeStoreError maps a store or domain error onto an HTTP status.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, generic.ErrDuplicateID):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func toTenantStatusDTOs(evs []rent.Evaluation) []TenantStatusDTO {
	dtos := make([]TenantStatusDTO, len(evs))
	for i, ev := range evs {
		dtos[i] = TenantStatusDTO{
			ID:             string(ev.Snapshot.ID),
			Name:           ev.Snapshot.Name,
			Active:         ev.Snapshot.Active,
			RentPrice:      ev.Snapshot.RentPrice,
			CheckInDate:    ev.Snapshot.CheckInDate.String(),
			CoveredThrough: coveredThrough(ev.Snapshot),
			Label:          ev.Result.Label(),
			Fallback:       ev.Fallback,
			Status:         ev.Result,
		}
	}
	return dtos
}

func coveredThrough(s rent.TenantSnapshot) string {
	if last, ok := rent.LastCoveredDate(s); ok {
		return last.String()
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
