/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request bodies reuse
  the factory wire types (factory.SnapshotJSON, factory.PaymentJSON,
  factory.AncillaryJSON) so the HTTP contract and the JSON boundary never
  drift apart. Responses wrap the engine's rent.Result, whose snake_case
  field names are a stable contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - factory/snapshot.go: Wire types for tenants and payments
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/rent-status/factory"
	"github.com/warp/rent-status/rent"
)

// =============================================================================
// TENANTS
// =============================================================================

// TenantStatusDTO is one row of a tenant list: identity plus derived status.
type TenantStatusDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Active         bool            `json:"active"`
	RentPrice      decimal.Decimal `json:"rent_price"`
	CheckInDate    string          `json:"check_in_date,omitempty"`
	CoveredThrough string          `json:"covered_through,omitempty"`
	Label          rent.Label      `json:"label"`
	Fallback       bool            `json:"fallback,omitempty"`
	Status         rent.Result     `json:"status"`
}

// TenantListResponse is returned by GET /api/tenants.
type TenantListResponse struct {
	AsOf    string            `json:"as_of"`
	Count   int               `json:"count"`
	Tenants []TenantStatusDTO `json:"tenants"`
}

// TenantDetailDTO is the full snapshot with its derived status.
type TenantDetailDTO struct {
	AsOf           string               `json:"as_of"`
	Tenant         factory.SnapshotJSON `json:"tenant"`
	Label          rent.Label           `json:"label"`
	CoveredThrough string               `json:"covered_through,omitempty"`
	Fallback       bool                 `json:"fallback,omitempty"`
	Status         rent.Result          `json:"status"`
}

// StatusDTO is the bare result for one tenant.
type StatusDTO struct {
	TenantID string     `json:"tenant_id"`
	AsOf     string     `json:"as_of"`
	Label    rent.Label `json:"label"`
	rent.Result
}

// =============================================================================
// BUCKETS & STATISTICS
// =============================================================================

type BucketResponse struct {
	Bucket  rent.Bucket       `json:"bucket"`
	AsOf    string            `json:"as_of"`
	Count   int               `json:"count"`
	Tenants []TenantStatusDTO `json:"tenants"`
}

type StatisticsResponse struct {
	AsOf string `json:"as_of"`
	rent.Statistics
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type LoadScenarioResponse struct {
	Status   string `json:"status"`
	Scenario string `json:"scenario"`
	Tenants  int    `json:"tenants"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
