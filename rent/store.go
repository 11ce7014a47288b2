package rent

import (
	"context"

	"github.com/warp/rent-status/generic"
)

// =============================================================================
// SOURCE - Data-fetch boundary
// =============================================================================

// Source hands fully-joined snapshots to the engine. The engine never
// queries storage itself; callers fetch, then calculate.
type Source interface {
	// ListSnapshots returns every tenant with payments and ancillaries joined.
	ListSnapshots(ctx context.Context) ([]TenantSnapshot, error)

	// GetSnapshot returns one tenant. Fails with generic.ErrTenantNotFound.
	GetSnapshot(ctx context.Context, id generic.TenantID) (TenantSnapshot, error)
}

// Store is a Source that also accepts writes from the surrounding
// application. There is no status column anywhere: writes only touch
// tenants and their payment records.
type Store interface {
	Source

	// SaveTenant inserts or replaces the tenant's identity, rent price,
	// dates and active flag. Payment lists on the snapshot are appended.
	SaveTenant(ctx context.Context, s TenantSnapshot) error

	// AddPayment appends a rent payment record to an existing tenant.
	AddPayment(ctx context.Context, tenantID generic.TenantID, p PaymentRecord) error

	// AddAncillary appends an advance or refund to an existing tenant.
	AddAncillary(ctx context.Context, tenantID generic.TenantID, kind AncillaryKind, a AncillaryPayment) error

	// Reset removes all data. Development and demo use only.
	Reset(ctx context.Context) error
}
