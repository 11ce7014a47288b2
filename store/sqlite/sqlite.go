/*
Package sqlite provides a SQLite-backed implementation of rent.Store.

PURPOSE:
  The data-fetch collaborator of the rent engine. It persists tenants and
  their payment records and hands back fully-joined TenantSnapshots. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

NO STATUS COLUMN:
  There is deliberately no "status", "is_paid" or "due" column anywhere.
  Status is derived by the engine on every read; storing it would let it
  drift when a payment record is edited.

KEY TABLES:
  tenants:            Identity, rent price, check-in/out, active flag
  rent_payments:      One row per billing period (PAID/PARTIAL/PENDING/FAILED)
  ancillary_payments: Advances and refunds (kind = advance | refund)

STORAGE FORMATS:
  Dates:    TEXT, YYYY-MM-DD ('' when unknown)
  Amounts:  TEXT, decimal string (no float rounding)
  Periods:  Stored as given, even when end_date < start_date

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/rent.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snapshots, err := store.ListSnapshots(ctx)

SEE ALSO:
  - rent/store.go: Interface definitions
  - rent/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// Store implements rent.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check that Store implements rent.Store
var _ rent.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		check_in_date TEXT NOT NULL DEFAULT '',
		check_out_date TEXT,
		rent_price TEXT NOT NULL DEFAULT '0',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rent_payments (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		expected_amount TEXT NOT NULL DEFAULT '0',
		paid_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	-- Snapshot assembly reads every payment of a tenant in period order
	CREATE INDEX IF NOT EXISTS idx_rent_payments_tenant_start
		ON rent_payments(tenant_id, start_date);

	CREATE TABLE IF NOT EXISTS ancillary_payments (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('advance', 'refund')),
		status TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ancillary_payments_tenant
		ON ancillary_payments(tenant_id, kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveTenant upserts the tenant row and appends any payment records carried
// on the snapshot, atomically.
func (s *Store) SaveTenant(ctx context.Context, snap rent.TenantSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == "" {
		snap.ID = generic.NewTenantID()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	var checkOut sql.NullString
	if snap.CheckOutDate != nil && !snap.CheckOutDate.IsZero() {
		checkOut = sql.NullString{String: snap.CheckOutDate.String(), Valid: true}
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO tenants (id, name, check_in_date, check_out_date, rent_price, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			check_in_date = excluded.check_in_date,
			check_out_date = excluded.check_out_date,
			rent_price = excluded.rent_price,
			active = excluded.active,
			updated_at = excluded.updated_at
	`,
		snap.ID,
		snap.Name,
		snap.CheckInDate.String(),
		checkOut,
		snap.RentPrice.String(),
		snap.Active,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}

	for _, p := range snap.Payments {
		if err := insertPayment(ctx, sqlTx, snap.ID, p); err != nil {
			return err
		}
	}
	for _, a := range snap.AdvancePayments {
		if err := insertAncillary(ctx, sqlTx, snap.ID, rent.KindAdvance, a); err != nil {
			return err
		}
	}
	for _, a := range snap.RefundPayments {
		if err := insertAncillary(ctx, sqlTx, snap.ID, rent.KindRefund, a); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// AddPayment appends a rent payment record.
func (s *Store) AddPayment(ctx context.Context, tenantID generic.TenantID, p rent.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTenant(ctx, tenantID); err != nil {
		return err
	}
	return insertPayment(ctx, s.db, tenantID, p)
}

// AddAncillary appends an advance or refund.
func (s *Store) AddAncillary(ctx context.Context, tenantID generic.TenantID, kind rent.AncillaryKind, a rent.AncillaryPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTenant(ctx, tenantID); err != nil {
		return err
	}
	return insertAncillary(ctx, s.db, tenantID, kind, a)
}

func insertPayment(ctx context.Context, db execer, tenantID generic.TenantID, p rent.PaymentRecord) error {
	if p.ID == "" {
		p.ID = generic.NewPaymentID()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO rent_payments
		(id, tenant_id, start_date, end_date, status, expected_amount, paid_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		tenantID,
		p.Period.Start.String(),
		p.Period.End.String(),
		p.Status,
		p.ExpectedAmount.String(),
		p.PaidAmount.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateID
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func insertAncillary(ctx context.Context, db execer, tenantID generic.TenantID, kind rent.AncillaryKind, a rent.AncillaryPayment) error {
	if a.ID == "" {
		a.ID = generic.NewPaymentID()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO ancillary_payments (id, tenant_id, kind, status, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		tenantID,
		kind,
		a.Status,
		a.Amount.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateID
		}
		return fmt.Errorf("failed to insert %s payment: %w", kind, err)
	}
	return nil
}

func (s *Store) requireTenant(ctx context.Context, id generic.TenantID) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("failed to look up tenant: %w", err)
	}
	if count == 0 {
		return generic.ErrTenantNotFound
	}
	return nil
}

// Reset clears all data (for testing/demos).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"ancillary_payments", "rent_payments", "tenants"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// GetSnapshot returns one tenant with payments joined.
func (s *Store) GetSnapshot(ctx context.Context, id generic.TenantID) (rent.TenantSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps, err := s.loadSnapshots(ctx, "WHERE id = ?", id)
	if err != nil {
		return rent.TenantSnapshot{}, err
	}
	if len(snaps) == 0 {
		return rent.TenantSnapshot{}, generic.ErrTenantNotFound
	}
	return snaps[0], nil
}

// ListSnapshots returns all tenants ordered by ID.
func (s *Store) ListSnapshots(ctx context.Context) ([]rent.TenantSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadSnapshots(ctx, "")
}

func (s *Store) loadSnapshots(ctx context.Context, where string, args ...any) ([]rent.TenantSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, check_in_date, check_out_date, rent_price, active
		FROM tenants `+where+`
		ORDER BY id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var (
		snaps []rent.TenantSnapshot
		index = make(map[generic.TenantID]int)
	)
	for rows.Next() {
		snap, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		index[snap.ID] = len(snaps)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return snaps, nil
	}

	if err := s.joinPayments(ctx, snaps, index); err != nil {
		return nil, err
	}
	if err := s.joinAncillaries(ctx, snaps, index); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *Store) joinPayments(ctx context.Context, snaps []rent.TenantSnapshot, index map[generic.TenantID]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, start_date, end_date, status, expected_amount, paid_amount
		FROM rent_payments
		ORDER BY tenant_id ASC, start_date ASC, created_at ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                  rent.PaymentRecord
			tenantID           generic.TenantID
			start, end, status string
			expected, paid     string
		)
		if err := rows.Scan(&p.ID, &tenantID, &start, &end, &status, &expected, &paid); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		i, ok := index[tenantID]
		if !ok {
			continue
		}
		p.Period = generic.Period{Start: parseDate(start), End: parseDate(end)}
		p.Status = rent.PaymentStatus(status)
		p.ExpectedAmount = generic.MustParseDecimal(expected)
		p.PaidAmount = generic.MustParseDecimal(paid)
		snaps[i].Payments = append(snaps[i].Payments, p)
	}
	return rows.Err()
}

func (s *Store) joinAncillaries(ctx context.Context, snaps []rent.TenantSnapshot, index map[generic.TenantID]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, kind, status, amount
		FROM ancillary_payments
		ORDER BY tenant_id ASC, created_at ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to query ancillary payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a                    rent.AncillaryPayment
			tenantID             generic.TenantID
			kind, status, amount string
		)
		if err := rows.Scan(&a.ID, &tenantID, &kind, &status, &amount); err != nil {
			return fmt.Errorf("failed to scan ancillary payment: %w", err)
		}
		i, ok := index[tenantID]
		if !ok {
			continue
		}
		a.Status = rent.AncillaryStatus(status)
		a.Amount = generic.MustParseDecimal(amount)
		if rent.AncillaryKind(kind) == rent.KindRefund {
			snaps[i].RefundPayments = append(snaps[i].RefundPayments, a)
		} else {
			snaps[i].AdvancePayments = append(snaps[i].AdvancePayments, a)
		}
	}
	return rows.Err()
}

func scanTenant(rows *sql.Rows) (rent.TenantSnapshot, error) {
	var (
		snap      rent.TenantSnapshot
		checkIn   string
		checkOut  sql.NullString
		rentPrice string
	)
	if err := rows.Scan(&snap.ID, &snap.Name, &checkIn, &checkOut, &rentPrice, &snap.Active); err != nil {
		return rent.TenantSnapshot{}, fmt.Errorf("failed to scan tenant: %w", err)
	}
	snap.CheckInDate = parseDate(checkIn)
	if checkOut.Valid && checkOut.String != "" {
		out := parseDate(checkOut.String)
		snap.CheckOutDate = &out
	}
	snap.RentPrice = generic.MustParseDecimal(rentPrice)
	return snap, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// parseDate tolerates bad stored dates; the engine treats zero dates as unknown.
func parseDate(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
