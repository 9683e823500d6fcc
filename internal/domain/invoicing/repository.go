package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vetclinic/backend/internal/domain/shared"
)

// InvoiceFilter narrows invoice listings. Zero values mean "no filter".
type InvoiceFilter struct {
	shared.Filter
	Status   *InvoiceStatus
	PetID    *uuid.UUID
	OwnerID  *uuid.UUID
	FromDate *time.Time
	ToDate   *time.Time
}

// InvoiceRepository persists the Invoice aggregate. Every query is scoped to
// a tenant; there is no cross-tenant access path.
type InvoiceRepository interface {
	// Create persists the invoice and all its items in one transaction.
	// An invoice is never stored without its items.
	Create(ctx context.Context, inv *Invoice) error

	// Update persists the invoice header and replaces its items wholesale
	// (delete-then-insert) in one transaction, with an optimistic version
	// check on the header row.
	Update(ctx context.Context, inv *Invoice) error

	// UpdateHeader persists only the invoice header row, leaving items
	// untouched. Used by status changes and the payment path.
	UpdateHeader(ctx context.Context, inv *Invoice) error

	// DeleteWithItems hard-deletes the invoice and its items together.
	// Only valid for drafts being voided.
	DeleteWithItems(ctx context.Context, tenantID, invoiceID uuid.UUID) error

	// FindByIDForTenant loads the invoice with its items, or shared.ErrNotFound
	FindByIDForTenant(ctx context.Context, tenantID, invoiceID uuid.UUID) (*Invoice, error)

	// FindByIDForTenantLocked loads the invoice with its row locked FOR
	// UPDATE. Callers must be inside a transaction scope; the lock is held
	// until that transaction ends.
	FindByIDForTenantLocked(ctx context.Context, tenantID, invoiceID uuid.UUID) (*Invoice, error)

	// FindByNumberForTenant loads an invoice by its display number
	FindByNumberForTenant(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindAllForTenant lists invoices (without items) matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// CountForTenant counts invoices matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)

	// NextInvoiceNumber atomically allocates the next tenant-scoped invoice
	// number (INV-YYYYMMDD-NNNNN). Concurrent callers never receive the same
	// number.
	NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error)
}

// PaymentRepository persists immutable payment records
type PaymentRepository interface {
	// Save inserts a new payment. Payments are append-only.
	Save(ctx context.Context, p *Payment) error

	// FindByInvoiceForTenant lists payments of one invoice, oldest first
	FindByInvoiceForTenant(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)

	// ExistsByReference reports whether a payment with the given client
	// reference was already recorded for the invoice. Used to reject
	// duplicate submissions.
	ExistsByReference(ctx context.Context, tenantID, invoiceID uuid.UUID, referenceNumber string) (bool, error)
}
