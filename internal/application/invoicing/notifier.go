package invoicing

import (
	"context"

	"github.com/vetclinic/backend/internal/domain/directory"
	"github.com/vetclinic/backend/internal/domain/invoicing"
)

// InvoiceNotifier delivers an invoice notification to the pet owner.
// Implementations are best-effort: the caller logs and swallows failures,
// they never roll back ledger state.
type InvoiceNotifier interface {
	NotifyInvoiceSent(ctx context.Context, inv *invoicing.Invoice, owner *directory.Owner, message string) error
}

// NopNotifier discards notifications. Used when no SMTP transport is configured.
type NopNotifier struct{}

// NotifyInvoiceSent does nothing
func (NopNotifier) NotifyInvoiceSent(_ context.Context, _ *invoicing.Invoice, _ *directory.Owner, _ string) error {
	return nil
}

// ViewInvalidator signals that cached views of an invoice are stale.
// Called after a successful mutation commits, outside the transaction;
// failures are logged and swallowed.
type ViewInvalidator interface {
	InvalidateInvoice(ctx context.Context, tenantID, invoiceID string) error
}

// NopInvalidator discards invalidation signals
type NopInvalidator struct{}

// InvalidateInvoice does nothing
func (NopInvalidator) InvalidateInvoice(_ context.Context, _, _ string) error {
	return nil
}
