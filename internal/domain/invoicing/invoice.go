// Package invoicing holds the clinic's billing ledger: the Invoice aggregate
// with its line items and lifecycle state machine, the immutable Payment
// record, and the line-item calculator. All monetary values are stored
// rounded to the invoice currency's smallest unit.
package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetclinic/backend/internal/domain/identity"
	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
)

// InvoiceItem is one line of an invoice. Items are owned by the aggregate and
// always replaced as a whole set, never patched individually.
type InvoiceItem struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	ServiceID       *uuid.UUID      `json:"service_id,omitempty"`
	ProductID       *uuid.UUID      `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Invoice is the aggregate root of the billing ledger. The stored totals
// always satisfy amount_due = total − amount_paid and 0 ≤ amount_paid ≤ total.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string               `json:"invoice_number"`
	PetID         uuid.UUID            `json:"pet_id"`
	OwnerID       uuid.UUID            `json:"owner_id"`
	Currency      valueobject.Currency `json:"currency"`
	Items         []InvoiceItem        `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	TaxRate       decimal.Decimal      `json:"tax_rate"`
	TaxAmount     decimal.Decimal      `json:"tax_amount"`
	Total         decimal.Decimal      `json:"total"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	AmountDue     decimal.Decimal      `json:"amount_due"`
	Status        InvoiceStatus        `json:"status"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	SentAt        *time.Time           `json:"sent_at,omitempty"`
	SentBy        *uuid.UUID           `json:"sent_by,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	VoidedAt      *time.Time           `json:"voided_at,omitempty"`
	VoidedBy      *uuid.UUID           `json:"voided_by,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	CancelledBy   *uuid.UUID           `json:"cancelled_by,omitempty"`
}

// NewInvoice creates a draft invoice with computed totals.
// The owner must already be resolved from the pet by the caller.
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	petID uuid.UUID,
	ownerID uuid.UUID,
	currency valueobject.Currency,
	drafts []ItemDraft,
	taxRate decimal.Decimal,
	dueDate *time.Time,
	notes string,
	createdBy uuid.UUID,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice number cannot be empty")
	}
	if petID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Pet ID cannot be empty")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Owner ID cannot be empty")
	}

	lineTotals, totals, err := CalculateTotals(drafts, taxRate, currency)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		InvoiceNumber:       invoiceNumber,
		PetID:               petID,
		OwnerID:             ownerID,
		Currency:            currency,
		Subtotal:            totals.Subtotal,
		TaxRate:             taxRate,
		TaxAmount:           totals.TaxAmount,
		Total:               totals.Total,
		AmountPaid:          decimal.Zero,
		AmountDue:           totals.Total,
		Status:              InvoiceStatusDraft,
		DueDate:             dueDate,
		Notes:               notes,
	}
	inv.Items = buildItems(inv.ID, drafts, lineTotals)

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

func buildItems(invoiceID uuid.UUID, drafts []ItemDraft, lineTotals []decimal.Decimal) []InvoiceItem {
	items := make([]InvoiceItem, 0, len(drafts))
	for i, d := range drafts {
		items = append(items, InvoiceItem{
			ID:              uuid.New(),
			InvoiceID:       invoiceID,
			ServiceID:       d.ServiceID,
			ProductID:       d.ProductID,
			Description:     d.Description,
			Quantity:        d.Quantity,
			UnitPrice:       d.UnitPrice,
			DiscountPercent: d.DiscountPercent,
			LineTotal:       lineTotals[i],
		})
	}
	return items
}

// CanModify returns true if header fields and items may still be edited
func (inv *Invoice) CanModify() bool {
	return inv.Status.CanModify()
}

// Replace re-derives the whole editable surface of a draft invoice: pet,
// owner, items, tax rate, due date and notes, with totals recomputed from
// scratch. Items are replaced wholesale so totals and lines never drift apart.
func (inv *Invoice) Replace(petID, ownerID uuid.UUID, drafts []ItemDraft, taxRate decimal.Decimal, dueDate *time.Time, notes string) error {
	if !inv.CanModify() {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Invoice %s cannot be modified in %s status", inv.InvoiceNumber, inv.Status))
	}
	if petID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Pet ID cannot be empty")
	}
	if ownerID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Owner ID cannot be empty")
	}

	lineTotals, totals, err := CalculateTotals(drafts, taxRate, inv.Currency)
	if err != nil {
		return err
	}

	inv.PetID = petID
	inv.OwnerID = ownerID
	inv.Items = buildItems(inv.ID, drafts, lineTotals)
	inv.Subtotal = totals.Subtotal
	inv.TaxRate = taxRate
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	inv.AmountDue = totals.Total.Sub(inv.AmountPaid)
	inv.DueDate = dueDate
	inv.Notes = notes
	inv.UpdatedAt = time.Now()

	return nil
}

// ChangeStatus applies an explicit lifecycle transition through the
// transition table. Cancellation and payment stamps are recorded when the
// target calls for them. Void is not reachable here; use Void.
func (inv *Invoice) ChangeStatus(target InvoiceStatus, actorID uuid.UUID) error {
	if !target.IsValid() || target == InvoiceStatusVoid {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Status %q is not a valid transition target", target))
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Invoice %s cannot transition from %s to %s", inv.InvoiceNumber, inv.Status, target))
	}

	now := time.Now()
	inv.Status = target
	switch target {
	case InvoiceStatusSent:
		inv.stampSent(actorID, now)
	case InvoiceStatusPaid:
		inv.PaidAt = &now
	case InvoiceStatusCancelled:
		inv.CancelledAt = &now
		inv.CancelledBy = &actorID
		inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))
	}
	inv.UpdatedAt = now

	return nil
}

// MarkSent transitions draft→sent and stamps sent_at/sent_by once. Invoices
// already past draft (sent, partial, overdue) are accepted without restamping
// so Send stays idempotent; terminal states are rejected.
func (inv *Invoice) MarkSent(actorID uuid.UUID) error {
	switch inv.Status {
	case InvoiceStatusDraft:
		now := time.Now()
		inv.Status = InvoiceStatusSent
		inv.stampSent(actorID, now)
		inv.UpdatedAt = now
		return nil
	case InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue:
		return nil
	default:
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Invoice %s cannot be sent in %s status", inv.InvoiceNumber, inv.Status))
	}
}

func (inv *Invoice) stampSent(actorID uuid.UUID, at time.Time) {
	if inv.SentAt == nil {
		inv.SentAt = &at
		inv.SentBy = &actorID
		inv.AddDomainEvent(NewInvoiceSentEvent(inv))
	}
}

// ApplyPayment records money received against the invoice and moves the
// balance. The caller must hold the invoice row locked for the duration;
// this method only enforces the business rules of the critical section.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, method PaymentMethod, referenceNumber, notes string, receivedBy uuid.UUID) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	// The payment row and amount_paid must carry the same value, so amounts
	// below the currency's smallest unit are rejected rather than rounded away
	if !valueobject.MustNewMoney(amount, inv.Currency).RoundCurrency().Amount().Equal(amount) {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Payment amount %s is not representable in %s", amount, inv.Currency))
	}
	if !inv.Status.CanReceivePayment() {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Invoice %s has been %s and cannot receive payments", inv.InvoiceNumber, inv.Status))
	}
	if inv.AmountDue.IsZero() {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Invoice %s is already fully paid", inv.InvoiceNumber))
	}
	if amount.GreaterThan(inv.AmountDue) {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Payment amount %s exceeds balance due %s", amount, inv.AmountDue))
	}

	payment, err := NewPayment(inv.TenantID, inv.ID, amount, method, referenceNumber, notes, receivedBy)
	if err != nil {
		return nil, err
	}

	money := valueobject.MustNewMoney(inv.AmountPaid.Add(amount), inv.Currency).RoundCurrency()
	inv.AmountPaid = money.Amount()
	inv.AmountDue = inv.Total.Sub(inv.AmountPaid)

	now := time.Now()
	if inv.AmountDue.IsZero() {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.Status = InvoiceStatusPartial
	}
	inv.UpdatedAt = now
	inv.AddDomainEvent(NewPaymentRecordedEvent(inv, payment))

	return payment, nil
}

// Void annuls the invoice as a privileged override outside the transition
// table. A draft is reported for hard deletion instead of being kept; any
// invoice with recorded payments requires the admin role. Paid amounts are
// never refunded here.
// The returned hardDelete flag tells the caller to physically remove the
// invoice and its items.
func (inv *Invoice) Void(actor identity.Actor, reason string) (hardDelete bool, err error) {
	if inv.Status == InvoiceStatusVoid || inv.Status == InvoiceStatusCancelled {
		return false, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Invoice %s is already %s", inv.InvoiceNumber, inv.Status))
	}
	if inv.AmountPaid.IsPositive() && !actor.Role.IsAdmin() {
		return false, shared.NewDomainError("FORBIDDEN",
			"Voiding an invoice with recorded payments requires the admin role")
	}

	// Unpaid drafts leave no trace; anything with money or history on it
	// stays on record as void
	if inv.Status == InvoiceStatusDraft && inv.AmountPaid.IsZero() {
		return true, nil
	}

	now := time.Now()
	inv.Status = InvoiceStatusVoid
	inv.VoidedAt = &now
	inv.VoidedBy = &actor.UserID
	inv.Notes = prependVoidMarker(inv.Notes, reason)
	inv.UpdatedAt = now
	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv, reason))

	return false, nil
}

func prependVoidMarker(notes, reason string) string {
	marker := "[voided]"
	if reason != "" {
		marker += " " + reason
	}
	if notes == "" {
		return marker
	}
	return marker + "\n" + notes
}

// IsOverdue reports whether the invoice carries a balance past its due date
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.DueDate == nil || inv.Status.IsTerminal() {
		return false
	}
	return inv.AmountDue.IsPositive() && now.After(*inv.DueDate)
}

// BelongsTo reports whether the given actor may read this invoice: staff see
// every invoice in their tenant, a pet owner only their own.
func (inv *Invoice) BelongsTo(actor identity.Actor) bool {
	if actor.TenantID != inv.TenantID {
		return false
	}
	if actor.Role.IsStaff() {
		return true
	}
	return actor.UserID == inv.OwnerID
}

// Summary returns a short human-readable description used in notifications
func (inv *Invoice) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s", inv.InvoiceNumber)
	if inv.DueDate != nil {
		fmt.Fprintf(&b, " due %s", inv.DueDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, ": total %s %s, balance %s %s",
		inv.Total, inv.Currency, inv.AmountDue, inv.Currency)
	return b.String()
}
