package invoicing

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"     // Editable, not yet presented to the owner
	InvoiceStatusSent      InvoiceStatus = "sent"      // Presented, awaiting payment
	InvoiceStatusPartial   InvoiceStatus = "partial"   // Partially paid, balance outstanding
	InvoiceStatusOverdue   InvoiceStatus = "overdue"   // Past due date with a balance outstanding
	InvoiceStatusPaid      InvoiceStatus = "paid"      // Fully settled
	InvoiceStatusCancelled InvoiceStatus = "cancelled" // Abandoned before settlement
	InvoiceStatusVoid      InvoiceStatus = "void"      // Annulled after issue; kept for audit
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial,
		InvoiceStatusOverdue, InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible from this status.
// Void is reachable from any non-terminal status but only through the void
// workflow, never through the transition table.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled || s == InvoiceStatusVoid
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusPartial ||
			target == InvoiceStatusOverdue || target == InvoiceStatusCancelled
	case InvoiceStatusPartial:
		return target == InvoiceStatusPaid || target == InvoiceStatusOverdue ||
			target == InvoiceStatusCancelled
	case InvoiceStatusOverdue:
		return target == InvoiceStatusPaid || target == InvoiceStatusPartial ||
			target == InvoiceStatusCancelled
	}
	return false
}

// CanReceivePayment returns true unless the invoice has been voided or
// cancelled. A fully paid invoice is rejected by the balance check instead,
// and the payment path sets the resulting status directly from the balance
// rather than going through CanTransitionTo.
func (s InvoiceStatus) CanReceivePayment() bool {
	return s != InvoiceStatusVoid && s != InvoiceStatusCancelled
}

// CanModify returns true if line items and header fields may still be edited
func (s InvoiceStatus) CanModify() bool {
	return s == InvoiceStatusDraft
}
