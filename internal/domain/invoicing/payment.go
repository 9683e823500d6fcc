package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetclinic/backend/internal/domain/shared"
)

// PaymentMethod represents how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodMobile   PaymentMethod = "mobile"
	PaymentMethodOther    PaymentMethod = "other"
)

// IsValid checks if the payment method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer,
		PaymentMethodMobile, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is an immutable record of money received against an invoice.
// Payments are never updated or deleted; corrections happen as ledger
// entries of their own.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          PaymentMethod   `json:"method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ReceivedBy      uuid.UUID       `json:"received_by"`
	PaidAt          time.Time       `json:"paid_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewPayment creates a validated payment record
func NewPayment(tenantID, invoiceID uuid.UUID, amount decimal.Decimal, method PaymentMethod, referenceNumber, notes string, receivedBy uuid.UUID) (*Payment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tenant ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is not valid")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment must record who received it")
	}

	now := time.Now()
	return &Payment{
		ID:              uuid.New(),
		TenantID:        tenantID,
		InvoiceID:       invoiceID,
		Amount:          amount,
		Method:          method,
		ReferenceNumber: referenceNumber,
		Notes:           notes,
		ReceivedBy:      receivedBy,
		PaidAt:          now,
		CreatedAt:       now,
	}, nil
}
