package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared"
)

// ItemInput describes one invoice line as supplied by the caller
type ItemInput struct {
	ServiceID       *uuid.UUID      `json:"service_id,omitempty"`
	ProductID       *uuid.UUID      `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func toItemDrafts(inputs []ItemInput) []invoicing.ItemDraft {
	drafts := make([]invoicing.ItemDraft, 0, len(inputs))
	for _, in := range inputs {
		drafts = append(drafts, invoicing.ItemDraft{
			ServiceID:       in.ServiceID,
			ProductID:       in.ProductID,
			Description:     in.Description,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
		})
	}
	return drafts
}

// CreateInvoiceInput carries everything needed to create a draft invoice.
// TaxRate and DueDate fall back to configured defaults when nil.
type CreateInvoiceInput struct {
	PetID   uuid.UUID        `json:"pet_id"`
	Items   []ItemInput      `json:"items"`
	TaxRate *decimal.Decimal `json:"tax_rate,omitempty"`
	DueDate *time.Time       `json:"due_date,omitempty"`
	Notes   string           `json:"notes,omitempty"`
}

// UpdateInvoiceInput replaces the whole editable surface of a draft invoice
type UpdateInvoiceInput struct {
	PetID   uuid.UUID        `json:"pet_id"`
	Items   []ItemInput      `json:"items"`
	TaxRate *decimal.Decimal `json:"tax_rate,omitempty"`
	DueDate *time.Time       `json:"due_date,omitempty"`
	Notes   string           `json:"notes,omitempty"`
}

// SendInvoiceInput controls the Send operation
type SendInvoiceInput struct {
	NotifyEmail bool   `json:"notify_email"`
	Message     string `json:"message,omitempty"`
}

// RecordPaymentInput carries one payment submission
type RecordPaymentInput struct {
	Amount          decimal.Decimal         `json:"amount"`
	Method          invoicing.PaymentMethod `json:"method"`
	ReferenceNumber string                  `json:"reference_number,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
}

// ListInvoicesInput narrows and paginates invoice listings
type ListInvoicesInput struct {
	Status   *invoicing.InvoiceStatus
	PetID    *uuid.UUID
	OwnerID  *uuid.UUID
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	PageSize int
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ServiceID       *uuid.UUID      `json:"service_id,omitempty"`
	ProductID       *uuid.UUID      `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID               `json:"id"`
	InvoiceID       uuid.UUID               `json:"invoice_id"`
	Amount          decimal.Decimal         `json:"amount"`
	Method          invoicing.PaymentMethod `json:"method"`
	ReferenceNumber string                  `json:"reference_number,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	ReceivedBy      uuid.UUID               `json:"received_by"`
	PaidAt          time.Time               `json:"paid_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID               `json:"id"`
	TenantID      uuid.UUID               `json:"tenant_id"`
	InvoiceNumber string                  `json:"invoice_number"`
	PetID         uuid.UUID               `json:"pet_id"`
	OwnerID       uuid.UUID               `json:"owner_id"`
	Currency      string                  `json:"currency"`
	Items         []InvoiceItemResponse   `json:"items,omitempty"`
	Payments      []PaymentResponse       `json:"payments,omitempty"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	TaxRate       decimal.Decimal         `json:"tax_rate"`
	TaxAmount     decimal.Decimal         `json:"tax_amount"`
	Total         decimal.Decimal         `json:"total"`
	AmountPaid    decimal.Decimal         `json:"amount_paid"`
	AmountDue     decimal.Decimal         `json:"amount_due"`
	Status        invoicing.InvoiceStatus `json:"status"`
	DueDate       *time.Time              `json:"due_date,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	SentAt        *time.Time              `json:"sent_at,omitempty"`
	PaidAt        *time.Time              `json:"paid_at,omitempty"`
	VoidedAt      *time.Time              `json:"voided_at,omitempty"`
	CancelledAt   *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Version       int                     `json:"version"`
}

// RecordPaymentResult is returned by RecordPayment
type RecordPaymentResult struct {
	PaymentID  uuid.UUID               `json:"payment_id"`
	Status     invoicing.InvoiceStatus `json:"status"`
	AmountPaid decimal.Decimal         `json:"amount_paid"`
	AmountDue  decimal.Decimal         `json:"amount_due"`
}

// ToInvoiceResponse converts a domain invoice to its API representation
func ToInvoiceResponse(inv *invoicing.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:              item.ID,
			ServiceID:       item.ServiceID,
			ProductID:       item.ProductID,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       item.LineTotal,
		})
	}

	return &InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		PetID:         inv.PetID,
		OwnerID:       inv.OwnerID,
		Currency:      string(inv.Currency),
		Items:         items,
		Subtotal:      inv.Subtotal,
		TaxRate:       inv.TaxRate,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid,
		AmountDue:     inv.AmountDue,
		Status:        inv.Status,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		VoidedAt:      inv.VoidedAt,
		CancelledAt:   inv.CancelledAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

// ToPaymentResponse converts a domain payment to its API representation
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		Method:          p.Method,
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		ReceivedBy:      p.ReceivedBy,
		PaidAt:          p.PaidAt,
	}
}

// ToInvoiceListResponse converts a page of invoices
func ToInvoiceListResponse(invoices []invoicing.Invoice, total int64, page, pageSize int) shared.Paginated[InvoiceResponse] {
	items := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *ToInvoiceResponse(&invoices[i]))
	}
	return shared.NewPaginated(items, total, page, pageSize)
}
