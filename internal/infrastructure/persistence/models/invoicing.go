package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Items live in their own table and are loaded by the repository.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	PetID         uuid.UUID               `gorm:"type:uuid;not null;index"`
	OwnerID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Currency      string                  `gorm:"type:varchar(3);not null"`
	Subtotal      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TaxRate       decimal.Decimal         `gorm:"type:decimal(5,2);not null"`
	TaxAmount     decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Total         decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	AmountPaid    decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	AmountDue     decimal.Decimal         `gorm:"type:decimal(18,4);not null;index"`
	Status        invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	DueDate       *time.Time              `gorm:"index"`
	Notes         string                  `gorm:"type:text"`
	SentAt        *time.Time
	SentBy        *uuid.UUID `gorm:"type:uuid"`
	PaidAt        *time.Time
	VoidedAt      *time.Time
	VoidedBy      *uuid.UUID `gorm:"type:uuid"`
	CancelledAt   *time.Time
	CancelledBy   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice (without items)
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		PetID:         m.PetID,
		OwnerID:       m.OwnerID,
		Currency:      valueobject.Currency(m.Currency),
		Subtotal:      m.Subtotal,
		TaxRate:       m.TaxRate,
		TaxAmount:     m.TaxAmount,
		Total:         m.Total,
		AmountPaid:    m.AmountPaid,
		AmountDue:     m.AmountDue,
		Status:        m.Status,
		DueDate:       m.DueDate,
		Notes:         m.Notes,
		SentAt:        m.SentAt,
		SentBy:        m.SentBy,
		PaidAt:        m.PaidAt,
		VoidedAt:      m.VoidedAt,
		VoidedBy:      m.VoidedBy,
		CancelledAt:   m.CancelledAt,
		CancelledBy:   m.CancelledBy,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.PetID = inv.PetID
	m.OwnerID = inv.OwnerID
	m.Currency = string(inv.Currency)
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.Total = inv.Total
	m.AmountPaid = inv.AmountPaid
	m.AmountDue = inv.AmountDue
	m.Status = inv.Status
	m.DueDate = inv.DueDate
	m.Notes = inv.Notes
	m.SentAt = inv.SentAt
	m.SentBy = inv.SentBy
	m.PaidAt = inv.PaidAt
	m.VoidedAt = inv.VoidedAt
	m.VoidedBy = inv.VoidedBy
	m.CancelledAt = inv.CancelledAt
	m.CancelledBy = inv.CancelledBy
}

// InvoiceItemModel is the persistence model for one invoice line
type InvoiceItemModel struct {
	BaseModel
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ServiceID       *uuid.UUID      `gorm:"type:uuid"`
	ProductID       *uuid.UUID      `gorm:"type:uuid"`
	Description     string          `gorm:"type:varchar(500);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() invoicing.InvoiceItem {
	return invoicing.InvoiceItem{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		ServiceID:       m.ServiceID,
		ProductID:       m.ProductID,
		Description:     m.Description,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		DiscountPercent: m.DiscountPercent,
		LineTotal:       m.LineTotal,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem
func (m *InvoiceItemModel) FromDomain(item invoicing.InvoiceItem, createdAt time.Time) {
	m.ID = item.ID
	m.CreatedAt = createdAt
	m.UpdatedAt = createdAt
	m.InvoiceID = item.InvoiceID
	m.ServiceID = item.ServiceID
	m.ProductID = item.ProductID
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.DiscountPercent = item.DiscountPercent
	m.LineTotal = item.LineTotal
}

// PaymentModel is the persistence model for an immutable payment record.
// (tenant_id, invoice_id, reference_number) carries a partial unique index in
// the migrations, applied only when reference_number is non-empty.
type PaymentModel struct {
	BaseModel
	TenantID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	InvoiceID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Method          invoicing.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNumber string                  `gorm:"type:varchar(100)"`
	Notes           string                  `gorm:"type:text"`
	ReceivedBy      uuid.UUID               `gorm:"type:uuid;not null"`
	PaidAt          time.Time               `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() invoicing.Payment {
	return invoicing.Payment{
		ID:              m.ID,
		TenantID:        m.TenantID,
		InvoiceID:       m.InvoiceID,
		Amount:          m.Amount,
		Method:          m.Method,
		ReferenceNumber: m.ReferenceNumber,
		Notes:           m.Notes,
		ReceivedBy:      m.ReceivedBy,
		PaidAt:          m.PaidAt,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *invoicing.Payment) {
	m.ID = p.ID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.CreatedAt
	m.TenantID = p.TenantID
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.Method = p.Method
	m.ReferenceNumber = p.ReferenceNumber
	m.Notes = p.Notes
	m.ReceivedBy = p.ReceivedBy
	m.PaidAt = p.PaidAt
}

// InvoiceCounterModel backs the atomic per-tenant, per-day invoice number
// sequence. Rows are only ever touched through an upsert that increments the
// counter in a single statement.
type InvoiceCounterModel struct {
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DateKey  string    `gorm:"type:varchar(8);primaryKey"`
	Counter  int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceCounterModel) TableName() string {
	return "invoice_counters"
}
