package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements invoicing.PaymentRepository using GORM.
// Payments are append-only; there is no update or delete path.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save inserts a new payment record
func (r *GormPaymentRepository) Save(ctx context.Context, p *invoicing.Payment) error {
	var model models.PaymentModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByInvoiceForTenant lists an invoice's payments, oldest first
func (r *GormPaymentRepository) FindByInvoiceForTenant(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("paid_at ASC, created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]invoicing.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = model.ToDomain()
	}
	return payments, nil
}

// ExistsByReference reports whether a payment with the given reference
// number was already recorded for the invoice
func (r *GormPaymentRepository) ExistsByReference(ctx context.Context, tenantID, invoiceID uuid.UUID, referenceNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND invoice_id = ? AND reference_number = ?", tenantID, invoiceID, referenceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ invoicing.PaymentRepository = (*GormPaymentRepository)(nil)
