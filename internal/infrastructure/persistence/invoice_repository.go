package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create persists the invoice header and all its items. Callers run this
// inside a transaction scope so the header never commits without its items.
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	if len(inv.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Invoice must have at least one item")
	}

	var model models.InvoiceModel
	model.FromDomain(inv)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, inv)
}

// Update persists the header with an optimistic version check and replaces
// the items wholesale: delete-then-insert, never a partial patch.
func (r *GormInvoiceRepository) Update(ctx context.Context, inv *invoicing.Invoice) error {
	if len(inv.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Invoice must have at least one item")
	}

	if err := r.UpdateHeader(ctx, inv); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", inv.ID).
		Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, inv)
}

// UpdateHeader persists only the header row with an optimistic version
// check, leaving items untouched
func (r *GormInvoiceRepository) UpdateHeader(ctx context.Context, inv *invoicing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(inv)
	model.Version = inv.Version + 1
	model.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", inv.ID, inv.TenantID, inv.Version).
		Select("*").
		Omit("id", "tenant_id", "created_at", "created_by").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	inv.IncrementVersion()
	return nil
}

// DeleteWithItems hard-deletes the invoice and its items together.
// Only drafts being voided go through here.
func (r *GormInvoiceRepository) DeleteWithItems(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, invoiceID).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDForTenant loads an invoice with its items
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	return r.findOne(ctx, r.db, tenantID, invoiceID)
}

// FindByIDForTenantLocked loads an invoice with its row locked FOR UPDATE.
// Must run inside a transaction; the lock is released when it ends.
func (r *GormInvoiceRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	locked := r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	return r.findOne(ctx, locked, tenantID, invoiceID)
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, db *gorm.DB, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	inv := model.ToDomain()
	items, err := r.loadItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// FindByNumberForTenant loads an invoice by its display number, with items
func (r *GormInvoiceRepository) FindByNumberForTenant(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	inv := model.ToDomain()
	items, err := r.loadItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// FindAllForTenant lists invoice headers matching the filter
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyInvoiceFilter(query, filter)
	query = applyPagination(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	query = applyInvoiceFilter(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextInvoiceNumber allocates the next tenant-scoped number for the given
// day in a single upsert statement. The increment happens inside the
// database, so concurrent callers always receive distinct numbers.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	dateKey := at.Format("20060102")

	var counter int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO invoice_counters (tenant_id, date_key, counter)
		VALUES (?, ?, 1)
		ON CONFLICT (tenant_id, date_key)
		DO UPDATE SET counter = invoice_counters.counter + 1
		RETURNING counter`,
		tenantID, dateKey,
	).Scan(&counter).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("INV-%s-%05d", dateKey, counter), nil
}

func (r *GormInvoiceRepository) insertItems(ctx context.Context, inv *invoicing.Invoice) error {
	now := time.Now()
	itemModels := make([]models.InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		itemModels[i].FromDomain(item, now)
	}
	return r.db.WithContext(ctx).Create(&itemModels).Error
}

func (r *GormInvoiceRepository) loadItems(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.InvoiceItem, error) {
	var itemModels []models.InvoiceItemModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC, id ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}

	items := make([]invoicing.InvoiceItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = model.ToDomain()
	}
	return items, nil
}

func applyInvoiceFilter(query *gorm.DB, filter invoicing.InvoiceFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PetID != nil {
		query = query.Where("pet_id = ?", *filter.PetID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

func applyPagination(query *gorm.DB, filter invoicing.InvoiceFilter) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
