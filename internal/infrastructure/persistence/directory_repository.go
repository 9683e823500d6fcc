package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetclinic/backend/internal/domain/directory"
	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/infrastructure/persistence/models"
)

// GormPetRepository implements directory.PetRepository using GORM.
// Read-only: the directory tables are owned by the clinic application.
type GormPetRepository struct {
	db *gorm.DB
}

// NewGormPetRepository creates a new GormPetRepository
func NewGormPetRepository(db *gorm.DB) *GormPetRepository {
	return &GormPetRepository{db: db}
}

// FindByIDForTenant finds a pet by ID within a tenant
func (r *GormPetRepository) FindByIDForTenant(ctx context.Context, tenantID, petID uuid.UUID) (*directory.Pet, error) {
	var model models.PetModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, petID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormOwnerRepository implements directory.OwnerRepository using GORM
type GormOwnerRepository struct {
	db *gorm.DB
}

// NewGormOwnerRepository creates a new GormOwnerRepository
func NewGormOwnerRepository(db *gorm.DB) *GormOwnerRepository {
	return &GormOwnerRepository{db: db}
}

// FindByIDForTenant finds an owner profile by ID within a tenant
func (r *GormOwnerRepository) FindByIDForTenant(ctx context.Context, tenantID, ownerID uuid.UUID) (*directory.Owner, error) {
	var model models.OwnerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, ownerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ directory.PetRepository   = (*GormPetRepository)(nil)
	_ directory.OwnerRepository = (*GormOwnerRepository)(nil)
)
