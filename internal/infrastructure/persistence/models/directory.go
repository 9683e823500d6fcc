package models

import (
	"github.com/google/uuid"

	"github.com/vetclinic/backend/internal/domain/directory"
)

// PetModel is the read-side persistence model for clinic patients.
// The ledger never writes this table.
type PetModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(100);not null"`
	Species  string    `gorm:"type:varchar(50)"`
	Breed    string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PetModel) TableName() string {
	return "pets"
}

// ToDomain converts the persistence model to a domain Pet
func (m *PetModel) ToDomain() *directory.Pet {
	return &directory.Pet{
		ID:       m.ID,
		TenantID: m.TenantID,
		OwnerID:  m.OwnerID,
		Name:     m.Name,
		Species:  m.Species,
		Breed:    m.Breed,
	}
}

// OwnerModel is the read-side persistence model for pet owner profiles
type OwnerModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	FullName string    `gorm:"type:varchar(200);not null"`
	Email    string    `gorm:"type:varchar(255)"`
	Phone    string    `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (OwnerModel) TableName() string {
	return "owners"
}

// ToDomain converts the persistence model to a domain Owner
func (m *OwnerModel) ToDomain() *directory.Owner {
	return &directory.Owner{
		ID:       m.ID,
		TenantID: m.TenantID,
		FullName: m.FullName,
		Email:    m.Email,
		Phone:    m.Phone,
	}
}
