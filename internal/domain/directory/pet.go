// Package directory exposes read models for the clinic's pet and owner
// records. The ledger reads them for ownership validation and contact
// lookup but never mutates them; the directory is owned elsewhere.
package directory

import (
	"context"

	"github.com/google/uuid"
)

// Pet is a read model of a clinic patient
type Pet struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	OwnerID  uuid.UUID
	Name     string
	Species  string
	Breed    string
}

// Owner is a read model of a pet owner's profile
type Owner struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	FullName string
	Email    string
	Phone    string
}

// PetRepository provides read-only access to pets within a tenant
type PetRepository interface {
	// FindByIDForTenant returns the pet, or shared.ErrNotFound if the pet
	// does not exist in the given tenant
	FindByIDForTenant(ctx context.Context, tenantID, petID uuid.UUID) (*Pet, error)
}

// OwnerRepository provides read-only access to owner profiles within a tenant
type OwnerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, ownerID uuid.UUID) (*Owner, error)
}
