package identity

import (
	"github.com/google/uuid"

	"github.com/vetclinic/backend/internal/domain/shared"
)

// Role represents the role of a clinic user
type Role string

const (
	RoleOwner Role = "owner" // Pet owner: read-only access to their own invoices
	RoleVet   Role = "vet"   // Clinic staff: may create and mutate invoices
	RoleAdmin Role = "admin" // Clinic administrator: staff plus privileged overrides
)

// IsValid checks if the role is a valid Role
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleVet, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsStaff returns true for roles allowed to mutate ledger state
func (r Role) IsStaff() bool {
	return r == RoleVet || r == RoleAdmin
}

// IsAdmin returns true for the administrator role
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Actor identifies the authenticated caller of a ledger operation.
// It is supplied by the auth provider on every call; the ledger never
// resolves identity from ambient state.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

// NewActor creates a validated actor
func NewActor(userID, tenantID uuid.UUID, role Role) (Actor, error) {
	if userID == uuid.Nil {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor user ID cannot be empty")
	}
	if tenantID == uuid.Nil {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor tenant ID cannot be empty")
	}
	if !role.IsValid() {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor role is not valid")
	}
	return Actor{UserID: userID, TenantID: tenantID, Role: role}, nil
}

// RequireStaff returns a FORBIDDEN error unless the actor may mutate ledger state
func (a Actor) RequireStaff() error {
	if !a.Role.IsStaff() {
		return shared.NewDomainError("FORBIDDEN", "Only clinic staff may modify invoices")
	}
	return nil
}
