// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"school/internal/domain/entity"
)

// --- Input DTOs ---

// CreatePasswordIdentityInput defines the data required to seed a password identity.
type CreatePasswordIdentityInput struct {
	Username string
	Password string
	Name     string
	Role     entity.RoleName
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListUsersInput pages through identities.
type ListUsersInput struct {
	Offset int
	Limit  int
}

// Normalize clamps the offset to zero and the limit to (0, 200], defaulting to 50.
func (in ListUsersInput) Normalize() ListUsersInput {
	in.Offset = max(in.Offset, 0)
	switch {
	case in.Limit <= 0:
		in.Limit = defaultListLimit
	case in.Limit > maxListLimit:
		in.Limit = maxListLimit
	}

	return in
}

// UserUsecase defines the interface for identity administration.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	Me(ctx context.Context, principal *entity.Principal) (*entity.Identity, error)
	ListUsers(ctx context.Context, input ListUsersInput) ([]*entity.Identity, error)
	UpdateUserRole(ctx context.Context, userID uint64, role entity.RoleName) (*entity.Identity, error)
	CreatePasswordIdentity(ctx context.Context, input CreatePasswordIdentityInput) (*entity.Identity, error)
}
