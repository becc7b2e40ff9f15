package repository

import (
	"context"

	"school/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrRoleNotFound is returned when no role matches the lookup.
var ErrRoleNotFound = errors.New("role not found")

// RoleRepository reads the seeded roles table.
type RoleRepository interface {
	FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)
	FindByID(ctx context.Context, id uint64) (*entity.Role, error)
}
