// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"school/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for identity persistence.
var (
	// ErrIdentityNotFound is returned when no identity matches the lookup.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrExternalSubjectConflict is returned by Create when another identity already holds the subject.
	ErrExternalSubjectConflict = errors.New("external subject already bound to an identity")
	// ErrUsernameConflict is returned when the username is already taken.
	ErrUsernameConflict = errors.New("username already taken")
)

// IdentityRepository defines the standard operations for identity persistence.
// Every lookup loads the identity together with its role.
type IdentityRepository interface {
	// FindByID retrieves an identity by its id.
	FindByID(ctx context.Context, id uint64) (*entity.Identity, error)

	// FindByUsername retrieves an identity by its login name.
	FindByUsername(ctx context.Context, username string) (*entity.Identity, error)

	// FindByExternalSubject retrieves the identity bound to a federated subject.
	FindByExternalSubject(ctx context.Context, subject string) (*entity.Identity, error)

	// Create persists a new identity and fills in its generated id and timestamps.
	Create(ctx context.Context, identity *entity.Identity) error

	// UpdateProfile persists the name and email of an existing identity.
	UpdateProfile(ctx context.Context, identity *entity.Identity) error

	// UpdateRole points the identity at another role.
	UpdateRole(ctx context.Context, id uint64, roleID uint64) error

	// List returns identities ordered by id.
	List(ctx context.Context, offset, limit int) ([]*entity.Identity, error)
}
