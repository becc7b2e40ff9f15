package usecase

import (
	"context"

	"school/internal/domain/entity"
)

// IdentityResolver maps a federated subject onto a local identity.
type IdentityResolver interface {
	// ResolveOrProvision returns the identity bound to subject, creating it with the default
	// role when none exists. Calling it again with the same subject returns the same identity,
	// even when another request provisions it concurrently.
	ResolveOrProvision(ctx context.Context, subject string, profile entity.ExternalProfile) (*entity.Identity, error)
}

// AuthorizationGate turns a bearer token into the principal of a request.
type AuthorizationGate interface {
	// Authorize fails with ErrUnauthenticated when the token or its identity is not valid
	// and with ErrForbidden when the token's role is outside allowed.
	Authorize(ctx context.Context, token string, allowed entity.RoleSet) (*entity.Principal, error)
}
