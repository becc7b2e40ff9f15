package context

import (
	"context"

	"school/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyPrincipal is the key for storing the authenticated principal.
const KeyPrincipal ContextKey = "principal"

// SetPrincipal stores the principal on both the echo context and the request context.
func SetPrincipal(c echo.Context, principal *entity.Principal) {
	c.Set(string(KeyPrincipal), principal)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), principal)))
}

// GetPrincipal returns the principal set by the auth middleware.
func GetPrincipal(c echo.Context) (*entity.Principal, bool) {
	principal, ok := c.Get(string(KeyPrincipal)).(*entity.Principal)

	return principal, ok && principal != nil
}

// WithPrincipal returns a new context with the principal.
func WithPrincipal(ctx context.Context, principal *entity.Principal) context.Context {
	return context.WithValue(ctx, KeyPrincipal, principal)
}

// PrincipalFromContext extracts the principal from standard context.Context.
func PrincipalFromContext(ctx context.Context) (*entity.Principal, bool) {
	principal, ok := lookup[*entity.Principal](ctx, KeyPrincipal)

	return principal, ok && principal != nil
}
