package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "school/internal/delivery/context"
	"school/internal/domain/entity"
	domainerrors "school/internal/domain/errors"
	"school/internal/usecase"

	"github.com/labstack/echo/v4"
)

const bearerScheme = "Bearer"

// AuthMiddleware authorizes requests through the AuthorizationGate.
type AuthMiddleware struct {
	gate usecase.AuthorizationGate
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(gate usecase.AuthorizationGate) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

// Require admits requests whose bearer token carries a role in allowed and attaches the principal.
func (m *AuthMiddleware) Require(allowed entity.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return domainerrors.ErrUnauthenticated
			}

			ctx := c.Request().Context()
			principal, err := m.gate.Authorize(ctx, token, allowed)
			if err != nil {
				return err
			}

			deliverycontext.SetPrincipal(c, principal)
			if logger := deliverycontext.GetLogger(ctx); logger != nil {
				scoped := logger.With(slog.Uint64("identity_id", principal.Identity.ID))
				c.SetRequest(c.Request().WithContext(deliverycontext.WithLogger(c.Request().Context(), scoped)))
			}

			return next(c)
		}
	}
}

// GetPrincipal returns the principal attached by Require.
func GetPrincipal(c echo.Context) (*entity.Principal, bool) {
	return deliverycontext.GetPrincipal(c)
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>" header.
// The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
