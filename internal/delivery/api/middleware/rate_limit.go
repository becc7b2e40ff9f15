package middleware

import (
	"school/config"
	domainerrors "school/internal/domain/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware throttles the login endpoints per client IP.
type RateLimitMiddleware struct {
	enabled bool
	store   echomiddleware.RateLimiterStore
}

// NewRateLimitMiddleware builds the limiter from the rateLimit config section. Buckets idle for
// longer than rateLimit.expiresIn are dropped.
func NewRateLimitMiddleware(cfg *config.Config) *RateLimitMiddleware {
	rl := cfg.RateLimit

	return &RateLimitMiddleware{
		enabled: rl.Enabled,
		store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rl.RequestsPerSecond),
			Burst:     rl.Burst,
			ExpiresIn: rl.ExpiresIn,
		}),
	}
}

// Handle is an echo.MiddlewareFunc. It passes every request through when limiting is disabled.
func (m *RateLimitMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	if !m.enabled {
		return next
	}

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: m.store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(echo.Context, error) error {
			return domainerrors.ErrValidationFailed.WithDetails("client address is unknown")
		},
		DenyHandler: func(echo.Context, string, error) error {
			return domainerrors.ErrTooManyRequests
		},
	})(next)
}
