package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "school/internal/domain/errors"
	"school/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware_Handle(t *testing.T) {
	collector := metrics.New()

	e := echo.New()
	e.HTTPErrorHandler = NewErrorMiddleware(slog.New(slog.DiscardHandler)).HandleHTTPError
	e.Use(NewMetricsMiddleware(collector).Handle)
	e.GET("/users/:id", func(echo.Context) error { return domainerrors.ErrForbidden })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/users/1", "/users/2", "/health"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `school_http_requests_total{method="GET",route="/users/:id",status="403"} 2`)
	assert.Contains(t, body, `school_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
