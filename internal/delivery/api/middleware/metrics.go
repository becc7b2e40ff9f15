package middleware

import (
	"time"

	"school/internal/delivery/api/response"
	"school/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and latencies by route template.
type MetricsMiddleware struct {
	collector *metrics.Collector
}

// NewMetricsMiddleware is the constructor for MetricsMiddleware.
func NewMetricsMiddleware(collector *metrics.Collector) *MetricsMiddleware {
	return &MetricsMiddleware{collector: collector}
}

// Handle is an echo.MiddlewareFunc.
func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			status = response.StatusOf(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		m.collector.ObserveHTTP(c.Request().Method, route, status, time.Since(start))

		return err
	}
}
