package middleware

import (
	"log/slog"
	"net/http"

	"school/internal/delivery/api/response"
	deliverycontext "school/internal/delivery/context"
	domainerrors "school/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware turns handler errors into error envelopes.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates the echo HTTPErrorHandler.
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{logger: logger}
}

// rendered is what a client is told about an error.
type rendered struct {
	status  int
	code    string
	message string
	details any
}

func render(err error) rendered {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		r := rendered{status: appErr.HTTPCode(), code: appErr.ErrorCode(), message: appErr.Message()}
		if d := appErr.Details(); d != "" {
			r.details = d
		}

		return r
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		r := rendered{status: httpErr.Code, code: "HTTP_ERROR", message: http.StatusText(httpErr.Code)}
		if msg, ok := httpErr.Message.(string); ok {
			r.message = msg
		}

		return r
	}

	return rendered{
		status:  http.StatusInternalServerError,
		code:    domainerrors.ErrInternalError.ErrorCode(),
		message: domainerrors.ErrInternalError.Message(),
	}
}

// HandleHTTPError implements echo.HTTPErrorHandler. Server-side failures are logged with
// the full chain; the client only sees the generic message.
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	r := render(err)
	if r.status >= http.StatusInternalServerError {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Error("Request failed",
			slog.Any("error", err),
			slog.String("kind", domainerrors.KindOf(err).String()),
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
		)
	}

	_ = response.Error(c, r.status, r.code, r.message, r.details)
}
