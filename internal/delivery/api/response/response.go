// Package response renders the JSON envelopes every endpoint answers with.
package response

import (
	"net/http"

	deliverycontext "school/internal/delivery/context"
	domainerrors "school/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SuccessResponse wraps a resource.
type SuccessResponse struct {
	Data any       `json:"data"`
	Meta *MetaInfo `json:"meta"`
}

// ErrorResponse wraps a failure.
type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

// ErrorInfo is the client-facing part of an error. Details only survive on 400, 404, 409 and 429.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// MetaInfo carries the request id and, for lists, the paging window.
type MetaInfo struct {
	RequestID string `json:"request_id"`
	Offset    *int   `json:"offset,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}

// Success writes data inside the envelope.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{Data: data, Meta: meta(c)})
}

// Page writes a list together with the offset and limit actually applied.
func Page(c echo.Context, data any, offset, limit int) error {
	m := meta(c)
	m.Offset, m.Limit = &offset, &limit

	return c.JSON(http.StatusOK, SuccessResponse{Data: data, Meta: m})
}

// Token writes a token payload without the envelope. Clients of the login endpoints
// read access_token and token_type at the top level.
func Token(c echo.Context, payload any) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	return c.JSON(http.StatusOK, payload)
}

// Error writes an error envelope. A 401 always carries the Bearer challenge.
func Error(c echo.Context, statusCode int, errorCode, message string, details any) error {
	if !detailsVisible(statusCode) {
		details = nil
	}
	if statusCode == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	return c.JSON(statusCode, ErrorResponse{
		Error: &ErrorInfo{Code: errorCode, Message: message, Details: details},
		Meta:  meta(c),
	})
}

func detailsVisible(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return false
	}

	return statusCode < http.StatusInternalServerError
}

// StatusOf returns the HTTP status the error handler will answer err with.
func StatusOf(err error) int {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
