package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"school/config"
	deliverycontext "school/internal/delivery/context"
	domainerrors "school/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	mw := NewRequestIDMiddleware(slog.New(slog.DiscardHandler))

	tests := []struct {
		name     string
		header   string
		wantKept bool
	}{
		{name: "client id kept", header: "req-123", wantKept: true},
		{name: "missing id generated", header: ""},
		{name: "id with spaces replaced", header: "a b"},
		{name: "oversized id replaced", header: strings.Repeat("x", maxRequestIDLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(deliverycontext.HeaderXRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen string
			err := mw.Process(func(c echo.Context) error {
				seen = deliverycontext.GetRequestIDFromContext(c.Request().Context())
				assert.NotNil(t, deliverycontext.GetLogger(c.Request().Context()))

				return nil
			})(c)
			require.NoError(t, err)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(deliverycontext.HeaderXRequestID))
			if tt.wantKept {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	e := echo.New()

	run := func(debug bool, handler echo.HandlerFunc) string {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		cfg := &config.Config{}
		cfg.Env.Debug = debug
		mw := NewLoggerMiddleware(logger, cfg)

		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users?offset=1", nil), httptest.NewRecorder())
		_ = mw.Handle(handler)(c)

		return buf.String()
	}

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	fail := func(echo.Context) error { return domainerrors.ErrForbidden }

	assert.Empty(t, run(false, ok))
	assert.Contains(t, run(true, ok), `"status":200`)

	out := run(false, fail)
	assert.Contains(t, out, `"status":403`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"query":"offset=1"`)
}
