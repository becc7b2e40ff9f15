package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.ObserveLogin("password", "success")
	c.ObserveLogin("password", "unauthenticated")
	c.ObserveLogin("password", "unauthenticated")
	c.ObserveRefresh("success")
	c.ObserveAuthorize("forbidden")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("password", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues("password", "unauthenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.refreshes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authorizations.WithLabelValues("forbidden")))
}

func TestCollector_Histograms(t *testing.T) {
	c := New()

	c.ObserveExternalVerify("line", "success", 120*time.Millisecond)
	c.ObserveHTTP(http.MethodPost, "/admin/login", http.StatusUnauthorized, 3*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(c.externalVerify, "school_auth_external_verify_duration_seconds"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues(http.MethodPost, "/admin/login", "401")))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.ObserveLogin("federated", "success")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `school_auth_logins_total{flow="federated",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCollector_RegisterDBStats(t *testing.T) {
	c := New()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, c.RegisterDBStats(db, "primary"))

	count, err := testutil.GatherAndCount(c.registry, "go_sql_max_open_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// a second pool under the same name collides with the first
	assert.Error(t, c.RegisterDBStats(db, "primary"))
}
