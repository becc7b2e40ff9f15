// Package metrics exposes authentication and HTTP metrics through a dedicated prometheus registry.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"school/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "school"

// Collector records authentication outcomes and HTTP traffic.
type Collector struct {
	registry *prometheus.Registry

	logins         *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	authorizations *prometheus.CounterVec
	externalVerify *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var _ service.AuthMetrics = (*Collector)(nil)

// New creates a Collector registered on its own registry together with the Go and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_logins_total",
			Help:      "Login attempts by flow and outcome.",
		}, []string{"flow", "outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_authorizations_total",
			Help:      "Bearer token authorization decisions by outcome.",
		}, []string{"outcome"}),
		externalVerify: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "auth_external_verify_duration_seconds",
			Help:      "Latency of federated id token verification.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.logins,
		c.refreshes,
		c.authorizations,
		c.externalVerify,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// ObserveLogin implements service.AuthMetrics.
func (c *Collector) ObserveLogin(flow, outcome string) {
	c.logins.WithLabelValues(flow, outcome).Inc()
}

// ObserveRefresh implements service.AuthMetrics.
func (c *Collector) ObserveRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// ObserveAuthorize implements service.AuthMetrics.
func (c *Collector) ObserveAuthorize(outcome string) {
	c.authorizations.WithLabelValues(outcome).Inc()
}

// ObserveExternalVerify implements service.AuthMetrics.
func (c *Collector) ObserveExternalVerify(provider, outcome string, elapsed time.Duration) {
	c.externalVerify.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request. route is the matched route template, not the raw path.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	c.httpRequests.WithLabelValues(method, route, code).Inc()
	c.httpDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

// RegisterDBStats exports the pool statistics of db, labelled with dbName.
func (c *Collector) RegisterDBStats(db *sql.DB, dbName string) error {
	return c.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
