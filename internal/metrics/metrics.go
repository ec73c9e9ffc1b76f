package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"

	RefreshValid   = "valid"
	RefreshRevoked = "revoked"
	RefreshError   = "error"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of signed tokens by type",
		},
		[]string{"type"},
	)
	RefreshChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refresh_checks_total",
			Help: "Refresh token revocation checks by result",
		},
		[]string{"result"},
	)
	LoginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_login_failures_total",
			Help: "Total number of rejected logins",
		},
	)
)

// Register adds every collector to reg. Call once at startup.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		TokensIssued,
		RefreshChecks,
		LoginFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
