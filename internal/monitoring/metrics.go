package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/constants"
)

// Metrics is the Prometheus surface for the identity service. It satisfies
// the middleware Metrics interface.
type Metrics struct {
	registry *prometheus.Registry

	authTotal     *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewMetrics builds and registers the metric set on a private registry so
// repeated construction in tests never collides.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		authTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "auth_requests_total",
			Help:      "Authentication attempts by outcome and token source.",
		}, []string{"outcome", "source"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "fallback_auth_total",
			Help:      "Degraded-mode authentication attempts by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "identity",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(m.authTotal, m.fallbackTotal, m.httpDuration)
	registry.MustRegister(collectors.NewGoCollector())
	return m
}

// ObserveAuth counts one authentication outcome.
func (m *Metrics) ObserveAuth(outcome string, source constants.TokenSource) {
	m.authTotal.WithLabelValues(outcome, string(source)).Inc()
}

// ObserveFallback counts one degraded-mode outcome.
func (m *Metrics) ObserveFallback(outcome string) {
	m.fallbackTotal.WithLabelValues(outcome).Inc()
}

// RequestDuration is the gin middleware recording request latency per route.
func (m *Metrics) RequestDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the scrape endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
