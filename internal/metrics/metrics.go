// Package metrics exposes Prometheus counters for the HTTP surface and the
// reservation engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	reservations    *prometheus.CounterVec
	reserveDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equipmarket",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equipmarket",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome.",
		}, []string{"outcome"}),
		reserveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "equipmarket",
			Name:      "reservation_duration_seconds",
			Help:      "Time spent in Reserve, lock wait and retries included.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.reservations,
		m.reserveDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveReservation records one Reserve call.
func (m *Metrics) ObserveReservation(outcome string, d time.Duration) {
	m.reservations.WithLabelValues(outcome).Inc()
	m.reserveDuration.Observe(d.Seconds())
}

// Middleware counts requests by route template, so ids do not explode the
// label set. Unmatched paths are counted under "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
