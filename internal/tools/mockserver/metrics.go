package mockserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics are registered on a registry owned by one server, so that several
// servers can run in the same process.
type metrics struct {
	registry *prometheus.Registry

	// requestsTotal counts requests by method, route and status class.
	requestsTotal *prometheus.CounterVec
	// requestDuration records how long serving took by method and route.
	requestDuration *prometheus.HistogramVec
	// rejectedTotal counts requests that matched a route but failed
	// validation.
	rejectedTotal *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oascontracts_mock_requests_total",
				Help: "Total requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oascontracts_mock_request_duration_seconds",
				Help:    "Request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oascontracts_mock_rejected_total",
				Help: "Requests rejected by contract validation",
			},
			[]string{"method", "route"},
		),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.rejectedTotal)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware records every request that reaches the router.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status/100)+"xx").Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
