package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hms_web",
		Name:      "http_in_flight_requests",
		Help:      "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms_web",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hms_web",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	backendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms_web",
			Name:      "backend_calls_total",
			Help:      "Calls to backend services by outcome.",
		},
		[]string{"backend", "method", "outcome"},
	)

	backendCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hms_web",
			Name:      "backend_call_duration_seconds",
			Help:      "Backend call latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "method"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms_web",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		},
		[]string{"result"},
	)

	gateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hms_web",
			Name:      "gate_decisions_total",
			Help:      "Route authorization decisions by state.",
		},
		[]string{"state"},
	)

	panicsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hms_web",
		Name:      "handler_panics_total",
		Help:      "Panics recovered while serving requests.",
	})
)

func init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		backendCallsTotal,
		backendCallDuration,
		loginsTotal,
		gateDecisionsTotal,
		panicsTotal,
	)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// RequestStarted tracks an in-flight request; call the returned func when it finishes
func RequestStarted() func(method, route string, status int) {
	httpInFlight.Inc()
	start := time.Now()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveBackendCall records one call to a backend service
func ObserveBackendCall(backend, method, outcome string, d time.Duration) {
	backendCallsTotal.WithLabelValues(backend, method, outcome).Inc()
	backendCallDuration.WithLabelValues(backend, method).Observe(d.Seconds())
}

// ObserveLogin records a login attempt result
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveGateDecision records a route authorization decision
func ObserveGateDecision(state string) {
	gateDecisionsTotal.WithLabelValues(state).Inc()
}

func ObservePanic() {
	panicsTotal.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
