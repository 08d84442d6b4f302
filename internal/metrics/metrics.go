package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	paymentIntentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payment_intents_created_total",
			Help: "Payment intents created at the gateway, by why the previous one could not be reused.",
		},
		[]string{"reason"},
	)

	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_orders_total",
			Help: "Checkout submissions by outcome.",
		},
		[]string{"outcome"},
	)

	gatewayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_gateway_errors_total",
			Help: "Failed payment gateway calls by operation.",
		},
		[]string{"operation"},
	)
)

// Reasons a new payment intent was created.
const (
	ReasonNoCache        = "no_cache"
	ReasonCartChanged    = "cart_changed"
	ReasonSecretMismatch = "secret_mismatch"
	ReasonConsumed       = "consumed"
)

// Checkout outcomes.
const (
	OutcomePlaced        = "placed"
	OutcomeEmptyCart     = "empty_cart"
	OutcomeInvalidForm   = "invalid_form"
	OutcomeGatewayError  = "gateway_error"
	OutcomeCommitFailed  = "commit_failed"
	OutcomeInternalError = "internal_error"
)

func RecordIntentCreated(reason string) {
	paymentIntentsCreated.WithLabelValues(reason).Inc()
}

func RecordOrderOutcome(outcome string) {
	ordersTotal.WithLabelValues(outcome).Inc()
}

func RecordGatewayError(operation string) {
	gatewayErrors.WithLabelValues(operation).Inc()
}

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		pathPattern := routeLabel(r.URL.Path)

		defer func() {

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// routeLabel collapses numeric ids so product and cart line paths share one series.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")

	for i, segment := range segments {
		if _, err := strconv.ParseInt(segment, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}

	return strings.Join(segments, "/")
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
