package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_http_requests_total",
		Help: "HTTP requests served, by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rsvp_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RsvpSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_submissions_total",
		Help: "RSVP submissions by validation outcome.",
	}, []string{"outcome"})

	BrokerPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rsvp_broker_publish_failures_total",
		Help: "Accepted submissions that could not be published to the broker.",
	})

	AuditMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_audit_messages_total",
		Help: "Broker messages handled by the audit sink, by outcome.",
	}, []string{"outcome"})

	LoadgenRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsvp_loadgen_requests_total",
		Help: "RSVP requests sent by the load generator, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPRequestDuration,
		RsvpSubmissions,
		BrokerPublishFailures,
		AuditMessages,
		LoadgenRequests,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// RegisterGaugeFunc exposes fn as a gauge. Registering the same name twice is a no-op.
func RegisterGaugeFunc(name, help string, fn func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	if err := prometheus.Register(g); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument records request counts and latency keyed by the chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
