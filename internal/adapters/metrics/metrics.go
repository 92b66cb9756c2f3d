package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database call latencies in seconds.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)

	// FeedSubscribers is the number of open change-feed subscriptions.
	FeedSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "change_feed_subscribers",
		Help: "Open change-feed subscriptions.",
	})

	// FeedPublished counts changes published, by table and type.
	FeedPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_feed_published_total",
			Help: "Changes published to the feed.",
		},
		[]string{"table", "type"},
	)

	// FeedDropped counts deliveries skipped because a subscriber was full.
	FeedDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "change_feed_dropped_total",
		Help: "Change deliveries dropped for slow subscribers.",
	})

	// HooksMounted is the number of live hooks currently mounted, by kind.
	HooksMounted = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "live_hooks_mounted",
		Help: "Mounted profile and catalog hooks.",
	}, []string{"hook"})
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			queryDuration, FeedSubscribers, FeedPublished, FeedDropped, HooksMounted,
		)
	})
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveQuery records one database call.
func ObserveQuery(op string, d time.Duration) {
	queryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Instrument measures request rate, latency and in-flight count.
// The route label is the registered pattern when available so IDs in paths
// do not explode cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE streams keep working.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
