package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "external_requests_total", Help: "Outbound places API requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	RecordOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "records_total", Help: "Per-stage record outcomes."},
		[]string{"stage", "outcome"}, // stage: merge|audit|enrich
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "catalog", Name: "http_requests_total", Help: "Ops server requests."},
		[]string{"route", "method", "status"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(ExternalRequests, ExternalLatency, CacheEvents, RecordOutcomes, HTTPRequests)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveRecord(stage, outcome string) {
	RecordOutcomes.WithLabelValues(stage, outcome).Inc()
}

func ObserveHTTP(route, method string, status int) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
