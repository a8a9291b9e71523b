package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests and the
// emission tracking pipeline.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	recordsTracked *prometheus.CounterVec
	co2Grams       prometheus.Counter
	alertsRaised   *prometheus.CounterVec
	samplerTicks   prometheus.Counter
}

// NewHTTPCollector constructs a collector with default histograms/counters.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "enact",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enact",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	recordsTracked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enact",
		Subsystem: "emissions",
		Name:      "records_tracked_total",
		Help:      "Total number of emission records appended to the log.",
	}, []string{"activity_type", "method"})

	co2Grams := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "enact",
		Subsystem: "emissions",
		Name:      "co2_grams_total",
		Help:      "Cumulative estimated CO2 grams across tracked activities.",
	})

	alertsRaised := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enact",
		Subsystem: "emissions",
		Name:      "threshold_alerts_total",
		Help:      "Total number of threshold alerts raised.",
	}, []string{"threshold_type"})

	samplerTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "enact",
		Subsystem: "tracker",
		Name:      "samples_total",
		Help:      "Total number of activity samples taken by the tracker.",
	})

	collectors := []prometheus.Collector{
		requestDuration,
		requestTotal,
		recordsTracked,
		co2Grams,
		alertsRaised,
		samplerTicks,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &HTTPCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		recordsTracked:  recordsTracked,
		co2Grams:        co2Grams,
		alertsRaised:    alertsRaised,
		samplerTicks:    samplerTicks,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordTracked counts one appended emission record.
func (c *HTTPCollector) RecordTracked(activityType, method string, co2Grams float64) {
	c.recordsTracked.WithLabelValues(activityType, method).Inc()
	if co2Grams > 0 {
		c.co2Grams.Add(co2Grams)
	}
}

// AlertRaised counts one threshold alert.
func (c *HTTPCollector) AlertRaised(thresholdType string) {
	c.alertsRaised.WithLabelValues(thresholdType).Inc()
}

// SamplerTick counts one tracker sample.
func (c *HTTPCollector) SamplerTick() {
	c.samplerTicks.Inc()
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
