// Package promobserver records session manager activity as Prometheus
// metrics and serves them over HTTP.
package promobserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/h264session/pkg/ports"
)

const namespace = "h264session"

const readHeaderTimeout = 10 * time.Second

// Observer implements ports.Metrics with Prometheus collectors.
type Observer struct {
	registry *prometheus.Registry

	sessionsCreated     *prometheus.CounterVec
	sessionCreateFailed *prometheus.CounterVec
	sessionsInvalidated *prometheus.CounterVec
	framesSubmitted     *prometheus.CounterVec
	framesDropped       *prometheus.CounterVec
	propertyFailures    *prometheus.CounterVec
	samplesEmitted      *prometheus.CounterVec
	sampleBytes         prometheus.Counter
	sampleSize          prometheus.Histogram
	formatChanges       prometheus.Counter
}

// New creates an observer with its own registry, including Go runtime and
// process collectors.
func New() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		sessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Compression sessions created, by backend",
		}, []string{"backend"}),
		sessionCreateFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_create_failures_total",
			Help:      "Failed compression session creations, by backend",
		}, []string{"backend"}),
		sessionsInvalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_invalidated_total",
			Help:      "Compression sessions released, by reason",
		}, []string{"reason"}),
		framesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_submitted_total",
			Help:      "Frames handed to the encoder",
		}, []string{"forced_keyframe"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames not encoded, by reason",
		}, []string{"reason"}),
		propertyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "property_failures_total",
			Help:      "Rejected session property updates, by key",
		}, []string{"key"}),
		samplesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_emitted_total",
			Help:      "Compressed samples delivered to the delegate",
		}, []string{"keyframe"}),
		sampleBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_bytes_total",
			Help:      "Compressed bytes delivered to the delegate",
		}),
		sampleSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_size_bytes",
			Help:      "Compressed sample size",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 12),
		}),
		formatChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "format_changes_total",
			Help:      "Output format changes delivered to the delegate",
		}),
	}

	o.registry.MustRegister(
		o.sessionsCreated,
		o.sessionCreateFailed,
		o.sessionsInvalidated,
		o.framesSubmitted,
		o.framesDropped,
		o.propertyFailures,
		o.samplesEmitted,
		o.sampleBytes,
		o.sampleSize,
		o.formatChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

func (o *Observer) SessionCreated(backend string) {
	o.sessionsCreated.WithLabelValues(backend).Inc()
}

func (o *Observer) SessionCreateFailed(backend string) {
	o.sessionCreateFailed.WithLabelValues(backend).Inc()
}

func (o *Observer) SessionInvalidated(reason string) {
	o.sessionsInvalidated.WithLabelValues(reason).Inc()
}

func (o *Observer) FrameSubmitted(forcedKeyFrame bool) {
	o.framesSubmitted.WithLabelValues(strconv.FormatBool(forcedKeyFrame)).Inc()
}

func (o *Observer) FrameDropped(reason string) {
	o.framesDropped.WithLabelValues(reason).Inc()
}

func (o *Observer) PropertyFailed(key ports.PropertyKey) {
	o.propertyFailures.WithLabelValues(string(key)).Inc()
}

func (o *Observer) SampleEmitted(bytes int, keyframe bool) {
	o.samplesEmitted.WithLabelValues(strconv.FormatBool(keyframe)).Inc()
	o.sampleBytes.Add(float64(bytes))
	o.sampleSize.Observe(float64(bytes))
}

func (o *Observer) FormatChanged() {
	o.formatChanges.Inc()
}

// Registry returns the underlying Prometheus registry.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler returns an http.Handler for the metrics endpoint.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes /metrics and /health on addr until ctx is done.
func (o *Observer) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Ensure Observer implements ports.Metrics
var _ ports.Metrics = (*Observer)(nil)
