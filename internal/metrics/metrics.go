package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"airdropLedger/internal/aggregate"
	"airdropLedger/internal/loader"
	"airdropLedger/internal/scanner"
)

// Metrics holds the pipeline collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	windowAttempts prometheus.Counter
	windowRetries  prometheus.Counter
	windowsDone    prometheus.Counter
	windowsLeft    prometheus.Gauge
	eventsFetched  prometheus.Counter
	events         *prometheus.GaugeVec
	chunks         *prometheus.CounterVec
	chunkDuration  prometheus.Histogram
}

// New registers the pipeline collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		windowAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airdrop_scan_window_attempts_total", Help: "Window fetch attempts",
		}),
		windowRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airdrop_scan_window_retries_total", Help: "Failed window fetches that were retried",
		}),
		windowsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airdrop_scan_windows_total", Help: "Windows fetched and handled",
		}),
		windowsLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airdrop_scan_windows_left", Help: "Windows not yet fetched",
		}),
		eventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airdrop_scan_events_fetched_total", Help: "Raw events returned by the source",
		}),
		events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airdrop_events", Help: "Events by outcome in the current run",
		}, []string{"outcome"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airdrop_load_chunks_total", Help: "Chunk submissions by status",
		}, []string{"status"}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "airdrop_load_chunk_duration_seconds",
			Help:    "Time from chunk submission to confirmation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
	m.registry.MustRegister(
		m.windowAttempts,
		m.windowRetries,
		m.windowsDone,
		m.windowsLeft,
		m.eventsFetched,
		m.events,
		m.chunks,
		m.chunkDuration,
	)
	return m
}

// ScannerHooks returns scanner hooks that feed the scan collectors.
func (m *Metrics) ScannerHooks() scanner.Hooks {
	return scanner.Hooks{
		OnAttempt: func(p scanner.Progress) {
			m.windowAttempts.Inc()
			m.windowsLeft.Set(float64(p.WindowsLeft))
		},
		OnRetry: func(scanner.Progress, error) {
			m.windowRetries.Inc()
		},
		OnWindow: func(_ scanner.Window, events int) {
			m.windowsDone.Inc()
			m.windowsLeft.Dec()
			m.eventsFetched.Add(float64(events))
		},
	}
}

// ObserveCounters publishes the aggregation counters of a run.
func (m *Metrics) ObserveCounters(counters aggregate.Counters, ignored uint64) {
	m.events.WithLabelValues("processed").Set(float64(counters.EventsProcessed))
	m.events.WithLabelValues("duplicate").Set(float64(counters.DuplicatesSkipped))
	m.events.WithLabelValues("ignored").Set(float64(ignored))
}

// LoaderHooks returns loader hooks that feed the load collectors.
func (m *Metrics) LoaderHooks() loader.Hooks {
	return loader.Hooks{
		OnSubmit: func(_ loader.Chunk, took time.Duration, err error) {
			if err != nil {
				m.chunks.WithLabelValues("failed").Inc()
				return
			}
			m.chunks.WithLabelValues("confirmed").Inc()
			m.chunkDuration.Observe(took.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
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
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
