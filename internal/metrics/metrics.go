// Package metrics exposes feed and reaction counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pders01/corkboard/internal/debuglog"
)

// Outcome labels the result of a fetch or toggle.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeFailed     Outcome = "failed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeRejected   Outcome = "rejected"
)

// Collector owns a private registry so several instances can coexist in
// one process. A nil *Collector is valid and records nothing.
type Collector struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	toggles       *prometheus.CounterVec
	items         *prometheus.GaugeVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corkboard_feed_fetches_total",
			Help: "Feed fetches by kind and outcome",
		}, []string{"kind", "outcome"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corkboard_feed_fetch_duration_seconds",
			Help:    "Time from fetch start until the feed settled",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"kind"}),
		toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corkboard_like_toggles_total",
			Help: "Like toggles by kind and outcome",
		}, []string{"kind", "outcome"}),
		items: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "corkboard_feed_items",
			Help: "Items currently held by each feed",
		}, []string{"kind"}),
	}
}

func (c *Collector) ObserveFetch(kind string, outcome Outcome, took time.Duration) {
	if c == nil {
		return
	}
	c.fetches.WithLabelValues(kind, string(outcome)).Inc()
	if outcome != OutcomeCancelled {
		c.fetchDuration.WithLabelValues(kind).Observe(took.Seconds())
	}
}

func (c *Collector) ObserveToggle(kind string, outcome Outcome) {
	if c == nil {
		return
	}
	c.toggles.WithLabelValues(kind, string(outcome)).Inc()
}

func (c *Collector) SetItems(kind string, n int) {
	if c == nil {
		return
	}
	c.items.WithLabelValues(kind).Set(float64(n))
}

// Registry returns the underlying registry, or nil for a nil Collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr under /metrics until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		debuglog.Infof("serving metrics on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("stopping metrics server: %w", err)
		}
		return nil
	}
}
