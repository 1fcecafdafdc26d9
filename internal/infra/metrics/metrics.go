// Package metrics exposes Prometheus counters for scheduler runs.
//
// Labels are bounded: entry names come from the static scheduling table and
// channels from a closed set.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics implements app.Recorder on its own registry.
type Metrics struct {
	registry   *prometheus.Registry
	entries    *prometheus.CounterVec
	deliveries *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		// entries counts materialization outcomes per schedule entry.
		entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_entry_outcomes_total",
				Help: "Schedule entry evaluations by outcome.",
			},
			[]string{"entry", "outcome"},
		),
		// deliveries counts individual delivery attempts, retries included.
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_delivery_attempts_total",
				Help: "Delivery attempts by channel and result.",
			},
			[]string{"channel", "result"},
		),
	}
	m.registry.MustRegister(m.entries, m.deliveries)
	return m
}

func (m *Metrics) EntryOutcome(entry, outcome string) {
	m.entries.WithLabelValues(entry, outcome).Inc()
}

func (m *Metrics) DeliveryAttempt(channel string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.deliveries.WithLabelValues(channel, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Metrics endpoint listening")
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
		<-errCh
		return nil
	}
}
