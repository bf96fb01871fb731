package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks registry rebuild activity for the watch service.
type Metrics struct {
	Rebuilds      prometheus.Counter
	RebuildErrors prometheus.Counter
	Documents     prometheus.Gauge
	Problems      prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers the watch-service metrics on a
// dedicated prometheus registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docreg_rebuilds_total",
			Help: "Total registry rebuilds triggered by document changes.",
		}),
		RebuildErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docreg_rebuild_errors_total",
			Help: "Total registry rebuilds that finished with validation problems.",
		}),
		Documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docreg_documents",
			Help: "Number of versioned documents in the last registry build.",
		}),
		Problems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docreg_problems",
			Help: "Number of validation problems in the last registry build.",
		}),
		registry: reg,
	}

	reg.MustRegister(m.Rebuilds, m.RebuildErrors, m.Documents, m.Problems)
	return m
}

// Serve exposes the metrics over HTTP at /metrics until the context is
// cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown", "error", err)
		}
	}()

	logger.Info("Metrics server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
