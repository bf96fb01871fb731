package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/docreg/registry"
)

// Service rebuilds the registry whenever watched documents change and
// rewrites the snapshot artifact after each clean build.
type Service struct {
	builder      *registry.Builder
	watcher      *Watcher
	metrics      *Metrics
	snapshotPath string
	logger       *slog.Logger
}

// NewService wires a builder, watcher, and metrics into a watch service.
// snapshotPath may be empty to skip writing the snapshot artifact.
func NewService(builder *registry.Builder, watcher *Watcher, metrics *Metrics, snapshotPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		builder:      builder,
		watcher:      watcher,
		metrics:      metrics,
		snapshotPath: snapshotPath,
		logger:       logger,
	}
}

// Run performs an initial build, then rebuilds on every settled change
// batch until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.watcher.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("Watcher stop", "error", err)
		}
	}()

	s.rebuild()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-s.watcher.Changes():
			if !ok {
				return nil
			}
			s.rebuild()
		}
	}
}

// rebuild runs one registry build, updates metrics, and rewrites the
// snapshot when the build is clean. A failed build keeps the previous
// snapshot artifact in place.
func (s *Service) rebuild() {
	start := time.Now()
	reg, report := s.builder.Build()

	s.metrics.Rebuilds.Inc()
	s.metrics.Documents.Set(float64(reg.Len()))
	s.metrics.Problems.Set(float64(report.Len()))

	if !report.OK() {
		s.metrics.RebuildErrors.Inc()
		s.logger.Warn("Registry rebuild has problems",
			"problems", report.Len(),
			"elapsed", time.Since(start))
		for _, err := range report.Errors() {
			s.logger.Warn("Registry problem", "error", err)
		}
		return
	}

	if s.snapshotPath != "" {
		if err := reg.WriteSnapshot(s.snapshotPath); err != nil {
			s.logger.Error("Write registry snapshot", "error", err)
			return
		}
	}

	s.logger.Info("Registry rebuilt",
		"documents", reg.Len(),
		"elapsed", time.Since(start))
}
