// Package ledger records which policy versions were in force during a
// pipeline run. Every run gets its own directory under the ledger root,
// holding an immutable policy snapshot and an append-only event log.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
)

// Sink appends events to a run ledger. Implementations must be
// append-only: an event, once written, is never rewritten.
type Sink interface {
	// Append records one event for a run.
	Append(ctx context.Context, runID string, event any) error

	// Close releases any resources held by the sink.
	Close() error
}

// FileSink appends events to ledger.jsonl inside each run directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink rooted at the given ledger directory.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Append writes the event as one JSON line to the run's ledger file.
func (s *FileSink) Append(_ context.Context, runID string, event any) error {
	runDir := filepath.Join(s.dir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(filepath.Join(runDir, "ledger.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

// Close is a no-op for file sinks.
func (s *FileSink) Close() error {
	return nil
}

// NATSSink publishes ledger events to the external run-ledger collaborator
// over NATS. Events go to {prefix}.{run_id}.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSSink connects to the NATS server and returns a publishing sink.
func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("docreg-ledger"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return &NATSSink{conn: conn, prefix: subjectPrefix}, nil
}

// Append publishes the event and waits for the server round trip, so a
// returned nil means the collaborator has the event.
func (s *NATSSink) Append(ctx context.Context, runID string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", s.prefix, runID)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish ledger event to %s: %w", subject, err)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush ledger event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (s *NATSSink) Close() error {
	return s.conn.Drain()
}

// MultiSink fans an event out to several sinks, failing on the first
// error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Append writes the event to every sink.
func (m *MultiSink) Append(ctx context.Context, runID string, event any) error {
	for _, s := range m.sinks {
		if err := s.Append(ctx, runID, event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, returning the first error.
func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
