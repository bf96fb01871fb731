package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/docreg/registry"
)

// EventRunComplete is the ledger event name for run completion.
const EventRunComplete = "run_complete"

// Metadata describes a pipeline run and the policies in force during it.
type Metadata struct {
	RunID           string            `json:"run_id"`
	StartTime       string            `json:"start_time"`
	EndTime         string            `json:"end_time,omitempty"`
	Success         *bool             `json:"success,omitempty"`
	PoliciesInForce map[string]string `json:"policies_in_force"`
	PolicyCount     int               `json:"policy_count"`
}

// runCompleteEvent is appended to the ledger when a run finishes.
type runCompleteEvent struct {
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Success   bool   `json:"success"`
}

// RunManager manages one pipeline run with policy version tracking.
// Initializing a run captures an immutable record of which policy and
// contract versions were in force, before any pipeline work happens.
type RunManager struct {
	runID string
	dir   string
	sink  Sink
	now   func() time.Time
}

// RunOption configures a RunManager.
type RunOption func(*RunManager)

// WithRunID sets an explicit run identifier instead of a generated one.
func WithRunID(id string) RunOption {
	return func(m *RunManager) {
		if id != "" {
			m.runID = id
		}
	}
}

// WithClock overrides the run manager's clock.
func WithClock(now func() time.Time) RunOption {
	return func(m *RunManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewRunManager creates a manager for a single run. ledgerDir is the
// ledger root; the run's artifacts live in ledgerDir/<run_id>/.
func NewRunManager(ledgerDir string, sink Sink, opts ...RunOption) *RunManager {
	m := &RunManager{
		runID: uuid.New().String(),
		dir:   ledgerDir,
		sink:  sink,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunID returns the run identifier.
func (m *RunManager) RunID() string {
	return m.runID
}

// RunDir returns the run's artifact directory.
func (m *RunManager) RunDir() string {
	return filepath.Join(m.dir, m.runID)
}

// InitializeRun captures a policy snapshot from the registry, persists it
// as policy_snapshot.json, appends it to the ledger, and writes the run
// metadata. The snapshot covers active documents only.
func (m *RunManager) InitializeRun(ctx context.Context, reg *registry.Registry) (*Metadata, error) {
	if err := os.MkdirAll(m.RunDir(), 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	snap := registry.Extract(reg, registry.StatusActive, m.now())
	policy := snap.PolicySnapshot(m.runID)

	data, err := json.MarshalIndent(policy, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal policy snapshot: %w", err)
	}
	data = append(data, '\n')

	snapshotPath := filepath.Join(m.RunDir(), "policy_snapshot.json")
	if err := os.WriteFile(snapshotPath, data, 0644); err != nil {
		return nil, fmt.Errorf("write policy snapshot: %w", err)
	}

	if err := m.sink.Append(ctx, m.runID, policy); err != nil {
		return nil, fmt.Errorf("append policy snapshot to ledger: %w", err)
	}

	meta := &Metadata{
		RunID:           m.runID,
		StartTime:       m.now().UTC().Format(time.RFC3339),
		PoliciesInForce: policy.Documents,
		PolicyCount:     policy.Count,
	}
	if err := m.writeMetadata(meta); err != nil {
		return nil, err
	}

	return meta, nil
}

// FinalizeRun stamps the end time and outcome on the run metadata and
// appends a run_complete event to the ledger.
func (m *RunManager) FinalizeRun(ctx context.Context, success bool) (*Metadata, error) {
	meta, err := m.readMetadata()
	if err != nil {
		return nil, err
	}

	meta.EndTime = m.now().UTC().Format(time.RFC3339)
	meta.Success = &success
	if err := m.writeMetadata(meta); err != nil {
		return nil, err
	}

	event := runCompleteEvent{
		RunID:     m.runID,
		Timestamp: meta.EndTime,
		Event:     EventRunComplete,
		Success:   success,
	}
	if err := m.sink.Append(ctx, m.runID, event); err != nil {
		return nil, fmt.Errorf("append run_complete to ledger: %w", err)
	}

	return meta, nil
}

func (m *RunManager) metadataPath() string {
	return filepath.Join(m.RunDir(), "metadata.json")
}

func (m *RunManager) writeMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run metadata: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(m.metadataPath(), data, 0644); err != nil {
		return fmt.Errorf("write run metadata: %w", err)
	}
	return nil
}

func (m *RunManager) readMetadata() (*Metadata, error) {
	data, err := os.ReadFile(m.metadataPath())
	if err != nil {
		return nil, fmt.Errorf("read run metadata (was the run initialized?): %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse run metadata: %w", err)
	}
	return &meta, nil
}
