package registry

import (
	"encoding/json"
	"time"
)

// Snapshot is a point-in-time export of the registry filtered by status.
// Records are ordered by doc_key lexicographically, so identical input
// yields byte-identical serialized output.
type Snapshot struct {
	// GeneratedAt is the snapshot generation timestamp, UTC.
	GeneratedAt time.Time `json:"generated_at"`

	// Filter is the status filter that produced this snapshot. Empty
	// means no filter was applied.
	Filter Status `json:"filter,omitempty"`

	// Records are the matching documents in doc_key order.
	Records []*Record `json:"records"`
}

// Extract filters the registry by status and wraps the ordered result
// with the generation timestamp. A zero filter selects every record.
// Extract is a pure function of the registry, filter, and clock.
func Extract(reg *Registry, filter Status, now time.Time) *Snapshot {
	snap := &Snapshot{
		GeneratedAt: now.UTC(),
		Filter:      filter,
		Records:     []*Record{},
	}

	for _, record := range reg.Records() {
		if filter != "" && record.Status != filter {
			continue
		}
		snap.Records = append(snap.Records, record)
	}

	return snap
}

// Versions returns the snapshot as a simple doc_key to semver mapping.
func (s *Snapshot) Versions() map[string]string {
	versions := make(map[string]string, len(s.Records))
	for _, record := range s.Records {
		versions[record.DocKey] = record.Version.String()
	}
	return versions
}

// Count returns the number of records in the snapshot.
func (s *Snapshot) Count() int {
	return len(s.Records)
}

// EventPolicySnapshot is the ledger event name for a policy snapshot.
const EventPolicySnapshot = "policy_snapshot"

// PolicySnapshot is the ledger form of a snapshot: the immutable record of
// which policy and contract versions were in force during a pipeline run.
// It is appended to the run ledger keyed by run identifier.
type PolicySnapshot struct {
	RunID     string            `json:"run_id,omitempty"`
	Timestamp string            `json:"timestamp"`
	Event     string            `json:"event"`
	Documents map[string]string `json:"documents"`
	Count     int               `json:"count"`
}

// PolicySnapshot converts the snapshot to its ledger form.
func (s *Snapshot) PolicySnapshot(runID string) *PolicySnapshot {
	return &PolicySnapshot{
		RunID:     runID,
		Timestamp: s.GeneratedAt.Format(time.RFC3339),
		Event:     EventPolicySnapshot,
		Documents: s.Versions(),
		Count:     s.Count(),
	}
}

// MarshalIndent serializes the snapshot as indented JSON.
func (s *Snapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
