package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/docreg/registry"
)

const runTestDoc = `---
doc_key: release_policy
semver: "1.2.0"
status: active
effective_date: 2026-01-15
owner: platform
contract_type: policy
---

# Release Policy
`

func runTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "release.md"), []byte(runTestDoc), 0644))

	reg, report := registry.NewBuilder(root).Build()
	require.True(t, report.OK(), report.String())
	return reg
}

func TestRunManager_InitializeRun(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	mgr := NewRunManager(dir, NewFileSink(dir),
		WithRunID("run-test-1"),
		WithClock(func() time.Time { return now }),
	)

	meta, err := mgr.InitializeRun(context.Background(), runTestRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, "run-test-1", meta.RunID)
	assert.Equal(t, "2026-03-14T09:26:53Z", meta.StartTime)
	assert.Empty(t, meta.EndTime)
	assert.Nil(t, meta.Success)
	assert.Equal(t, map[string]string{"release_policy": "1.2.0"}, meta.PoliciesInForce)
	assert.Equal(t, 1, meta.PolicyCount)

	// The policy snapshot artifact records the same versions.
	data, err := os.ReadFile(filepath.Join(mgr.RunDir(), "policy_snapshot.json"))
	require.NoError(t, err)
	var policy registry.PolicySnapshot
	require.NoError(t, json.Unmarshal(data, &policy))
	assert.Equal(t, "run-test-1", policy.RunID)
	assert.Equal(t, registry.EventPolicySnapshot, policy.Event)
	assert.Equal(t, map[string]string{"release_policy": "1.2.0"}, policy.Documents)
	assert.Equal(t, 1, policy.Count)

	// And the snapshot was appended to the ledger.
	lines := readLedgerLines(t, dir, "run-test-1")
	require.Len(t, lines, 1)
	assert.Equal(t, registry.EventPolicySnapshot, lines[0]["event"])
}

func TestRunManager_FinalizeRun(t *testing.T) {
	dir := t.TempDir()
	times := []time.Time{
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 9, 45, 0, 0, time.UTC),
	}
	mgr := NewRunManager(dir, NewFileSink(dir),
		WithRunID("run-test-2"),
		WithClock(func() time.Time {
			now := times[0]
			if len(times) > 1 {
				times = times[1:]
			}
			return now
		}),
	)

	ctx := context.Background()
	_, err := mgr.InitializeRun(ctx, runTestRegistry(t))
	require.NoError(t, err)

	meta, err := mgr.FinalizeRun(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14T09:00:00Z", meta.StartTime)
	assert.Equal(t, "2026-03-14T09:45:00Z", meta.EndTime)
	require.NotNil(t, meta.Success)
	assert.True(t, *meta.Success)

	// Metadata on disk matches what was returned.
	data, err := os.ReadFile(filepath.Join(mgr.RunDir(), "metadata.json"))
	require.NoError(t, err)
	var stored Metadata
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, *meta, stored)

	lines := readLedgerLines(t, dir, "run-test-2")
	require.Len(t, lines, 2)
	assert.Equal(t, EventRunComplete, lines[1]["event"])
	assert.Equal(t, true, lines[1]["success"])
}

func TestRunManager_FinalizeWithoutInitialize(t *testing.T) {
	dir := t.TempDir()
	mgr := NewRunManager(dir, NewFileSink(dir), WithRunID("run-test-3"))

	_, err := mgr.FinalizeRun(context.Background(), false)
	require.Error(t, err)
}

func TestRunManager_GeneratesRunID(t *testing.T) {
	mgr := NewRunManager(t.TempDir(), NewFileSink(t.TempDir()))
	assert.NotEmpty(t, mgr.RunID())
}
