package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDoc writes a governed document with the given front matter fields.
func writeDoc(t *testing.T, root, relPath, docKey, semver string) {
	t.Helper()
	content := fmt.Sprintf(`---
doc_key: %s
semver: "%s"
status: active
effective_date: "2025-06-01"
owner: platform-team
contract_type: policy
---
# %s
`, docKey, semver, docKey)

	path := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestBuilder_ValidTree(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/policy-a.md", "policy_a", "1.0.0")
	writeDoc(t, root, "docs/nested/policy-b.md", "policy_b", "2.1.3")
	writeDoc(t, root, "plans/plan-c.md", "plan_c", "0.1.0")

	// Unversioned files are skipped, not errors.
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "README.md"), []byte("# Readme\n"), 0644))

	reg, report := NewBuilder(root).Build()
	require.True(t, report.OK(), report.String())
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"plan_c", "policy_a", "policy_b"}, reg.Keys())

	record := reg.Get("policy_b")
	require.NotNil(t, record)
	assert.Equal(t, "docs/nested/policy-b.md", record.Path)
	assert.Equal(t, Version{2, 1, 3}, record.Version)
}

func TestBuilder_DuplicateKeyNamesBothPaths(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/original.md", "shared_key", "1.0.0")
	writeDoc(t, root, "plans/copy.md", "shared_key", "1.1.0")

	reg, report := NewBuilder(root).Build()
	require.False(t, report.OK())

	dups := report.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, "shared_key", dups[0].DocKey)
	assert.Equal(t, "docs/original.md", dups[0].FirstPath)
	assert.Equal(t, "plans/copy.md", dups[0].SecondPath)

	// The first claimant keeps the slot, but the build is rejected.
	assert.Equal(t, 1, reg.Len())
}

func TestBuilder_AccumulatesAllProblems(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/good.md", "good_doc", "1.0.0")
	writeDoc(t, root, "docs/dup-1.md", "dup_key", "1.0.0")
	writeDoc(t, root, "docs/dup-2.md", "dup_key", "1.0.0")

	broken := `---
doc_key: broken_doc
semver: "oops"
status: active
effective_date: "2025-06-01"
owner: platform-team
contract_type: policy
---
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "broken.md"), []byte(broken), 0644))

	_, report := NewBuilder(root).Build()
	require.False(t, report.OK())
	assert.Equal(t, 2, report.Len())
	assert.Len(t, report.Duplicates(), 1)
	assert.Len(t, report.Malformed(), 1)
}

func TestBuilder_MissingRootsSkipped(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/only.md", "only_doc", "1.0.0")
	// No plans/ directory exists.

	reg, report := NewBuilder(root).Build()
	require.True(t, report.OK(), report.String())
	assert.Equal(t, 1, reg.Len())
}

func TestBuilder_CustomRootsAndPattern(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "governance/policy.md", "gov_policy", "1.0.0")
	writeDoc(t, root, "docs/ignored.md", "ignored_doc", "1.0.0")

	reg, report := NewBuilder(root, WithScanRoots("governance")).Build()
	require.True(t, report.OK(), report.String())
	assert.Equal(t, 1, reg.Len())
	assert.NotNil(t, reg.Get("gov_policy"))
	assert.Nil(t, reg.Get("ignored_doc"))
}

func TestBuilder_ConcurrentMatchesSequential(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeDoc(t, root, fmt.Sprintf("docs/doc-%02d.md", i), fmt.Sprintf("doc_%02d", i), "1.0.0")
	}
	// Two documents fight over one key; detection must be deterministic
	// regardless of parse scheduling.
	writeDoc(t, root, "docs/zz-dup.md", "doc_00", "1.0.0")

	seqReg, seqReport := NewBuilder(root).Build()
	conReg, conReport := NewBuilder(root, WithWorkers(8)).Build()

	assert.Equal(t, seqReg.Keys(), conReg.Keys())
	require.Len(t, seqReport.Duplicates(), 1)
	require.Len(t, conReport.Duplicates(), 1)
	assert.Equal(t, seqReport.Duplicates()[0].FirstPath, conReport.Duplicates()[0].FirstPath)
	assert.Equal(t, seqReport.Duplicates()[0].SecondPath, conReport.Duplicates()[0].SecondPath)
}

func TestRegistry_SnapshotRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/policy-a.md", "policy_a", "1.0.0")
	writeDoc(t, root, "docs/policy-b.md", "policy_b", "2.0.1")

	reg, report := NewBuilder(root).Build()
	require.True(t, report.OK())

	snapshotPath := filepath.Join(root, ".runs", "doc-registry.json")
	require.NoError(t, reg.WriteSnapshot(snapshotPath))

	entries, err := ReadSnapshot(snapshotPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1.0.0", entries["policy_a"].Semver)
	assert.Equal(t, "docs/policy-a.md", entries["policy_a"].Path)
	assert.Equal(t, StatusActive, entries["policy_a"].Status)
	assert.Len(t, entries["policy_a"].MFID, 64)
}

func TestRegistry_SnapshotDeterministic(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/policy-b.md", "policy_b", "1.0.0")
	writeDoc(t, root, "docs/policy-a.md", "policy_a", "1.0.0")

	reg, report := NewBuilder(root).Build()
	require.True(t, report.OK())

	first := filepath.Join(root, "snap1.json")
	second := filepath.Join(root, "snap2.json")
	require.NoError(t, reg.WriteSnapshot(first))
	require.NoError(t, reg.WriteSnapshot(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuilder_UnreadableDocumentIsLocalFailure(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "docs/good.md", "good_doc", "1.0.0")

	badPath := filepath.Join(root, "docs", "unreadable.md")
	require.NoError(t, os.WriteFile(badPath, []byte("---\ndoc_key: x\n---\n"), 0000))
	if _, err := os.ReadFile(badPath); err == nil {
		t.Skip("running as privileged user; cannot produce unreadable file")
	}

	reg, report := NewBuilder(root).Build()
	require.False(t, report.OK())
	assert.Equal(t, 1, report.Len())
	var malformed *MalformedFrontMatterError
	assert.False(t, errors.As(report.Errors()[0], &malformed))
	// The readable document still made it in.
	assert.NotNil(t, reg.Get("good_doc"))
}
