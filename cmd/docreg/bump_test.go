package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firstVersionDoc = `---
doc_key: release_policy
semver: "1.0.0"
status: active
effective_date: 2026-01-15
owner: platform
contract_type: policy
---

# Release Policy
`

func runDocreg(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBump_MissingDefaultBaselineIsEmptyRegistry(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "docs", "release.md"), []byte(firstVersionDoc), 0644))

	// No snapshot has ever been built in this repository.
	out, err := runDocreg(t, "bump", "docs/release.md", "--intent", "major", "--repo", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "first version")
	assert.Contains(t, out, "release_policy")
}

func TestBump_ExplicitBaselineMustExist(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "docs", "release.md"), []byte(firstVersionDoc), 0644))

	_, err := runDocreg(t, "bump", "docs/release.md",
		"--intent", "major",
		"--repo", repo,
		"--baseline", filepath.Join(repo, "absent.json"))
	require.Error(t, err)
}
