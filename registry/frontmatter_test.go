package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `---
doc_key: versioning_policy
semver: "1.3.0"
status: active
effective_date: "2025-06-01"
supersedes_version: "1.2.1"
owner: platform-team
contract_type: policy
---
# Versioning Policy

Body text.
`

func TestParseDocument_Valid(t *testing.T) {
	record, err := ParseDocument("docs/versioning.md", []byte(validDoc))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "versioning_policy", record.DocKey)
	assert.Equal(t, "docs/versioning.md", record.Path)
	assert.Equal(t, Version{1, 3, 0}, record.Version)
	assert.Equal(t, StatusActive, record.Status)
	assert.Equal(t, "2025-06-01", record.EffectiveDate.String())
	require.NotNil(t, record.SupersedesVersion)
	assert.Equal(t, Version{1, 2, 1}, *record.SupersedesVersion)
	assert.Equal(t, "platform-team", record.Owner)
	assert.Equal(t, ContractPolicy, record.ContractType)
	assert.Equal(t, Fingerprint([]byte(validDoc)), record.MFID)
	assert.Len(t, record.MFID, 64)
}

func TestParseDocument_NoFrontMatter(t *testing.T) {
	record, err := ParseDocument("docs/readme.md", []byte("# Just a readme\n"))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestParseDocument_NoDocKey(t *testing.T) {
	content := `---
title: Some unversioned document
---
Body.
`
	record, err := ParseDocument("docs/notes.md", []byte(content))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestParseDocument_UnclosedFrontMatter(t *testing.T) {
	record, err := ParseDocument("docs/broken.md", []byte("---\ndoc_key: x\n"))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestParseDocument_EnumeratesEveryProblem(t *testing.T) {
	content := `---
doc_key: broken_doc
semver: "1.2"
status: retired
effective_date: "June 1st"
contract_type: promise
---
`
	record, err := ParseDocument("docs/broken.md", []byte(content))
	assert.Nil(t, record)
	require.Error(t, err)

	var malformed *MalformedFrontMatterError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "docs/broken.md", malformed.Path)

	// One problem per bad field: semver, status, date, owner, contract_type.
	assert.Len(t, malformed.Problems, 5)
	joined := strings.Join(malformed.Problems, "\n")
	assert.Contains(t, joined, "semver")
	assert.Contains(t, joined, "status")
	assert.Contains(t, joined, "YYYY-MM-DD")
	assert.Contains(t, joined, "owner")
	assert.Contains(t, joined, "contract_type")
}

func TestParseDocument_MissingRequiredFields(t *testing.T) {
	content := `---
doc_key: sparse_doc
---
`
	_, err := ParseDocument("docs/sparse.md", []byte(content))
	require.Error(t, err)

	var malformed *MalformedFrontMatterError
	require.True(t, errors.As(err, &malformed))
	assert.Len(t, malformed.Problems, 5)
	for _, problem := range malformed.Problems {
		assert.Contains(t, problem, "missing required field")
	}
}

func TestParseDocument_NullSupersedes(t *testing.T) {
	content := `---
doc_key: first_doc
semver: "1.0.0"
status: active
effective_date: "2025-01-01"
supersedes_version: null
owner: platform-team
contract_type: intent
---
`
	record, err := ParseDocument("docs/first.md", []byte(content))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Nil(t, record.SupersedesVersion)
}

func TestParseDocument_CRLF(t *testing.T) {
	content := strings.ReplaceAll(validDoc, "\n", "\r\n")
	record, err := ParseDocument("docs/crlf.md", []byte(content))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "versioning_policy", record.DocKey)
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint([]byte("content"))
	b := Fingerprint([]byte("content"))
	c := Fingerprint([]byte("different"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
