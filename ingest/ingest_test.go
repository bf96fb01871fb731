package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/docreg/registry"
)

func TestRenderDocument_IsRegistryValid(t *testing.T) {
	ing := NewIngester(nil, t.TempDir(), "docs", nil)
	ing.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	doc := ing.renderDocument(
		"data-retention-policy",
		"https://example.com/policies/retention",
		"compliance",
		registry.ContractPolicy,
		&ConvertResult{
			Title:    "Data Retention Policy",
			Markdown: "Records are kept for seven years.",
		},
	)

	record, err := registry.ParseDocument("docs/data-retention-policy.md", []byte(doc))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "data-retention-policy", record.DocKey)
	assert.Equal(t, registry.Version{Major: 1}, record.Version)
	assert.Equal(t, registry.StatusActive, record.Status)
	assert.Equal(t, "2026-03-14", record.EffectiveDate.String())
	assert.Equal(t, "compliance", record.Owner)
	assert.Equal(t, registry.ContractPolicy, record.ContractType)
	assert.Nil(t, record.SupersedesVersion)

	// The title becomes the document heading when the body lacks one.
	assert.Contains(t, doc, "# Data Retention Policy")
	assert.Contains(t, doc, "source_url: https://example.com/policies/retention")
}

func TestRenderDocument_KeepsExistingHeading(t *testing.T) {
	ing := NewIngester(nil, t.TempDir(), "docs", nil)

	doc := ing.renderDocument(
		"access-policy",
		"https://example.com/access",
		"security",
		registry.ContractIntent,
		&ConvertResult{
			Title:    "Access Policy",
			Markdown: "# Access Policy\n\nLeast privilege applies.",
		},
	)

	assert.Equal(t, 1, strings.Count(doc, "# Access Policy"))
}
