package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"docs", "plans"}, cfg.Scan.Roots)
	assert.Equal(t, "**/*.md", cfg.Scan.Pattern)
	assert.Equal(t, 1, cfg.Scan.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Scan.Debounce)
	assert.Equal(t, ".runs/doc-registry.json", cfg.Registry.SnapshotPath)
	assert.Equal(t, ".runs", cfg.Ledger.Dir)
	assert.Empty(t, cfg.Ledger.NATSURL)
	assert.Equal(t, "docs.ledger", cfg.Ledger.SubjectPrefix)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, 30*time.Second, cfg.Ingest.Timeout)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no scan roots",
			mutate:  func(c *Config) { c.Scan.Roots = nil },
			wantErr: "scan.roots",
		},
		{
			name:    "empty pattern",
			mutate:  func(c *Config) { c.Scan.Pattern = "" },
			wantErr: "scan.pattern",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Scan.Workers = 0 },
			wantErr: "scan.workers",
		},
		{
			name:    "empty ledger dir",
			mutate:  func(c *Config) { c.Ledger.Dir = "" },
			wantErr: "ledger.dir",
		},
		{
			name: "nats without subject prefix",
			mutate: func(c *Config) {
				c.Ledger.NATSURL = "nats://localhost:4222"
				c.Ledger.SubjectPrefix = ""
			},
			wantErr: "ledger.subject_prefix",
		},
		{
			name:    "non-positive ingest timeout",
			mutate:  func(c *Config) { c.Ingest.Timeout = 0 },
			wantErr: "ingest.timeout",
		},
		{
			name:    "non-positive content cap",
			mutate:  func(c *Config) { c.Ingest.MaxContentSize = -1 },
			wantErr: "ingest.max_content_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docreg.yaml")
	content := `scan:
  roots:
    - policies
  workers: 4
ledger:
  nats_url: nats://localhost:4222
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"policies"}, cfg.Scan.Roots)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, "nats://localhost:4222", cfg.Ledger.NATSURL)
	// Unset fields keep their defaults.
	assert.Equal(t, "**/*.md", cfg.Scan.Pattern)
	assert.Equal(t, ".runs", cfg.Ledger.Dir)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [not a mapping"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Workers = 8
	cfg.Metrics.Addr = ":9090"

	path := filepath.Join(t.TempDir(), "nested", "docreg.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Scan:   ScanConfig{Roots: []string{"governance"}, Workers: 4},
		Ledger: LedgerConfig{NATSURL: "nats://localhost:4222"},
	})

	assert.Equal(t, []string{"governance"}, base.Scan.Roots)
	assert.Equal(t, 4, base.Scan.Workers)
	assert.Equal(t, "nats://localhost:4222", base.Ledger.NATSURL)
	// Zero values in the overlay leave base values alone.
	assert.Equal(t, "**/*.md", base.Scan.Pattern)
	assert.Equal(t, 500*time.Millisecond, base.Scan.Debounce)
}

func TestMerge_Nil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	assert.Equal(t, DefaultConfig(), cfg)
}
