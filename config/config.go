// Package config provides configuration loading and management for docreg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete docreg configuration
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Registry RegistryConfig `yaml:"registry"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// ScanConfig configures document tree scanning
type ScanConfig struct {
	// Roots are the directories scanned for governed documents,
	// relative to the repository root
	Roots []string `yaml:"roots"`
	// Pattern is the doublestar glob matched within each root
	Pattern string `yaml:"pattern"`
	// Workers is the number of concurrent parse workers (1 = sequential)
	Workers int `yaml:"workers"`
	// Debounce is how long the watch service waits for changes to settle
	Debounce time.Duration `yaml:"debounce"`
}

// RegistryConfig configures the registry snapshot artifact
type RegistryConfig struct {
	// SnapshotPath is where the registry snapshot JSON is written
	SnapshotPath string `yaml:"snapshot_path"`
}

// LedgerConfig configures the run ledger
type LedgerConfig struct {
	// Dir is the run-ledger directory (one subdirectory per run)
	Dir string `yaml:"dir"`
	// NATSURL enables publishing ledger events over NATS when set
	NATSURL string `yaml:"nats_url"`
	// SubjectPrefix is the NATS subject prefix for ledger events
	SubjectPrefix string `yaml:"subject_prefix"`
}

// MetricsConfig configures the watch-mode metrics endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// IngestConfig configures web document ingestion
type IngestConfig struct {
	// Timeout is the maximum time to wait for a page fetch
	Timeout time.Duration `yaml:"timeout"`
	// MaxContentSize caps the fetched page size in bytes
	MaxContentSize int64 `yaml:"max_content_size"`
	// UserAgent is the HTTP user agent for fetches
	UserAgent string `yaml:"user_agent"`
	// OutputDir is where ingested documents are written,
	// relative to the repository root
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Roots:    []string{"docs", "plans"},
			Pattern:  "**/*.md",
			Workers:  1,
			Debounce: 500 * time.Millisecond,
		},
		Registry: RegistryConfig{
			SnapshotPath: ".runs/doc-registry.json",
		},
		Ledger: LedgerConfig{
			Dir:           ".runs",
			NATSURL:       "",
			SubjectPrefix: "docs.ledger",
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
		Ingest: IngestConfig{
			Timeout:        30 * time.Second,
			MaxContentSize: 10 * 1024 * 1024,
			UserAgent:      "docreg/1.0 (+https://github.com/c360studio/docreg)",
			OutputDir:      "docs",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if len(c.Scan.Roots) == 0 {
		return fmt.Errorf("scan.roots is required")
	}
	if c.Scan.Pattern == "" {
		return fmt.Errorf("scan.pattern is required")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if c.Ledger.Dir == "" {
		return fmt.Errorf("ledger.dir is required")
	}
	if c.Ledger.NATSURL != "" && c.Ledger.SubjectPrefix == "" {
		return fmt.Errorf("ledger.subject_prefix is required when ledger.nats_url is set")
	}
	if c.Ingest.Timeout <= 0 {
		return fmt.Errorf("ingest.timeout must be positive")
	}
	if c.Ingest.MaxContentSize <= 0 {
		return fmt.Errorf("ingest.max_content_size must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Scan
	if len(other.Scan.Roots) > 0 {
		c.Scan.Roots = other.Scan.Roots
	}
	if other.Scan.Pattern != "" {
		c.Scan.Pattern = other.Scan.Pattern
	}
	if other.Scan.Workers != 0 {
		c.Scan.Workers = other.Scan.Workers
	}
	if other.Scan.Debounce != 0 {
		c.Scan.Debounce = other.Scan.Debounce
	}

	// Registry
	if other.Registry.SnapshotPath != "" {
		c.Registry.SnapshotPath = other.Registry.SnapshotPath
	}

	// Ledger
	if other.Ledger.Dir != "" {
		c.Ledger.Dir = other.Ledger.Dir
	}
	if other.Ledger.NATSURL != "" {
		c.Ledger.NATSURL = other.Ledger.NATSURL
	}
	if other.Ledger.SubjectPrefix != "" {
		c.Ledger.SubjectPrefix = other.Ledger.SubjectPrefix
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	// Ingest
	if other.Ingest.Timeout != 0 {
		c.Ingest.Timeout = other.Ingest.Timeout
	}
	if other.Ingest.MaxContentSize != 0 {
		c.Ingest.MaxContentSize = other.Ingest.MaxContentSize
	}
	if other.Ingest.UserAgent != "" {
		c.Ingest.UserAgent = other.Ingest.UserAgent
	}
	if other.Ingest.OutputDir != "" {
		c.Ingest.OutputDir = other.Ingest.OutputDir
	}
}
