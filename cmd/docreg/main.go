// Package main provides the docreg binary entry point.
// Docreg builds and enforces the governed-document registry: doc_key
// uniqueness, semver bump rules, policy snapshots, and canonical version
// tags.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "docreg"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// appContext carries the resolved configuration and repository root into
// every subcommand.
type appContext struct {
	cfg      *config.Config
	repoRoot string
	logger   *slog.Logger
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		repoPath   string
		logLevel   string
	)

	app := &appContext{}

	cmd := &cobra.Command{
		Use:   "docreg",
		Short: "Governed-document registry and version enforcement",
		Long: `Docreg scans document trees for markdown files carrying governance
front matter (doc_key, semver, status, effective_date, owner,
contract_type) and enforces the versioning operating contract:

- doc_key uniqueness across the registry
- strictly increasing semver per doc_key, matching declared intent
- restricted bump rules for execution contracts
- linear supersedes chains

It emits auditable artifacts: the registry snapshot, per-run policy
snapshots for the run ledger, and canonical docs-{doc_key}-{semver}
tag names for the version-control collaborator.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(configPath, repoPath, logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "Repository root to operate on")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newBuildCmd(app),
		newVersionsCmd(app),
		newBumpCmd(app),
		newTagCmd(app),
		newRunCmd(app),
		newWatchCmd(app),
		newIngestCmd(app),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// setup resolves the repo root, configures logging, and loads config.
func (app *appContext) setup(configPath, repoPath, logLevel string) error {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	app.logger = logger

	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("resolve repo path: %w", err)
	}
	info, err := os.Stat(absRepoPath)
	if err != nil {
		return fmt.Errorf("stat repo path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absRepoPath)
	}
	app.repoRoot = absRepoPath

	cfg, err := loadConfig(configPath, absRepoPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	app.cfg = cfg

	return nil
}

// loadConfig loads the explicit config file if given, otherwise merges
// .docreg.yaml from the repo root over defaults when present.
func loadConfig(configPath, repoRoot string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}

	cfg := config.DefaultConfig()
	repoConfig := filepath.Join(repoRoot, ".docreg.yaml")
	if _, err := os.Stat(repoConfig); err == nil {
		loaded, err := config.LoadFromFile(repoConfig)
		if err != nil {
			return nil, err
		}
		cfg.Merge(loaded)
	}

	return cfg, nil
}
