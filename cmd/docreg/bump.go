package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/registry"
)

// newBumpCmd creates the bump command: validate a proposed document
// version against a baseline registry snapshot and a declared intent.
func newBumpCmd(app *appContext) *cobra.Command {
	var (
		intent   string
		baseline string
	)

	cmd := &cobra.Command{
		Use:   "bump <document>",
		Short: "Validate a proposed version bump before merge",
		Long: `Bump parses the given document's front matter and checks its version
against the baseline registry snapshot (typically built from the
target branch):

  1. a first version is accepted at any starting semver
  2. the new version must be strictly greater than the baseline
  3. the changed component must match --intent exactly
  4. execution contracts reject minor bumps
  5. supersedes_version must equal the baseline version

The first failed rule is reported; a valid bump prints the decision.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			declared := registry.Intent(intent)
			if !declared.IsValid() {
				return fmt.Errorf("invalid intent %q (want patch, minor, or major)", intent)
			}

			docPath := args[0]
			content, err := os.ReadFile(filepath.Join(app.repoRoot, docPath))
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			candidate, err := registry.ParseDocument(docPath, content)
			if err != nil {
				return err
			}
			if candidate == nil {
				return fmt.Errorf("%s carries no governance front matter", docPath)
			}

			entries, err := loadBaseline(app, baseline)
			if err != nil {
				return err
			}

			var previous *registry.Record
			if entry, ok := entries[candidate.DocKey]; ok {
				version, err := registry.ParseVersion(entry.Semver)
				if err != nil {
					return fmt.Errorf("baseline entry for %s: %w", candidate.DocKey, err)
				}
				previous = &registry.Record{
					DocKey:  candidate.DocKey,
					Path:    entry.Path,
					Version: version,
					Status:  entry.Status,
				}
			}

			decision, err := registry.ValidateBump(previous, candidate, declared)
			if err != nil {
				return err
			}

			if decision.FirstVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted: %s starts at %s (first version, one-time exception)\n",
					decision.DocKey, decision.To)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted: %s %s -> %s (%s)\n",
					decision.DocKey, decision.From, decision.To, decision.Intent)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&intent, "intent", "", "Declared change intent (patch, minor, major)")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Baseline registry snapshot (default: configured snapshot path)")
	_ = cmd.MarkFlagRequired("intent")

	return cmd
}

// loadBaseline reads the baseline snapshot. When no --baseline was given
// and the configured snapshot does not exist yet, the baseline is an empty
// registry, so a brand-new repository reaches the first-version rule. An
// explicit --baseline must exist.
func loadBaseline(app *appContext, baseline string) (map[string]registry.SnapshotEntry, error) {
	if baseline != "" {
		return registry.ReadSnapshot(baseline)
	}

	path := filepath.Join(app.repoRoot, app.cfg.Registry.SnapshotPath)
	entries, err := registry.ReadSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]registry.SnapshotEntry{}, nil
	}
	return entries, err
}
