package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/registry"
)

// newBuildCmd creates the build command: scan the document tree, enforce
// doc_key uniqueness, and write the registry snapshot.
func newBuildCmd(app *appContext) *cobra.Command {
	var (
		checkOnly  bool
		output     string
		jsonReport bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the document registry and enforce doc_key uniqueness",
		Long: `Build scans the configured roots for governed documents, validates
every front-matter block, and writes the registry snapshot. Any
duplicate doc_key or malformed front matter fails the build as a
whole; every problem found is reported in one pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, report := newBuilder(app).Build()

			if jsonReport {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Found %d versioned document(s)\n", reg.Len())
				if !report.OK() {
					fmt.Fprint(cmd.ErrOrStderr(), report.String())
				}
			}

			if !report.OK() {
				return fmt.Errorf("registry build failed with %d problem(s)", report.Len())
			}

			if checkOnly {
				if !jsonReport {
					fmt.Fprintln(cmd.OutOrStdout(), "All doc_key identifiers are unique; all front matter is valid")
				}
				return nil
			}

			snapshotPath := output
			if snapshotPath == "" {
				snapshotPath = filepath.Join(app.repoRoot, app.cfg.Registry.SnapshotPath)
			}
			if err := reg.WriteSnapshot(snapshotPath); err != nil {
				return err
			}
			if !jsonReport {
				fmt.Fprintf(cmd.OutOrStdout(), "Registry saved to %s\n", snapshotPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "Validate only, do not write the registry snapshot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path for the registry snapshot")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "Emit the validation report as JSON")

	return cmd
}

// newBuilder constructs a registry builder from the app configuration.
func newBuilder(app *appContext) *registry.Builder {
	return registry.NewBuilder(app.repoRoot,
		registry.WithScanRoots(app.cfg.Scan.Roots...),
		registry.WithScanPattern(app.cfg.Scan.Pattern),
		registry.WithWorkers(app.cfg.Scan.Workers),
		registry.WithLogger(app.logger),
	)
}
