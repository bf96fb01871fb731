package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/registry"
)

// newVersionsCmd creates the versions command: extract current document
// versions from a fresh registry build, optionally filtered by status.
func newVersionsCmd(app *appContext) *cobra.Command {
	var (
		format string
		output string
		status string
	)

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Extract current versions of governed documents",
		Long: `Versions builds the registry and prints the document versions as a
deterministic snapshot: records ordered by doc_key so identical
input always produces identical output.

Formats:
  simple  doc_key -> semver mapping (default)
  json    full snapshot with metadata
  ledger  policy_snapshot ledger event`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := registry.Status(status)
			if status == "all" {
				filter = ""
			} else if !filter.IsValid() {
				return fmt.Errorf("invalid status filter %q", status)
			}

			reg, report := newBuilder(app).Build()
			if !report.OK() {
				fmt.Fprint(cmd.ErrOrStderr(), report.String())
				return fmt.Errorf("registry build failed with %d problem(s)", report.Len())
			}

			snap := registry.Extract(reg, filter, time.Now())

			var (
				data []byte
				err  error
			)
			switch format {
			case "json":
				data, err = snap.MarshalIndent()
			case "ledger":
				data, err = json.MarshalIndent(snap.PolicySnapshot(""), "", "  ")
			case "simple":
				data, err = json.MarshalIndent(snap.Versions(), "", "  ")
			default:
				return fmt.Errorf("unknown format %q (want simple, json, or ledger)", format)
			}
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if output != "" {
				if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d document version(s) to %s\n", snap.Count(), output)
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "simple", "Output format (simple, json, ledger)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&status, "status", "active", "Filter by document status (active, deprecated, frozen, all)")

	return cmd
}
