package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/ingest"
	"github.com/c360studio/docreg/registry"
)

// newIngestCmd creates the ingest command: import an externally published
// policy page as a governed markdown document.
func newIngestCmd(app *appContext) *cobra.Command {
	var (
		docKey       string
		owner        string
		contractType string
	)

	cmd := &cobra.Command{
		Use:   "ingest <url>",
		Short: "Import an HTTPS policy page as a governed document",
		Long: `Ingest fetches the page, converts it to markdown, and writes it under
the configured output directory with scaffolded governance front
matter at version 1.0.0. The document enters the registry on the
next build.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := ingest.NewFetcher(
				app.cfg.Ingest.Timeout,
				app.cfg.Ingest.UserAgent,
				app.cfg.Ingest.MaxContentSize,
			)
			ingester := ingest.NewIngester(fetcher, app.repoRoot, app.cfg.Ingest.OutputDir, app.logger)

			result, err := ingester.Ingest(cmd.Context(), args[0], ingest.Options{
				DocKey:       docKey,
				Owner:        owner,
				ContractType: registry.ContractType(contractType),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %q as %s (%s)\n", result.Title, result.DocKey, result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&docKey, "doc-key", "", "doc_key for the new document (default: derived from page title)")
	cmd.Flags().StringVar(&owner, "owner", "", "Responsible team recorded in the front matter")
	cmd.Flags().StringVar(&contractType, "contract-type", string(registry.ContractPolicy), "Contract type (policy, intent, execution_contract)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
