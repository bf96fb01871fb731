package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/registry"
	"github.com/c360studio/docreg/tagsink"
)

// newTagCmd creates the tag command: derive the canonical immutable tag
// name for a document, optionally creating it via the git collaborator.
func newTagCmd(app *appContext) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "tag <document>",
		Short: "Derive the canonical docs-{doc_key}-{semver} tag name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath := args[0]
			content, err := os.ReadFile(filepath.Join(app.repoRoot, docPath))
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			record, err := registry.ParseDocument(docPath, content)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%s carries no governance front matter", docPath)
			}

			name, err := registry.DeriveTag(record.DocKey, record.Version)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), name)

			if !create {
				return nil
			}

			sink, err := tagsink.NewGit(cmd.Context(), app.repoRoot)
			if err != nil {
				return err
			}
			message := fmt.Sprintf("%s %s (%s)", record.DocKey, record.Version, record.ContractType)
			if err := sink.EnsureTag(cmd.Context(), name, message); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Tag %s created\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "Create the tag in the local repository")

	return cmd
}
