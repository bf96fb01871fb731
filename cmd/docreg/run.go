package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/c360studio/docreg/ledger"
)

// newRunCmd creates the run command group for pipeline-run policy
// tracking: init captures the policies in force, finalize stamps the
// outcome.
func newRunCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track which policy versions were in force during a pipeline run",
	}

	cmd.AddCommand(newRunInitCmd(app), newRunFinalizeCmd(app))
	return cmd
}

func newRunInitCmd(app *appContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a run with a policy snapshot",
		Long: `Init builds the registry, captures the versions of all active
documents, and records them in the run ledger before any pipeline
work happens. The snapshot is immutable: it is the audit record of
which policies governed the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, report := newBuilder(app).Build()
			if !report.OK() {
				fmt.Fprint(cmd.ErrOrStderr(), report.String())
				return fmt.Errorf("registry build failed with %d problem(s)", report.Len())
			}

			sink, err := newSink(app)
			if err != nil {
				return err
			}
			defer sink.Close()

			manager := ledger.NewRunManager(ledgerDir(app), sink, ledger.WithRunID(runID))
			meta, err := manager.InitializeRun(cmd.Context(), reg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s initialized with %d active polic(ies)\n",
				meta.RunID, meta.PolicyCount)
			for _, key := range sortedKeys(meta.PoliciesInForce) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: v%s\n", key, meta.PoliciesInForce[key])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (default: generated UUID)")

	return cmd
}

func newRunFinalizeCmd(app *appContext) *cobra.Command {
	var (
		runID   string
		success bool
	)

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize a run with its outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, err := newSink(app)
			if err != nil {
				return err
			}
			defer sink.Close()

			manager := ledger.NewRunManager(ledgerDir(app), sink, ledger.WithRunID(runID))
			meta, err := manager.FinalizeRun(cmd.Context(), success)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s finalized (success=%t)\n", meta.RunID, success)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier")
	cmd.Flags().BoolVar(&success, "success", false, "Whether the run succeeded")
	_ = cmd.MarkFlagRequired("run-id")

	return cmd
}

// newSink assembles the ledger sink: always the file sink, plus the NATS
// collaborator when configured.
func newSink(app *appContext) (ledger.Sink, error) {
	fileSink := ledger.NewFileSink(ledgerDir(app))
	if app.cfg.Ledger.NATSURL == "" {
		return fileSink, nil
	}

	natsSink, err := ledger.NewNATSSink(app.cfg.Ledger.NATSURL, app.cfg.Ledger.SubjectPrefix)
	if err != nil {
		return nil, err
	}
	return ledger.NewMultiSink(fileSink, natsSink), nil
}

func ledgerDir(app *appContext) string {
	return filepath.Join(app.repoRoot, app.cfg.Ledger.Dir)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
