package cli

import (
	"fmt"

	"github.com/bnema/retell/internal/domain"
	"github.com/spf13/cobra"
)

var stageForce bool

var stageCmd = &cobra.Command{
	Use:   "stage <job-id> <stage>",
	Short: "Re-run a single pipeline stage for an existing job",
	Long: `Re-run one stage against the artifacts already stored for a job.

Stages: transcribe, segment, normalize, rewrite, synthesize, remux.
An existing transcript is kept unless --force is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runStage,
}

func init() {
	stageCmd.Flags().BoolVarP(&stageForce, "force", "f", false, "overwrite an existing transcript")
}

func runStage(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	stage, err := domain.ParseStage(args[1])
	if err != nil {
		return fmt.Errorf("%q: %w", args[1], err)
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.jobs.RerunStage(cmd.Context(), jobID, stage, stageForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s done\n", jobID, stage)
	return nil
}
