package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <job-id>",
	Short: "Check stored artifacts against their recorded digests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		bad, err := a.store.Verify(args[0])
		if err != nil {
			return err
		}
		if len(bad) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: all artifacts intact\n", args[0])
			return nil
		}
		for _, kind := range bad {
			fmt.Fprintf(cmd.OutOrStdout(), "MISMATCH  %s\n", kind)
		}
		return fmt.Errorf("%d artifact(s) failed verification", len(bad))
	},
}
