package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"minutesync/internal/config"
	"minutesync/internal/logging"
)

// approveCmd executes an approved subset of an analysis's proposals against
// the tracker, in hierarchy order, and prints one result per item.
var approveCmd = &cobra.Command{
	Use:   "approve <analysis-id>",
	Short: "Execute approved proposals against Jira",
	Long: `Execute the selected proposals of an analysis against Jira.

Proposals run in hierarchy order (epics before stories before tasks before
subtasks) so that parents created earlier in the batch are available to
later items. A failing item is recorded and skipped; it never aborts the
rest of the batch.

Select proposals with repeated --index flags, or use --all to approve every
proposal. Approving the same indices twice can create duplicate tickets;
there is no idempotency key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indices, _ := cmd.Flags().GetIntSlice("index")
		all, _ := cmd.Flags().GetBool("all")

		if len(indices) == 0 && !all {
			return fmt.Errorf("select proposals with --index or use --all")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		gateway, err := newGateway(ctx, cfg, st)
		if err != nil {
			return err
		}

		service := newService(st, gateway, nil)

		if all {
			a, err := service.GetAnalysis(ctx, args[0])
			if err != nil {
				return err
			}
			indices = indices[:0]
			for i := range a.ProposedChanges {
				indices = append(indices, i)
			}
		}

		logging.Info("approving proposals",
			"analysis", args[0],
			"indices", indices)

		outcome, err := service.Approve(ctx, args[0], indices)
		if err != nil {
			return err
		}

		printResults(outcome)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().IntSliceP("index", "i", nil, "Index of a proposal to approve (repeatable)")
	approveCmd.Flags().Bool("all", false, "Approve every proposal of the analysis")
}
