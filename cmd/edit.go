package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"minutesync/internal/config"
)

// editCmd changes a single proposal of a pending analysis. Only the summary
// and description can be edited; the action and hierarchy placement come
// from the generator and are fixed.
var editCmd = &cobra.Command{
	Use:   "edit <analysis-id>",
	Short: "Edit a proposal of a pending analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, _ := cmd.Flags().GetInt("index")
		summary, _ := cmd.Flags().GetString("summary")
		description, _ := cmd.Flags().GetString("description")

		if summary == "" && description == "" {
			return fmt.Errorf("nothing to change: provide --summary and/or --description")
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

		service := newService(st, nil, nil)
		a, err := service.ModifyProposal(ctx, args[0], index, summary, description)
		if err != nil {
			return err
		}

		successColor.Printf("proposal %d updated\n", index)
		printProposals(a)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().IntP("index", "i", 0, "Index of the proposal to edit")
	editCmd.Flags().String("summary", "", "New summary")
	editCmd.Flags().String("description", "", "New description")
	editCmd.MarkFlagRequired("index")
}
