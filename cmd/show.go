package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"minutesync/internal/config"
)

var showCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show an analysis and its proposals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		a, err := st.GetAnalysis(ctx, args[0])
		if err != nil {
			return err
		}

		headerColor.Printf("analysis %s\n", a.ID)
		fmt.Printf("project: %s (%s / %s)\n", a.ProjectKey, a.ClientName, a.ProjectName)
		fmt.Printf("status: %s, created: %s", a.Status, a.CreatedAt.Format("2006-01-02 15:04"))
		if a.ProcessedAt != nil {
			fmt.Printf(", processed: %s", a.ProcessedAt.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		printProposals(a)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
