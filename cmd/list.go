package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"minutesync/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, most recent first",
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

		service := newService(st, nil, nil)
		analyses, err := service.ListAnalyses(ctx)
		if err != nil {
			return err
		}

		if len(analyses) == 0 {
			fmt.Println("no analyses stored")
			return nil
		}

		for _, a := range analyses {
			fmt.Printf("%s  %-20s %-10s %2d proposals  %s\n",
				a.CreatedAt.Format("2006-01-02 15:04"),
				a.ProjectKey, a.Status, len(a.ProposedChanges), a.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
