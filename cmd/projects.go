package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"minutesync/internal/config"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List Jira projects visible to the configured credentials",
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

		gateway, err := newGateway(ctx, cfg, st)
		if err != nil {
			return err
		}

		projects, err := gateway.ListProjects(ctx)
		if err != nil {
			return err
		}

		for _, p := range projects {
			fmt.Printf("%-12s %s\n", p.Key, p.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
