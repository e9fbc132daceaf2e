package cmd

import (
	"github.com/spf13/cobra"

	"minutesync/internal/config"
)

var rejectCmd = &cobra.Command{
	Use:   "reject <analysis-id>",
	Short: "Reject a pending analysis",
	Long: `Mark a pending analysis as rejected. No tickets are created and the
analysis cannot be approved afterwards.`,
	Args: cobra.ExactArgs(1),
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
		if _, err := service.Reject(ctx, args[0]); err != nil {
			return err
		}

		successColor.Println("analysis rejected")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rejectCmd)
}
