package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"minutesync/internal/config"
	"minutesync/internal/jira"
	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

// configureCmd saves the tracker credential set. Only one credential record
// exists at a time; saving replaces the previous one.
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Save Jira credentials",
	Long: `Save the Jira domain, account email and API token used by all other
commands. The credentials are stored locally; saving again replaces the
previous set. Use --test to verify the connection after saving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")
		email, _ := cmd.Flags().GetString("email")
		token, _ := cmd.Flags().GetString("token")
		test, _ := cmd.Flags().GetBool("test")

		if err := config.ValidateJiraConfig(domain, email, token); err != nil {
			return err
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

		record := &models.JiraConfig{
			ID:        uuid.NewString(),
			Domain:    domain,
			Email:     email,
			APIToken:  token,
			CreatedAt: time.Now().UTC(),
		}
		if err := st.SaveJiraConfig(ctx, record); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		logging.Info("jira configuration saved",
			"domain", domain,
			"email", email,
			"token", logging.MaskSensitive(token))
		successColor.Println("configuration saved")

		if test {
			client, err := jira.NewClient(domain, email, token)
			if err != nil {
				return err
			}
			if err := client.TestConnection(ctx); err != nil {
				errorColor.Println("connection test failed")
				return err
			}
			successColor.Println("successfully connected to jira")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().String("domain", "", "Jira domain (e.g., 'yourcompany.atlassian.net')")
	configureCmd.Flags().String("email", "", "Jira account email")
	configureCmd.Flags().String("token", "", "Jira API token")
	configureCmd.Flags().Bool("test", false, "Test the connection after saving")
	configureCmd.MarkFlagRequired("domain")
	configureCmd.MarkFlagRequired("email")
	configureCmd.MarkFlagRequired("token")
}
