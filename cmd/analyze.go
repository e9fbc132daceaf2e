package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"minutesync/internal/analysis"
	"minutesync/internal/config"
	"minutesync/internal/logging"
)

// analyzeCmd submits meeting notes for analysis: it fetches the project's
// current tickets, asks the generator for proposed changes and stores the
// resulting analysis for review.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze meeting notes and propose tracker changes",
	Long: `Analyze free-text meeting notes against the current state of a Jira
project and store the proposed changes for review.

Notes are read from the file given with --file, or from stdin when no file
is provided. Nothing is written to Jira by this command; review the
proposals with 'minutesync show' and execute them with 'minutesync approve'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectKey, _ := cmd.Flags().GetString("project-key")
		clientName, _ := cmd.Flags().GetString("client")
		projectName, _ := cmd.Flags().GetString("name")
		notesFile, _ := cmd.Flags().GetString("file")

		if projectKey == "" {
			return fmt.Errorf("project-key flag is required")
		}

		notes, err := readNotes(notesFile)
		if err != nil {
			return err
		}
		if notes == "" {
			return fmt.Errorf("meeting notes are empty")
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

		source, err := newSource(cfg)
		if err != nil {
			return err
		}

		logging.Info("starting analysis",
			"project", projectKey,
			"notes_bytes", len(notes))

		service := newService(st, gateway, source)
		a, err := service.CreateAnalysis(ctx, analysis.CreateAnalysisRequest{
			ProjectKey:   projectKey,
			ClientName:   clientName,
			ProjectName:  projectName,
			MeetingNotes: notes,
		})
		if err != nil {
			return err
		}

		successColor.Printf("analysis %s created with %d proposals\n", a.ID, len(a.ProposedChanges))
		printProposals(a)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("project-key", "p", "", "Jira project key (e.g., 'PROJ')")
	analyzeCmd.Flags().String("client", "", "Client name recorded on the analysis")
	analyzeCmd.Flags().String("name", "", "Project name recorded on the analysis")
	analyzeCmd.Flags().StringP("file", "f", "", "File containing the meeting notes (default: stdin)")
}

func readNotes(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read notes from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read notes file: %w", err)
	}
	return string(data), nil
}
