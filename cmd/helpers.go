package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"minutesync/internal/analysis"
	"minutesync/internal/config"
	"minutesync/internal/jira"
	"minutesync/internal/llm"
	"minutesync/internal/logging"
	"minutesync/internal/store"
	"minutesync/pkg/models"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgMagenta, color.Bold)
)

// openStore opens the local database at the configured path.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// newGateway builds the tracker gateway from the environment override when
// present, else from the saved credential record.
func newGateway(ctx context.Context, cfg *config.Config, st *store.Store) (*jira.Client, error) {
	if cfg.HasJiraOverride() {
		logging.Debug("using jira credentials from environment")
		return jira.NewClient(cfg.Jira.Domain, cfg.Jira.Email, cfg.Jira.APIToken)
	}

	saved, err := st.GetJiraConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("run 'minutesync configure' first: %w", err)
	}
	return jira.NewClient(saved.Domain, saved.Email, saved.APIToken)
}

// newService wires the full service. source may be nil for operations that
// never call the generator.
func newService(st *store.Store, gateway *jira.Client, source analysis.ProposalSource) *analysis.Service {
	return analysis.NewService(st, gateway, source)
}

// newSource builds the generation client from configuration.
func newSource(cfg *config.Config) (*llm.Client, error) {
	if err := config.ValidateAnthropicConfig(cfg); err != nil {
		return nil, err
	}
	return llm.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
}

// printProposals renders an analysis's proposals with their indices, which
// are what approve and edit refer to.
func printProposals(a *models.Analysis) {
	if len(a.ProposedChanges) == 0 {
		fmt.Println("  (no proposed changes)")
		return
	}

	for i, p := range a.ProposedChanges {
		headerColor.Printf("[%d] %s %s: %s\n", i, p.Action, p.IssueType, p.Summary)
		if p.ParentSummary != "" {
			fmt.Printf("    parent: %s\n", p.ParentSummary)
		}
		if p.TicketKey != "" {
			fmt.Printf("    ticket: %s\n", p.TicketKey)
		}
		if p.Description != "" {
			fmt.Printf("    %s\n", p.Description)
		}
		if p.Reasoning != "" {
			fmt.Printf("    reasoning: %s\n", p.Reasoning)
		}
	}
}

// printResults renders per-item batch outcomes.
func printResults(outcome *analysis.ApprovalOutcome) {
	for _, issue := range outcome.Validation {
		if issue.Severity == models.SeverityError {
			errorColor.Printf("  [%d] error: %s\n", issue.Index, issue.Message)
		} else {
			warningColor.Printf("  [%d] warning: %s\n", issue.Index, issue.Message)
		}
	}

	for _, r := range outcome.Results {
		if r.Success {
			successColor.Printf("  [%d] %s %s", r.Index, r.Action, r.TicketKey)
			if r.ParentKey != "" {
				fmt.Printf(" (parent %s)", r.ParentKey)
			}
			fmt.Println()
		} else {
			errorColor.Printf("  [%d] %s failed: %s\n", r.Index, r.Action, r.Error)
		}
	}

	fmt.Printf("analysis status: %s\n", outcome.Status)
}
