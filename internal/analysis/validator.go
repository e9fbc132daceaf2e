package analysis

import (
	"fmt"

	"minutesync/internal/hierarchy"
	"minutesync/pkg/models"
)

// Validate pre-flight checks the proposals selected for approval, before
// any tracker call is made. A create without a parent title is a warning
// for stories and tasks (creation proceeds unparented) but an error for
// subtasks, which cannot exist without a parent. Error-severity items are
// excluded from execution; everything else proceeds.
func Validate(proposals []models.ProposedChange, indices []int) []models.ValidationIssue {
	var issues []models.ValidationIssue

	for _, idx := range indices {
		if idx < 0 || idx >= len(proposals) {
			continue
		}
		proposal := proposals[idx]
		if proposal.Action != models.ActionCreate || proposal.ParentSummary != "" {
			continue
		}

		switch hierarchy.ClassifyTypeName(proposal.IssueType) {
		case hierarchy.KindStory, hierarchy.KindTask, hierarchy.KindBug:
			issues = append(issues, models.ValidationIssue{
				Index:    idx,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("%s %q has no parent; it will be created without one", proposal.IssueType, proposal.Summary),
			})
		case hierarchy.KindSubtask:
			issues = append(issues, models.ValidationIssue{
				Index:    idx,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("subtask %q has no parent and cannot be created", proposal.Summary),
			})
		}
	}

	return issues
}
