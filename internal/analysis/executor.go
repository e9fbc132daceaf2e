package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"minutesync/internal/hierarchy"
	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

// Gateway is the tracker API surface the engine depends on.
type Gateway interface {
	ListTickets(ctx context.Context, projectKey string) ([]models.Ticket, error)
	GetIssueTypes(ctx context.Context, projectKey string) ([]models.IssueTypeMetadata, error)
	CreateTicket(ctx context.Context, projectKey string, req models.CreateTicketRequest) (string, error)
	UpdateTicket(ctx context.Context, ticketKey, summary, description string) error
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// BatchExecutor runs an approved set of proposals against the tracker in
// hierarchy order, sequentially, with per-item failure isolation. Each
// successful create feeds the in-batch cache consulted by later parent
// resolutions, so the ordering and the sequencing are both load-bearing.
type BatchExecutor struct {
	gateway   Gateway
	resolver  *hierarchy.ParentResolver
	typeNames map[string]*models.IssueTypeMetadata
}

// NewBatchExecutor builds an executor over a hierarchy snapshot fetched at
// the start of the approval call and the project's resolved issue types.
func NewBatchExecutor(gateway Gateway, structure *models.HierarchyStructure, typeNames map[string]*models.IssueTypeMetadata) *BatchExecutor {
	return &BatchExecutor{
		gateway:   gateway,
		resolver:  hierarchy.NewParentResolver(structure),
		typeNames: typeNames,
	}
}

// Execute processes the requested proposal indices of an analysis and
// returns one result per valid requested index, ordered by index, plus the
// pre-flight validation findings. Out-of-range and duplicate indices are
// dropped. A failing item never aborts the remaining items.
func (e *BatchExecutor) Execute(ctx context.Context, a *models.Analysis, requested []int) ([]models.ExecutionResult, []models.ValidationIssue) {
	indices := dedupeValid(requested, len(a.ProposedChanges))
	issues := Validate(a.ProposedChanges, indices)

	blocked := make(map[int]string)
	for _, issue := range issues {
		if issue.Severity == models.SeverityError {
			blocked[issue.Index] = issue.Message
		}
	}

	// Parents before children: epics first, then stories, tasks, subtasks,
	// bugs last. Ties keep the proposal order from the analysis.
	ordered := make([]int, len(indices))
	copy(ordered, indices)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri := hierarchy.ClassifyTypeName(a.ProposedChanges[ordered[i]].IssueType).Rank()
		rj := hierarchy.ClassifyTypeName(a.ProposedChanges[ordered[j]].IssueType).Rank()
		return ri < rj
	})

	batchCache := make(map[string]string)
	results := make([]models.ExecutionResult, 0, len(ordered))

	for _, idx := range ordered {
		proposal := a.ProposedChanges[idx]

		if msg, isBlocked := blocked[idx]; isBlocked {
			results = append(results, failure(idx, proposal, msg))
			continue
		}

		var result models.ExecutionResult
		switch proposal.Action {
		case models.ActionCreate:
			result = e.executeCreate(ctx, a.ProjectKey, idx, proposal, batchCache)
		case models.ActionModify:
			result = e.executeModify(ctx, idx, proposal)
		case models.ActionReuseExisting:
			// No tracker call: the ticket already exists and stays as-is.
			result = models.ExecutionResult{
				Index:     idx,
				Action:    proposal.Action,
				Success:   true,
				TicketKey: proposal.TicketKey,
				IssueType: proposal.IssueType,
			}
		default:
			result = failure(idx, proposal, fmt.Sprintf("unsupported action %q", proposal.Action))
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, issues
}

// executeCreate resolves the proposal's parent and creates the ticket. An
// unresolvable parent is fatal for a subtask and tolerated, with a warning,
// for everything else.
func (e *BatchExecutor) executeCreate(ctx context.Context, projectKey string, idx int, proposal models.ProposedChange, batchCache map[string]string) models.ExecutionResult {
	kind := hierarchy.ClassifyTypeName(proposal.IssueType)

	parentKey := ""
	if kind != hierarchy.KindEpic && proposal.ParentSummary != "" {
		key, ok := e.resolver.Resolve(proposal.IssueType, proposal.ParentSummary, batchCache)
		switch {
		case ok:
			parentKey = key
		case kind == hierarchy.KindSubtask:
			return failure(idx, proposal, fmt.Sprintf("no %s-level parent matches %q", hierarchy.KindTask, proposal.ParentSummary))
		default:
			logging.Warn("creating ticket without parent link",
				"summary", proposal.Summary,
				"issue_type", proposal.IssueType,
				"parent_summary", proposal.ParentSummary)
		}
	}

	key, err := e.gateway.CreateTicket(ctx, projectKey, models.CreateTicketRequest{
		IssueType:   e.issueTypeName(proposal.IssueType),
		Summary:     proposal.Summary,
		Description: proposal.Description,
		ParentKey:   parentKey,
		StoryPoints: proposal.StoryPoints,
		Priority:    proposal.Priority,
	})
	if err != nil {
		logging.Error("ticket creation failed",
			"index", idx,
			"summary", proposal.Summary,
			"error", err)
		return failure(idx, proposal, err.Error())
	}

	// Later items in this batch can now resolve this ticket as a parent.
	batchCache[hierarchy.NormalizeTitle(proposal.Summary)] = key

	return models.ExecutionResult{
		Index:     idx,
		Action:    proposal.Action,
		Success:   true,
		TicketKey: key,
		ParentKey: parentKey,
		IssueType: proposal.IssueType,
	}
}

func (e *BatchExecutor) executeModify(ctx context.Context, idx int, proposal models.ProposedChange) models.ExecutionResult {
	if proposal.TicketKey == "" {
		return failure(idx, proposal, "modify action without a ticket key")
	}

	if err := e.gateway.UpdateTicket(ctx, proposal.TicketKey, proposal.Summary, proposal.Description); err != nil {
		logging.Error("ticket update failed",
			"index", idx,
			"ticket", proposal.TicketKey,
			"error", err)
		return failure(idx, proposal, err.Error())
	}

	return models.ExecutionResult{
		Index:     idx,
		Action:    proposal.Action,
		Success:   true,
		TicketKey: proposal.TicketKey,
		IssueType: proposal.IssueType,
	}
}

// issueTypeName translates a proposed type name into the name the project
// actually uses, via the resolved type map and its semantic aliases. An
// unknown name passes through unchanged and the tracker has the last word.
func (e *BatchExecutor) issueTypeName(proposedType string) string {
	if meta, ok := e.typeNames[strings.ToLower(strings.TrimSpace(proposedType))]; ok {
		return meta.Name
	}
	if meta, ok := e.typeNames[hierarchy.ClassifyTypeName(proposedType).String()]; ok {
		return meta.Name
	}
	return proposedType
}

func failure(idx int, proposal models.ProposedChange, msg string) models.ExecutionResult {
	return models.ExecutionResult{
		Index:     idx,
		Action:    proposal.Action,
		IssueType: proposal.IssueType,
		Error:     msg,
	}
}

// dedupeValid drops out-of-range and repeated indices, preserving first-seen
// order. The original request order is what rank ties fall back to.
func dedupeValid(requested []int, total int) []int {
	seen := make(map[int]bool, len(requested))
	valid := make([]int, 0, len(requested))
	for _, idx := range requested {
		if idx < 0 || idx >= total || seen[idx] {
			continue
		}
		seen[idx] = true
		valid = append(valid, idx)
	}
	return valid
}
