// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// Proposal actions accepted from the generation service. Anything else is
// treated as a failed item at execution time, not a parse error.
const (
	ActionCreate        = "create"
	ActionModify        = "modify"
	ActionReuseExisting = "reuse_existing"
)

// Analysis statuses. The transition out of "pending" is terminal: once an
// analysis is approved, partially approved or rejected it is never moved
// back by this application.
const (
	StatusPending           = "pending"
	StatusApproved          = "approved"
	StatusPartiallyApproved = "partially_approved"
	StatusRejected          = "rejected"
)

// Ticket is a read-only snapshot of a tracker issue, fetched per operation.
type Ticket struct {
	// Key is the tracker-assigned identifier (e.g., "PROJ-123")
	Key string `json:"key"`

	// Summary is the ticket's title
	Summary string `json:"summary"`

	// Description is the full body text of the ticket
	Description string `json:"description"`

	// Status is the current workflow status name
	Status string `json:"status"`

	// IssueType is the issue type name (e.g., "Story", "Task", "Sub-task")
	IssueType string `json:"issue_type"`

	// ParentKey is the key of the parent ticket, if any
	ParentKey string `json:"parent_key,omitempty"`

	// Children holds the keys of child tickets, in the order they were linked
	Children []string `json:"children,omitempty"`
}

// IssueTypeMetadata describes one issue type of a project together with the
// hierarchy level derived for it (subtask=0 < task=1 < story=2 < epic=3).
type IssueTypeMetadata struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	HierarchyLevel int    `json:"hierarchy_level"`
	Subtask        bool   `json:"subtask"`
}

// HierarchyStructure is the bucketed view of a project's tickets. Every
// ticket lands in exactly one bucket; tickets whose issue type matches no
// known level end up in Orphans.
type HierarchyStructure struct {
	Epics    map[string]*Ticket `json:"epics"`
	Stories  map[string]*Ticket `json:"stories"`
	Tasks    map[string]*Ticket `json:"tasks"`
	Subtasks map[string]*Ticket `json:"subtasks"`
	Orphans  []*Ticket          `json:"orphans,omitempty"`
}

// NewHierarchyStructure returns an empty structure with all buckets allocated.
func NewHierarchyStructure() *HierarchyStructure {
	return &HierarchyStructure{
		Epics:    make(map[string]*Ticket),
		Stories:  make(map[string]*Ticket),
		Tasks:    make(map[string]*Ticket),
		Subtasks: make(map[string]*Ticket),
	}
}

// Counts returns the number of tickets per bucket, keyed by bucket name.
func (h *HierarchyStructure) Counts() map[string]int {
	return map[string]int{
		"epics":    len(h.Epics),
		"stories":  len(h.Stories),
		"tasks":    len(h.Tasks),
		"subtasks": len(h.Subtasks),
		"orphans":  len(h.Orphans),
	}
}

// ProposedChange is one change suggested by the generation service. The JSON
// tags are the wire contract with the generator and the storage format of
// persisted analyses.
type ProposedChange struct {
	// Action is one of "create", "modify" or "reuse_existing"
	Action string `json:"action"`

	// IssueType is the proposed issue type name (Epic, Story, Task, Subtask, Bug)
	IssueType string `json:"issue_type"`

	// Summary is the proposed ticket title
	Summary string `json:"summary"`

	// Description is the proposed body text
	Description string `json:"description"`

	// StoryPoints is an optional estimate
	StoryPoints *int `json:"story_points,omitempty"`

	// Priority is an optional priority name
	Priority string `json:"priority,omitempty"`

	// ParentSummary is the free-text title of the intended parent ticket
	ParentSummary string `json:"parent_summary,omitempty"`

	// Dependencies holds free-text titles of tickets this one depends on
	Dependencies []string `json:"dependencies,omitempty"`

	// TicketKey identifies the existing ticket for modify/reuse_existing actions
	TicketKey string `json:"ticket_key,omitempty"`

	// Reasoning explains why the generator proposed this change
	Reasoning string `json:"reasoning,omitempty"`
}

// Analysis is one meeting-notes submission together with the proposals the
// generator produced for it. MeetingNotes is immutable after creation;
// ProposedChanges may be edited index-by-index while the status is pending.
type Analysis struct {
	ID              string           `json:"id"`
	ProjectKey      string           `json:"project_key"`
	ClientName      string           `json:"client_name"`
	ProjectName     string           `json:"project_name"`
	MeetingNotes    string           `json:"meeting_notes"`
	ProposedChanges []ProposedChange `json:"proposed_changes"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	ProcessedAt     *time.Time       `json:"processed_at,omitempty"`
}

// ValidationIssue is one pre-flight finding about a proposal selected for
// approval. Severity "error" excludes the item from execution; "warning"
// does not.
type ValidationIssue struct {
	Index    int    `json:"index"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Validation severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ExecutionResult is the per-item outcome of an approval batch.
type ExecutionResult struct {
	// Index is the proposal's position within the analysis
	Index int `json:"index"`

	// Action is the proposal action that was executed
	Action string `json:"action"`

	// Success reports whether the item completed without error
	Success bool `json:"success"`

	// TicketKey is the created or targeted ticket, when known
	TicketKey string `json:"ticket_key,omitempty"`

	// ParentKey is the parent the ticket was linked to, when resolved
	ParentKey string `json:"parent_key,omitempty"`

	// IssueType is the issue type the item was executed with
	IssueType string `json:"issue_type,omitempty"`

	// Error carries the failure detail for unsuccessful items
	Error string `json:"error,omitempty"`
}

// CreateTicketRequest carries everything the gateway needs to create one
// ticket. ParentKey is already resolved to a concrete key by the caller.
type CreateTicketRequest struct {
	IssueType   string
	Summary     string
	Description string
	ParentKey   string
	StoryPoints *int
	Priority    string
}

// Project is a tracker project as returned by the gateway.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// JiraConfig is the persisted tracker credential set. A single record
// exists at a time; saving a new one replaces the old.
type JiraConfig struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Email     string    `json:"email"`
	APIToken  string    `json:"api_token"`
	CreatedAt time.Time `json:"created_at"`
}
