// Package analysis implements the meeting-analysis lifecycle: proposal
// generation, pre-flight validation and batch execution of approved
// changes against the tracker.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"minutesync/internal/hierarchy"
	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

// ProposalSource produces proposed changes from meeting notes and the
// current hierarchy snapshot. Implementations degrade malformed generator
// output to an empty list; a returned error means the service itself was
// unreachable.
type ProposalSource interface {
	Generate(ctx context.Context, meetingNotes, projectKey string, structure *models.HierarchyStructure) ([]models.ProposedChange, error)
}

// Store persists analyses. UpdateAnalysis must apply the mutation as an
// atomic single-record read-modify-write so concurrent operations on the
// same analysis cannot lose updates.
type Store interface {
	SaveAnalysis(ctx context.Context, a *models.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error)
	UpdateAnalysis(ctx context.Context, id string, mutate func(*models.Analysis) error) (*models.Analysis, error)
}

// listLimit caps how many analyses a listing returns, newest first.
const listLimit = 100

// Service is the operation surface over analyses: create, inspect, edit,
// approve and reject.
type Service struct {
	store   Store
	gateway Gateway
	source  ProposalSource
	clock   func() time.Time
}

// NewService wires the service to its collaborators.
func NewService(store Store, gateway Gateway, source ProposalSource) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		source:  source,
		clock:   time.Now,
	}
}

// CreateAnalysisRequest is the input for CreateAnalysis. MeetingNotes is
// stored verbatim and never modified afterwards.
type CreateAnalysisRequest struct {
	ProjectKey   string
	ClientName   string
	ProjectName  string
	MeetingNotes string
}

// CreateAnalysis fetches the project's tickets, asks the generator for
// proposed changes and persists the resulting analysis in pending status.
// A failing or nonsensical generator yields an analysis with zero
// proposals, not an error; a failing ticket fetch aborts the operation
// since the hierarchy snapshot is a hard precondition.
func (s *Service) CreateAnalysis(ctx context.Context, req CreateAnalysisRequest) (*models.Analysis, error) {
	tickets, err := s.gateway.ListTickets(ctx, req.ProjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project tickets: %w", err)
	}

	structure := hierarchy.Build(tickets)
	logging.Info("built hierarchy snapshot",
		"project", req.ProjectKey,
		"buckets", structure.Counts())

	proposals, err := s.source.Generate(ctx, req.MeetingNotes, req.ProjectKey, structure)
	if err != nil {
		logging.Warn("proposal generation failed, continuing with zero proposals",
			"project", req.ProjectKey,
			"error", err)
		proposals = nil
	}

	a := &models.Analysis{
		ID:              uuid.NewString(),
		ProjectKey:      req.ProjectKey,
		ClientName:      req.ClientName,
		ProjectName:     req.ProjectName,
		MeetingNotes:    req.MeetingNotes,
		ProposedChanges: proposals,
		Status:          models.StatusPending,
		CreatedAt:       s.clock().UTC(),
	}

	if err := s.store.SaveAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	logging.Info("analysis created",
		"id", a.ID,
		"project", a.ProjectKey,
		"proposals", len(a.ProposedChanges))

	return a, nil
}

// GetAnalysis returns one analysis by id.
func (s *Service) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	return s.store.GetAnalysis(ctx, id)
}

// ListAnalyses returns stored analyses, most recent first.
func (s *Service) ListAnalyses(ctx context.Context) ([]*models.Analysis, error) {
	return s.store.ListAnalyses(ctx, listLimit)
}

// ModifyProposal edits one proposal of a pending analysis. Empty fields
// are left unchanged.
func (s *Service) ModifyProposal(ctx context.Context, id string, index int, summary, description string) (*models.Analysis, error) {
	return s.store.UpdateAnalysis(ctx, id, func(a *models.Analysis) error {
		if a.Status != models.StatusPending {
			return ErrNotPending
		}
		if index < 0 || index >= len(a.ProposedChanges) {
			return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
		}
		if summary != "" {
			a.ProposedChanges[index].Summary = summary
		}
		if description != "" {
			a.ProposedChanges[index].Description = description
		}
		return nil
	})
}

// ApprovalOutcome is what an approval call hands back: the pre-flight
// findings, one result per valid requested index, and the status the
// analysis ended up in.
type ApprovalOutcome struct {
	Results    []models.ExecutionResult
	Validation []models.ValidationIssue
	Status     string
}

// Approve executes the requested proposal indices against the tracker and
// applies the terminal status transition. The hierarchy snapshot and the
// project's issue types are fetched once, up front; a failure there aborts
// the whole call. From the moment item processing starts the call always
// returns an outcome: item failures are recorded, never raised.
//
// Approving overlapping indices twice can create duplicate tickets, since
// parent matching is similarity-based rather than keyed by an idempotency
// token. That is a documented limitation of the engine.
func (s *Service) Approve(ctx context.Context, id string, indices []int) (*ApprovalOutcome, error) {
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusRejected {
		return nil, ErrAnalysisRejected
	}

	tickets, err := s.gateway.ListTickets(ctx, a.ProjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project tickets: %w", err)
	}
	structure := hierarchy.Build(tickets)

	rawTypes, err := s.gateway.GetIssueTypes(ctx, a.ProjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue types: %w", err)
	}
	typeNames := hierarchy.ResolveLevels(rawTypes)

	executor := NewBatchExecutor(s.gateway, structure, typeNames)
	results, issues := executor.Execute(ctx, a, indices)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	status := models.StatusPartiallyApproved
	if failed == 0 && len(results) == len(a.ProposedChanges) {
		status = models.StatusApproved
	}

	updated, err := s.store.UpdateAnalysis(ctx, id, func(a *models.Analysis) error {
		a.Status = status
		if a.ProcessedAt == nil {
			t := s.clock().UTC()
			a.ProcessedAt = &t
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch executed but status update failed: %w", err)
	}

	logging.Info("approval batch finished",
		"id", id,
		"requested", len(indices),
		"executed", len(results),
		"failed", failed,
		"status", updated.Status)

	return &ApprovalOutcome{
		Results:    results,
		Validation: issues,
		Status:     updated.Status,
	}, nil
}

// Reject marks a pending analysis as rejected. The transition is terminal.
func (s *Service) Reject(ctx context.Context, id string) (*models.Analysis, error) {
	return s.store.UpdateAnalysis(ctx, id, func(a *models.Analysis) error {
		if a.Status != models.StatusPending {
			return ErrNotPending
		}
		a.Status = models.StatusRejected
		if a.ProcessedAt == nil {
			t := s.clock().UTC()
			a.ProcessedAt = &t
		}
		return nil
	})
}

// Projects lists the tracker projects visible to the configured credentials.
func (s *Service) Projects(ctx context.Context) ([]models.Project, error) {
	return s.gateway.ListProjects(ctx)
}
