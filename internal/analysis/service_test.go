package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minutesync/pkg/models"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	analyses map[string]*models.Analysis
}

func newMemStore() *memStore {
	return &memStore{analyses: make(map[string]*models.Analysis)}
}

var errMemNotFound = errors.New("analysis not found")

func (m *memStore) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	copied := *a
	m.analyses[a.ID] = &copied
	return nil
}

func (m *memStore) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	a, ok := m.analyses[id]
	if !ok {
		return nil, errMemNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memStore) ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	var out []*models.Analysis
	for _, a := range m.analyses {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memStore) UpdateAnalysis(ctx context.Context, id string, mutate func(*models.Analysis) error) (*models.Analysis, error) {
	a, ok := m.analyses[id]
	if !ok {
		return nil, errMemNotFound
	}
	copied := *a
	if err := mutate(&copied); err != nil {
		return nil, err
	}
	m.analyses[id] = &copied
	result := copied
	return &result, nil
}

// mockSource implements ProposalSource.
type mockSource struct {
	GenerateFunc func(ctx context.Context, meetingNotes, projectKey string, structure *models.HierarchyStructure) ([]models.ProposedChange, error)
}

func (m *mockSource) Generate(ctx context.Context, meetingNotes, projectKey string, structure *models.HierarchyStructure) ([]models.ProposedChange, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, meetingNotes, projectKey, structure)
	}
	return nil, nil
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestCreateAnalysisStoresProposals(t *testing.T) {
	store := newMemStore()
	gateway := &mockGateway{
		ListTicketsFunc: func(ctx context.Context, projectKey string) ([]models.Ticket, error) {
			return []models.Ticket{{Key: "PROJ-1", Summary: "Auth Platform", IssueType: "Epic"}}, nil
		},
	}
	source := &mockSource{
		GenerateFunc: func(ctx context.Context, notes, projectKey string, structure *models.HierarchyStructure) ([]models.ProposedChange, error) {
			assert.Contains(t, structure.Epics, "PROJ-1")
			return []models.ProposedChange{
				{Action: models.ActionCreate, IssueType: "Story", Summary: "Login", ParentSummary: "Auth Platform"},
			}, nil
		},
	}

	service := NewService(store, gateway, source)
	service.clock = fixedClock()

	a, err := service.CreateAnalysis(context.Background(), CreateAnalysisRequest{
		ProjectKey:   "PROJ",
		ClientName:   "Acme",
		ProjectName:  "Auth revamp",
		MeetingNotes: "We need login.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.StatusPending, a.Status)
	require.Len(t, a.ProposedChanges, 1)

	stored, err := store.GetAnalysis(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "We need login.", stored.MeetingNotes)
}

func TestCreateAnalysisDegradesOnGeneratorFailure(t *testing.T) {
	store := newMemStore()
	gateway := &mockGateway{}
	source := &mockSource{
		GenerateFunc: func(ctx context.Context, notes, projectKey string, structure *models.HierarchyStructure) ([]models.ProposedChange, error) {
			return nil, errors.New("model unreachable")
		},
	}

	service := NewService(store, gateway, source)
	a, err := service.CreateAnalysis(context.Background(), CreateAnalysisRequest{ProjectKey: "PROJ", MeetingNotes: "notes"})

	require.NoError(t, err)
	assert.Empty(t, a.ProposedChanges)
	assert.Equal(t, models.StatusPending, a.Status)
}

func TestCreateAnalysisFailsWhenTicketFetchFails(t *testing.T) {
	gateway := &mockGateway{
		ListTicketsFunc: func(ctx context.Context, projectKey string) ([]models.Ticket, error) {
			return nil, errors.New("401 unauthorized")
		},
	}

	service := NewService(newMemStore(), gateway, &mockSource{})
	_, err := service.CreateAnalysis(context.Background(), CreateAnalysisRequest{ProjectKey: "PROJ", MeetingNotes: "notes"})
	assert.Error(t, err)
}

func seedAnalysis(store *memStore, proposals ...models.ProposedChange) *models.Analysis {
	a := &models.Analysis{
		ID:              "a-1",
		ProjectKey:      "PROJ",
		MeetingNotes:    "notes",
		ProposedChanges: proposals,
		Status:          models.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	store.analyses[a.ID] = a
	return a
}

func approvalGateway() *mockGateway {
	counter := 0
	return &mockGateway{
		ListTicketsFunc: func(ctx context.Context, projectKey string) ([]models.Ticket, error) {
			return nil, nil
		},
		GetIssueTypesFunc: func(ctx context.Context, projectKey string) ([]models.IssueTypeMetadata, error) {
			return []models.IssueTypeMetadata{
				{ID: "1", Name: "Epic"},
				{ID: "2", Name: "Story"},
				{ID: "3", Name: "Task"},
				{ID: "4", Name: "Sub-task", Subtask: true},
			}, nil
		},
		CreateTicketFunc: func(ctx context.Context, projectKey string, req models.CreateTicketRequest) (string, error) {
			counter++
			return fmt.Sprintf("PROJ-%d", counter), nil
		},
	}
}

func TestApproveAllSetsApproved(t *testing.T) {
	store := newMemStore()
	seedAnalysis(store,
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Epic", Summary: "Auth"},
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Story", Summary: "Login", ParentSummary: "Auth"},
	)

	service := NewService(store, approvalGateway(), nil)
	service.clock = fixedClock()

	outcome, err := service.Approve(context.Background(), "a-1", []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, outcome.Status)
	require.Len(t, outcome.Results, 2)

	stored, _ := store.GetAnalysis(context.Background(), "a-1")
	assert.Equal(t, models.StatusApproved, stored.Status)
	require.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, fixedClock()(), *stored.ProcessedAt)
}

func TestApproveSubsetSetsPartiallyApproved(t *testing.T) {
	store := newMemStore()
	seedAnalysis(store,
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Epic", Summary: "Auth"},
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Epic", Summary: "Billing"},
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Epic", Summary: "Search"},
	)

	service := NewService(store, approvalGateway(), nil)
	outcome, err := service.Approve(context.Background(), "a-1", []int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyApproved, outcome.Status)
}

func TestApproveWithFailedItemSetsPartiallyApproved(t *testing.T) {
	store := newMemStore()
	seedAnalysis(store,
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Epic", Summary: "Auth"},
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Subtask", Summary: "Tests", ParentSummary: "No such task"},
	)

	service := NewService(store, approvalGateway(), nil)
	outcome, err := service.Approve(context.Background(), "a-1", []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyApproved, outcome.Status)
	require.Len(t, outcome.Results, 2)
	assert.True(t, outcome.Results[0].Success)
	assert.False(t, outcome.Results[1].Success)
}

func TestApproveRejectedAnalysisFails(t *testing.T) {
	store := newMemStore()
	a := seedAnalysis(store)
	a.Status = models.StatusRejected

	service := NewService(store, approvalGateway(), nil)
	_, err := service.Approve(context.Background(), "a-1", []int{0})
	assert.ErrorIs(t, err, ErrAnalysisRejected)
}

func TestApprovePreservesFirstProcessedAt(t *testing.T) {
	store := newMemStore()
	a := seedAnalysis(store,
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Epic", Summary: "Auth"},
	)
	earlier := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.ProcessedAt = &earlier
	a.Status = models.StatusPartiallyApproved

	service := NewService(store, approvalGateway(), nil)
	service.clock = fixedClock()

	_, err := service.Approve(context.Background(), "a-1", []int{0})
	require.NoError(t, err)

	stored, _ := store.GetAnalysis(context.Background(), "a-1")
	assert.Equal(t, earlier, *stored.ProcessedAt)
}

func TestModifyProposal(t *testing.T) {
	store := newMemStore()
	seedAnalysis(store,
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Story", Summary: "Old", Description: "old desc"},
	)

	service := NewService(store, nil, nil)
	a, err := service.ModifyProposal(context.Background(), "a-1", 0, "New", "")
	require.NoError(t, err)
	assert.Equal(t, "New", a.ProposedChanges[0].Summary)
	assert.Equal(t, "old desc", a.ProposedChanges[0].Description)
}

func TestModifyProposalInvalidIndex(t *testing.T) {
	store := newMemStore()
	seedAnalysis(store)

	service := NewService(store, nil, nil)
	_, err := service.ModifyProposal(context.Background(), "a-1", 3, "New", "")
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestModifyProposalAfterApprovalFails(t *testing.T) {
	store := newMemStore()
	a := seedAnalysis(store,
		models.ProposedChange{Action: models.ActionCreate, IssueType: "Story", Summary: "Old"},
	)
	a.Status = models.StatusApproved

	service := NewService(store, nil, nil)
	_, err := service.ModifyProposal(context.Background(), "a-1", 0, "New", "")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestRejectIsTerminal(t *testing.T) {
	store := newMemStore()
	seedAnalysis(store)

	service := NewService(store, nil, nil)
	service.clock = fixedClock()

	a, err := service.Reject(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, a.Status)
	require.NotNil(t, a.ProcessedAt)

	_, err = service.Reject(context.Background(), "a-1")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestRejectUnknownAnalysis(t *testing.T) {
	service := NewService(newMemStore(), nil, nil)
	_, err := service.Reject(context.Background(), "missing")
	assert.Error(t, err)
}
