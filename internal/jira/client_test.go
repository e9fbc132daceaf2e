package jira

import (
	"testing"

	jira "github.com/andygrunwald/go-jira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidation(t *testing.T) {
	testCases := []struct {
		name    string
		domain  string
		email   string
		token   string
		wantErr bool
	}{
		{name: "complete credentials", domain: "example.atlassian.net", email: "pm@example.com", token: "secret", wantErr: false},
		{name: "missing domain", domain: "", email: "pm@example.com", token: "secret", wantErr: true},
		{name: "missing email", domain: "example.atlassian.net", email: "", token: "secret", wantErr: true},
		{name: "missing token", domain: "example.atlassian.net", email: "pm@example.com", token: "", wantErr: true},
		{name: "everything missing", domain: "", email: "", token: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(tc.domain, tc.email, tc.token)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClientAcceptsExplicitScheme(t *testing.T) {
	client, err := NewClient("https://example.atlassian.net", "pm@example.com", "secret")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestToTicket(t *testing.T) {
	issue := &jira.Issue{
		Key: "PROJ-42",
		Fields: &jira.IssueFields{
			Summary:     "Implement login",
			Description: "Email and password",
			Type:        jira.IssueType{Name: "Story"},
			Status:      &jira.Status{Name: "In Progress"},
			Parent:      &jira.Parent{Key: "PROJ-1"},
		},
	}

	ticket := toTicket(issue)
	assert.Equal(t, "PROJ-42", ticket.Key)
	assert.Equal(t, "Implement login", ticket.Summary)
	assert.Equal(t, "Email and password", ticket.Description)
	assert.Equal(t, "Story", ticket.IssueType)
	assert.Equal(t, "In Progress", ticket.Status)
	assert.Equal(t, "PROJ-1", ticket.ParentKey)
}

func TestToTicketMinimalFields(t *testing.T) {
	ticket := toTicket(&jira.Issue{Key: "PROJ-7", Fields: &jira.IssueFields{Summary: "Bare"}})
	assert.Equal(t, "PROJ-7", ticket.Key)
	assert.Equal(t, "Bare", ticket.Summary)
	assert.Empty(t, ticket.Status)
	assert.Empty(t, ticket.ParentKey)

	ticket = toTicket(&jira.Issue{Key: "PROJ-8"})
	assert.Equal(t, "PROJ-8", ticket.Key)
	assert.Empty(t, ticket.Summary)
}

func TestStatusCodeNilResponse(t *testing.T) {
	assert.Equal(t, 0, statusCode(nil))
}

func TestParentLinkStrategyOrder(t *testing.T) {
	require.Len(t, parentLinkStrategies, 3)
	assert.Equal(t, "parent-field", parentLinkStrategies[0].name)
	assert.Equal(t, "epic-link-field", parentLinkStrategies[1].name)
	assert.Equal(t, "relates-link", parentLinkStrategies[2].name)
}
