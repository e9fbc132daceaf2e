// Package jira implements the tracker gateway on top of the Jira REST API.
package jira

import (
	"context"
	"fmt"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/trivago/tgo/tcontainer"

	"minutesync/internal/config"
	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

// Common Jira Cloud custom field ids. Instances can remap these; the
// strategies below treat a miss as non-fatal.
const (
	epicLinkField    = "customfield_10014"
	storyPointsField = "customfield_10016"
)

// searchPageSize is the page size used when listing project tickets.
const searchPageSize = 100

// Client is the tracker gateway. It holds the configured credentials
// explicitly; there is no ambient/global configuration.
type Client struct {
	client *jira.Client
	domain string
}

// NewClient builds a gateway from an explicit credential set.
func NewClient(domain, email, apiToken string) (*Client, error) {
	if err := config.ValidateJiraConfig(domain, email, apiToken); err != nil {
		return nil, err
	}

	baseURL := domain
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	tp := jira.BasicAuthTransport{
		Username: email,
		Password: apiToken,
	}

	client, err := jira.NewClient(tp.Client(), baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Debug("jira client created",
		"domain", domain,
		"email", email,
		"token", logging.MaskSensitive(apiToken))

	return &Client{client: client, domain: domain}, nil
}

// TestConnection verifies the credentials by fetching the current user.
func (c *Client) TestConnection(ctx context.Context) error {
	_, resp, err := c.client.User.GetSelfWithContext(ctx)
	if err != nil {
		return fmt.Errorf("jira connection test failed: %w (status: %d)", err, statusCode(resp))
	}
	return nil
}

// ListTickets fetches every ticket of a project as a flat snapshot,
// paginating through the search API.
func (c *Client) ListTickets(ctx context.Context, projectKey string) ([]models.Ticket, error) {
	jql := fmt.Sprintf("project = %q ORDER BY created ASC", projectKey)

	var tickets []models.Ticket
	startAt := 0
	for {
		issues, resp, err := c.client.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
			StartAt:    startAt,
			MaxResults: searchPageSize,
			Fields:     []string{"summary", "description", "status", "issuetype", "parent"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search jira issues: %w (status: %d)", err, statusCode(resp))
		}

		for i := range issues {
			tickets = append(tickets, toTicket(&issues[i]))
		}

		if len(issues) < searchPageSize {
			break
		}
		startAt += searchPageSize
	}

	logging.Debug("fetched project tickets",
		"project", projectKey,
		"count", len(tickets))

	return tickets, nil
}

// GetIssueTypes returns the raw issue type definitions of a project.
// Hierarchy levels are derived by the caller, per operation.
func (c *Client) GetIssueTypes(ctx context.Context, projectKey string) ([]models.IssueTypeMetadata, error) {
	project, resp, err := c.client.Project.GetWithContext(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project %s: %w (status: %d)", projectKey, err, statusCode(resp))
	}

	types := make([]models.IssueTypeMetadata, 0, len(project.IssueTypes))
	for _, it := range project.IssueTypes {
		types = append(types, models.IssueTypeMetadata{
			ID:      it.ID,
			Name:    it.Name,
			Subtask: it.Subtask,
		})
	}
	return types, nil
}

// CreateTicket creates one ticket. When a parent key is present the parent
// field goes into the create payload first; if the tracker rejects that,
// the ticket is created bare and the remaining link strategies run
// best-effort, so a failed link never loses the ticket.
func (c *Client) CreateTicket(ctx context.Context, projectKey string, req models.CreateTicketRequest) (string, error) {
	fields := &jira.IssueFields{
		Project:     jira.Project{Key: projectKey},
		Summary:     req.Summary,
		Description: req.Description,
		Type:        jira.IssueType{Name: req.IssueType},
	}
	if req.Priority != "" {
		fields.Priority = &jira.Priority{Name: req.Priority}
	}
	if req.StoryPoints != nil {
		fields.Unknowns = tcontainer.MarshalMap{storyPointsField: *req.StoryPoints}
	}

	if req.ParentKey == "" {
		return c.create(ctx, fields)
	}

	withParent := *fields
	withParent.Parent = &jira.Parent{Key: req.ParentKey}
	key, err := c.create(ctx, &withParent)
	if err == nil {
		return key, nil
	}
	logging.Debug("create with parent field rejected, creating bare",
		"summary", req.Summary,
		"parent", req.ParentKey,
		"error", err)

	key, err = c.create(ctx, fields)
	if err != nil {
		return "", err
	}
	c.linkParent(ctx, key, req.ParentKey)
	return key, nil
}

func (c *Client) create(ctx context.Context, fields *jira.IssueFields) (string, error) {
	issue, resp, err := c.client.Issue.CreateWithContext(ctx, &jira.Issue{Fields: fields})
	if err != nil {
		return "", fmt.Errorf("failed to create ticket: %w (status: %d)", err, statusCode(resp))
	}
	return issue.Key, nil
}

// parentLinkStrategy is one way of attaching a created ticket to its
// parent. Strategies are tried in order; the first success wins.
type parentLinkStrategy struct {
	name string
	link func(ctx context.Context, c *Client, childKey, parentKey string) error
}

var parentLinkStrategies = []parentLinkStrategy{
	{
		name: "parent-field",
		link: func(ctx context.Context, c *Client, childKey, parentKey string) error {
			_, resp, err := c.client.Issue.UpdateWithContext(ctx, &jira.Issue{
				Key:    childKey,
				Fields: &jira.IssueFields{Parent: &jira.Parent{Key: parentKey}},
			})
			if err != nil {
				return fmt.Errorf("parent field update: %w (status: %d)", err, statusCode(resp))
			}
			return nil
		},
	},
	{
		name: "epic-link-field",
		link: func(ctx context.Context, c *Client, childKey, parentKey string) error {
			_, resp, err := c.client.Issue.UpdateWithContext(ctx, &jira.Issue{
				Key: childKey,
				Fields: &jira.IssueFields{
					Unknowns: tcontainer.MarshalMap{epicLinkField: parentKey},
				},
			})
			if err != nil {
				return fmt.Errorf("epic link update: %w (status: %d)", err, statusCode(resp))
			}
			return nil
		},
	},
	{
		name: "relates-link",
		link: func(ctx context.Context, c *Client, childKey, parentKey string) error {
			resp, err := c.client.Issue.AddLinkWithContext(ctx, &jira.IssueLink{
				Type:         jira.IssueLinkType{Name: "Relates"},
				InwardIssue:  &jira.Issue{Key: childKey},
				OutwardIssue: &jira.Issue{Key: parentKey},
			})
			if err != nil {
				return fmt.Errorf("relates link: %w (status: %d)", err, statusCode(resp))
			}
			return nil
		},
	},
}

// linkParent walks the strategy table. Total failure is logged and
// tolerated: the ticket exists, only the link is missing.
func (c *Client) linkParent(ctx context.Context, childKey, parentKey string) {
	for _, strategy := range parentLinkStrategies {
		err := strategy.link(ctx, c, childKey, parentKey)
		if err == nil {
			logging.Debug("parent link established",
				"strategy", strategy.name,
				"child", childKey,
				"parent", parentKey)
			return
		}
		logging.Debug("parent link strategy failed",
			"strategy", strategy.name,
			"child", childKey,
			"parent", parentKey,
			"error", err)
	}

	logging.Warn("all parent link strategies failed, ticket left unlinked",
		"child", childKey,
		"parent", parentKey)
}

// UpdateTicket updates the summary and/or description of a ticket. Empty
// fields are left untouched.
func (c *Client) UpdateTicket(ctx context.Context, ticketKey, summary, description string) error {
	fields := &jira.IssueFields{}
	if summary != "" {
		fields.Summary = summary
	}
	if description != "" {
		fields.Description = description
	}

	_, resp, err := c.client.Issue.UpdateWithContext(ctx, &jira.Issue{Key: ticketKey, Fields: fields})
	if err != nil {
		return fmt.Errorf("failed to update ticket %s: %w (status: %d)", ticketKey, err, statusCode(resp))
	}
	return nil
}

// ListProjects returns the projects visible to the configured credentials.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	list, resp, err := c.client.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w (status: %d)", err, statusCode(resp))
	}

	projects := make([]models.Project, 0, len(*list))
	for _, p := range *list {
		projects = append(projects, models.Project{Key: p.Key, Name: p.Name})
	}
	return projects, nil
}

func toTicket(issue *jira.Issue) models.Ticket {
	ticket := models.Ticket{
		Key: issue.Key,
	}
	if issue.Fields == nil {
		return ticket
	}

	ticket.Summary = issue.Fields.Summary
	ticket.Description = issue.Fields.Description
	ticket.IssueType = issue.Fields.Type.Name
	if issue.Fields.Status != nil {
		ticket.Status = issue.Fields.Status.Name
	}
	if issue.Fields.Parent != nil {
		ticket.ParentKey = issue.Fields.Parent.Key
	}
	return ticket
}

// statusCode guards against the nil responses go-jira returns on transport
// errors.
func statusCode(resp *jira.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
