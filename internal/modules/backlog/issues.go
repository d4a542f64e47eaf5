package backlog

import (
	"context"

	"backlogmcp/server/internal/mapper"
	"backlogmcp/server/internal/pagination"
	"backlogmcp/server/internal/schema"
	"backlogmcp/server/pkg/backlogapi"
)

type issueList struct {
	Issues     []mapper.Issue `json:"issues"`
	NextOffset *int           `json:"nextOffset"`
}

type createdIssue struct {
	IssueKey string `json:"issueKey"`
}

type transitionedIssue struct {
	IssueKey string  `json:"issueKey"`
	Status   *string `json:"status"`
}

type deletedIssue struct {
	Deleted      bool   `json:"deleted"`
	IssueIDOrKey string `json:"issueIdOrKey"`
}

func (m *BacklogModule) listIssues(ctx context.Context, a *schema.Args) (any, error) {
	projectKey := a.Key("projectKey")
	p := page(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	return m.doListIssues(ctx, projectKey, p)
}

func (m *BacklogModule) doListIssues(ctx context.Context, projectKey string, p *pagination.Params) (any, error) {
	resp, err := m.client.ListIssues(ctx, projectKey, listQuery(p))
	if err != nil {
		return nil, err
	}
	issues, err := decode(resp, schema.DecodeIssues)
	if err != nil {
		return nil, err
	}
	return issueList{
		Issues:     mapper.MapAll(issues, mapper.MapIssue),
		NextOffset: pagination.NextOffset(p, len(issues)),
	}, nil
}

func (m *BacklogModule) getIssue(ctx context.Context, a *schema.Args) (any, error) {
	idOrKey := a.IDOrKey("issueIdOrKey")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.GetIssue(ctx, idOrKey)
	if err != nil {
		return nil, err
	}
	issue, err := decode(resp, schema.DecodeIssue)
	if err != nil {
		return nil, err
	}
	return mapper.MapIssue(issue), nil
}

// readIssueCreate reads the fields of a new issue from a.
func readIssueCreate(a *schema.Args) *backlogapi.IssueCreate {
	return &backlogapi.IssueCreate{
		Summary:     a.Text("summary"),
		Description: a.OptString("description"),
		IssueTypeID: a.OptID("issueTypeId"),
		PriorityID:  a.OptID("priorityId"),
		AssigneeID:  a.OptID("assigneeId"),
	}
}

func (m *BacklogModule) createIssue(ctx context.Context, a *schema.Args) (any, error) {
	projectKey := a.Key("projectKey")
	body := readIssueCreate(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	return m.doCreateIssue(ctx, projectKey, body)
}

func (m *BacklogModule) doCreateIssue(ctx context.Context, projectKey string, body *backlogapi.IssueCreate) (any, error) {
	resp, err := m.client.CreateIssue(ctx, projectKey, body)
	if err != nil {
		return nil, err
	}
	issue, err := decode(resp, schema.DecodeIssue)
	if err != nil {
		return nil, err
	}
	return createdIssue{IssueKey: issue.IssueKey}, nil
}

func (m *BacklogModule) updateIssue(ctx context.Context, a *schema.Args) (any, error) {
	idOrKey := a.IDOrKey("issueIdOrKey")
	a.AtLeastOne("summary", "description", "issueTypeId", "priorityId", "assigneeId")
	body := &backlogapi.IssueUpdate{
		Summary:     a.OptText("summary"),
		Description: a.OptString("description"),
		IssueTypeID: a.OptID("issueTypeId"),
		PriorityID:  a.OptID("priorityId"),
		AssigneeID:  a.OptID("assigneeId"),
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.UpdateIssue(ctx, idOrKey, body)
	if err != nil {
		return nil, err
	}
	issue, err := decode(resp, schema.DecodeIssue)
	if err != nil {
		return nil, err
	}
	return mapper.MapIssue(issue), nil
}

func (m *BacklogModule) deleteIssue(ctx context.Context, a *schema.Args) (any, error) {
	idOrKey := a.IDOrKey("issueIdOrKey")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.DeleteIssue(ctx, idOrKey)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		if _, err := decode(resp, schema.DecodeIssue); err != nil {
			return nil, err
		}
	}
	return deletedIssue{Deleted: true, IssueIDOrKey: idOrKey}, nil
}

func (m *BacklogModule) transitionIssue(ctx context.Context, a *schema.Args) (any, error) {
	idOrKey := a.IDOrKey("issueIdOrKey")
	statusID := a.ID("statusId")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.TransitionIssue(ctx, idOrKey, &backlogapi.StatusChange{StatusID: statusID})
	if err != nil {
		return nil, err
	}
	issue, err := decode(resp, schema.DecodeIssue)
	if err != nil {
		return nil, err
	}
	out := transitionedIssue{IssueKey: issue.IssueKey}
	if issue.Status != nil {
		out.Status = issue.Status.Name
	}
	return out, nil
}

// issues routes to list or create.
func (m *BacklogModule) issues(ctx context.Context, a *schema.Args) (any, error) {
	act := action(a)
	projectKey := a.Key("projectKey")
	switch act {
	case actionCreate:
		var body *backlogapi.IssueCreate
		if p := payload(a); p != nil {
			body = readIssueCreate(p)
		}
		if err := a.Err(); err != nil {
			return nil, err
		}
		return m.doCreateIssue(ctx, projectKey, body)
	default:
		p := page(a)
		if err := a.Err(); err != nil {
			return nil, err
		}
		return m.doListIssues(ctx, projectKey, p)
	}
}
