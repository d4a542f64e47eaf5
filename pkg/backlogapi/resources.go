package backlogapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/jx"
)

// Page is the offset/count pair accepted by Backlog list endpoints.
type Page struct {
	Offset *int `url:"offset,omitempty"`
	Count  *int `url:"count,omitempty"`
}

// ListQuery is the query for list endpoints that only page.
type ListQuery struct {
	Page
}

// WikiListQuery filters project wiki pages.
type WikiListQuery struct {
	Page
	Keyword string `url:"keyword,omitempty"`
}

// ActivityListQuery filters project activities.
type ActivityListQuery struct {
	Page
	ActivityTypeIDs []int64 `url:"activityTypeId,brackets,omitempty"`
}

// IssueCreate is the body of a new issue. Nil fields are not sent.
type IssueCreate struct {
	Summary     string
	Description *string
	IssueTypeID *int64
	PriorityID  *int64
	AssigneeID  *int64
}

func (s *IssueCreate) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("summary")
	e.Str(s.Summary)
	encodeOptStr(e, "description", s.Description)
	encodeOptInt(e, "issueTypeId", s.IssueTypeID)
	encodeOptInt(e, "priorityId", s.PriorityID)
	encodeOptInt(e, "assigneeId", s.AssigneeID)
	e.ObjEnd()
}

// IssueUpdate is a partial issue update. Nil fields are left untouched.
type IssueUpdate struct {
	Summary     *string
	Description *string
	IssueTypeID *int64
	PriorityID  *int64
	AssigneeID  *int64
}

func (s *IssueUpdate) Encode(e *jx.Encoder) {
	e.ObjStart()
	encodeOptStr(e, "summary", s.Summary)
	encodeOptStr(e, "description", s.Description)
	encodeOptInt(e, "issueTypeId", s.IssueTypeID)
	encodeOptInt(e, "priorityId", s.PriorityID)
	encodeOptInt(e, "assigneeId", s.AssigneeID)
	e.ObjEnd()
}

// StatusChange moves an issue to another status.
type StatusChange struct {
	StatusID int64
}

func (s *StatusChange) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("statusId")
	e.Int64(s.StatusID)
	e.ObjEnd()
}

type CommentBody struct {
	Content string
}

func (s *CommentBody) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("content")
	e.Str(s.Content)
	e.ObjEnd()
}

type WikiCreate struct {
	ProjectID  int64
	Name       string
	Content    string
	MailNotify *bool
}

func (s *WikiCreate) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("projectId")
	e.Int64(s.ProjectID)
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("content")
	e.Str(s.Content)
	encodeOptBool(e, "mailNotify", s.MailNotify)
	e.ObjEnd()
}

type WikiUpdate struct {
	Name       *string
	Content    *string
	MailNotify *bool
}

func (s *WikiUpdate) Encode(e *jx.Encoder) {
	e.ObjStart()
	encodeOptStr(e, "name", s.Name)
	encodeOptStr(e, "content", s.Content)
	encodeOptBool(e, "mailNotify", s.MailNotify)
	e.ObjEnd()
}

func encodeOptStr(e *jx.Encoder, field string, v *string) {
	if v == nil {
		return
	}
	e.FieldStart(field)
	e.Str(*v)
}

func encodeOptInt(e *jx.Encoder, field string, v *int64) {
	if v == nil {
		return
	}
	e.FieldStart(field)
	e.Int64(*v)
}

func encodeOptBool(e *jx.Encoder, field string, v *bool) {
	if v == nil {
		return
	}
	e.FieldStart(field)
	e.Bool(*v)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// Issues

func (c *Client) ListIssues(ctx context.Context, projectKey string, q *ListQuery) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "projects/"+url.PathEscape(projectKey)+"/issues", q, nil)
}

func (c *Client) GetIssue(ctx context.Context, issueIDOrKey string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "issues/"+url.PathEscape(issueIDOrKey), nil, nil)
}

func (c *Client) CreateIssue(ctx context.Context, projectKey string, body *IssueCreate) (*Response, error) {
	return c.Do(ctx, http.MethodPost, "projects/"+url.PathEscape(projectKey)+"/issues", nil, body)
}

func (c *Client) UpdateIssue(ctx context.Context, issueIDOrKey string, body *IssueUpdate) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, "issues/"+url.PathEscape(issueIDOrKey), nil, body)
}

func (c *Client) DeleteIssue(ctx context.Context, issueIDOrKey string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, "issues/"+url.PathEscape(issueIDOrKey), nil, nil)
}

// TransitionIssue posts a target status. Which transitions are legal is
// decided upstream.
func (c *Client) TransitionIssue(ctx context.Context, issueIDOrKey string, body *StatusChange) (*Response, error) {
	return c.Do(ctx, http.MethodPost, "issues/"+url.PathEscape(issueIDOrKey)+"/status", nil, body)
}

// Comments

func commentsPath(issueID int64) string { return "issues/" + id(issueID) + "/comments" }

func (c *Client) ListComments(ctx context.Context, issueID int64, q *ListQuery) (*Response, error) {
	return c.Do(ctx, http.MethodGet, commentsPath(issueID), q, nil)
}

func (c *Client) CreateComment(ctx context.Context, issueID int64, body *CommentBody) (*Response, error) {
	return c.Do(ctx, http.MethodPost, commentsPath(issueID), nil, body)
}

func (c *Client) UpdateComment(ctx context.Context, issueID, commentID int64, body *CommentBody) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, commentsPath(issueID)+"/"+id(commentID), nil, body)
}

func (c *Client) DeleteComment(ctx context.Context, issueID, commentID int64) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, commentsPath(issueID)+"/"+id(commentID), nil, nil)
}

// Attachments

func attachmentsPath(issueID int64) string { return "issues/" + id(issueID) + "/attachments" }

func (c *Client) ListAttachments(ctx context.Context, issueID int64, q *ListQuery) (*Response, error) {
	return c.Do(ctx, http.MethodGet, attachmentsPath(issueID), q, nil)
}

func (c *Client) GetAttachment(ctx context.Context, issueID, attachmentID int64) (*Response, error) {
	return c.Do(ctx, http.MethodGet, attachmentsPath(issueID)+"/"+id(attachmentID), nil, nil)
}

func (c *Client) DeleteAttachment(ctx context.Context, issueID, attachmentID int64) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, attachmentsPath(issueID)+"/"+id(attachmentID), nil, nil)
}

// Wikis

func (c *Client) ListWikis(ctx context.Context, projectKey string, q *WikiListQuery) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "projects/"+url.PathEscape(projectKey)+"/wikis", q, nil)
}

func (c *Client) GetWiki(ctx context.Context, wikiID int64) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "wikis/"+id(wikiID), nil, nil)
}

func (c *Client) CreateWiki(ctx context.Context, body *WikiCreate) (*Response, error) {
	return c.Do(ctx, http.MethodPost, "wikis", nil, body)
}

func (c *Client) UpdateWiki(ctx context.Context, wikiID int64, body *WikiUpdate) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, "wikis/"+id(wikiID), nil, body)
}

func (c *Client) DeleteWiki(ctx context.Context, wikiID int64) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, "wikis/"+id(wikiID), nil, nil)
}

// Activities and users

func (c *Client) ListProjectActivities(ctx context.Context, projectKey string, q *ActivityListQuery) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "projects/"+url.PathEscape(projectKey)+"/activities", q, nil)
}

func (c *Client) GetMyself(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "users/myself", nil, nil)
}
