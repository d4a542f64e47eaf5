package backlog

import (
	"context"

	"backlogmcp/server/internal/mapper"
	"backlogmcp/server/internal/pagination"
	"backlogmcp/server/internal/schema"
	"backlogmcp/server/pkg/backlogapi"
)

type commentList struct {
	Comments   []mapper.Comment `json:"comments"`
	NextOffset *int             `json:"nextOffset"`
}

type deletedComment struct {
	Deleted   bool  `json:"deleted"`
	CommentID int64 `json:"commentId"`
}

func (m *BacklogModule) listComments(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	p := page(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	return m.doListComments(ctx, issueID, p)
}

func (m *BacklogModule) doListComments(ctx context.Context, issueID int64, p *pagination.Params) (any, error) {
	resp, err := m.client.ListComments(ctx, issueID, listQuery(p))
	if err != nil {
		return nil, err
	}
	comments, err := decode(resp, schema.DecodeComments)
	if err != nil {
		return nil, err
	}
	return commentList{
		Comments:   mapper.MapAll(comments, mapper.MapComment),
		NextOffset: pagination.NextOffset(p, len(comments)),
	}, nil
}

func (m *BacklogModule) createComment(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	content := a.Text("content")
	if err := a.Err(); err != nil {
		return nil, err
	}
	return m.doCreateComment(ctx, issueID, content)
}

func (m *BacklogModule) doCreateComment(ctx context.Context, issueID int64, content string) (any, error) {
	resp, err := m.client.CreateComment(ctx, issueID, &backlogapi.CommentBody{Content: content})
	if err != nil {
		return nil, err
	}
	comment, err := decode(resp, schema.DecodeComment)
	if err != nil {
		return nil, err
	}
	return mapper.MapComment(comment), nil
}

func (m *BacklogModule) updateComment(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	commentID := a.ID("commentId")
	content := a.Text("content")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.UpdateComment(ctx, issueID, commentID, &backlogapi.CommentBody{Content: content})
	if err != nil {
		return nil, err
	}
	comment, err := decode(resp, schema.DecodeComment)
	if err != nil {
		return nil, err
	}
	return mapper.MapComment(comment), nil
}

func (m *BacklogModule) deleteComment(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	commentID := a.ID("commentId")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.DeleteComment(ctx, issueID, commentID)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		if _, err := decode(resp, schema.DecodeComment); err != nil {
			return nil, err
		}
	}
	return deletedComment{Deleted: true, CommentID: commentID}, nil
}

// comments routes to list or create.
func (m *BacklogModule) comments(ctx context.Context, a *schema.Args) (any, error) {
	act := action(a)
	issueID := a.ID("issueId")
	switch act {
	case actionCreate:
		var content string
		if p := payload(a); p != nil {
			content = p.Text("content")
		}
		if err := a.Err(); err != nil {
			return nil, err
		}
		return m.doCreateComment(ctx, issueID, content)
	default:
		p := page(a)
		if err := a.Err(); err != nil {
			return nil, err
		}
		return m.doListComments(ctx, issueID, p)
	}
}
