package backlog

import (
	"context"

	"backlogmcp/server/internal/mapper"
	"backlogmcp/server/internal/pagination"
	"backlogmcp/server/internal/schema"
)

type attachmentList struct {
	Attachments []mapper.Attachment `json:"attachments"`
	NextOffset  *int                `json:"nextOffset"`
}

type deletedAttachment struct {
	Deleted      bool  `json:"deleted"`
	AttachmentID int64 `json:"attachmentId"`
}

func (m *BacklogModule) listAttachments(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	p := page(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.ListAttachments(ctx, issueID, listQuery(p))
	if err != nil {
		return nil, err
	}
	attachments, err := decode(resp, schema.DecodeAttachments)
	if err != nil {
		return nil, err
	}
	return attachmentList{
		Attachments: mapper.MapAll(attachments, mapper.MapAttachment),
		NextOffset:  pagination.NextOffset(p, len(attachments)),
	}, nil
}

func (m *BacklogModule) getAttachment(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	attachmentID := a.ID("attachmentId")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.GetAttachment(ctx, issueID, attachmentID)
	if err != nil {
		return nil, err
	}
	attachment, err := decode(resp, schema.DecodeAttachment)
	if err != nil {
		return nil, err
	}
	return mapper.MapAttachment(attachment), nil
}

func (m *BacklogModule) deleteAttachment(ctx context.Context, a *schema.Args) (any, error) {
	issueID := a.ID("issueId")
	attachmentID := a.ID("attachmentId")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.DeleteAttachment(ctx, issueID, attachmentID)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		if _, err := decode(resp, schema.DecodeAttachment); err != nil {
			return nil, err
		}
	}
	return deletedAttachment{Deleted: true, AttachmentID: attachmentID}, nil
}
