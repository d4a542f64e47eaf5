package backlog

import (
	"context"

	"backlogmcp/server/internal/mapper"
	"backlogmcp/server/internal/pagination"
	"backlogmcp/server/internal/schema"
	"backlogmcp/server/pkg/backlogapi"
)

type wikiList struct {
	Wikis      []mapper.WikiPage `json:"wikis"`
	NextOffset *int              `json:"nextOffset"`
}

type deletedWiki struct {
	Deleted bool  `json:"deleted"`
	WikiID  int64 `json:"wikiId"`
}

func (m *BacklogModule) listWikis(ctx context.Context, a *schema.Args) (any, error) {
	projectKey := a.Key("projectKey")
	keyword := a.OptString("keyword")
	p := page(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	q := &backlogapi.WikiListQuery{}
	if wire := p.Query(); wire != nil {
		q.Page = *wire
	}
	if keyword != nil {
		q.Keyword = *keyword
	}
	resp, err := m.client.ListWikis(ctx, projectKey, q)
	if err != nil {
		return nil, err
	}
	pages, err := decode(resp, schema.DecodeWikiPages)
	if err != nil {
		return nil, err
	}
	return wikiList{
		Wikis:      mapper.MapAll(pages, mapper.MapWikiPage),
		NextOffset: pagination.NextOffset(p, len(pages)),
	}, nil
}

func (m *BacklogModule) getWiki(ctx context.Context, a *schema.Args) (any, error) {
	wikiID := a.ID("wikiId")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.GetWiki(ctx, wikiID)
	if err != nil {
		return nil, err
	}
	return wikiPage(resp)
}

func (m *BacklogModule) createWiki(ctx context.Context, a *schema.Args) (any, error) {
	body := &backlogapi.WikiCreate{
		ProjectID:  a.ID("projectId"),
		Name:       a.Text("name"),
		Content:    a.Text("content"),
		MailNotify: a.OptBool("mailNotify"),
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.CreateWiki(ctx, body)
	if err != nil {
		return nil, err
	}
	return wikiPage(resp)
}

func (m *BacklogModule) updateWiki(ctx context.Context, a *schema.Args) (any, error) {
	wikiID := a.ID("wikiId")
	a.AtLeastOne("name", "content")
	body := &backlogapi.WikiUpdate{
		Name:       a.OptText("name"),
		Content:    a.OptText("content"),
		MailNotify: a.OptBool("mailNotify"),
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.UpdateWiki(ctx, wikiID, body)
	if err != nil {
		return nil, err
	}
	return wikiPage(resp)
}

func (m *BacklogModule) deleteWiki(ctx context.Context, a *schema.Args) (any, error) {
	wikiID := a.ID("wikiId")
	if err := a.Err(); err != nil {
		return nil, err
	}
	resp, err := m.client.DeleteWiki(ctx, wikiID)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		if _, err := decode(resp, schema.DecodeWikiPage); err != nil {
			return nil, err
		}
	}
	return deletedWiki{Deleted: true, WikiID: wikiID}, nil
}

func wikiPage(resp *backlogapi.Response) (any, error) {
	page, err := decode(resp, schema.DecodeWikiPage)
	if err != nil {
		return nil, err
	}
	return mapper.MapWikiPage(page), nil
}
