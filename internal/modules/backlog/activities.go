package backlog

import (
	"context"

	"backlogmcp/server/internal/mapper"
	"backlogmcp/server/internal/pagination"
	"backlogmcp/server/internal/schema"
	"backlogmcp/server/pkg/backlogapi"
)

type activityList struct {
	Activities []mapper.Activity `json:"activities"`
	NextOffset *int              `json:"nextOffset"`
}

func (m *BacklogModule) listProjectActivities(ctx context.Context, a *schema.Args) (any, error) {
	projectKey := a.Key("projectKey")
	typeIDs := a.IDs("activityTypeIds")
	p := page(a)
	if err := a.Err(); err != nil {
		return nil, err
	}
	q := &backlogapi.ActivityListQuery{ActivityTypeIDs: typeIDs}
	if wire := p.Query(); wire != nil {
		q.Page = *wire
	}
	resp, err := m.client.ListProjectActivities(ctx, projectKey, q)
	if err != nil {
		return nil, err
	}
	activities, err := decode(resp, schema.DecodeActivities)
	if err != nil {
		return nil, err
	}
	return activityList{
		Activities: mapper.MapAll(activities, mapper.MapActivity),
		NextOffset: pagination.NextOffset(p, len(activities)),
	}, nil
}

func (m *BacklogModule) getMyself(ctx context.Context, a *schema.Args) (any, error) {
	resp, err := m.client.GetMyself(ctx)
	if err != nil {
		return nil, err
	}
	user, err := decode(resp, schema.DecodeUser)
	if err != nil {
		return nil, err
	}
	return mapper.MapUser(user), nil
}
