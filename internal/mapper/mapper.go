// Package mapper projects validated Backlog entities onto the smaller public
// shapes returned by tools. Every function is total: absent relations become
// null, never an error.
package mapper

import (
	"encoding/json"
	"strings"

	"backlogmcp/server/internal/schema"
)

// Optional fields carry no omitempty so that absence serializes as null.

type Issue struct {
	ID          int64   `json:"id"`
	Key         string  `json:"key"`
	Summary     string  `json:"summary"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Assignee    *string `json:"assignee"`
	Updated     *string `json:"updated"`
}

type Comment struct {
	ID      int64   `json:"id"`
	Content *string `json:"content"`
	Author  *string `json:"author"`
	Created *string `json:"created"`
	Updated *string `json:"updated"`
}

type Attachment struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Size      *int64  `json:"size"`
	CreatedBy *string `json:"createdBy"`
	Created   *string `json:"created"`
}

type WikiPage struct {
	ID        int64    `json:"id"`
	ProjectID *int64   `json:"projectId"`
	Name      string   `json:"name"`
	Content   *string  `json:"content"`
	CreatedBy *string  `json:"createdBy"`
	UpdatedBy *string  `json:"updatedBy"`
	Created   *string  `json:"created"`
	Updated   *string  `json:"updated"`
	Tags      []string `json:"tags"`
}

type Activity struct {
	ID          int64           `json:"id"`
	Type        *int64          `json:"type"`
	ProjectKey  *string         `json:"projectKey"`
	ProjectName *string         `json:"projectName"`
	CreatedBy   *string         `json:"createdBy"`
	Created     *string         `json:"created"`
	Content     json.RawMessage `json:"content"`
}

type User struct {
	ID     int64   `json:"id"`
	UserID *string `json:"userId"`
	Name   *string `json:"name"`
	Email  *string `json:"email"`
}

func name(r *schema.Ref) *string {
	if r == nil {
		return nil
	}
	return r.Name
}

func MapIssue(v schema.Issue) Issue {
	return Issue{
		ID:          v.ID,
		Key:         v.IssueKey,
		Summary:     v.Summary,
		Description: v.Description,
		Status:      name(v.Status),
		Assignee:    name(v.Assignee),
		Updated:     v.Updated,
	}
}

func MapComment(v schema.Comment) Comment {
	return Comment{
		ID:      v.ID,
		Content: v.Content,
		Author:  name(v.CreatedUser),
		Created: v.Created,
		Updated: v.Updated,
	}
}

func MapAttachment(v schema.Attachment) Attachment {
	return Attachment{
		ID:        v.ID,
		Name:      v.Name,
		Size:      v.Size,
		CreatedBy: name(v.CreatedUser),
		Created:   v.Created,
	}
}

// MapWikiPage keeps only tag names, dropping blank ones.
func MapWikiPage(v schema.WikiPage) WikiPage {
	tags := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		if t.Name == nil || strings.TrimSpace(*t.Name) == "" {
			continue
		}
		tags = append(tags, *t.Name)
	}
	return WikiPage{
		ID:        v.ID,
		ProjectID: v.ProjectID,
		Name:      v.Name,
		Content:   v.Content,
		CreatedBy: name(v.CreatedUser),
		UpdatedBy: name(v.UpdatedUser),
		Created:   v.Created,
		Updated:   v.Updated,
		Tags:      tags,
	}
}

// MapActivity passes content through untouched; a missing object becomes null.
func MapActivity(v schema.Activity) Activity {
	out := Activity{
		ID:        v.ID,
		Type:      v.Type,
		CreatedBy: name(v.CreatedUser),
		Created:   v.Created,
		Content:   json.RawMessage("null"),
	}
	if v.Project != nil {
		out.ProjectKey = v.Project.ProjectKey
		out.ProjectName = v.Project.Name
	}
	if len(v.Content) > 0 {
		out.Content = json.RawMessage(v.Content)
	}
	return out
}

func MapUser(v schema.User) User {
	return User{
		ID:     v.ID,
		UserID: v.UserID,
		Name:   v.Name,
		Email:  v.MailAddress,
	}
}

// MapAll applies fn to each element. The result is never nil.
func MapAll[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
