package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlogmcp/server/internal/schema"
)

func s(v string) *string { return &v }
func n(v int64) *int64   { return &v }

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestAbsentFieldsSerializeAsNull(t *testing.T) {
	tests := []struct {
		name string
		got  any
		want string
	}{
		{
			"issue",
			MapIssue(schema.Issue{ID: 1, IssueKey: "PRJ-1", Summary: "s"}),
			`{"id":1,"key":"PRJ-1","summary":"s","description":null,"status":null,"assignee":null,"updated":null}`,
		},
		{
			"comment",
			MapComment(schema.Comment{ID: 2}),
			`{"id":2,"content":null,"author":null,"created":null,"updated":null}`,
		},
		{
			"attachment",
			MapAttachment(schema.Attachment{ID: 3, Name: "a.txt"}),
			`{"id":3,"name":"a.txt","size":null,"createdBy":null,"created":null}`,
		},
		{
			"wiki page",
			MapWikiPage(schema.WikiPage{ID: 4, Name: "Home"}),
			`{"id":4,"projectId":null,"name":"Home","content":null,"createdBy":null,"updatedBy":null,"created":null,"updated":null,"tags":[]}`,
		},
		{
			"activity",
			MapActivity(schema.Activity{ID: 5}),
			`{"id":5,"type":null,"projectKey":null,"projectName":null,"createdBy":null,"created":null,"content":null}`,
		},
		{
			"user",
			MapUser(schema.User{ID: 6}),
			`{"id":6,"userId":null,"name":null,"email":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, marshal(t, tt.got))
		})
	}
}

func TestMapIssueFlattensRelations(t *testing.T) {
	got := MapIssue(schema.Issue{
		ID:       1,
		IssueKey: "PRJ-1",
		Summary:  "Fix",
		Status:   &schema.Ref{ID: n(2), Name: s("Open")},
		Assignee: &schema.Ref{ID: n(9)},
		Updated:  s("2024-05-01T00:00:00Z"),
	})
	assert.Equal(t, "Open", *got.Status)
	assert.Nil(t, got.Assignee, "relation without a name maps to null")
	assert.Equal(t, "2024-05-01T00:00:00Z", *got.Updated)
}

func TestMapWikiPageTags(t *testing.T) {
	got := MapWikiPage(schema.WikiPage{
		ID:   1,
		Name: "Home",
		Tags: []schema.Tag{
			{ID: n(1), Name: s("design")},
			{ID: n(2), Name: s("   ")},
			{ID: n(3), Name: s("")},
			{ID: n(4)},
			{ID: n(5), Name: s("api")},
		},
	})
	assert.Equal(t, []string{"design", "api"}, got.Tags)
}

func TestMapActivity(t *testing.T) {
	got := MapActivity(schema.Activity{
		ID:          1,
		Type:        n(2),
		Project:     &schema.Project{ID: n(3), ProjectKey: s("PRJ"), Name: s("Project")},
		CreatedUser: &schema.Ref{Name: s("Alice")},
		Content:     []byte(`{"summary":"x"}`),
	})
	assert.Equal(t, "PRJ", *got.ProjectKey)
	assert.Equal(t, "Alice", *got.CreatedBy)
	assert.JSONEq(t, `{"summary":"x"}`, string(got.Content))
}

func TestMapAllNeverNil(t *testing.T) {
	out := MapAll(nil, MapComment)
	require.NotNil(t, out)
	assert.Equal(t, "[]", marshal(t, out))
}
