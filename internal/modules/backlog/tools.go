package backlog

import "backlogmcp/server/internal/modules"

var minOne = 1.0

// Shared property definitions
var (
	propProjectKey   = modules.Property{Type: "string", Description: "Project key (e.g., 'PRJ')"}
	propIssueIDOrKey = modules.Property{Description: "Issue ID (number) or issue key (e.g., 'PRJ-123')"}
	propIssueID      = modules.Property{Type: "integer", Description: "Numeric issue ID", Minimum: &minOne}
	propPagination   = modules.Property{
		Type:        "object",
		Description: "Optional paging. offset is floored and clamped to >= 0, limit to >= 1.",
		Properties: map[string]modules.Property{
			"offset": {Type: "number", Description: "Number of items to skip"},
			"limit":  {Type: "number", Description: "Maximum number of items to return"},
		},
	}
	propAction = modules.Property{
		Type:        "string",
		Description: "Action to perform. Default: list",
		Enum:        []string{actionList, actionCreate},
	}
)

func issueFieldProps(summaryDesc string) map[string]modules.Property {
	return map[string]modules.Property{
		"summary":     {Type: "string", Description: summaryDesc},
		"description": {Type: "string", Description: "Issue description"},
		"issueTypeId": {Type: "integer", Description: "Issue type ID", Minimum: &minOne},
		"priorityId":  {Type: "integer", Description: "Priority ID", Minimum: &minOne},
		"assigneeId":  {Type: "integer", Description: "Assignee user ID", Minimum: &minOne},
	}
}

func withProps(base map[string]modules.Property, extra map[string]modules.Property) map[string]modules.Property {
	out := make(map[string]modules.Property, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// =============================================================================
// Tool Definitions
// =============================================================================

var toolDefinitions = []modules.Tool{
	// Issues
	{
		ID:   "backlog:list_issues",
		Name: "list_issues",
		Descriptions: modules.LocalizedText{
			"en-US": "List issues of a Backlog project. Returns {issues, nextOffset}; nextOffset is a hint and is null when fewer items than limit came back.",
			"ja-JP": "Backlogプロジェクトの課題を一覧表示します。{issues, nextOffset}を返します。nextOffsetは目安で、limit未満の件数の場合はnullです。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"projectKey": propProjectKey,
				"pagination": propPagination,
			},
			Required: []string{"projectKey"},
		},
	},
	{
		ID:   "backlog:get_issue",
		Name: "get_issue",
		Descriptions: modules.LocalizedText{
			"en-US": "Get a Backlog issue by ID or key.",
			"ja-JP": "IDまたはキーでBacklogの課題を取得します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueIdOrKey": propIssueIDOrKey,
			},
			Required: []string{"issueIdOrKey"},
		},
	},
	{
		ID:   "backlog:create_issue",
		Name: "create_issue",
		Descriptions: modules.LocalizedText{
			"en-US": "Create a Backlog issue in a project. Returns the new issue key.",
			"ja-JP": "プロジェクトにBacklogの課題を作成します。作成された課題キーを返します。",
		},
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: withProps(issueFieldProps("Issue summary (must not be blank)"), map[string]modules.Property{
				"projectKey": propProjectKey,
			}),
			Required: []string{"projectKey", "summary"},
		},
	},
	{
		ID:   "backlog:update_issue",
		Name: "update_issue",
		Descriptions: modules.LocalizedText{
			"en-US": "Update a Backlog issue. At least one of summary, description, issueTypeId, priorityId, assigneeId must be set.",
			"ja-JP": "Backlogの課題を更新します。summary、description、issueTypeId、priorityId、assigneeIdのいずれか1つ以上を指定してください。",
		},
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: withProps(issueFieldProps("New summary (must not be blank)"), map[string]modules.Property{
				"issueIdOrKey": propIssueIDOrKey,
			}),
			Required: []string{"issueIdOrKey"},
		},
	},
	{
		ID:   "backlog:delete_issue",
		Name: "delete_issue",
		Descriptions: modules.LocalizedText{
			"en-US": "Delete a Backlog issue.",
			"ja-JP": "Backlogの課題を削除します。",
		},
		Annotations: modules.AnnotateDelete,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueIdOrKey": propIssueIDOrKey,
			},
			Required: []string{"issueIdOrKey"},
		},
	},
	{
		ID:   "backlog:transition_issue",
		Name: "transition_issue",
		Descriptions: modules.LocalizedText{
			"en-US": "Move a Backlog issue to another status. Whether the transition is allowed is decided by Backlog. Returns the issue key and the resulting status name.",
			"ja-JP": "Backlogの課題のステータスを変更します。遷移の可否はBacklog側で判定されます。課題キーと変更後のステータス名を返します。",
		},
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueIdOrKey": propIssueIDOrKey,
				"statusId":     {Type: "integer", Description: "Target status ID", Minimum: &minOne},
			},
			Required: []string{"issueIdOrKey", "statusId"},
		},
	},
	{
		ID:   "backlog:issues",
		Name: "issues",
		Descriptions: modules.LocalizedText{
			"en-US": "List or create issues of a Backlog project. action 'list' (default) pages through issues; action 'create' requires payload {summary, description?, issueTypeId?, priorityId?, assigneeId?}.",
			"ja-JP": "Backlogプロジェクトの課題を一覧表示または作成します。action 'list'（デフォルト）は一覧、'create'はpayload {summary, description?, issueTypeId?, priorityId?, assigneeId?} が必須です。",
		},
		Annotations: modules.AnnotateDispatch,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"action":     propAction,
				"projectKey": propProjectKey,
				"pagination": propPagination,
				"payload": {
					Type:        "object",
					Description: "Issue fields for action create",
					Properties:  issueFieldProps("Issue summary (must not be blank)"),
				},
			},
			Required: []string{"projectKey"},
		},
	},

	// Comments
	{
		ID:   "backlog:list_comments",
		Name: "list_comments",
		Descriptions: modules.LocalizedText{
			"en-US": "List comments on a Backlog issue. Returns {comments, nextOffset}.",
			"ja-JP": "Backlogの課題のコメントを一覧表示します。{comments, nextOffset}を返します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId":    propIssueID,
				"pagination": propPagination,
			},
			Required: []string{"issueId"},
		},
	},
	{
		ID:   "backlog:create_comment",
		Name: "create_comment",
		Descriptions: modules.LocalizedText{
			"en-US": "Add a comment to a Backlog issue.",
			"ja-JP": "Backlogの課題にコメントを追加します。",
		},
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId": propIssueID,
				"content": {Type: "string", Description: "Comment text (must not be blank)"},
			},
			Required: []string{"issueId", "content"},
		},
	},
	{
		ID:   "backlog:update_comment",
		Name: "update_comment",
		Descriptions: modules.LocalizedText{
			"en-US": "Edit a comment on a Backlog issue.",
			"ja-JP": "Backlogの課題のコメントを編集します。",
		},
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId":   propIssueID,
				"commentId": {Type: "integer", Description: "Comment ID", Minimum: &minOne},
				"content":   {Type: "string", Description: "New comment text (must not be blank)"},
			},
			Required: []string{"issueId", "commentId", "content"},
		},
	},
	{
		ID:   "backlog:delete_comment",
		Name: "delete_comment",
		Descriptions: modules.LocalizedText{
			"en-US": "Delete a comment from a Backlog issue.",
			"ja-JP": "Backlogの課題からコメントを削除します。",
		},
		Annotations: modules.AnnotateDelete,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId":   propIssueID,
				"commentId": {Type: "integer", Description: "Comment ID", Minimum: &minOne},
			},
			Required: []string{"issueId", "commentId"},
		},
	},
	{
		ID:   "backlog:comments",
		Name: "comments",
		Descriptions: modules.LocalizedText{
			"en-US": "List or add comments on a Backlog issue. action 'list' (default) pages through comments; action 'create' requires payload {content}.",
			"ja-JP": "Backlogの課題のコメントを一覧表示または追加します。action 'list'（デフォルト）は一覧、'create'はpayload {content} が必須です。",
		},
		Annotations: modules.AnnotateDispatch,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"action":     propAction,
				"issueId":    propIssueID,
				"pagination": propPagination,
				"payload": {
					Type:        "object",
					Description: "Comment for action create",
					Properties: map[string]modules.Property{
						"content": {Type: "string", Description: "Comment text (must not be blank)"},
					},
				},
			},
			Required: []string{"issueId"},
		},
	},

	// Attachments
	{
		ID:   "backlog:list_attachments",
		Name: "list_attachments",
		Descriptions: modules.LocalizedText{
			"en-US": "List attachments of a Backlog issue. Returns {attachments, nextOffset}.",
			"ja-JP": "Backlogの課題の添付ファイルを一覧表示します。{attachments, nextOffset}を返します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId":    propIssueID,
				"pagination": propPagination,
			},
			Required: []string{"issueId"},
		},
	},
	{
		ID:   "backlog:get_attachment",
		Name: "get_attachment",
		Descriptions: modules.LocalizedText{
			"en-US": "Get metadata of one attachment on a Backlog issue.",
			"ja-JP": "Backlogの課題の添付ファイル1件のメタデータを取得します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId":      propIssueID,
				"attachmentId": {Type: "integer", Description: "Attachment ID", Minimum: &minOne},
			},
			Required: []string{"issueId", "attachmentId"},
		},
	},
	{
		ID:   "backlog:delete_attachment",
		Name: "delete_attachment",
		Descriptions: modules.LocalizedText{
			"en-US": "Delete an attachment from a Backlog issue.",
			"ja-JP": "Backlogの課題から添付ファイルを削除します。",
		},
		Annotations: modules.AnnotateDelete,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issueId":      propIssueID,
				"attachmentId": {Type: "integer", Description: "Attachment ID", Minimum: &minOne},
			},
			Required: []string{"issueId", "attachmentId"},
		},
	},

	// Wikis
	{
		ID:   "backlog:list_wikis",
		Name: "list_wikis",
		Descriptions: modules.LocalizedText{
			"en-US": "List wiki pages of a Backlog project, optionally filtered by keyword. Returns {wikis, nextOffset}.",
			"ja-JP": "BacklogプロジェクトのWikiページを一覧表示します。キーワードで絞り込めます。{wikis, nextOffset}を返します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"projectKey": propProjectKey,
				"keyword":    {Type: "string", Description: "Keyword to search page names and content"},
				"pagination": propPagination,
			},
			Required: []string{"projectKey"},
		},
	},
	{
		ID:   "backlog:get_wiki",
		Name: "get_wiki",
		Descriptions: modules.LocalizedText{
			"en-US": "Get a Backlog wiki page with its content.",
			"ja-JP": "BacklogのWikiページを内容とともに取得します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"wikiId": {Type: "integer", Description: "Wiki page ID", Minimum: &minOne},
			},
			Required: []string{"wikiId"},
		},
	},
	{
		ID:   "backlog:create_wiki",
		Name: "create_wiki",
		Descriptions: modules.LocalizedText{
			"en-US": "Create a Backlog wiki page in a project.",
			"ja-JP": "プロジェクトにBacklogのWikiページを作成します。",
		},
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"projectId":  {Type: "integer", Description: "Numeric project ID", Minimum: &minOne},
				"name":       {Type: "string", Description: "Page name (must not be blank)"},
				"content":    {Type: "string", Description: "Page content (must not be blank)"},
				"mailNotify": {Type: "boolean", Description: "Notify project members by mail"},
			},
			Required: []string{"projectId", "name", "content"},
		},
	},
	{
		ID:   "backlog:update_wiki",
		Name: "update_wiki",
		Descriptions: modules.LocalizedText{
			"en-US": "Update a Backlog wiki page. At least one of name, content must be set.",
			"ja-JP": "BacklogのWikiページを更新します。nameとcontentのいずれか1つ以上を指定してください。",
		},
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"wikiId":     {Type: "integer", Description: "Wiki page ID", Minimum: &minOne},
				"name":       {Type: "string", Description: "New page name (must not be blank)"},
				"content":    {Type: "string", Description: "New page content (must not be blank)"},
				"mailNotify": {Type: "boolean", Description: "Notify project members by mail"},
			},
			Required: []string{"wikiId"},
		},
	},
	{
		ID:   "backlog:delete_wiki",
		Name: "delete_wiki",
		Descriptions: modules.LocalizedText{
			"en-US": "Delete a Backlog wiki page.",
			"ja-JP": "BacklogのWikiページを削除します。",
		},
		Annotations: modules.AnnotateDelete,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"wikiId": {Type: "integer", Description: "Wiki page ID", Minimum: &minOne},
			},
			Required: []string{"wikiId"},
		},
	},

	// Activities
	{
		ID:   "backlog:list_project_activities",
		Name: "list_project_activities",
		Descriptions: modules.LocalizedText{
			"en-US": "List recent activities of a Backlog project, optionally filtered by activity type IDs. Returns {activities, nextOffset}.",
			"ja-JP": "Backlogプロジェクトの最近のアクティビティを一覧表示します。アクティビティ種別IDで絞り込めます。{activities, nextOffset}を返します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"projectKey": propProjectKey,
				"activityTypeIds": {
					Type:        "array",
					Description: "Activity type IDs to include",
					Items:       &modules.Property{Type: "integer", Minimum: &minOne},
				},
				"pagination": propPagination,
			},
			Required: []string{"projectKey"},
		},
	},

	// User
	{
		ID:   "backlog:get_myself",
		Name: "get_myself",
		Descriptions: modules.LocalizedText{
			"en-US": "Get the Backlog user that owns the configured API key.",
			"ja-JP": "設定されたAPIキーの所有者であるBacklogユーザーを取得します。",
		},
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type:       "object",
			Properties: map[string]modules.Property{},
		},
	},
}
