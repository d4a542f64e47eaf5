package backlog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"backlogmcp/server/internal/modules"
	"backlogmcp/server/internal/pagination"
	"backlogmcp/server/internal/schema"
	"backlogmcp/server/pkg/backlogapi"
)

const backlogAPIVersion = "v2"

// BacklogModule implements the Module interface for the Backlog API.
type BacklogModule struct {
	client *backlogapi.Client
}

// New creates a BacklogModule calling Backlog through client.
func New(client *backlogapi.Client) *BacklogModule {
	return &BacklogModule{client: client}
}

// Name returns the module name
func (m *BacklogModule) Name() string {
	return "backlog"
}

var moduleDescriptions = modules.LocalizedText{
	"en-US": "Backlog API - Issue/Comment/Attachment/Wiki operations and project activity",
	"ja-JP": "Backlog API - 課題・コメント・添付ファイル・Wiki操作とプロジェクトのアクティビティ",
}

// Descriptions returns multilingual module descriptions
func (m *BacklogModule) Descriptions() modules.LocalizedText {
	return moduleDescriptions
}

// Description returns the module description (English)
func (m *BacklogModule) Description() string {
	return moduleDescriptions["en-US"]
}

// APIVersion returns the Backlog API version
func (m *BacklogModule) APIVersion() string {
	return backlogAPIVersion
}

// Tools returns all available tools
func (m *BacklogModule) Tools() []modules.Tool {
	return toolDefinitions
}

// ExecuteTool runs a tool and returns its public result.
func (m *BacklogModule) ExecuteTool(ctx context.Context, name string, params map[string]any) (any, error) {
	handler, ok := toolHandlers[name]
	if !ok {
		return nil, errors.Errorf("unknown tool: %s", name)
	}
	return handler(m, ctx, schema.NewArgs(params))
}

// ToCompact converts JSON result to compact format (MD or CSV)
// Implements modules.CompactConverter interface
func (m *BacklogModule) ToCompact(toolName string, jsonResult string) string {
	return formatCompact(toolName, jsonResult)
}

// =============================================================================
// Tool Handlers
// =============================================================================

// toolHandler reads its arguments from a, performs exactly one upstream
// request and returns the public shape.
type toolHandler func(m *BacklogModule, ctx context.Context, a *schema.Args) (any, error)

var toolHandlers = map[string]toolHandler{
	"list_issues":             (*BacklogModule).listIssues,
	"get_issue":               (*BacklogModule).getIssue,
	"create_issue":            (*BacklogModule).createIssue,
	"update_issue":            (*BacklogModule).updateIssue,
	"delete_issue":            (*BacklogModule).deleteIssue,
	"transition_issue":        (*BacklogModule).transitionIssue,
	"issues":                  (*BacklogModule).issues,
	"list_comments":           (*BacklogModule).listComments,
	"create_comment":          (*BacklogModule).createComment,
	"update_comment":          (*BacklogModule).updateComment,
	"delete_comment":          (*BacklogModule).deleteComment,
	"comments":                (*BacklogModule).comments,
	"list_attachments":        (*BacklogModule).listAttachments,
	"get_attachment":          (*BacklogModule).getAttachment,
	"delete_attachment":       (*BacklogModule).deleteAttachment,
	"list_wikis":              (*BacklogModule).listWikis,
	"get_wiki":                (*BacklogModule).getWiki,
	"create_wiki":             (*BacklogModule).createWiki,
	"update_wiki":             (*BacklogModule).updateWiki,
	"delete_wiki":             (*BacklogModule).deleteWiki,
	"list_project_activities": (*BacklogModule).listProjectActivities,
	"get_myself":              (*BacklogModule).getMyself,
}

// =============================================================================
// Helpers
// =============================================================================

const (
	actionList   = "list"
	actionCreate = "create"
)

// action reads a dispatcher's action, defaulting to list.
func action(a *schema.Args) string {
	if !a.Has("action") {
		return actionList
	}
	act := a.String("action")
	switch act {
	case actionList, actionCreate:
		return act
	default:
		a.Fail("action", errors.Errorf("must be one of %s, %s", actionList, actionCreate))
		return ""
	}
}

// payload returns the reader for a dispatcher's create payload. A missing
// payload is a client error.
func payload(a *schema.Args) *schema.Args {
	p, ok := a.Object("payload")
	if !ok {
		if !a.Has("payload") {
			a.Fail("payload", errors.New("required for action create"))
		}
		return nil
	}
	return p
}

// page reads and normalizes the optional pagination argument.
func page(a *schema.Args) *pagination.Params {
	return pagination.Normalize(a.Pagination("pagination"))
}

func listQuery(p *pagination.Params) *backlogapi.ListQuery {
	q := &backlogapi.ListQuery{}
	if wire := p.Query(); wire != nil {
		q.Page = *wire
	}
	return q
}

// decode runs an entity decoder over a response body. Shape failures carry
// the status of the exchange so the classifier never has to guess it.
func decode[T any](resp *backlogapi.Response, fn func(jx.Raw) (T, error)) (T, error) {
	v, err := fn(resp.Body)
	var shape *schema.ResponseError
	if errors.As(err, &shape) {
		shape.Status = resp.Status
	}
	return v, err
}
