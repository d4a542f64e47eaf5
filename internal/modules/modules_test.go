package modules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlogmcp/server/internal/observability"
	"backlogmcp/server/internal/toolerr"
	"backlogmcp/server/pkg/backlogapi"
)

type fakeModule struct {
	name  string
	tools []Tool
	exec  func(ctx context.Context, name string, params map[string]any) (any, error)
}

func (m *fakeModule) Name() string                { return m.name }
func (m *fakeModule) Description() string         { return "fake" }
func (m *fakeModule) Descriptions() LocalizedText { return LocalizedText{"en-US": "fake"} }
func (m *fakeModule) APIVersion() string          { return "v0" }
func (m *fakeModule) Tools() []Tool               { return m.tools }
func (m *fakeModule) ExecuteTool(ctx context.Context, name string, params map[string]any) (any, error) {
	return m.exec(ctx, name, params)
}

type compactModule struct{ *fakeModule }

func (compactModule) ToCompact(toolName, jsonResult string) string {
	return toolName + ":" + jsonResult
}

func echoTool(name string) Tool {
	return Tool{
		Name:         name,
		Descriptions: LocalizedText{"en-US": name + " en", "ja-JP": name + " ja"},
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{"issueId": {Type: "integer"}},
			Required:   []string{"issueId"},
		},
	}
}

func newFake(name string, exec func(context.Context, string, map[string]any) (any, error), tools ...Tool) *fakeModule {
	return &fakeModule{name: name, tools: tools, exec: exec}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(observability.Discard())
	require.NoError(t, r.Register(newFake("a", nil, echoTool("one"), echoTool("two"))))
	require.NoError(t, r.Register(newFake("b", nil, echoTool("three"))))

	assert.Error(t, r.Register(newFake("a", nil)), "duplicate module")
	assert.Error(t, r.Register(newFake("c", nil, echoTool("two"))), "duplicate tool")

	assert.Equal(t, []string{"a", "b"}, r.Modules())

	tools := r.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, "one", tools[0].Name)
	assert.Equal(t, "three", tools[2].Name)
	assert.Equal(t, "one en", tools[0].Description)
	assert.Nil(t, tools[0].Descriptions)
}

func TestRegistryCall(t *testing.T) {
	var gotParams map[string]any
	exec := func(_ context.Context, name string, params map[string]any) (any, error) {
		gotParams = params
		switch name {
		case "ok":
			return map[string]any{"id": params["issueId"]}, nil
		case "upstream":
			return nil, &backlogapi.RequestError{Method: "GET", Path: "issues/1", Status: 503}
		case "plain":
			return nil, errors.New("boom")
		default:
			panic("kaboom")
		}
	}
	r := NewRegistry(observability.Discard())
	require.NoError(t, r.Register(newFake("backlog", exec,
		echoTool("ok"), echoTool("upstream"), echoTool("plain"), echoTool("explode"))))
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res, terr := r.Call(ctx, "ok", map[string]any{"issueId": float64(42)})
		require.Nil(t, terr)
		require.Len(t, res.Content, 1)
		assert.Equal(t, "text", res.Content[0].Type)
		assert.JSONEq(t, `{"id":42}`, res.Content[0].Text)
		assert.Equal(t, map[string]any{"id": float64(42)}, res.StructuredContent)
		assert.False(t, res.IsError)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, terr := r.Call(ctx, "missing", nil)
		require.NotNil(t, terr)
		assert.Equal(t, toolerr.InvalidArgument, terr.Category)
		assert.Equal(t, "missing: unknown tool", terr.Message)
	})

	t.Run("schema failure never reaches the tool", func(t *testing.T) {
		gotParams = nil
		_, terr := r.Call(ctx, "ok", map[string]any{"issueId": "42"})
		require.NotNil(t, terr)
		assert.Equal(t, toolerr.InvalidArgument, terr.Category)
		assert.Nil(t, gotParams)
		assert.Contains(t, terr.Data, "issues")
	})

	t.Run("upstream 5xx", func(t *testing.T) {
		_, terr := r.Call(ctx, "upstream", map[string]any{"issueId": float64(1)})
		require.NotNil(t, terr)
		assert.Equal(t, toolerr.Internal, terr.Category)
		assert.Equal(t, 503, terr.Data["status"])
	})

	t.Run("unclassified error", func(t *testing.T) {
		_, terr := r.Call(ctx, "plain", map[string]any{"issueId": float64(1)})
		require.NotNil(t, terr)
		assert.Equal(t, toolerr.Internal, terr.Category)
		assert.True(t, strings.HasPrefix(terr.Message, "plain: "))
	})

	t.Run("panic is recovered", func(t *testing.T) {
		_, terr := r.Call(ctx, "explode", map[string]any{"issueId": float64(1)})
		require.NotNil(t, terr)
		assert.Equal(t, toolerr.Internal, terr.Category)
		assert.Contains(t, terr.Message, "kaboom")
	})
}

func TestRegistryCallCompact(t *testing.T) {
	m := compactModule{newFake("backlog", func(context.Context, string, map[string]any) (any, error) {
		return []int{1}, nil
	}, echoTool("list"))}
	r := NewRegistry(observability.Discard())
	require.NoError(t, r.Register(m))

	res, terr := r.Call(context.Background(), "list", map[string]any{"issueId": float64(1)})
	require.Nil(t, terr)
	assert.Equal(t, "list:[1]", res.Content[0].Text)
	assert.Equal(t, []int{1}, res.StructuredContent)
}
