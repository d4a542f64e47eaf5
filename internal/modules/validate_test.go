package modules

import (
	"testing"

	"github.com/ogen-go/ogen/validate"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	verr, ok := err.(*validate.Error)
	if !ok {
		t.Fatalf("expected *validate.Error, got %T (%v)", err, err)
	}
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Name
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestValidateParams_RequiredFields(t *testing.T) {
	schema := InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"projectKey": {Type: "string"},
			"summary":    {Type: "string"},
		},
		Required: []string{"projectKey", "summary"},
	}

	tests := []struct {
		name   string
		params map[string]any
		want   []string
	}{
		{"all required present", map[string]any{"projectKey": "PRJ", "summary": "s"}, nil},
		{"missing one required", map[string]any{"projectKey": "PRJ"}, []string{"summary"}},
		{"missing all required", map[string]any{}, []string{"projectKey", "summary"}},
		{"nil params", nil, []string{"projectKey", "summary"}},
		{"null value for required field", map[string]any{"projectKey": nil, "summary": "s"}, []string{"projectKey"}},
		// blank strings are rejected by the typed argument readers, not here
		{"empty string is present", map[string]any{"projectKey": "", "summary": "s"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateParams(schema, tt.params)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if got := fieldNames(t, err); !equalNames(got, tt.want) {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateParams_TypeCheck(t *testing.T) {
	schema := InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"name":       {Type: "string"},
			"issueId":    {Type: "integer"},
			"mailNotify": {Type: "boolean"},
			"action":     {Type: "string", Enum: []string{"list", "create"}},
			"ids":        {Type: "array", Items: &Property{Type: "integer"}},
			"pagination": {Type: "object", Properties: map[string]Property{
				"offset": {Type: "number"},
				"limit":  {Type: "number"},
			}},
		},
	}

	tests := []struct {
		name   string
		params map[string]any
		want   []string
	}{
		{
			name: "all correct types",
			params: map[string]any{
				"name":       "wiki",
				"issueId":    float64(42),
				"mailNotify": true,
				"action":     "create",
				"ids":        []any{float64(1), float64(2)},
				"pagination": map[string]any{"offset": float64(1), "limit": float64(2)},
			},
		},
		{"string where integer expected", map[string]any{"issueId": "42"}, []string{"issueId"}},
		{"fraction where integer expected", map[string]any{"issueId": 1.5}, []string{"issueId"}},
		{"number where string expected", map[string]any{"name": float64(1)}, []string{"name"}},
		{"string where boolean expected", map[string]any{"mailNotify": "true"}, []string{"mailNotify"}},
		{"value outside enum", map[string]any{"action": "delete"}, []string{"action"}},
		{"bad array item", map[string]any{"ids": []any{float64(1), "two"}}, []string{"ids[1]"}},
		{"bad nested property", map[string]any{"pagination": map[string]any{"limit": "2"}}, []string{"pagination.limit"}},
		{"null values are skipped", map[string]any{"name": nil, "issueId": nil}, nil},
		{"undeclared params pass", map[string]any{"extra": []any{1}}, nil},
		{"errors sorted by key", map[string]any{"name": true, "issueId": "x"}, []string{"issueId", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateParams(schema, tt.params)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if got := fieldNames(t, err); !equalNames(got, tt.want) {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateParams_TypeMessage(t *testing.T) {
	schema := InputSchema{Type: "object", Properties: map[string]Property{"name": {Type: "string"}}}
	_, err := ValidateParams(schema, map[string]any{"name": float64(42)})
	verr, ok := err.(*validate.Error)
	if !ok || len(verr.Fields) != 1 {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := verr.Fields[0].Error.Error(); got != "expected string, got number" {
		t.Errorf("message = %q", got)
	}
}

func TestValidateParams_NilParamsBecomeEmpty(t *testing.T) {
	got, err := ValidateParams(InputSchema{Type: "object"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Error("expected non-nil params map")
	}
}

func TestFindTool(t *testing.T) {
	tools := []Tool{{Name: "get_issue"}, {Name: "list_issues"}}
	if _, ok := findTool(tools, "list_issues"); !ok {
		t.Error("expected list_issues to be found")
	}
	if _, ok := findTool(tools, "nope"); ok {
		t.Error("expected nope to be missing")
	}
}
