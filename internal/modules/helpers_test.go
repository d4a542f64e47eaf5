package modules

import (
	"testing"
)

func TestToJSON(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"map", map[string]any{"issueKey": "PRJ-1"}, `{"issueKey":"PRJ-1"}`},
		{"slice", []int{1, 2, 3}, `[1,2,3]`},
		{"nil", nil, `null`},
		{"nil pointer field", struct {
			Next *int `json:"nextOffset"`
		}{}, `{"nextOffset":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToJSON(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToJSON_Unmarshalable(t *testing.T) {
	if _, err := ToJSON(make(chan int)); err == nil {
		t.Error("expected error for channel")
	}
}

func TestEnglishTools(t *testing.T) {
	tools := []Tool{
		{Name: "get_issue", Descriptions: LocalizedText{"en-US": "Get an issue.", "ja-JP": "課題を取得します。"}},
		{Name: "ping", Description: "fallback"},
	}
	got := EnglishTools(tools)
	if got[0].Description != "Get an issue." || got[0].Descriptions != nil {
		t.Errorf("got %+v", got[0])
	}
	if got[1].Description != "fallback" {
		t.Errorf("got %+v", got[1])
	}
	if tools[0].Descriptions == nil {
		t.Error("input must not be modified")
	}
}
