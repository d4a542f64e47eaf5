package backlog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Compact formatters per tool: pure transformation (toolName, JSON) → string
// =============================================================================

func formatCompact(toolName, jsonStr string) string {
	switch toolName {
	// Read: list → CSV
	case "list_issues":
		return listToCSV(jsonStr, "issues", issueColumns)
	case "list_comments":
		return commentsToCompact(jsonStr)
	case "list_attachments":
		return listToCSV(jsonStr, "attachments", attachmentColumns)
	case "list_wikis":
		return listToCSV(jsonStr, "wikis", wikiColumns)
	case "list_project_activities":
		return listToCSV(jsonStr, "activities", activityColumns)
	// Dispatchers: shape depends on the routed action
	case "issues":
		if hasKey(jsonStr, "issues") {
			return listToCSV(jsonStr, "issues", issueColumns)
		}
		return jsonStr
	case "comments":
		if hasKey(jsonStr, "comments") {
			return commentsToCompact(jsonStr)
		}
		return commentToCompact(jsonStr)
	// Read: single item → MD
	case "get_issue", "update_issue":
		return issueToCompact(jsonStr)
	case "get_wiki", "create_wiki", "update_wiki":
		return wikiToCompact(jsonStr)
	case "get_attachment":
		return attachmentToCompact(jsonStr)
	case "get_myself":
		return myselfToCompact(jsonStr)
	case "create_comment", "update_comment":
		return commentToCompact(jsonStr)
	// Write: confirmation JSON is already minimal
	default:
		return jsonStr
	}
}

type column struct {
	header string
	value  func(obj map[string]any) string
}

func field(key string) column {
	return column{header: key, value: func(obj map[string]any) string { return str(obj, key) }}
}

func dateField(key string) column {
	return column{header: key, value: func(obj map[string]any) string { return date(str(obj, key)) }}
}

var (
	issueColumns      = []column{field("key"), field("summary"), field("status"), field("assignee"), dateField("updated")}
	attachmentColumns = []column{field("id"), field("name"), field("size"), field("createdBy"), dateField("created")}
	wikiColumns       = []column{field("id"), field("name"), column{"tags", func(obj map[string]any) string { return strings.Join(strs(obj, "tags"), " ") }}, field("updatedBy"), dateField("updated")}
	activityColumns   = []column{field("id"), field("type"), field("projectKey"), field("createdBy"), dateField("created")}
)

// listToCSV renders {<key>: [...], nextOffset} as a CSV block.
func listToCSV(jsonStr, key string, cols []column) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	items, ok := wrapper[key].([]any)
	if !ok {
		return jsonStr
	}
	if len(items) == 0 {
		return fmt.Sprintf("# 0 %s", key)
	}
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("```csv  # %d %s%s\n", len(items), key, nextHint(wrapper)))
	sb.WriteString(strings.Join(headers, ",") + "\n")
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = csvEscape(c.value(obj))
		}
		sb.WriteString(strings.Join(row, ",") + "\n")
	}
	sb.WriteString("```")
	return sb.String()
}

func nextHint(wrapper map[string]any) string {
	if next := str(wrapper, "nextOffset"); next != "" {
		return ", nextOffset=" + next
	}
	return ""
}

// issueToCompact: single issue detail
func issueToCompact(jsonStr string) string {
	var issue map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &issue); err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s: %s\n", str(issue, "key"), str(issue, "summary")))
	sb.WriteString(fmt.Sprintf("- **ID**: %s\n", str(issue, "id")))
	if s := str(issue, "status"); s != "" {
		sb.WriteString(fmt.Sprintf("- **Status**: %s\n", s))
	}
	if a := str(issue, "assignee"); a != "" {
		sb.WriteString(fmt.Sprintf("- **Assignee**: %s\n", a))
	}
	if u := date(str(issue, "updated")); u != "" {
		sb.WriteString(fmt.Sprintf("- **Updated**: %s\n", u))
	}
	if d := str(issue, "description"); d != "" {
		sb.WriteString(fmt.Sprintf("\n## Description\n%s\n", d))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// commentsToCompact: comments list
func commentsToCompact(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	comments, ok := wrapper["comments"].([]any)
	if !ok {
		return jsonStr
	}
	if len(comments) == 0 {
		return "# 0 comments"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %d comments%s\n\n", len(comments), nextHint(wrapper)))
	for _, raw := range comments {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(commentLine(c) + "\n\n")
	}
	return strings.TrimSuffix(sb.String(), "\n\n")
}

func commentToCompact(jsonStr string) string {
	var c map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &c); err != nil {
		return jsonStr
	}
	return commentLine(c)
}

func commentLine(c map[string]any) string {
	created := str(c, "created")
	if len(created) > 16 {
		created = created[:16]
	}
	return fmt.Sprintf("**%s** (#%s, %s):\n%s", str(c, "author"), str(c, "id"), created, str(c, "content"))
}

// wikiToCompact: single wiki page with content
func wikiToCompact(jsonStr string) string {
	var w map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &w); err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", str(w, "name")))
	sb.WriteString(fmt.Sprintf("- **ID**: %s\n", str(w, "id")))
	if tags := strs(w, "tags"); len(tags) > 0 {
		sb.WriteString(fmt.Sprintf("- **Tags**: %s\n", strings.Join(tags, ", ")))
	}
	if u := str(w, "updatedBy"); u != "" {
		sb.WriteString(fmt.Sprintf("- **Updated by**: %s (%s)\n", u, date(str(w, "updated"))))
	}
	if content := str(w, "content"); content != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", content))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func attachmentToCompact(jsonStr string) string {
	var a map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &a); err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", str(a, "name")))
	sb.WriteString(fmt.Sprintf("- **ID**: %s\n", str(a, "id")))
	if size := str(a, "size"); size != "" {
		sb.WriteString(fmt.Sprintf("- **Size**: %s bytes\n", size))
	}
	if by := str(a, "createdBy"); by != "" {
		sb.WriteString(fmt.Sprintf("- **Created by**: %s (%s)\n", by, date(str(a, "created"))))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// myselfToCompact: user profile summary
func myselfToCompact(jsonStr string) string {
	var u map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &u); err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", str(u, "name")))
	sb.WriteString(fmt.Sprintf("- **ID**: %s\n", str(u, "id")))
	if uid := str(u, "userId"); uid != "" {
		sb.WriteString(fmt.Sprintf("- **User ID**: %s\n", uid))
	}
	if email := str(u, "email"); email != "" {
		sb.WriteString(fmt.Sprintf("- **Email**: %s\n", email))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// =============================================================================
// Helpers
// =============================================================================

// str renders a scalar field; null and missing become "".
func str(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func strs(obj map[string]any, key string) []string {
	list, _ := obj[key].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func hasKey(jsonStr, key string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return false
	}
	_, ok := obj[key]
	return ok
}

// date keeps the YYYY-MM-DD part of a timestamp.
func date(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

func csvEscape(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, ",\"\n\r") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
