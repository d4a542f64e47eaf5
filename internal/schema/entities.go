package schema

import "github.com/go-faster/jx"

// Ref is a nested {id, name} relation such as a status or a user.
type Ref struct {
	ID   *int64
	Name *string
}

// Issue is the upstream issue record. Summary is required on read but may
// be empty; non-emptiness is only enforced on write.
type Issue struct {
	ID          int64
	IssueKey    string
	Summary     string
	Description *string
	Status      *Ref
	Assignee    *Ref
	Updated     *string
}

// Comment belongs to an issue; the issue id is a call parameter, not a field.
type Comment struct {
	ID          int64
	Content     *string
	CreatedUser *Ref
	Created     *string
	Updated     *string
}

type Attachment struct {
	ID          int64
	Name        string
	Size        *int64
	CreatedUser *Ref
	Created     *string
}

type Tag struct {
	ID   *int64
	Name *string
}

type WikiPage struct {
	ID          int64
	ProjectID   *int64
	Name        string
	Content     *string
	CreatedUser *Ref
	UpdatedUser *Ref
	Created     *string
	Updated     *string
	Tags        []Tag
}

type Project struct {
	ID         *int64
	ProjectKey *string
	Name       *string
}

// Activity carries an opaque content object that is passed through as-is.
type Activity struct {
	ID          int64
	Type        *int64
	Project     *Project
	CreatedUser *Ref
	Created     *string
	Content     jx.Raw
}

type User struct {
	ID          int64
	UserID      *string
	Name        *string
	MailAddress *string
}

// DecodeIssue checks raw against the issue shape.
func DecodeIssue(raw jx.Raw) (Issue, error) {
	var c checker
	v := decodeIssue(&c, raw, "")
	return v, c.responseErr("issue")
}

// DecodeIssues checks raw against an array of issues.
func DecodeIssues(raw jx.Raw) ([]Issue, error) { return decodeList(raw, "issues", decodeIssue) }

func DecodeComment(raw jx.Raw) (Comment, error) {
	var c checker
	v := decodeComment(&c, raw, "")
	return v, c.responseErr("comment")
}

func DecodeComments(raw jx.Raw) ([]Comment, error) {
	return decodeList(raw, "comments", decodeComment)
}

func DecodeAttachment(raw jx.Raw) (Attachment, error) {
	var c checker
	v := decodeAttachment(&c, raw, "")
	return v, c.responseErr("attachment")
}

func DecodeAttachments(raw jx.Raw) ([]Attachment, error) {
	return decodeList(raw, "attachments", decodeAttachment)
}

func DecodeWikiPage(raw jx.Raw) (WikiPage, error) {
	var c checker
	v := decodeWikiPage(&c, raw, "")
	return v, c.responseErr("wiki page")
}

func DecodeWikiPages(raw jx.Raw) ([]WikiPage, error) {
	return decodeList(raw, "wiki pages", decodeWikiPage)
}

func DecodeActivities(raw jx.Raw) ([]Activity, error) {
	return decodeList(raw, "activities", decodeActivity)
}

func DecodeUser(raw jx.Raw) (User, error) {
	var c checker
	v := decodeUser(&c, raw, "")
	return v, c.responseErr("user")
}

func decodeList[T any](raw jx.Raw, entity string, elem func(*checker, jx.Raw, string) T) ([]T, error) {
	var c checker
	out := []T{}
	c.array(raw, "", func(i int, v jx.Raw) {
		out = append(out, elem(&c, v, index("", i)))
	})
	if err := c.responseErr(entity); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeRef(c *checker, raw jx.Raw, path string) *Ref {
	if isNull(raw) {
		return nil
	}
	var v Ref
	if !c.object(raw, path, func(key string, f jx.Raw) {
		switch key {
		case "id":
			v.ID = c.optInteger(f, join(path, key))
		case "name":
			v.Name = c.optStr(f, join(path, key))
		}
	}) {
		return nil
	}
	return &v
}

func decodeIssue(c *checker, raw jx.Raw, path string) Issue {
	var v Issue
	seen := map[string]bool{}
	if !c.object(raw, path, func(key string, f jx.Raw) {
		seen[key] = true
		p := join(path, key)
		switch key {
		case "id":
			v.ID, _ = c.integer(f, p)
		case "issueKey":
			v.IssueKey, _ = c.str(f, p)
		case "summary":
			v.Summary, _ = c.str(f, p)
		case "description":
			v.Description = c.optStr(f, p)
		case "status":
			v.Status = decodeRef(c, f, p)
		case "assignee":
			v.Assignee = decodeRef(c, f, p)
		case "updated":
			v.Updated = c.optStr(f, p)
		}
	}) {
		return v
	}
	c.required(path, seen, "id", "issueKey", "summary")
	return v
}

func decodeComment(c *checker, raw jx.Raw, path string) Comment {
	var v Comment
	seen := map[string]bool{}
	if !c.object(raw, path, func(key string, f jx.Raw) {
		seen[key] = true
		p := join(path, key)
		switch key {
		case "id":
			v.ID, _ = c.integer(f, p)
		case "content":
			v.Content = c.optStr(f, p)
		case "createdUser":
			v.CreatedUser = decodeRef(c, f, p)
		case "created":
			v.Created = c.optStr(f, p)
		case "updated":
			v.Updated = c.optStr(f, p)
		}
	}) {
		return v
	}
	c.required(path, seen, "id")
	return v
}

func decodeAttachment(c *checker, raw jx.Raw, path string) Attachment {
	var v Attachment
	seen := map[string]bool{}
	if !c.object(raw, path, func(key string, f jx.Raw) {
		seen[key] = true
		p := join(path, key)
		switch key {
		case "id":
			v.ID, _ = c.integer(f, p)
		case "name":
			v.Name, _ = c.str(f, p)
		case "size":
			v.Size = c.optInteger(f, p)
		case "createdUser":
			v.CreatedUser = decodeRef(c, f, p)
		case "created":
			v.Created = c.optStr(f, p)
		}
	}) {
		return v
	}
	c.required(path, seen, "id", "name")
	return v
}

func decodeWikiPage(c *checker, raw jx.Raw, path string) WikiPage {
	var v WikiPage
	seen := map[string]bool{}
	if !c.object(raw, path, func(key string, f jx.Raw) {
		seen[key] = true
		p := join(path, key)
		switch key {
		case "id":
			v.ID, _ = c.integer(f, p)
		case "projectId":
			v.ProjectID = c.optInteger(f, p)
		case "name":
			v.Name, _ = c.str(f, p)
		case "content":
			v.Content = c.optStr(f, p)
		case "createdUser":
			v.CreatedUser = decodeRef(c, f, p)
		case "updatedUser":
			v.UpdatedUser = decodeRef(c, f, p)
		case "created":
			v.Created = c.optStr(f, p)
		case "updated":
			v.Updated = c.optStr(f, p)
		case "tags":
			if isNull(f) {
				return
			}
			c.array(f, p, func(i int, t jx.Raw) {
				tp := index(p, i)
				var tag Tag
				c.object(t, tp, func(key string, tf jx.Raw) {
					switch key {
					case "id":
						tag.ID = c.optInteger(tf, join(tp, key))
					case "name":
						tag.Name = c.optStr(tf, join(tp, key))
					}
				})
				v.Tags = append(v.Tags, tag)
			})
		}
	}) {
		return v
	}
	c.required(path, seen, "id", "name")
	return v
}

func decodeProject(c *checker, raw jx.Raw, path string) *Project {
	if isNull(raw) {
		return nil
	}
	var v Project
	if !c.object(raw, path, func(key string, f jx.Raw) {
		p := join(path, key)
		switch key {
		case "id":
			v.ID = c.optInteger(f, p)
		case "projectKey":
			v.ProjectKey = c.optStr(f, p)
		case "name":
			v.Name = c.optStr(f, p)
		}
	}) {
		return nil
	}
	return &v
}

func decodeActivity(c *checker, raw jx.Raw, path string) Activity {
	var v Activity
	seen := map[string]bool{}
	if !c.object(raw, path, func(key string, f jx.Raw) {
		seen[key] = true
		p := join(path, key)
		switch key {
		case "id":
			v.ID, _ = c.integer(f, p)
		case "type":
			v.Type = c.optInteger(f, p)
		case "project":
			v.Project = decodeProject(c, f, p)
		case "createdUser":
			v.CreatedUser = decodeRef(c, f, p)
		case "created":
			v.Created = c.optStr(f, p)
		case "content":
			switch kind(f) {
			case jx.Null:
			case jx.Object:
				v.Content = append(jx.Raw(nil), f...)
			default:
				c.fail(p, typeError("object", f))
			}
		}
	}) {
		return v
	}
	c.required(path, seen, "id")
	return v
}

func decodeUser(c *checker, raw jx.Raw, path string) User {
	var v User
	seen := map[string]bool{}
	if !c.object(raw, path, func(key string, f jx.Raw) {
		seen[key] = true
		p := join(path, key)
		switch key {
		case "id":
			v.ID, _ = c.integer(f, p)
		case "userId":
			v.UserID = c.optStr(f, p)
		case "name":
			v.Name = c.optStr(f, p)
		case "mailAddress":
			v.MailAddress = c.optStr(f, p)
		}
	}) {
		return v
	}
	c.required(path, seen, "id")
	return v
}
