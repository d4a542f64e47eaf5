package backlogapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v2", "secret-key", WithHTTPClient(srv.Client())), srv
}

func TestDoRequestShape(t *testing.T) {
	var got *http.Request
	var body []byte
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	offset, count := 5, 0
	resp, err := c.Do(context.Background(), http.MethodPost, "projects/A%2FB/issues",
		&ListQuery{Page: Page{Offset: &offset, Count: &count}},
		&CommentBody{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"id":1}`, string(resp.Body))

	assert.Equal(t, "/api/v2/projects/A%2FB/issues", got.URL.EscapedPath())
	q := got.URL.Query()
	assert.Equal(t, "secret-key", q.Get("apiKey"))
	assert.Equal(t, "5", q.Get("offset"))
	assert.Equal(t, "0", q.Get("count"))
	assert.Empty(t, q.Get("limit"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "secret-key", got.Header.Get("X-Api-Key"))
	assert.JSONEq(t, `{"content":"hi"}`, string(body))
}

func TestDoOmitsNilQueryFields(t *testing.T) {
	var rawQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ListComments(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, "apiKey=secret-key", rawQuery)

	_, err = c.ListProjectActivities(context.Background(), "PRJ", &ActivityListQuery{ActivityTypeIDs: []int64{1, 3}})
	require.NoError(t, err)
	assert.Contains(t, rawQuery, "activityTypeId%5B%5D=1")
	assert.Contains(t, rawQuery, "activityTypeId%5B%5D=3")
}

func TestDoMissingAPIKeyFailsBeforeIO(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetIssue(context.Background(), "PRJ-1")
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, calls.Load())
}

func TestDoStatusHandling(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, resp *Response, err error)
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"errors":[{"message":"Too many requests"}]}`,
			check: func(t *testing.T, _ *Response, err error) {
				var rl *RateLimitError
				require.True(t, errors.As(err, &rl))
				assert.Equal(t, 429, rl.StatusCode())
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"errors":[{"message":"No issue.","code":6,"moreInfo":""}]}`,
			check: func(t *testing.T, _ *Response, err error) {
				var re *RequestError
				require.True(t, errors.As(err, &re))
				assert.Equal(t, 404, re.Status)
				assert.Equal(t, "request failed with status 404: No issue.", err.Error())
			},
		},
		{
			name:   "server error with html body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, _ *Response, err error) {
				assert.EqualError(t, err, "request failed with status 502")
			},
		},
		{
			name:   "no content",
			status: http.StatusNoContent,
			check: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusNoContent, resp.Status)
				assert.Nil(t, resp.Body)
			},
		},
		{
			name:   "reset content",
			status: http.StatusResetContent,
			check: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusResetContent, resp.Status)
				assert.Nil(t, resp.Body)
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"id":`,
			check: func(t *testing.T, _ *Response, err error) {
				var de *DecodeError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, 200, de.StatusCode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			resp, err := c.GetIssue(context.Background(), "PRJ-1")
			tt.check(t, resp, err)
		})
	}
}

func TestTransportErrorHidesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(base, "secret-key")
	_, err := c.GetMyself(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestResourcePaths(t *testing.T) {
	var method, path string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	tests := []struct {
		name       string
		call       func() error
		wantMethod string
		wantPath   string
	}{
		{"get issue escapes key", func() error { _, err := c.GetIssue(ctx, "A B/1"); return err }, "GET", "/api/v2/issues/A%20B%2F1"},
		{"transition", func() error { _, err := c.TransitionIssue(ctx, "PRJ-1", &StatusChange{StatusID: 3}); return err }, "POST", "/api/v2/issues/PRJ-1/status"},
		{"update comment", func() error { _, err := c.UpdateComment(ctx, 42, 7, &CommentBody{Content: "x"}); return err }, "PATCH", "/api/v2/issues/42/comments/7"},
		{"delete attachment", func() error { _, err := c.DeleteAttachment(ctx, 42, 9); return err }, "DELETE", "/api/v2/issues/42/attachments/9"},
		{"list wikis", func() error { _, err := c.ListWikis(ctx, "PRJ", nil); return err }, "GET", "/api/v2/projects/PRJ/wikis"},
		{"create wiki", func() error { _, err := c.CreateWiki(ctx, &WikiCreate{ProjectID: 1, Name: "n", Content: "c"}); return err }, "POST", "/api/v2/wikis"},
		{"myself", func() error { _, err := c.GetMyself(ctx); return err }, "GET", "/api/v2/users/myself"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
