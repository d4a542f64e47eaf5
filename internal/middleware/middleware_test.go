package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlogmcp/server/internal/auth"
	"backlogmcp/server/internal/jsonrpc"
	"backlogmcp/server/internal/observability"
)

type echoProcessor struct{}

func (echoProcessor) ProcessRequest(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	switch req.Method {
	case "fail":
		return nil, &jsonrpc.Error{Code: jsonrpc.InvalidParams, Message: "bad"}
	case "whoami":
		subject := ""
		if ac := GetAuthContext(ctx); ac != nil {
			subject = ac.Subject
		}
		return map[string]string{"subject": subject, "requestId": GetRequestID(ctx)}, nil
	}
	return map[string]string{"method": req.Method}, nil
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestDispatch(t *testing.T) {
	logger := observability.Discard()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		resp := decode(t, Dispatch(ctx, echoProcessor{}, logger, []byte(`{"jsonrpc":"2.0","id":7,"method":"ping"}`)))
		assert.Equal(t, float64(7), resp["id"])
		assert.Equal(t, map[string]any{"method": "ping"}, resp["result"])
	})
	t.Run("error", func(t *testing.T) {
		resp := decode(t, Dispatch(ctx, echoProcessor{}, logger, []byte(`{"jsonrpc":"2.0","id":"a","method":"fail"}`)))
		assert.Equal(t, "a", resp["id"])
		assert.Equal(t, float64(jsonrpc.InvalidParams), resp["error"].(map[string]any)["code"])
	})
	t.Run("parse error", func(t *testing.T) {
		resp := decode(t, Dispatch(ctx, echoProcessor{}, logger, []byte(`{not json`)))
		assert.Nil(t, resp["id"])
		assert.Equal(t, float64(jsonrpc.ParseError), resp["error"].(map[string]any)["code"])
	})
	t.Run("invalid request", func(t *testing.T) {
		resp := decode(t, Dispatch(ctx, echoProcessor{}, logger, []byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`)))
		assert.Equal(t, float64(jsonrpc.InvalidRequest), resp["error"].(map[string]any)["code"])
	})
	t.Run("notification", func(t *testing.T) {
		assert.Nil(t, Dispatch(ctx, echoProcessor{}, logger, []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
		assert.Nil(t, Dispatch(ctx, echoProcessor{}, logger, []byte(`{"jsonrpc":"2.0","method":"fail"}`)))
	})
}

func TestServeStdio(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"whoami"}`,
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, ServeStdio(context.Background(), echoProcessor{}, in, &out, observability.Discard()))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, float64(1), decode(t, []byte(lines[0]))["id"])
	second := decode(t, []byte(lines[1]))
	assert.Equal(t, "stdio-3", second["result"].(map[string]any)["requestId"])
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestServeStdioWriteError(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	err := ServeStdio(context.Background(), echoProcessor{}, in, failWriter{}, observability.Discard())
	assert.Error(t, err)
}

func TestTransportInline(t *testing.T) {
	h := RequestID(Transport(echoProcessor{}, observability.Discard()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"whoami"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	result := decode(t, rec.Body.Bytes())["result"].(map[string]any)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), result["requestId"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp?sessionId=missing", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDReusesHeader(t *testing.T) {
	h := RequestID(Transport(echoProcessor{}, observability.Discard()))
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"whoami"}`))
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	result := decode(t, rec.Body.Bytes())["result"].(map[string]any)
	assert.Equal(t, "req-123", result["requestId"])
}

func TestAuthorize(t *testing.T) {
	const secret = "s3cret"
	verifier := auth.NewVerifier(secret, "")
	h := RequestID(Authorize(verifier, observability.Discard(), nil)(Transport(echoProcessor{}, observability.Discard())))

	good, err := auth.Sign(secret, "", "alice", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"lowercase scheme", "bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"whoami"}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec.Body.Bytes())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "alice", body["result"].(map[string]any)["subject"])
				return
			}
			assert.Equal(t, "UNAUTHORIZED", body["error"])
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRejectedTokensAreThrottledByIP(t *testing.T) {
	verifier := auth.NewVerifier("s3cret", "")
	transport := Transport(echoProcessor{}, observability.Discard())
	perSubject := NewRateLimiter(2)
	perIP := NewRateLimiter(2)
	h := RequestID(perIP.ByRemoteIP(Authorize(verifier, observability.Discard(), nil)(perSubject.Middleware(transport))))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
		req.RemoteAddr = remote
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do("10.0.0.9:1000"))
	assert.Equal(t, http.StatusUnauthorized, do("10.0.0.9:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.9:1002"))
	assert.Equal(t, http.StatusUnauthorized, do("10.0.0.10:1000"))
}

func TestRecovery(t *testing.T) {
	h := RequestID(Recovery(observability.Discard(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_server_error", decode(t, rec.Body.Bytes())["error"])
}
