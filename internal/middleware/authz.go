package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/phuslu/log"

	"backlogmcp/server/internal/auth"
	"backlogmcp/server/internal/observability"
)

// ContextKey is the type for context keys.
type ContextKey string

const (
	// AuthContextKey is the context key for the authenticated caller.
	AuthContextKey ContextKey = "auth_context"
	// RequestIDKey is the context key for the request ID.
	RequestIDKey ContextKey = "request_id"
)

// AuthContext describes the caller of a request.
type AuthContext struct {
	Subject string
}

// AuthError is an error returned to HTTP clients before JSON-RPC handling.
type AuthError struct {
	Code    string
	Message string
	Status  int
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	errMissingToken = &AuthError{Code: "UNAUTHORIZED", Message: "missing bearer token", Status: http.StatusUnauthorized}
	errInvalidToken = &AuthError{Code: "UNAUTHORIZED", Message: "invalid bearer token", Status: http.StatusUnauthorized}
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// RequestID assigns a request ID to every request, reusing X-Request-ID when
// the client sends one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize requires a valid bearer token and stores the caller in the
// request context. Must run after RequestID.
func Authorize(verifier TokenVerifier, logger *log.Logger, loki *observability.LokiClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				reject(w, r, logger, loki, errMissingToken, nil)
				return
			}
			claims, err := verifier.VerifyToken(token)
			if err != nil {
				reject(w, r, logger, loki, errInvalidToken, err)
				return
			}

			logger.Debug().Str("request_id", requestID).Str("subject", claims.Subject).Msg("authorized")
			ctx := context.WithValue(r.Context(), AuthContextKey, &AuthContext{Subject: claims.Subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

func reject(w http.ResponseWriter, r *http.Request, logger *log.Logger, loki *observability.LokiClient, authErr *AuthError, cause error) {
	requestID := GetRequestID(r.Context())
	logger.Warn().Str("request_id", requestID).Str("code", authErr.Code).Err(cause).Str("remote", r.RemoteAddr).Msg(authErr.Message)
	loki.LogSecurityEvent(requestID, "auth_failed", map[string]any{
		"reason": authErr.Message,
		"remote": r.RemoteAddr,
	})
	w.Header().Set("WWW-Authenticate", `Bearer realm="backlog-mcp"`)
	writeErrorResponse(w, authErr)
}

func writeErrorResponse(w http.ResponseWriter, err *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   err.Code,
		"message": err.Message,
	})
}

// GetAuthContext retrieves the caller from the context. It returns nil when
// the request was not authenticated.
func GetAuthContext(ctx context.Context) *AuthContext {
	if v, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return v
	}
	return nil
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID returns ctx carrying requestID. Used by the stdio transport.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
