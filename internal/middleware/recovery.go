package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/phuslu/log"

	"backlogmcp/server/internal/observability"
)

// Recovery is HTTP middleware that recovers from panics.
// It logs the stack trace and returns a 500 Internal Server Error.
func Recovery(logger *log.Logger, loki *observability.LokiClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}
				requestID := GetRequestID(r.Context())
				logger.Error().Str("request_id", requestID).Str("panic", fmt.Sprint(err)).Str("stack", string(debug.Stack())).Msg("panic recovered")

				details := map[string]any{"error": fmt.Sprint(err)}
				if ac := GetAuthContext(r.Context()); ac != nil {
					details["subject"] = ac.Subject
				}
				loki.LogSecurityEvent(requestID, "panic_recovered", details)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":"internal_server_error","message":"An unexpected error occurred"}`)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
