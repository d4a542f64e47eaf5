// Package toolerr maps every tool failure onto a closed set of categories
// with stable JSON-RPC codes.
package toolerr

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/validate"

	"backlogmcp/server/internal/jsonrpc"
	"backlogmcp/server/internal/schema"
	"backlogmcp/server/pkg/backlogapi"
)

// Category is the caller-visible error class.
type Category string

const (
	InvalidArgument  Category = "INVALID_ARGUMENT"
	Unauthenticated  Category = "UNAUTHENTICATED"
	PermissionDenied Category = "PERMISSION_DENIED"
	Unavailable      Category = "UNAVAILABLE"
	Internal         Category = "INTERNAL"
)

// Code returns the JSON-RPC error code for the category.
func (c Category) Code() int {
	switch c {
	case InvalidArgument:
		return jsonrpc.InvalidParams
	case Unauthenticated:
		return jsonrpc.ErrUnauthenticated
	case PermissionDenied:
		return jsonrpc.ErrPermissionDenied
	case Unavailable:
		return jsonrpc.ErrUnavailable
	default:
		return jsonrpc.InternalError
	}
}

// Status sources recorded in Data["statusSource"].
const (
	StatusFromResponse = "response"
	StatusInferred     = "inferred"
)

// Issue is one field-level validation failure.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is a classified tool failure.
type Error struct {
	Category Category
	Message  string
	Data     map[string]any

	cause error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Code is the JSON-RPC code of the error's category.
func (e *Error) Code() int { return e.Category.Code() }

// RPC converts the error into a JSON-RPC error object.
func (e *Error) RPC() *jsonrpc.Error {
	return &jsonrpc.Error{Code: e.Code(), Message: e.Message, Data: e.Data}
}

// New builds an already-classified error for tool.
func New(tool string, category Category, message string) *Error {
	return &Error{
		Category: category,
		Message:  prefix(tool, message),
		Data:     map[string]any{"category": string(category)},
	}
}

func prefix(tool, message string) string {
	if tool == "" {
		return message
	}
	return tool + ": " + message
}

const defaultFallback = "unexpected error"

// Classify maps err onto a category. Rules apply in order: an existing
// *Error passes through unchanged, then the rate-limit error, argument
// validation failures, and finally the HTTP status if one is known.
// Anything left over is INTERNAL with fallback as its message.
func Classify(tool string, err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	if fallback == "" {
		fallback = defaultFallback
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var rateLimited *backlogapi.RateLimitError
	if errors.As(err, &rateLimited) {
		e := newError(tool, Unavailable, "rate limited by Backlog, retry later", err)
		e.Data["status"] = rateLimited.StatusCode()
		e.Data["statusSource"] = StatusFromResponse
		if rateLimited.RetryAfter != "" {
			e.Data["retryAfter"] = rateLimited.RetryAfter
		}
		return e
	}

	var invalid *validate.Error
	if errors.As(err, &invalid) {
		issues := issuesOf(invalid.Fields)
		e := newError(tool, InvalidArgument, "invalid arguments: "+summarize(issues), err)
		e.Data["issues"] = issues
		return e
	}

	status, source := statusOf(err)
	var e *Error
	switch {
	case status == 401:
		e = newError(tool, Unauthenticated, "authentication with Backlog failed", err)
	case status == 403:
		e = newError(tool, PermissionDenied, "permission denied by Backlog", err)
	case status == 404:
		e = newError(tool, InvalidArgument, "resource not found", err)
	case status >= 400 && status < 500:
		e = newError(tool, InvalidArgument, err.Error(), err)
	case status >= 500 && status < 600:
		e = newError(tool, Internal, "upstream service error", err)
	default:
		e = newError(tool, Internal, leftoverMessage(err, fallback), err)
	}
	if status != 0 {
		e.Data["status"] = status
		e.Data["statusSource"] = source
	}
	if detail := detailOf(err); detail != nil {
		e.Data["detail"] = detail
	}
	return e
}

func newError(tool string, category Category, message string, cause error) *Error {
	e := New(tool, category, message)
	e.cause = cause
	return e
}

// leftoverMessage picks a message for errors no rule matched.
func leftoverMessage(err error, fallback string) string {
	var shape *schema.ResponseError
	var decode *backlogapi.DecodeError
	switch {
	case errors.As(err, &shape):
		return "unexpected response from Backlog"
	case errors.As(err, &decode):
		return "malformed response from Backlog"
	case errors.Is(err, context.DeadlineExceeded):
		return "request to Backlog timed out"
	case errors.Is(err, backlogapi.ErrMissingAPIKey):
		return "Backlog API key is not configured"
	default:
		return fallback
	}
}

func issuesOf(fields []validate.FieldError) []Issue {
	issues := make([]Issue, 0, len(fields))
	for _, f := range fields {
		msg := "invalid"
		if f.Error != nil {
			msg = f.Error.Error()
		}
		issues = append(issues, Issue{Path: f.Name, Message: msg})
	}
	return issues
}

func summarize(issues []Issue) string {
	if len(issues) == 0 {
		return "validation failed"
	}
	first := issues[0].Message
	if issues[0].Path != "" {
		first = issues[0].Path + ": " + first
	}
	if len(issues) > 1 {
		first += fmt.Sprintf(" (and %d more)", len(issues)-1)
	}
	return first
}

type statusCoder interface {
	StatusCode() int
}

var statusPattern = regexp.MustCompile(`\b([1-5]\d{2})\b`)

// statusOf returns the HTTP status attached to err. Without one it falls
// back to the first three-digit number in the message, which is a loose
// heuristic and is marked as inferred. Transport and response-shape failures
// never infer: their messages hold ports, addresses and list indices.
func statusOf(err error) (int, string) {
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return sc.StatusCode(), StatusFromResponse
	}
	var transport *backlogapi.TransportError
	var shape *schema.ResponseError
	if errors.As(err, &transport) || errors.As(err, &shape) {
		return 0, ""
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n, StatusInferred
		}
	}
	return 0, ""
}

// detailOf returns the upstream body, decoded when it is JSON.
func detailOf(err error) any {
	var body []byte
	var re *backlogapi.RequestError
	var shape *schema.ResponseError
	switch {
	case errors.As(err, &re):
		body = re.Body
	case errors.As(err, &shape):
		return issuesOf(shape.Fields)
	default:
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return strings.TrimSpace(string(body))
}
