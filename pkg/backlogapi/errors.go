package backlogapi

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrMissingAPIKey is returned before any network I/O when no key is set.
var ErrMissingAPIKey = errors.New("backlog api key is not configured")

// RateLimitError is returned for HTTP 429. Callers detect it by type.
type RateLimitError struct {
	RetryAfter string
	Body       []byte
}

func (e *RateLimitError) Error() string {
	return "rate limited by upstream (status 429)"
}

func (e *RateLimitError) StatusCode() int { return http.StatusTooManyRequests }

// RequestError is returned for any other non-2xx response. The status is
// embedded in the message and also exposed through StatusCode.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("request failed with status %d", e.Status)
	if m := upstreamMessage(e.Body); m != "" {
		msg += ": " + m
	}
	return msg
}

func (e *RequestError) StatusCode() int { return e.Status }

// DecodeError reports a 2xx response whose body is not valid JSON.
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) StatusCode() int { return e.Status }

// TransportError wraps a failure to complete the exchange at all. The
// request URL is dropped from the cause since it carries the API key.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// upstreamMessage extracts errors[0].message from a Backlog error body.
func upstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var msg string
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return ""
	}
	_ = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "errors" || d.Next() != jx.Array {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			if msg != "" || d.Next() != jx.Object {
				return d.Skip()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "message" || d.Next() != jx.String {
					return d.Skip()
				}
				s, err := d.Str()
				msg = s
				return err
			})
		})
	})
	return msg
}
