package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/validate"

	"backlogmcp/server/internal/pagination"
)

var (
	positive = validate.Int{MinSet: true, Min: 1}
	nonBlank = validate.String{MinLengthSet: true, MinLength: 1}
)

// maxSafeInteger is the largest integer a JSON number carries exactly.
const maxSafeInteger = 1<<53 - 1

// Args reads typed values out of a tool's argument object. Failures are
// collected rather than returned one by one; Err reports all of them.
// An explicit null is treated the same as an absent key.
type Args struct {
	params map[string]any
	prefix string
	c      *checker
}

// NewArgs wraps params. A nil map behaves as an empty object.
func NewArgs(params map[string]any) *Args {
	return &Args{params: params, c: &checker{}}
}

// Err returns a *validate.Error holding every failure so far, or nil.
func (a *Args) Err() error { return a.c.validateErr() }

// Fail records a failure for key.
func (a *Args) Fail(key string, err error) { a.c.fail(a.path(key), err) }

// Has reports whether key carries a non-null value.
func (a *Args) Has(key string) bool {
	v, ok := a.params[key]
	return ok && v != nil
}

func (a *Args) path(key string) string { return join(a.prefix, key) }

func (a *Args) value(key string) (any, bool) {
	v, ok := a.params[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Object returns a nested reader for the object under key. Failures recorded
// through it are reported with the key as a path prefix.
func (a *Args) Object(key string) (*Args, bool) {
	v, ok := a.value(key)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		a.Fail(key, errors.Errorf("expected object, got %s", typeOf(v)))
		return nil, false
	}
	return &Args{params: m, prefix: a.path(key), c: a.c}, true
}

// ID reads a required positive integer.
func (a *Args) ID(key string) int64 {
	v, ok := a.value(key)
	if !ok {
		a.Fail(key, validate.ErrFieldRequired)
		return 0
	}
	n, _ := a.positiveInt(key, v)
	return n
}

// OptID reads an optional positive integer.
func (a *Args) OptID(key string) *int64 {
	v, ok := a.value(key)
	if !ok {
		return nil
	}
	n, ok := a.positiveInt(key, v)
	if !ok {
		return nil
	}
	return &n
}

func (a *Args) positiveInt(key string, v any) (int64, bool) {
	var n int64
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) || math.Abs(t) > maxSafeInteger {
			a.Fail(key, errors.New("expected integer"))
			return 0, false
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	default:
		a.Fail(key, errors.Errorf("expected integer, got %s", typeOf(v)))
		return 0, false
	}
	if err := positive.Validate(n); err != nil {
		a.Fail(key, err)
		return 0, false
	}
	return n, true
}

// IDs reads an optional array of positive integers.
func (a *Args) IDs(key string) []int64 {
	v, ok := a.value(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		a.Fail(key, errors.Errorf("expected array, got %s", typeOf(v)))
		return nil
	}
	out := make([]int64, 0, len(items))
	for i, item := range items {
		if n, ok := a.positiveInt(index(key, i), item); ok {
			out = append(out, n)
		}
	}
	return out
}

// Key reads a required identifier, trimmed and non-empty.
func (a *Args) Key(key string) string {
	v, ok := a.value(key)
	if !ok {
		a.Fail(key, validate.ErrFieldRequired)
		return ""
	}
	s, ok := a.nonBlank(key, v)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// IDOrKey reads an identifier that may be either a positive integer or a
// non-empty string, returning it as a path segment.
func (a *Args) IDOrKey(key string) string {
	v, ok := a.value(key)
	if !ok {
		a.Fail(key, validate.ErrFieldRequired)
		return ""
	}
	if _, isString := v.(string); !isString {
		n, ok := a.positiveInt(key, v)
		if !ok {
			return ""
		}
		return strconv.FormatInt(n, 10)
	}
	s, ok := a.nonBlank(key, v)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Text reads a required string that must not be blank. The value is
// returned untrimmed.
func (a *Args) Text(key string) string {
	v, ok := a.value(key)
	if !ok {
		a.Fail(key, validate.ErrFieldRequired)
		return ""
	}
	s, _ := a.nonBlank(key, v)
	return s
}

// OptText reads an optional string that must not be blank when present.
func (a *Args) OptText(key string) *string {
	v, ok := a.value(key)
	if !ok {
		return nil
	}
	s, ok := a.nonBlank(key, v)
	if !ok {
		return nil
	}
	return &s
}

// String reads a required string, allowing the empty string.
func (a *Args) String(key string) string {
	v, ok := a.value(key)
	if !ok {
		a.Fail(key, validate.ErrFieldRequired)
		return ""
	}
	s, _ := a.str(key, v)
	return s
}

// OptString reads an optional string, allowing the empty string.
func (a *Args) OptString(key string) *string {
	v, ok := a.value(key)
	if !ok {
		return nil
	}
	s, ok := a.str(key, v)
	if !ok {
		return nil
	}
	return &s
}

func (a *Args) str(key string, v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		a.Fail(key, errors.Errorf("expected string, got %s", typeOf(v)))
		return "", false
	}
	return s, true
}

func (a *Args) nonBlank(key string, v any) (string, bool) {
	s, ok := a.str(key, v)
	if !ok {
		return "", false
	}
	if err := nonBlank.Validate(strings.TrimSpace(s)); err != nil {
		a.Fail(key, errors.Wrap(err, "must not be blank"))
		return "", false
	}
	return s, true
}

// OptBool reads an optional boolean.
func (a *Args) OptBool(key string) *bool {
	v, ok := a.value(key)
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		a.Fail(key, errors.Errorf("expected boolean, got %s", typeOf(v)))
		return nil
	}
	return &b
}

// Pagination reads an optional {offset, limit} object. Only the types are
// checked here; range handling belongs to pagination.Normalize.
func (a *Args) Pagination(key string) *pagination.Request {
	obj, ok := a.Object(key)
	if !ok {
		return nil
	}
	return &pagination.Request{
		Offset: obj.number("offset"),
		Limit:  obj.number("limit"),
	}
}

func (a *Args) number(key string) *float64 {
	v, ok := a.value(key)
	if !ok {
		return nil
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	default:
		a.Fail(key, errors.Errorf("expected number, got %s", typeOf(v)))
		return nil
	}
	return &f
}

// AtLeastOne records a failure unless one of keys carries a non-null value.
func (a *Args) AtLeastOne(keys ...string) {
	for _, k := range keys {
		if a.Has(k) {
			return
		}
	}
	a.c.fail(a.prefix, errors.Errorf("at least one of %s must be set", strings.Join(keys, ", ")))
}

func typeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}
