// Package schema holds the structural contracts for Backlog entities and
// tool arguments. Upstream payloads are checked with jx decoders and every
// failure is collected as an ogen validate.FieldError keyed by its path.
package schema

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"
)

// ResponseError reports an upstream payload that does not match the entity
// shape. It does not unwrap to *validate.Error: a malformed response is not
// the caller's fault. Status is the HTTP status of the exchange that carried
// the payload, zero when unknown.
type ResponseError struct {
	Entity string
	Status int
	Fields []validate.FieldError
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Entity, describe(e.Fields))
}

// StatusCode returns the exchange status.
func (e *ResponseError) StatusCode() int { return e.Status }

func describe(fields []validate.FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		name := f.Name
		if name == "" {
			name = "(root)"
		}
		parts = append(parts, name+": "+f.Error.Error())
	}
	return strings.Join(parts, "; ")
}

// checker accumulates field failures for a single decode or argument pass.
type checker struct {
	fields []validate.FieldError
}

func (c *checker) fail(path string, err error) {
	c.fields = append(c.fields, validate.FieldError{Name: path, Error: err})
}

func (c *checker) failed() bool { return len(c.fields) > 0 }

func (c *checker) responseErr(entity string) error {
	if !c.failed() {
		return nil
	}
	return &ResponseError{Entity: entity, Fields: c.fields}
}

func (c *checker) validateErr() error {
	if !c.failed() {
		return nil
	}
	return &validate.Error{Fields: c.fields}
}

func (c *checker) required(path string, seen map[string]bool, keys ...string) {
	for _, k := range keys {
		if !seen[k] {
			c.fail(join(path, k), validate.ErrFieldRequired)
		}
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func kind(raw jx.Raw) jx.Type {
	if len(raw) == 0 {
		return jx.Invalid
	}
	return jx.DecodeBytes(raw).Next()
}

func kindName(t jx.Type) string {
	switch t {
	case jx.String:
		return "string"
	case jx.Number:
		return "number"
	case jx.Null:
		return "null"
	case jx.Bool:
		return "boolean"
	case jx.Array:
		return "array"
	case jx.Object:
		return "object"
	default:
		return "nothing"
	}
}

func typeError(want string, raw jx.Raw) error {
	return errors.Errorf("expected %s, got %s", want, kindName(kind(raw)))
}

func isNull(raw jx.Raw) bool { return kind(raw) == jx.Null }

func (c *checker) integer(raw jx.Raw, path string) (int64, bool) {
	if kind(raw) != jx.Number {
		c.fail(path, typeError("integer", raw))
		return 0, false
	}
	v, err := jx.DecodeBytes(raw).Int64()
	if err != nil {
		c.fail(path, errors.Wrap(err, "expected integer"))
		return 0, false
	}
	return v, true
}

func (c *checker) optInteger(raw jx.Raw, path string) *int64 {
	if isNull(raw) {
		return nil
	}
	v, ok := c.integer(raw, path)
	if !ok {
		return nil
	}
	return &v
}

func (c *checker) str(raw jx.Raw, path string) (string, bool) {
	if kind(raw) != jx.String {
		c.fail(path, typeError("string", raw))
		return "", false
	}
	v, err := jx.DecodeBytes(raw).Str()
	if err != nil {
		c.fail(path, errors.Wrap(err, "expected string"))
		return "", false
	}
	return v, true
}

func (c *checker) optStr(raw jx.Raw, path string) *string {
	if isNull(raw) {
		return nil
	}
	v, ok := c.str(raw, path)
	if !ok {
		return nil
	}
	return &v
}

// object walks the fields of raw, handing each value to field as an
// undecoded jx.Raw.
func (c *checker) object(raw jx.Raw, path string, field func(key string, v jx.Raw)) bool {
	if kind(raw) != jx.Object {
		c.fail(path, typeError("object", raw))
		return false
	}
	err := jx.DecodeBytes(raw).ObjBytes(func(d *jx.Decoder, key []byte) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		field(string(key), v)
		return nil
	})
	if err != nil {
		c.fail(path, errors.Wrap(err, "malformed object"))
		return false
	}
	return true
}

func (c *checker) array(raw jx.Raw, path string, elem func(i int, v jx.Raw)) bool {
	if kind(raw) != jx.Array {
		c.fail(path, typeError("array", raw))
		return false
	}
	i := 0
	err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		elem(i, v)
		i++
		return nil
	})
	if err != nil {
		c.fail(path, errors.Wrap(err, "malformed array"))
		return false
	}
	return true
}
