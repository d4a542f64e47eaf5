package modules

import (
	"math"
	"sort"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/validate"
)

// ValidateParams checks params against the tool's InputSchema before the
// handler runs.
// - Required fields: missing or null values fail
// - Type check: each declared property must match its JSON type
// - Undeclared params are passed through (lenient)
// All failures are returned together as a *validate.Error.
func ValidateParams(schema InputSchema, params map[string]any) (map[string]any, error) {
	if params == nil {
		params = make(map[string]any)
	}

	var fields []validate.FieldError
	for _, key := range schema.Required {
		if val, exists := params[key]; !exists || val == nil {
			fields = append(fields, validate.FieldError{Name: key, Error: validate.ErrFieldRequired})
		}
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		prop, declared := schema.Properties[key]
		val := params[key]
		if !declared || val == nil {
			continue
		}
		fields = append(fields, checkType(key, val, prop)...)
	}

	if len(fields) > 0 {
		return nil, &validate.Error{Fields: fields}
	}
	return params, nil
}

// checkType verifies that val matches the property's JSON Schema type,
// descending into declared object properties and array items.
func checkType(path string, val any, prop Property) []validate.FieldError {
	fail := func(want string) []validate.FieldError {
		return []validate.FieldError{{Name: path, Error: errors.Errorf("expected %s, got %s", want, jsonType(val))}}
	}
	switch prop.Type {
	case "string":
		s, ok := val.(string)
		if !ok {
			return fail("string")
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
			return []validate.FieldError{{Name: path, Error: errors.Errorf("must be one of %v", prop.Enum)}}
		}
	case "number":
		if _, ok := val.(float64); !ok {
			return fail("number")
		}
	case "integer":
		f, ok := val.(float64)
		if !ok {
			return fail("integer")
		}
		if f != math.Trunc(f) {
			return []validate.FieldError{{Name: path, Error: errors.New("expected integer")}}
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fail("boolean")
		}
	case "array":
		items, ok := val.([]any)
		if !ok {
			return fail("array")
		}
		if prop.Items == nil {
			return nil
		}
		var out []validate.FieldError
		for i, item := range items {
			if item == nil {
				continue
			}
			out = append(out, checkType(indexPath(path, i), item, *prop.Items)...)
		}
		return out
	case "object":
		obj, ok := val.(map[string]any)
		if !ok {
			return fail("object")
		}
		var out []validate.FieldError
		for key, sub := range prop.Properties {
			if v, ok := obj[key]; ok && v != nil {
				out = append(out, checkType(path+"."+key, v, sub)...)
			}
		}
		return out
	// "" or unknown types: skip check (lenient)
	}
	return nil
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

// findTool looks up a tool by name from a tool list.
func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
