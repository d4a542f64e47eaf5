package modules

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

// ToJSON marshals any value to a JSON string.
// Used by the registry to build the display text of a tool result.
func ToJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal response")
	}
	return string(b), nil
}

// EnglishTools returns a copy of tools with the en-US description set as
// the runtime description and the other languages stripped.
func EnglishTools(tools []Tool) []Tool {
	out := make([]Tool, len(tools))
	for i, t := range tools {
		out[i] = t
		if en, ok := t.Descriptions["en-US"]; ok && en != "" {
			out[i].Description = en
		}
		out[i].Descriptions = nil
	}
	return out
}
