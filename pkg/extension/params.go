package extension

import (
	"encoding/json"
	"maps"

	"github.com/igorsilveira/helloext/pkg/a2a"
)

// DecodeParams parses JSON-RPC params. Absent or null params decode to an
// empty object; anything other than an object is invalid.
func DecodeParams(raw json.RawMessage) (map[string]any, *a2a.JSONRPCError) {
	params := map[string]any{}
	if len(raw) == 0 || string(raw) == "null" {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, InvalidParams("params must be an object")
	}
	return params, nil
}

// RequestID returns the id parameter. Numeric ids are accepted and rendered
// in their JSON form; absent, null and empty ids are missing.
func RequestID(params map[string]any) (string, bool) {
	switch id := params["id"].(type) {
	case string:
		return id, id != ""
	case float64, bool:
		b, _ := json.Marshal(id)
		return string(b), true
	default:
		return "", false
	}
}

// Bind decodes params into out. Type mismatches are reported as invalid
// params naming the offending field.
func Bind(params map[string]any, out any) *a2a.JSONRPCError {
	b, err := json.Marshal(params)
	if err != nil {
		return InvalidParams("%v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		if te, ok := err.(*json.UnmarshalTypeError); ok && te.Field != "" {
			return InvalidParams("%s must be %s", te.Field, te.Type)
		}
		return InvalidParams("%v", err)
	}
	return nil
}

// WithID merges structured onto {"id": id}, used when an executor invokes an
// extension on behalf of a task. Structured values win, including id.
func WithID(id string, structured map[string]any) map[string]any {
	out := make(map[string]any, len(structured)+1)
	out["id"] = id
	maps.Copy(out, structured)
	return out
}
