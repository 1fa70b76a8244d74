package spec

import (
	"encoding/json"
	"strings"
)

// Markers read from the source document to build the type graph.
const (
	MarkerNamespace  = "x-formance-namespace"
	MarkerInterface  = "x-formance-interface"
	MarkerName       = "x-formance-name"
	MarkerPaginated  = "x-formance-paginated"
	MarkerGroupRoots = "x-formance-group-roots"
)

// Markers lists every marker key, in the order StripMarkers removes them.
func Markers() []string {
	return []string{MarkerNamespace, MarkerInterface, MarkerName, MarkerPaginated, MarkerGroupRoots}
}

// extValue returns the decoded value of an extension. Raw JSON left in place
// by older loaders is decoded on the fly.
func extValue(exts map[string]interface{}, key string) (any, bool) {
	v, ok := exts[key]
	if !ok || v == nil {
		return nil, false
	}
	if raw, isRaw := v.(json.RawMessage); isRaw {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, false
		}
		return decoded, decoded != nil
	}
	return v, true
}

func extString(exts map[string]interface{}, key string) string {
	v, ok := extValue(exts, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func extBool(exts map[string]interface{}, key string) bool {
	v, ok := extValue(exts, key)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}

// extStrings accepts a list of strings or a single comma separated string.
func extStrings(exts map[string]interface{}, key string) []string {
	v, ok := extValue(exts, key)
	if !ok {
		return nil
	}
	var out []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range list {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(list, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
