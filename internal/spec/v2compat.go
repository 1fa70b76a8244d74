package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

var v2Methods = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "delete": {}, "patch": {}, "options": {}, "head": {},
}

// preprocessV2ForCompatibility rewrites Swagger 2.0 operations that
// openapi2conv rejects:
//   - several body parameters are merged into one object-typed body whose
//     properties are the former body parameters;
//   - body parameters mixed with formData are turned into formData fields and
//     the operation consumes multipart/form-data.
//
// On error the input is returned unchanged with modified=false.
func preprocessV2ForCompatibility(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return data, false, err
	}
	paths, _ := doc["paths"].(map[string]any)
	modified := false
	for _, item := range paths {
		methods, _ := item.(map[string]any)
		for method, raw := range methods {
			if _, ok := v2Methods[strings.ToLower(method)]; !ok {
				continue
			}
			op, _ := raw.(map[string]any)
			if op != nil && fixV2Operation(op) {
				modified = true
			}
		}
	}
	if !modified {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func fixV2Operation(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	var bodies, others []map[string]any
	hasFormData := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch strings.ToLower(asString(pm["in"])) {
		case "body":
			bodies = append(bodies, pm)
		case "formdata":
			hasFormData = true
			others = append(others, pm)
		default:
			others = append(others, pm)
		}
	}

	switch {
	case len(bodies) > 0 && hasFormData:
		rewritten := make([]any, 0, len(params))
		for _, p := range params {
			pm, _ := p.(map[string]any)
			if pm == nil {
				continue
			}
			if strings.EqualFold(asString(pm["in"]), "body") {
				pm = formDataFromBodyParam(pm)
			}
			rewritten = append(rewritten, pm)
		}
		op["parameters"] = rewritten
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	case len(bodies) > 1:
		props := map[string]any{}
		var required []any
		for _, pm := range bodies {
			name := nonEmpty(asString(pm["name"]), "field")
			schema := extractSchemaFromParam(pm)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if req, _ := pm["required"].(bool); req {
				required = append(required, name)
			}
		}
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		merged := []any{map[string]any{"in": "body", "name": "body", "schema": schema}}
		for _, pm := range others {
			merged = append(merged, pm)
		}
		op["parameters"] = merged
		return true
	}
	return false
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}

// extractSchemaFromParam returns the body schema, or synthesizes one from a
// non-body parameter's type/items/format.
func extractSchemaFromParam(pm map[string]any) map[string]any {
	if sch, ok := pm["schema"].(map[string]any); ok {
		return sch
	}
	t := asString(pm["type"])
	if t == "" {
		return nil
	}
	m := map[string]any{"type": t}
	if it, ok := pm["items"].(map[string]any); ok {
		m["items"] = it
	}
	if f := asString(pm["format"]); f != "" {
		m["format"] = f
	}
	return m
}

// formDataFromBodyParam degrades a body parameter to a formData field.
// Referenced schemas cannot be expressed as form fields and become strings.
func formDataFromBodyParam(pm map[string]any) map[string]any {
	out := map[string]any{
		"in":   "formData",
		"name": nonEmpty(asString(pm["name"]), "field"),
	}
	if desc := asString(pm["description"]); desc != "" {
		out["description"] = desc
	}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}
	src := pm
	if sch, ok := pm["schema"].(map[string]any); ok {
		src = sch
	}
	typ := asString(src["type"])
	if typ == "" {
		typ = "string"
	}
	out["type"] = typ
	if it, ok := src["items"].(map[string]any); ok {
		out["items"] = it
	}
	if f := asString(src["format"]); f != "" {
		out["format"] = f
	}
	return out
}
