package gemini

import (
	"sort"

	"google.golang.org/genai"
)

// ToSchema converts the JSON-schema map used for local validation into the
// SDK's schema type. Keywords Gemini does not understand are dropped; a type
// union becomes anyOf.
func ToSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}

	switch t := m["type"].(type) {
	case string:
		s.Type = schemaType(t)
	case []string:
		for _, alt := range t {
			s.AnyOf = append(s.AnyOf, &genai.Schema{Type: schemaType(alt)})
		}
	}

	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		keys := make([]string, 0, len(props))
		for k, v := range props {
			if sub, ok := v.(map[string]any); ok {
				s.Properties[k] = ToSchema(sub)
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		s.PropertyOrdering = keys
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = append([]string(nil), req...)
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = ToSchema(items)
	}
	if min, ok := m["minimum"].(int); ok {
		s.Minimum = genai.Ptr(float64(min))
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	}
	return genai.TypeUnspecified
}
