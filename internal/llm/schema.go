package llm

import "strings"

// Schema is the JSON schema subset understood by both providers.
// Types use the lowercase JSON Schema names.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// MovieSchema describes a single movie object.
func MovieSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"id":          {Type: "string", Description: "Unique identifier (kebab-case of title)"},
			"title":       {Type: "string"},
			"year":        {Type: "string"},
			"genre":       {Type: "array", Items: &Schema{Type: "string"}},
			"description": {Type: "string", Description: "Short engaging plot summary"},
			"director":    {Type: "string"},
		},
		Required: []string{"id", "title", "year", "genre", "description"},
	}
}

// MovieListSchema is an array of MovieSchema.
func MovieListSchema() *Schema {
	return &Schema{Type: "array", Items: MovieSchema()}
}

// toGemini renders s with the upper-case OpenAPI type enum Gemini expects.
func (s *Schema) toGemini() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": strings.ToUpper(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.toGemini()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.toGemini()
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
