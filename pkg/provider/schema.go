package provider

import (
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// Scene is one element of a structured script.
type Scene struct {
	ID     string `json:"id"`
	Script string `json:"script"`
}

// ScriptDocument is the JSON document StructureText asks the model for.
type ScriptDocument struct {
	Scenes []Scene `json:"scenes"`
}

const (
	scriptSchemaName        = "video_script"
	scriptSchemaDescription = "A video script broken down into scenes."

	structureSystemPrompt = "You are an assistant that restructures raw narrative text into JSON for video production. " +
		"Return ONLY valid JSON following the provided schema and do not include explanations."
)

func structurePrompt(text string) string {
	return "Take the following text and format it into a structured video script. " +
		"Break it down into logical scenes. Each scene should have a unique ID and a script. " +
		"Respond with only the JSON object.\n\nTEXT:\n---\n" + text + "\n---"
}

// ScriptSchema returns the JSON schema of ScriptDocument.
func ScriptSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: scriptSchemaDescription,
		Properties: map[string]*jsonschema.Schema{
			"scenes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":     {Type: "string", Description: "Unique scene identifier."},
						"script": {Type: "string", Description: "Narration for the scene."},
					},
					Required: []string{"id", "script"},
				},
			},
		},
		Required: []string{"scenes"},
	}
}

// geminiSchema converts a JSON schema into the genai representation.
func geminiSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       geminiSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		gs.PropertyOrdering = make([]string, 0, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiSchema(prop)
			gs.PropertyOrdering = append(gs.PropertyOrdering, k)
		}
		slices.Sort(gs.PropertyOrdering)
	}

	typ := schema.Type
	for _, t := range schema.Types {
		if t == "null" {
			nullable := true
			gs.Nullable = &nullable
			continue
		}
		if typ == "" {
			typ = t
		}
	}
	switch typ {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}

// strictSchema prepares a schema for strict json_schema response formats:
// every object forbids additional properties and lists all its properties
// as required.
func strictSchema(m *jsonschema.Schema) *jsonschema.Schema {
	if m == nil {
		return nil
	}
	s := m.CloneSchemas()
	formatStrict(s)
	return s
}

func formatStrict(m *jsonschema.Schema) {
	switch m.Type {
	case "array":
		if m.Items != nil {
			formatStrict(m.Items)
		}
	case "object":
		m.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
		for k, v := range m.Properties {
			if !slices.Contains(m.Required, k) {
				m.Required = append(m.Required, k)
			}
			formatStrict(v)
		}
		slices.Sort(m.Required)
	}
}
