package llm

// BuildExtractionJSONSchema returns the agreed extraction schema as a
// JSON-Schema (draft 2020-12 subset) generic map. We pass this to the model
// as a structured-output constraint and also use it locally to validate the
// response before decoding.
func BuildExtractionJSONSchema() map[string]any {
	scalar := map[string]any{
		"type": []string{"string", "number", "null"},
	}
	column := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "values"},
		"properties": map[string]any{
			"name":   map[string]any{"type": "string", "minLength": 1},
			"values": map[string]any{"type": "array", "items": scalar},
		},
	}
	table := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "columns"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
			"columns": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    column,
			},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"tables"},
		"properties": map[string]any{
			"tables": map[string]any{
				"type":  "array",
				"items": table,
			},
		},
	}
}
