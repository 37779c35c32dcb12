package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// AnalysisJSONSchema describes the answer both prompts ask for. Nothing is
// required and extra keys are allowed: it only flags wrongly typed values.
func AnalysisJSONSchema() map[string]any {
	item := map[string]any{
		"type": []any{"object", "null"},
		"properties": map[string]any{
			"description": stringProp(),
			"quantity":    numberProp(),
			"price":       numberProp(),
		},
	}
	record := func(numberKey string) map[string]any {
		return map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				numberKey: stringProp(),
				"date":    stringProp(),
				"vendor":  stringProp(),
				"items":   map[string]any{"type": []any{"array", "null"}, "items": item},
				"total":   numberProp(),
			},
		}
	}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"invoice_data": record("invoice_no"),
			"po_data":      record("po_no"),
		},
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func numberProp() map[string]any {
	return map[string]any{"type": []any{"number", "null"}}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(AnalysisJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analysis.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// checkSchema returns one message per schema violation in data
func checkSchema(data []byte) []string {
	schema, err := compiledSchema()
	if err != nil {
		slog.Error("Analysis schema unavailable", "error", err)
		return nil
	}

	// UseNumber keeps out-of-range numbers such as 1e400 decodable
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	err = schema.Validate(v)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	warnings := leafMessages(verr)
	slog.Warn("Oracle answer does not match schema", "violations", warnings)
	return warnings
}

func leafMessages(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", verr.InstanceLocation, verr.Message)}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, leafMessages(cause)...)
	}
	return out
}
