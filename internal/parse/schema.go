package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/trackerzenith/docpipe/internal/catalog"
)

const schemaURL = "parse.json"

// Schema builds the JSON Schema the model output must satisfy. Suggested
// ids are restricted to the ids in opts; an empty option list leaves the
// corresponding id unconstrained.
func Schema(opts *catalog.Options) map[string]any {
	nullable := func(types ...any) map[string]any {
		return map[string]any{"type": append(types, "null")}
	}
	confidence := map[string]any{"type": []any{"number", "null"}, "minimum": 0, "maximum": 1}
	field := func(value map[string]any) map[string]any {
		return map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"value":      value,
				"confidence": confidence,
			},
		}
	}

	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []any{"merchant", "date", "total"},
		"properties": map[string]any{
			"merchant":                    field(nullable("string")),
			"date":                        field(nullable("string")),
			"total":                       field(nullable("number")),
			"subtotal":                    field(nullable("number")),
			"tax":                         field(nullable("number")),
			"currency":                    field(nullable("string")),
			"transaction_type":            field(map[string]any{"enum": []any{TypeExpense, TypeIncome, nil}}),
			"suggested_category_id":       field(idValue(opts.CategoryIDs())),
			"suggested_payment_method_id": field(idValue(opts.PaymentMethodIDs())),
			"payment_method":              field(nullable("string")),
			"notes":                       nullable("string"),
			"items": map[string]any{
				"type": []any{"array", "null"},
				"items": map[string]any{
					"type":     "object",
					"required": []any{"name"},
					"properties": map[string]any{
						"name":       map[string]any{"type": "string"},
						"qty":        nullable("number"),
						"unit_price": nullable("number"),
						"amount":     nullable("number"),
						"confidence": confidence,
					},
				},
			},
		},
	}
}

func idValue(ids []int64) map[string]any {
	if len(ids) == 0 {
		return map[string]any{"type": []any{"integer", "string", "null"}}
	}
	enum := make([]any, 0, 2*len(ids)+1)
	for _, id := range ids {
		enum = append(enum, id, strconv.FormatInt(id, 10))
	}
	return map[string]any{"enum": append(enum, nil)}
}

// validateOutput checks data against the schema for opts.
func validateOutput(opts *catalog.Options, data []byte) error {
	b, err := json.Marshal(Schema(opts))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal output: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("output does not match schema: %w", err)
	}
	return nil
}
