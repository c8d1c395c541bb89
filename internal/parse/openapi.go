package parse

import "github.com/trackerzenith/docpipe/pkg/openapi"

type operations struct {
	Parse *openapi.Operation
}

var docs = operations{
	Parse: &openapi.Operation{
		Summary:     "Parse receipt text into structured fields",
		RequestBody: openapi.RequestBodyJSON("ParseRequest", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Structured draft", "ParseResponse"),
		}, 400, 401, 404, 422),
	},
}

// Schemas returns the component schemas referenced by the parse endpoint.
func Schemas() map[string]*openapi.Schema {
	field := func(typ string) *openapi.Schema {
		return &openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"value":      {Type: typ, Description: "Null when absent"},
				"confidence": {Type: "number", Example: 0.9},
			},
		}
	}

	return map[string]*openapi.Schema{
		"ParseRequest": {
			Type:     "object",
			Required: []string{"document_id", "raw_text"},
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "integer", Format: "int64"},
				"raw_text":    {Type: "string"},
				"categories": {
					Type:        "array",
					Description: "Defaults to the document owner's categories",
					Items:       openapi.SchemaRef("Category"),
				},
				"payment_methods": {
					Type:        "array",
					Description: "Defaults to the document owner's payment methods",
					Items:       openapi.SchemaRef("PaymentMethod"),
				},
			},
		},
		"Category": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":   {Type: "integer", Format: "int64"},
				"name": {Type: "string"},
				"type": {Type: "string", Enum: []any{TypeExpense, TypeIncome}},
			},
		},
		"PaymentMethod": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":     {Type: "integer", Format: "int64"},
				"name":   {Type: "string"},
				"global": {Type: "boolean"},
			},
		},
		"ParsedFields": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"merchant":                    field("string"),
				"date":                        field("string"),
				"total":                       field("number"),
				"subtotal":                    field("number"),
				"tax":                         field("number"),
				"currency":                    field("string"),
				"transaction_type":            field("string"),
				"suggested_category_id":       field("integer"),
				"suggested_payment_method_id": field("integer"),
				"payment_method":              field("string"),
			},
		},
		"LineItem": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":       {Type: "string"},
				"qty":        {Type: "number", Default: 1},
				"unit_price": {Type: "number"},
				"amount":     {Type: "number"},
				"confidence": {Type: "number"},
			},
		},
		"ParseResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":             {Type: "integer", Format: "int64"},
				"fields":                  openapi.SchemaRef("ParsedFields"),
				"items":                   {Type: "array", Items: openapi.SchemaRef("LineItem")},
				"notes":                   {Type: "string"},
				"inconsistencies":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"signature":               {Type: "string", Description: "sha256 of merchant|date|total"},
				"parser_model":            {Type: "string"},
				"suggested_category_type": {Type: "string"},
			},
		},
	}
}
