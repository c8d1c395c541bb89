package write

import "github.com/trackerzenith/docpipe/pkg/openapi"

type operations struct {
	Write *openapi.Operation
}

var docs = operations{
	Write: &openapi.Operation{
		Summary:     "Write a validated draft",
		Description: "Stores the draft on the document and moves it to parsed. The ledger transaction is created elsewhere.",
		RequestBody: openapi.RequestBodyJSON("WriteRequest", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document moved to parsed", "WriteResponse"),
		}, 400, 401, 404, 409, 502),
	},
}

func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"WriteRequest": {
			Type:     "object",
			Required: []string{"document_id", "normalized_json"},
			Properties: map[string]*openapi.Schema{
				"document_id":     {Type: "integer", Format: "int64"},
				"normalized_json": openapi.SchemaRef("Normalized"),
				"force":           {Type: "boolean", Description: "write drafts that were not approved"},
			},
		},
		"WriteResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "integer", Format: "int64"},
				"status":      {Type: "string", Enum: []any{"parsed"}},
			},
		},
	}
}
