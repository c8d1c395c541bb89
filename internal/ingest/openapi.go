package ingest

import "github.com/trackerzenith/docpipe/pkg/openapi"

type operations struct {
	Ingest *openapi.Operation
}

var docs = operations{
	Ingest: &openapi.Operation{
		Summary:     "Classify an uploaded document as digital or scanned",
		RequestBody: openapi.RequestBodyJSON("IngestRequest", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Classification", "IngestResponse"),
		}, 400, 401, 403, 404, 409, 413, 415, 422),
	},
}

// Schemas returns the component schemas referenced by the ingest endpoint.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"IngestRequest": {
			Type:     "object",
			Required: []string{"document_id", "user_id", "file_url", "mime_type"},
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "integer", Format: "int64"},
				"user_id":     {Type: "string"},
				"file_url":    {Type: "string", Description: "Object key inside the private bucket", Example: "user-1/receipt.pdf"},
				"mime_type":   {Type: "string", Example: MimePDF},
			},
		},
		"IngestResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "integer", Format: "int64"},
				"ingest_kind": {Type: "string", Enum: []any{string(KindDigital), string(KindScanned)}},
				"sha256":      {Type: "string"},
				"storage_url": {Type: "string"},
				"page_count":  {Type: "integer"},
			},
		},
	}
}
