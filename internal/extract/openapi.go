package extract

import (
	"github.com/trackerzenith/docpipe/internal/ingest"
	"github.com/trackerzenith/docpipe/pkg/openapi"
)

type operations struct {
	Extract *openapi.Operation
}

var docs = operations{
	Extract: &openapi.Operation{
		Summary:     "Extract raw text from a classified document",
		Description: "Digital PDFs use the embedded text layer. Everything else goes to the primary OCR provider, with one fallback attempt on retryable failures.",
		RequestBody: openapi.RequestBodyJSON("ExtractRequest", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Extracted text", "ExtractResponse"),
		}, 400, 401, 404, 409, 413, 415, 502),
	},
}

// Schemas returns the component schemas referenced by the extract endpoint.
func Schemas() map[string]*openapi.Schema {
	strategies := []any{
		string(StrategyNativeText),
		string(StrategyOCRPrimary),
		string(StrategyOCRFallback),
	}

	return map[string]*openapi.Schema{
		"ExtractRequest": {
			Type:     "object",
			Required: []string{"document_id", "ingest_kind"},
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "integer", Format: "int64"},
				"ingest_kind": {Type: "string", Enum: []any{string(ingest.KindDigital), string(ingest.KindScanned)}},
			},
		},
		"ExtractResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":     {Type: "integer", Format: "int64"},
				"provider":        {Type: "string", Example: "mistral"},
				"strategy":        {Type: "string", Enum: strategies},
				"raw_text":        {Type: "string"},
				"latency_ms":      {Type: "integer"},
				"confidence_hint": {Type: "number"},
				"page_count":      {Type: "integer"},
			},
		},
	}
}
