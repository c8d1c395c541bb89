package validate

import "github.com/trackerzenith/docpipe/pkg/openapi"

type operations struct {
	Validate *openapi.Operation
}

var docs = operations{
	Validate: &openapi.Operation{
		Summary:     "Validate a parsed draft",
		Description: "Rule failures are reported in the verdict with status 200.",
		RequestBody: openapi.RequestBodyJSON("ValidateRequest", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Verdict", "Verdict"),
		}, 400, 401),
	},
}

// Schemas returns the component schemas referenced by the validate endpoint.
func Schemas() map[string]*openapi.Schema {
	statuses := []any{string(StatusApproved), string(StatusNeedsReview), string(StatusRejected)}
	codes := []any{
		string(CodeMissingField), string(CodeEmptyField), string(CodeInvalidTotal),
		string(CodeTotalTooHigh), string(CodeMathError), string(CodeItemsMismatch),
		string(CodeInvalidDateFormat), string(CodeFutureDate), string(CodeDateTooOld),
		string(CodeUnsupportedCurrency), string(CodePossibleDuplicate), string(CodeLowConfidence),
		string(CodeIncoherent),
	}

	return map[string]*openapi.Schema{
		"ValidateRequest": {
			Type:     "object",
			Required: []string{"document_id", "draft"},
			Properties: map[string]*openapi.Schema{
				"document_id": {Type: "integer", Format: "int64"},
				"draft":       openapi.SchemaRef("ParseResponse"),
			},
		},
		"Reason": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"code": {Type: "string", Enum: codes},
				"msg":  {Type: "string"},
			},
		},
		"Normalized": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":                 {Type: "integer", Format: "int64"},
				"merchant":                    {Type: "string"},
				"date":                        {Type: "string", Format: "date"},
				"total":                       {Type: "number"},
				"subtotal":                    {Type: "number"},
				"tax":                         {Type: "number"},
				"currency":                    {Type: "string"},
				"transaction_type":            {Type: "string"},
				"suggested_category_id":       {Type: "integer", Format: "int64"},
				"suggested_category_type":     {Type: "string"},
				"suggested_payment_method_id": {Type: "integer", Format: "int64"},
				"payment_method":              {Type: "string"},
				"items":                       {Type: "array", Items: openapi.SchemaRef("LineItem")},
				"signature":                   {Type: "string"},
				"parser_model":                {Type: "string"},
				"validation_status":           {Type: "string", Enum: statuses},
				"confidence":                  {Type: "number"},
			},
		},
		"Verdict": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":     {Type: "integer", Format: "int64"},
				"status":          {Type: "string", Enum: statuses},
				"reasons":         {Type: "array", Items: openapi.SchemaRef("Reason")},
				"confidence":      {Type: "number"},
				"badges":          {Type: "object", Description: "status and confidence labels"},
				"normalized_json": openapi.SchemaRef("Normalized"),
			},
		},
	}
}
