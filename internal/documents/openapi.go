package documents

import "github.com/trackerzenith/docpipe/pkg/openapi"

type operations struct {
	List, Statuses, Find, Search *openapi.Operation
}

var docs = operations{
	List: &openapi.Operation{
		Summary: "List documents",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search filename and vendor", false),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
			openapi.QueryParam("status", "string", "Filter by status", false),
			openapi.QueryParam("user_id", "string", "Filter by owner", false),
			openapi.QueryParam("mime_type", "string", "Filter by MIME type", false),
			openapi.QueryParam("vendor", "string", "Vendor name contains", false),
			openapi.QueryParam("date_from", "string", "Earliest transaction date (YYYY-MM-DD)", false),
			openapi.QueryParam("date_to", "string", "Latest transaction date (YYYY-MM-DD)", false),
			openapi.QueryParam("min_total", "number", "Minimum total amount", false),
			openapi.QueryParam("max_total", "number", "Maximum total amount", false),
		},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document page", "DocumentPage"),
		}),
	},
	Statuses: &openapi.Operation{
		Summary: "List document statuses in pipeline order",
		Responses: map[int]*openapi.Response{
			200: {Description: "Status names"},
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a document",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document id")},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document", "Document"),
		}, 400, 404),
	},
	Search: &openapi.Operation{
		Summary:     "Search documents",
		RequestBody: openapi.RequestBodyJSON("DocumentSearch", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document page", "DocumentPage"),
		}, 400),
	},
}

// Schemas returns the component schemas referenced by the document endpoints.
func Schemas() map[string]*openapi.Schema {
	statuses := make([]any, 0, len(Statuses()))
	for _, s := range Statuses() {
		statuses = append(statuses, string(s))
	}

	nullable := func(typ, format string) *openapi.Schema {
		return &openapi.Schema{Type: typ, Format: format, Description: "Null until populated"}
	}

	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                          {Type: "integer", Format: "int64"},
				"user_id":                     {Type: "string"},
				"file_path":                   {Type: "string"},
				"original_filename":           {Type: "string"},
				"file_size":                   {Type: "integer", Format: "int64"},
				"mime_type":                   {Type: "string"},
				"status":                      {Type: "string", Enum: statuses},
				"raw_markdown_output":         nullable("string", ""),
				"document_type":               nullable("string", ""),
				"vendor_name":                 nullable("string", ""),
				"transaction_date":            nullable("string", "date-time"),
				"total_amount":                nullable("number", ""),
				"currency":                    nullable("string", ""),
				"transaction_type":            nullable("string", ""),
				"suggested_category_id":       nullable("integer", "int64"),
				"suggested_category_type":     nullable("string", ""),
				"suggested_payment_method_id": nullable("integer", "int64"),
				"ai_confidence_score":         nullable("number", ""),
				"processing_error":            nullable("string", ""),
				"signature":                   nullable("string", ""),
				"created_expense_id":          nullable("integer", "int64"),
				"created_at":                  {Type: "string", Format: "date-time"},
				"updated_at":                  {Type: "string", Format: "date-time"},
			},
		},
		"DocumentPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Document")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"DocumentSearch": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":      {Type: "integer"},
				"page_size": {Type: "integer"},
				"search":    {Type: "string"},
				"sort":      {Type: "string"},
				"status":    {Type: "string", Enum: statuses},
				"user_id":   {Type: "string"},
				"mime_type": {Type: "string"},
				"vendor":    {Type: "string"},
				"date_from": {Type: "string", Format: "date"},
				"date_to":   {Type: "string", Format: "date"},
				"min_total": {Type: "number"},
				"max_total": {Type: "number"},
			},
		},
	}
}
