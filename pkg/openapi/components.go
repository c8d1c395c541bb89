package openapi

import (
	"maps"
	"net/http"
)

// NewComponents creates Components with shared schemas and error responses.
// Every error response shares the Error schema: {"error": ..., "code": ...}.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error", "code"},
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Human-readable message"},
					"code":  {Type: "string", Description: "Machine-readable error code", Example: "not_found"},
				},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: -created_at"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":           errorResponse(http.StatusBadRequest),
			"Unauthorized":         errorResponse(http.StatusUnauthorized),
			"Forbidden":            errorResponse(http.StatusForbidden),
			"NotFound":             errorResponse(http.StatusNotFound),
			"Conflict":             errorResponse(http.StatusConflict),
			"PayloadTooLarge":      errorResponse(http.StatusRequestEntityTooLarge),
			"UnsupportedMediaType": errorResponse(http.StatusUnsupportedMediaType),
			"UnprocessableEntity":  errorResponse(http.StatusUnprocessableEntity),
			"BadGateway":           errorResponse(http.StatusBadGateway),
		},
	}
}

func errorResponse(status int) *Response {
	return &Response{
		Description: http.StatusText(status),
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
