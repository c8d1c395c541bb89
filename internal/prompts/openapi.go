package prompts

import "github.com/trackerzenith/docpipe/pkg/openapi"

type operations struct {
	List, Stages, Find, Instructions, Spec *openapi.Operation
	Create, Update, Delete, Search         *openapi.Operation
	Activate, Deactivate                   *openapi.Operation
}

var idParam = openapi.PathParam("id", "Prompt override id")

var stageParam = &openapi.Parameter{
	Name:     "stage",
	In:       "path",
	Required: true,
	Schema:   &openapi.Schema{Type: "string", Enum: []any{"ocr", "parse", "coherence"}},
}

var docs = operations{
	List: &openapi.Operation{
		Summary: "List prompt overrides",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search name and description", false),
			openapi.QueryParam("stage", "string", "Filter by stage", false),
			openapi.QueryParam("active", "boolean", "Filter by active flag", false),
		},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt page", "PromptPage"),
		}),
	},
	Stages: &openapi.Operation{
		Summary: "List stages that accept prompt overrides",
		Responses: map[int]*openapi.Response{
			200: {Description: "Stage names"},
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a prompt override",
		Parameters: []*openapi.Parameter{idParam},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt override", "Prompt"),
		}, 400, 404),
	},
	Instructions: &openapi.Operation{
		Summary:    "Get the effective instructions for a stage",
		Parameters: []*openapi.Parameter{stageParam},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Stage instructions", "StageContent"),
		}, 400),
	},
	Spec: &openapi.Operation{
		Summary:    "Get the output specification for a stage",
		Parameters: []*openapi.Parameter{stageParam},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Stage output specification", "StageContent"),
		}, 400),
	},
	Create: &openapi.Operation{
		Summary:     "Create a prompt override",
		RequestBody: openapi.RequestBodyJSON("PromptCommand", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created prompt override", "Prompt"),
		}, 400, 409),
	},
	Update: &openapi.Operation{
		Summary:     "Update a prompt override",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("PromptCommand", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated prompt override", "Prompt"),
		}, 400, 404, 409),
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a prompt override",
		Parameters: []*openapi.Parameter{idParam},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			204: {Description: "Deleted"},
		}, 400, 404),
	},
	Search: &openapi.Operation{
		Summary:     "Search prompt overrides",
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Prompt page", "PromptPage"),
		}, 400),
	},
	Activate: &openapi.Operation{
		Summary:    "Make a prompt override the active one for its stage",
		Parameters: []*openapi.Parameter{idParam},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Activated prompt override", "Prompt"),
		}, 400, 404),
	},
	Deactivate: &openapi.Operation{
		Summary:    "Deactivate a prompt override",
		Parameters: []*openapi.Parameter{idParam},
		Responses: openapi.WithErrors(map[int]*openapi.Response{
			200: openapi.ResponseJSON("Deactivated prompt override", "Prompt"),
		}, 400, 404),
	},
}

// Schemas returns the component schemas referenced by the prompt endpoints.
func Schemas() map[string]*openapi.Schema {
	prompt := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":           {Type: "integer", Format: "int64"},
			"name":         {Type: "string"},
			"stage":        {Type: "string"},
			"instructions": {Type: "string"},
			"description":  {Type: "string"},
			"active":       {Type: "boolean"},
			"created_at":   {Type: "string", Format: "date-time"},
			"updated_at":   {Type: "string", Format: "date-time"},
		},
	}

	return map[string]*openapi.Schema{
		"Prompt": prompt,
		"PromptPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Prompt")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"PromptCommand": {
			Type:     "object",
			Required: []string{"name", "stage", "instructions"},
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string"},
				"stage":        {Type: "string", Enum: []any{"ocr", "parse", "coherence"}},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
			},
		},
		"StageContent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":   {Type: "string"},
				"content": {Type: "string"},
			},
		},
	}
}
