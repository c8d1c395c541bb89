package api

import (
	"fmt"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/extract"
	"github.com/trackerzenith/docpipe/internal/ingest"
	"github.com/trackerzenith/docpipe/internal/parse"
	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/internal/validate"
	"github.com/trackerzenith/docpipe/internal/write"
	"github.com/trackerzenith/docpipe/pkg/openapi"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config) error {
	groups := []routes.Group{
		domain.Ingest.Handler().Routes(),
		domain.Extract.Handler().Routes(),
		domain.Parse.Handler().Routes(),
		domain.Validate.Handler().Routes(),
		domain.Write.Handler().Routes(),
		domain.Documents.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
	}

	routes.Register(mux, groups...)

	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}

// buildSpec documents every route group and serializes the result once.
func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	cfg.API.OpenAPI.Apply(spec, cfg.API.BasePath)
	spec.AddTag("Pipeline", "Ingest, extract, parse, validate and write, called in that order per document.")
	spec.AddTag("Documents", "Read-only views of uploaded documents and their processing status.")
	spec.AddTag("Prompts", "Per-stage instruction overrides for the extract, parse and coherence prompts.")

	routes.Document(spec, groups...)

	for _, schemas := range []map[string]*openapi.Schema{
		ingest.Schemas(),
		extract.Schemas(),
		parse.Schemas(),
		validate.Schemas(),
		write.Schemas(),
		documents.Schemas(),
		prompts.Schemas(),
	} {
		spec.Components.AddSchemas(schemas)
	}

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
