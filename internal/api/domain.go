package api

import (
	"github.com/trackerzenith/docpipe/internal/catalog"
	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/extract"
	"github.com/trackerzenith/docpipe/internal/ingest"
	"github.com/trackerzenith/docpipe/internal/parse"
	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/internal/validate"
	"github.com/trackerzenith/docpipe/internal/write"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Prompts   prompts.System
	Catalog   catalog.System

	Ingest   ingest.System
	Extract  extract.System
	Parse    parse.System
	Validate validate.System
	Write    write.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()
	pipeline := runtime.Pipeline
	models := runtime.Models

	docsSystem := documents.New(db, runtime.Events, runtime.Logger, runtime.Pagination)
	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)
	catalogSystem := catalog.New(db, runtime.Logger)

	ingestSystem := ingest.New(
		docsSystem,
		runtime.Storage,
		runtime.TextLayer,
		ingest.Config{
			TextThreshold:      pipeline.PDFTextThreshold,
			EnforceOwnerPrefix: pipeline.OwnerPrefixEnforced(),
			MaxDownloadBytes:   runtime.MaxDownloadBytes,
		},
		runtime.Logger,
	)

	extractSystem := extract.New(
		docsSystem,
		runtime.Storage,
		extract.Engines{
			Primary:    extract.Engine{Name: runtime.OCR.Primary.Provider, Client: models.OCRPrimary},
			Fallback:   extract.Engine{Name: runtime.OCR.Fallback.Provider, Client: models.OCRFallback},
			Text:       runtime.TextLayer,
			Rasterizer: runtime.Rasterizer,
			Prompts:    promptsSystem,
		},
		extract.Config{
			MinNativeChars:   pipeline.MinNativeChars,
			MinOCRChars:      pipeline.MinOCRChars,
			OCRTimeout:       pipeline.OCRTimeoutDuration(),
			EnableFallback:   pipeline.FallbackEnabled(),
			RasterizePDFs:    pipeline.RasterizeEnabled(),
			MaxDownloadBytes: runtime.MaxDownloadBytes,
		},
		runtime.Logger,
	)

	parseSystem := parse.New(
		docsSystem,
		catalogSystem,
		models.Parser,
		promptsSystem,
		parse.Config{
			MinChars:        pipeline.MinParseChars,
			Timeout:         pipeline.ParseTimeoutDuration(),
			DefaultCurrency: pipeline.DefaultCurrency,
			TotalsTolerance: pipeline.TotalsTolerance,
		},
		runtime.Logger,
	)

	validateSystem := validate.New(
		docsSystem,
		models.Coherence,
		promptsSystem,
		validate.Config{
			Currencies:         pipeline.Currencies,
			DefaultCurrency:    pipeline.DefaultCurrency,
			MaxTotal:           pipeline.MaxTotal,
			TotalsTolerance:    pipeline.TotalsTolerance,
			MaxAgeYears:        pipeline.MaxAgeYears,
			StrictDuplicates:   pipeline.StrictDuplicates,
			ApprovalThreshold:  pipeline.ApprovalThreshold,
			EnableCoherence:    pipeline.EnableCoherence,
			CoherenceThreshold: pipeline.CoherenceThreshold,
			CoherenceTimeout:   pipeline.ParseTimeoutDuration(),
		},
		runtime.Logger,
	)

	return &Domain{
		Documents: docsSystem,
		Prompts:   promptsSystem,
		Catalog:   catalogSystem,
		Ingest:    ingestSystem,
		Extract:   extractSystem,
		Parse:     parseSystem,
		Validate:  validateSystem,
		Write:     write.New(docsSystem, runtime.Logger),
	}
}
