package api

import (
	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/internal/infrastructure"
	"github.com/trackerzenith/docpipe/internal/ingest"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/pdftext"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Pipeline   config.PipelineConfig
	OCR        config.OCRConfig
	TextLayer  ingest.TextLayer

	// MaxDownloadBytes caps how much of a stored file a stage reads.
	MaxDownloadBytes int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure:   &scoped,
		Pagination:       cfg.API.Pagination,
		Pipeline:         cfg.Pipeline,
		OCR:              cfg.OCR,
		TextLayer:        pdftext.Layer{},
		MaxDownloadBytes: cfg.Storage.MaxDownloadBytes(),
	}
}
