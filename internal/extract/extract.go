// Package extract turns a classified document into raw text, either from the
// PDF text layer or through an OCR provider with a single fallback hop.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/ingest"
	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/llm"
	"github.com/trackerzenith/docpipe/pkg/ocr"
	"github.com/trackerzenith/docpipe/pkg/pdftext"
	"github.com/trackerzenith/docpipe/pkg/render"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

// Strategy names the path that produced the text.
type Strategy string

const (
	StrategyNativeText  Strategy = "native-text"
	StrategyOCRPrimary  Strategy = "ocr-primary"
	StrategyOCRFallback Strategy = "ocr-fallback"
)

// NativeConfidence is the confidence hint reported for text-layer extraction.
const NativeConfidence = 0.95

// Request names the document to extract and its classification.
type Request struct {
	DocumentID int64       `json:"document_id"`
	IngestKind ingest.Kind `json:"ingest_kind"`
}

// Response is the extracted text and how it was obtained.
type Response struct {
	DocumentID     int64    `json:"document_id"`
	Provider       string   `json:"provider"`
	Strategy       Strategy `json:"strategy"`
	RawText        string   `json:"raw_text"`
	LatencyMS      int64    `json:"latency_ms"`
	ConfidenceHint float64  `json:"confidence_hint"`
	PageCount      int      `json:"page_count"`
}

// Documents is the subset of the document system the extractor needs.
type Documents interface {
	Find(ctx context.Context, id int64) (*documents.Document, error)
	Update(ctx context.Context, id int64, u documents.Update) (*documents.Document, error)
}

// Engine is a named vision model. A nil Client means the engine is not configured.
type Engine struct {
	Name   string
	Client llm.Client
}

// Engines are the collaborators that read text out of a file.
type Engines struct {
	Primary    Engine
	Fallback   Engine
	Text       ingest.TextLayer
	Rasterizer render.Rasterizer
	Prompts    prompts.Source
}

// Config holds the extraction thresholds.
type Config struct {
	MinNativeChars   int
	MinOCRChars      int
	OCRTimeout       time.Duration
	EnableFallback   bool
	RasterizePDFs    bool
	MaxDownloadBytes int64
}

// System defines the extractor contract.
type System interface {
	Handler() *Handler
	Extract(ctx context.Context, req Request) (*Response, error)
}

type extractor struct {
	docs    Documents
	store   storage.System
	engines Engines
	cfg     Config
	logger  *slog.Logger
}

type outcome struct {
	provider   string
	strategy   Strategy
	text       string
	confidence float64
	pages      int
}

// New creates the extractor.
func New(
	docs Documents,
	store storage.System,
	engines Engines,
	cfg Config,
	logger *slog.Logger,
) System {
	return &extractor{
		docs:    docs,
		store:   store,
		engines: engines,
		cfg:     cfg,
		logger:  logger.With("system", "extract"),
	}
}

func (e *extractor) Handler() *Handler {
	return NewHandler(e, e.logger)
}

func (e *extractor) Extract(ctx context.Context, req Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	doc, err := e.docs.Find(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := documents.Authorize(ctx, doc); err != nil {
		return nil, err
	}
	if _, err := e.docs.Update(ctx, doc.ID, documents.Update{Status: documents.StatusProcessing}); err != nil {
		return nil, err
	}

	data, err := storage.ReadAll(ctx, e.store, doc.FilePath, e.cfg.MaxDownloadBytes)
	if err != nil {
		return nil, e.fail(ctx, doc.ID, fmt.Errorf("%w: %w", ErrExtraction, err))
	}

	start := time.Now()
	out, err := e.run(ctx, req.IngestKind, ingest.NormalizeMime(doc.MimeType), data)
	latency := time.Since(start)
	if err != nil {
		return nil, e.fail(ctx, doc.ID, err)
	}

	if _, err := e.docs.Update(ctx, doc.ID, documents.Update{
		Status:            documents.StatusOCRCompleted,
		RawMarkdownOutput: &out.text,
	}); err != nil {
		return nil, fmt.Errorf("store extracted text: %w", err)
	}

	e.logger.Info("document extracted",
		"document_id", doc.ID,
		"strategy", out.strategy,
		"provider", out.provider,
		"chars", pdftext.Chars(out.text),
		"latency", latency,
	)

	return &Response{
		DocumentID:     doc.ID,
		Provider:       out.provider,
		Strategy:       out.strategy,
		RawText:        out.text,
		LatencyMS:      latency.Milliseconds(),
		ConfidenceHint: out.confidence,
		PageCount:      out.pages,
	}, nil
}

func (e *extractor) run(ctx context.Context, kind ingest.Kind, mimeType string, data []byte) (*outcome, error) {
	if kind == ingest.KindDigital && mimeType == ingest.MimePDF {
		if out, ok := e.native(data); ok {
			return out, nil
		}
	}

	inputs, err := e.inputs(ctx, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	out, err := e.recognize(ctx, e.engines.Primary, inputs)
	if err == nil {
		out.strategy = StrategyOCRPrimary
		return out, nil
	}

	if !e.fallbackAllowed(err) {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	e.logger.Warn("primary ocr failed, trying fallback",
		"primary", e.engines.Primary.Name,
		"fallback", e.engines.Fallback.Name,
		"error", err,
	)

	out, ferr := e.recognize(ctx, e.engines.Fallback, inputs)
	if ferr != nil {
		return nil, fmt.Errorf("%w: primary: %v; fallback: %w", ErrExtraction, err, ferr)
	}
	out.strategy = StrategyOCRFallback
	return out, nil
}

// native reads the PDF text layer. It reports false when the layer is
// unreadable or shorter than MinNativeChars.
func (e *extractor) native(data []byte) (*outcome, bool) {
	text, err := e.engines.Text.Extract(data)
	if err != nil {
		e.logger.Warn("text layer unreadable, using ocr", "error", err)
		return nil, false
	}
	if n := pdftext.Chars(text); n < e.cfg.MinNativeChars {
		e.logger.Info("text layer too short, using ocr", "chars", n, "min", e.cfg.MinNativeChars)
		return nil, false
	}

	pages := 1
	if info, err := e.engines.Text.Inspect(data); err == nil && info.Pages > 0 {
		pages = info.Pages
	}

	return &outcome{
		provider:   string(StrategyNativeText),
		strategy:   StrategyNativeText,
		text:       text,
		confidence: NativeConfidence,
		pages:      pages,
	}, true
}

// inputs prepares the images handed to OCR. Scanned PDFs are rasterized when
// enabled; otherwise they pass through and the provider rejects them.
func (e *extractor) inputs(ctx context.Context, mimeType string, data []byte) ([]ocr.Input, error) {
	if mimeType != ingest.MimePDF || !e.cfg.RasterizePDFs {
		return []ocr.Input{{Data: data, MimeType: mimeType}}, nil
	}

	pages, err := e.engines.Rasterizer.Rasterize(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", render.ErrRenderFailed)
	}

	inputs := make([]ocr.Input, len(pages))
	for i, page := range pages {
		inputs[i] = ocr.Input{Data: page, MimeType: "image/png"}
	}
	return inputs, nil
}

// recognize runs one provider attempt over every input under the OCR timeout.
func (e *extractor) recognize(ctx context.Context, engine Engine, inputs []ocr.Input) (*outcome, error) {
	if engine.Client == nil {
		return nil, ErrNoProvider
	}

	system, err := prompts.Resolve(ctx, e.engines.Prompts, prompts.StageOCR, e.logger)
	if err != nil {
		return nil, err
	}
	provider := ocr.NewVision(engine.Name, engine.Client, system)

	if e.cfg.OCRTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.OCRTimeout)
		defer cancel()
	}

	results := make([]*ocr.Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(render.WorkerCount(len(inputs)))

	for i, in := range inputs {
		g.Go(func() error {
			res, err := provider.Recognize(gctx, in)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	texts := make([]string, len(results))
	confidence := 1.0
	for i, res := range results {
		texts[i] = res.Text
		confidence = min(confidence, res.Confidence)
	}

	text := strings.Join(texts, "\n\n")
	if n := pdftext.Chars(text); n < e.cfg.MinOCRChars {
		return nil, fmt.Errorf("%s: %w: %d characters", engine.Name, ocr.ErrEmptyText, n)
	}

	return &outcome{
		provider:   engine.Name,
		text:       text,
		confidence: confidence,
		pages:      len(inputs),
	}, nil
}

func (e *extractor) fallbackAllowed(err error) bool {
	return e.cfg.EnableFallback && e.engines.Fallback.Client != nil && ocr.Retryable(err)
}

// fail records err on the document without changing its status so the
// caller can retry.
func (e *extractor) fail(ctx context.Context, id int64, err error) error {
	if _, uerr := e.docs.Update(ctx, id, documents.Failure(documents.StatusProcessing, err)); uerr != nil {
		e.logger.Error("record extraction failure", "document_id", id, "error", uerr)
	}
	return err
}

func (r Request) validate() error {
	if r.DocumentID <= 0 {
		return fmt.Errorf("%w: document_id must be positive", handlers.ErrInvalidRequest)
	}
	switch r.IngestKind {
	case ingest.KindDigital, ingest.KindScanned:
		return nil
	default:
		return fmt.Errorf("%w: ingest_kind must be digital or scanned", handlers.ErrInvalidRequest)
	}
}
