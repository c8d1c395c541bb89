// Package ingest classifies an uploaded document as digital or scanned so the
// extractor can choose between the PDF text layer and OCR.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/ocr"
	"github.com/trackerzenith/docpipe/pkg/pdftext"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

// MimePDF is the only non-image type the pipeline accepts.
const MimePDF = "application/pdf"

// Kind is the classification of an uploaded file.
type Kind string

const (
	KindDigital Kind = "digital"
	KindScanned Kind = "scanned"
)

// Request identifies the uploaded file to classify.
type Request struct {
	DocumentID int64  `json:"document_id"`
	UserID     string `json:"user_id"`
	FileURL    string `json:"file_url"`
	MimeType   string `json:"mime_type"`
}

// Response is the classification of one document.
type Response struct {
	DocumentID int64  `json:"document_id"`
	IngestKind Kind   `json:"ingest_kind"`
	SHA256     string `json:"sha256"`
	StorageURL string `json:"storage_url"`
	PageCount  *int   `json:"page_count,omitempty"`
}

// Documents is the subset of the document system the classifier needs.
type Documents interface {
	Find(ctx context.Context, id int64) (*documents.Document, error)
	Update(ctx context.Context, id int64, u documents.Update) (*documents.Document, error)
}

// TextLayer reads PDF structure and embedded text. pdftext.Layer implements it.
type TextLayer interface {
	Inspect(data []byte) (*pdftext.Info, error)
	Extract(data []byte) (string, error)
}

// Config holds the classifier thresholds.
type Config struct {
	// TextThreshold is the trimmed character count a PDF text layer must
	// exceed to classify as digital.
	TextThreshold      int
	EnforceOwnerPrefix bool
	MaxDownloadBytes   int64
}

// System defines the classifier contract.
type System interface {
	Handler() *Handler
	Ingest(ctx context.Context, req Request) (*Response, error)
}

type classifier struct {
	docs   Documents
	store  storage.System
	pdf    TextLayer
	cfg    Config
	logger *slog.Logger
}

// New creates the classifier.
func New(
	docs Documents,
	store storage.System,
	pdf TextLayer,
	cfg Config,
	logger *slog.Logger,
) System {
	return &classifier{
		docs:   docs,
		store:  store,
		pdf:    pdf,
		cfg:    cfg,
		logger: logger.With("system", "ingest"),
	}
}

func (c *classifier) Handler() *Handler {
	return NewHandler(c, c.logger)
}

func (c *classifier) Ingest(ctx context.Context, req Request) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := CheckKey(req.FileURL, req.UserID, c.cfg.EnforceOwnerPrefix); err != nil {
		return nil, err
	}
	if claims, ok := auth.FromContext(ctx); ok && claims.Subject != req.UserID {
		return nil, fmt.Errorf("%w: token subject does not match user_id", documents.ErrForbidden)
	}

	doc, err := c.docs.Find(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.OwnedBy(req.UserID) {
		return nil, documents.ErrForbidden
	}
	if doc.FilePath != "" && doc.FilePath != req.FileURL {
		return nil, fmt.Errorf("%w: does not match the document file path", ErrInvalidKey)
	}

	mimeType := NormalizeMime(req.MimeType)
	if mimeType != MimePDF && !ocr.IsImage(mimeType) {
		return nil, c.fail(ctx, doc.ID, fmt.Errorf("%w: %s", ErrUnsupportedType, req.MimeType))
	}

	data, err := storage.ReadAll(ctx, c.store, req.FileURL, c.cfg.MaxDownloadBytes)
	if err == nil && len(data) == 0 {
		err = ErrEmptyFile
	}
	if err != nil {
		return nil, c.fail(ctx, doc.ID, fmt.Errorf("%w: %w", ErrIngest, err))
	}

	sum := sha256.Sum256(data)
	resp := &Response{
		DocumentID: doc.ID,
		IngestKind: KindScanned,
		SHA256:     hex.EncodeToString(sum[:]),
		StorageURL: req.FileURL,
	}

	if mimeType == MimePDF {
		kind, pages, err := c.classifyPDF(doc.ID, data)
		if err != nil {
			return nil, c.fail(ctx, doc.ID, fmt.Errorf("%w: %w", ErrIngest, err))
		}
		resp.IngestKind = kind
		resp.PageCount = pages
	}

	c.logger.Info("document classified",
		"document_id", doc.ID,
		"mime_type", mimeType,
		"kind", resp.IngestKind,
		"bytes", len(data),
	)

	return resp, nil
}

func (c *classifier) classifyPDF(id int64, data []byte) (Kind, *int, error) {
	info, inspectErr := c.pdf.Inspect(data)

	var pages *int
	if info != nil && info.Pages > 0 {
		pages = &info.Pages
	}
	if info != nil && info.Invalid != nil {
		c.logger.Debug("pdf failed validation", "document_id", id, "error", info.Invalid)
	}

	text, err := c.pdf.Extract(data)
	if err != nil {
		if errors.Is(inspectErr, pdftext.ErrUnreadable) && errors.Is(err, pdftext.ErrUnreadable) {
			return "", nil, err
		}
		c.logger.Warn("text layer unavailable, classifying as scanned", "document_id", id, "error", err)
		return KindScanned, pages, nil
	}

	if pdftext.Chars(text) > c.cfg.TextThreshold {
		return KindDigital, pages, nil
	}
	return KindScanned, pages, nil
}

// fail records err on the document and returns it.
func (c *classifier) fail(ctx context.Context, id int64, err error) error {
	if _, uerr := c.docs.Update(ctx, id, documents.Failure(documents.StatusFailed, err)); uerr != nil {
		c.logger.Error("record ingest failure", "document_id", id, "error", uerr)
	}
	return err
}

func (r Request) validate() error {
	switch {
	case r.DocumentID <= 0:
		return fmt.Errorf("%w: document_id must be positive", handlers.ErrInvalidRequest)
	case strings.TrimSpace(r.UserID) == "":
		return fmt.Errorf("%w: user_id is required", handlers.ErrInvalidRequest)
	case strings.TrimSpace(r.MimeType) == "":
		return fmt.Errorf("%w: mime_type is required", handlers.ErrInvalidRequest)
	}
	return nil
}

// CheckKey verifies key is a relative object key inside the private bucket.
// With ownerPrefix set the key must also live under "<userID>/".
func CheckKey(key, userID string, ownerPrefix bool) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.Contains(key, "://"):
		return fmt.Errorf("%w: absolute urls are not accepted", ErrInvalidKey)
	case strings.HasPrefix(key, "/"):
		return fmt.Errorf("%w: leading slash", ErrInvalidKey)
	}

	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: parent segment", ErrInvalidKey)
		}
	}

	if ownerPrefix && !strings.HasPrefix(key, userID+"/") {
		return fmt.Errorf("%w: outside the owner's folder", ErrInvalidKey)
	}
	return nil
}

// NormalizeMime lowercases mimeType and strips its parameters.
func NormalizeMime(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
