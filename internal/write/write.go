// Package write persists approved drafts onto the document row. It moves
// the document to parsed and never creates the ledger transaction itself.
package write

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/validate"
	"github.com/trackerzenith/docpipe/pkg/handlers"
)

// Request carries the normalized draft produced by the validator.
type Request struct {
	DocumentID     int64               `json:"document_id"`
	NormalizedJSON validate.Normalized `json:"normalized_json"`
	Force          bool                `json:"force,omitempty"`
}

// Response reports the status the document was moved to.
type Response struct {
	DocumentID int64            `json:"document_id"`
	Status     documents.Status `json:"status"`
}

// Documents is the document access the writer needs.
type Documents interface {
	Find(ctx context.Context, id int64) (*documents.Document, error)
	Update(ctx context.Context, id int64, u documents.Update) (*documents.Document, error)
}

// System defines the writer contract.
type System interface {
	Handler() *Handler
	Write(ctx context.Context, req Request) (*Response, error)
}

type writer struct {
	docs   Documents
	logger *slog.Logger
}

func New(docs Documents, logger *slog.Logger) System {
	return &writer{
		docs:   docs,
		logger: logger.With("system", "write"),
	}
}

func (w *writer) Handler() *Handler {
	return NewHandler(w, w.logger)
}

func (w *writer) Write(ctx context.Context, req Request) (*Response, error) {
	if req.DocumentID <= 0 {
		return nil, fmt.Errorf("%w: document_id must be positive", handlers.ErrInvalidRequest)
	}
	n := req.NormalizedJSON
	if n.DocumentID != 0 && n.DocumentID != req.DocumentID {
		return nil, fmt.Errorf("%w: draft belongs to document %d", handlers.ErrInvalidRequest, n.DocumentID)
	}
	if n.ValidationStatus != validate.StatusApproved && !req.Force {
		return nil, fmt.Errorf("%w: validation status is %q", ErrNotApproved, n.ValidationStatus)
	}

	doc, err := w.docs.Find(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := documents.Authorize(ctx, doc); err != nil {
		return nil, err
	}

	doc, err = w.docs.Update(ctx, doc.ID, update(n))
	if err != nil {
		if documents.MapHTTPStatus(err) != http.StatusInternalServerError {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	w.logger.Info("draft written",
		"document_id", doc.ID,
		"status", doc.Status,
		"forced", req.Force && n.ValidationStatus != validate.StatusApproved,
	)

	return &Response{DocumentID: doc.ID, Status: documents.StatusParsed}, nil
}

func update(n validate.Normalized) documents.Update {
	u := documents.Update{
		Status:                   documents.StatusParsed,
		VendorName:               n.Merchant,
		TransactionDate:          n.Date,
		TotalAmount:              n.Total,
		SuggestedCategoryID:      n.SuggestedCategoryID,
		SuggestedCategoryType:    n.SuggestedCategoryType,
		SuggestedPaymentMethodID: n.SuggestedPaymentMethodID,
	}
	if n.Currency != "" {
		u.Currency = &n.Currency
	}
	if n.TransactionType != "" {
		u.TransactionType = &n.TransactionType
	}
	if n.Signature != "" {
		u.Signature = &n.Signature
	}
	confidence := n.Confidence
	u.AIConfidenceScore = &confidence
	return u
}
