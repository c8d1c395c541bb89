// Package documents implements the document domain for docpipe.
// It provides read access to uploaded receipt and invoice records and the
// single write path through which pipeline stages advance their status.
package documents

import (
	"context"
	"time"

	"github.com/trackerzenith/docpipe/pkg/auth"
)

// Document is one uploaded file and its processing state.
type Document struct {
	ID               int64  `json:"id"`
	UserID           string `json:"user_id"`
	FilePath         string `json:"file_path"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
	Status           Status `json:"status"`

	RawMarkdownOutput        *string    `json:"raw_markdown_output"`
	DocumentType             *string    `json:"document_type"`
	VendorName               *string    `json:"vendor_name"`
	TransactionDate          *time.Time `json:"transaction_date"`
	TotalAmount              *float64   `json:"total_amount"`
	Currency                 *string    `json:"currency"`
	TransactionType          *string    `json:"transaction_type"`
	SuggestedCategoryID      *int64     `json:"suggested_category_id"`
	SuggestedCategoryType    *string    `json:"suggested_category_type"`
	SuggestedPaymentMethodID *int64     `json:"suggested_payment_method_id"`
	AIConfidenceScore        *float64   `json:"ai_confidence_score"`
	ProcessingError          *string    `json:"processing_error"`
	Signature                *string    `json:"signature"`
	CreatedExpenseID         *int64     `json:"created_expense_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update is a status change plus the columns that accompany it.
// Nil fields leave the stored column unchanged.
type Update struct {
	Status Status

	RawMarkdownOutput        *string
	DocumentType             *string
	VendorName               *string
	TransactionDate          *string
	TotalAmount              *float64
	Currency                 *string
	TransactionType          *string
	SuggestedCategoryID      *int64
	SuggestedCategoryType    *string
	SuggestedPaymentMethodID *int64
	AIConfidenceScore        *float64
	ProcessingError          *string
	Signature                *string
}

// Failure builds the update that records a processing error.
func Failure(status Status, err error) Update {
	msg := err.Error()
	return Update{Status: status, ProcessingError: &msg}
}

// OwnedBy reports whether userID owns the document.
func (d *Document) OwnedBy(userID string) bool {
	return d.UserID == userID
}

// Authorize rejects access to doc when the request carries claims for a
// different user. Requests without claims run with auth disabled.
func Authorize(ctx context.Context, doc *Document) error {
	claims, ok := auth.FromContext(ctx)
	if !ok || doc.OwnedBy(claims.Subject) {
		return nil
	}
	return ErrForbidden
}

// Scope restricts f to the authenticated user's documents.
func Scope(ctx context.Context, f Filters) Filters {
	if claims, ok := auth.FromContext(ctx); ok {
		f.UserID = &claims.Subject
	}
	return f
}
