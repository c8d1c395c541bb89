package documents

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/trackerzenith/docpipe/pkg/query"
	"github.com/trackerzenith/docpipe/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("file_path", "FilePath").
	Project("original_filename", "OriginalFilename").
	Project("file_size", "FileSize").
	Project("mime_type", "MimeType").
	Project("status", "Status").
	Project("raw_markdown_output", "RawMarkdownOutput").
	Project("document_type", "DocumentType").
	Project("vendor_name", "VendorName").
	Project("transaction_date", "TransactionDate").
	Project("total_amount", "TotalAmount").
	Project("currency", "Currency").
	Project("transaction_type", "TransactionType").
	Project("suggested_category_id", "SuggestedCategoryID").
	Project("suggested_category_type", "SuggestedCategoryType").
	Project("suggested_payment_method_id", "SuggestedPaymentMethodID").
	Project("ai_confidence_score", "AIConfidenceScore").
	Project("processing_error", "ProcessingError").
	Project("signature", "Signature").
	Project("created_expense_id", "CreatedExpenseID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows document views. Nil fields are ignored. Status, UserID and
// MimeType match exactly, Vendor as a case-insensitive substring. Date and
// total bounds are inclusive; dates are YYYY-MM-DD.
type Filters struct {
	Status   *Status  `json:"status,omitempty"`
	UserID   *string  `json:"user_id,omitempty"`
	MimeType *string  `json:"mime_type,omitempty"`
	Vendor   *string  `json:"vendor,omitempty"`
	DateFrom *string  `json:"date_from,omitempty"`
	DateTo   *string  `json:"date_to,omitempty"`
	MinTotal *float64 `json:"min_total,omitempty"`
	MaxTotal *float64 `json:"max_total,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("UserID", f.UserID).
		WhereEquals("MimeType", f.MimeType).
		WhereContains("VendorName", f.Vendor).
		WhereRange("TransactionDate", f.DateFrom, f.DateTo).
		WhereRange("TotalAmount", f.MinTotal, f.MaxTotal)
}

// Validate rejects unknown statuses, malformed dates and inverted ranges.
func (f Filters) Validate() error {
	if f.Status != nil && !f.Status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, *f.Status)
	}
	for name, d := range map[string]*string{"date_from": f.DateFrom, "date_to": f.DateTo} {
		if d == nil {
			continue
		}
		if _, err := time.Parse(time.DateOnly, *d); err != nil {
			return fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidFilter, name)
		}
	}
	if f.DateFrom != nil && f.DateTo != nil && *f.DateFrom > *f.DateTo {
		return fmt.Errorf("%w: date_from is after date_to", ErrInvalidFilter)
	}
	if f.MinTotal != nil && f.MaxTotal != nil && *f.MinTotal > *f.MaxTotal {
		return fmt.Errorf("%w: min_total is above max_total", ErrInvalidFilter)
	}
	return nil
}

// FiltersFromQuery reads filters from a query string. Unknown statuses,
// malformed dates and non-numeric totals are dropped.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := Status(values.Get("status")); s.Valid() {
		f.Status = &s
	}

	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}

	if m := values.Get("mime_type"); m != "" {
		f.MimeType = &m
	}

	if v := values.Get("vendor"); v != "" {
		f.Vendor = &v
	}

	f.DateFrom = dateParam(values, "date_from")
	f.DateTo = dateParam(values, "date_to")
	f.MinTotal = floatParam(values, "min_total")
	f.MaxTotal = floatParam(values, "max_total")

	return f
}

func dateParam(values url.Values, key string) *string {
	v := values.Get(key)
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return nil
	}
	return &v
}

func floatParam(values url.Values, key string) *float64 {
	n, err := strconv.ParseFloat(values.Get(key), 64)
	if err != nil {
		return nil
	}
	return &n
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.UserID,
		&d.FilePath,
		&d.OriginalFilename,
		&d.FileSize,
		&d.MimeType,
		&d.Status,
		&d.RawMarkdownOutput,
		&d.DocumentType,
		&d.VendorName,
		&d.TransactionDate,
		&d.TotalAmount,
		&d.Currency,
		&d.TransactionType,
		&d.SuggestedCategoryID,
		&d.SuggestedCategoryType,
		&d.SuggestedPaymentMethodID,
		&d.AIConfidenceScore,
		&d.ProcessingError,
		&d.Signature,
		&d.CreatedExpenseID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
