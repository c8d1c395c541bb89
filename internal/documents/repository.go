package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/trackerzenith/docpipe/pkg/events"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/query"
	"github.com/trackerzenith/docpipe/pkg/repository"
)

// StatusProcedure is the stored function every status update goes through.
const StatusProcedure = "update_document_processing_status"

type repo struct {
	db         *sql.DB
	events     events.Publisher
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	publisher events.Publisher,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		events:     publisher,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)
	page.Apply(qb, "OriginalFilename", "VendorName")

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &d, nil
}

func (r *repo) Update(ctx context.Context, id int64, u Update) (*Document, error) {
	var previous Status

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		lockSQL, lockArgs := query.NewBuilder(projection).BuildLocked("ID", id)
		current, err := repository.QueryOne(ctx, tx, lockSQL, lockArgs, scanDocument)
		if err != nil {
			return Document{}, repository.MapError(err, ErrNotFound, ErrNotFound)
		}
		previous = current.Status

		status, err := Resolve(current.Status, u.Status)
		if err != nil {
			return Document{}, err
		}

		if err := repository.Call(ctx, tx, StatusProcedure, u.Params(id, status)...); err != nil {
			return Document{}, repository.MapError(err, ErrNotFound, ErrNotFound)
		}

		findSQL, findArgs := query.NewBuilder(projection).BuildSingle("ID", id)
		return repository.QueryOne(ctx, tx, findSQL, findArgs, scanDocument)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"document updated",
		"document_id", id,
		"requested", u.Status,
		"from", previous,
		"to", d.Status,
	)

	if d.Status != previous {
		r.publish(ctx, &d, previous)
	}

	return &d, nil
}

func (r *repo) CountSignature(ctx context.Context, signature string, excludeID int64) (int, error) {
	q, args := query.NewBuilder(projection).
		WhereEquals("Signature", signature).
		WhereNotEquals("ID", excludeID).
		WhereNotEquals("Status", StatusFailed).
		BuildCount()

	n, err := repository.Count(ctx, r.db, q, args)
	if err != nil {
		return 0, fmt.Errorf("count signature: %w", err)
	}
	return n, nil
}

func (r *repo) publish(ctx context.Context, d *Document, previous Status) {
	err := r.events.Publish(ctx, events.Event{
		Type:    events.TypeStatusChanged,
		Subject: fmt.Sprintf("documents/%d", d.ID),
		Data: map[string]any{
			"document_id": d.ID,
			"user_id":     d.UserID,
			"from":        previous,
			"to":          d.Status,
		},
	})
	if err != nil {
		r.logger.Warn("status event not delivered", "document_id", d.ID, "error", err)
	}
}

// Params returns the named procedure arguments for applying u to document id
// with the resolved status. Nil fields are omitted so the procedure keeps
// the stored values.
func (u Update) Params(id int64, status Status) []query.Param {
	params := []query.Param{
		{Name: "p_document_id", Value: id},
		{Name: "p_status", Value: string(status)},
	}

	optional := []struct {
		name  string
		value any
		set   bool
	}{
		{"p_raw_markdown_output", u.RawMarkdownOutput, u.RawMarkdownOutput != nil},
		{"p_document_type", u.DocumentType, u.DocumentType != nil},
		{"p_vendor_name", u.VendorName, u.VendorName != nil},
		{"p_transaction_date", u.TransactionDate, u.TransactionDate != nil},
		{"p_total_amount", u.TotalAmount, u.TotalAmount != nil},
		{"p_currency", u.Currency, u.Currency != nil},
		{"p_transaction_type", u.TransactionType, u.TransactionType != nil},
		{"p_suggested_category_id", u.SuggestedCategoryID, u.SuggestedCategoryID != nil},
		{"p_suggested_category_type", u.SuggestedCategoryType, u.SuggestedCategoryType != nil},
		{"p_suggested_payment_method_id", u.SuggestedPaymentMethodID, u.SuggestedPaymentMethodID != nil},
		{"p_ai_confidence_score", u.AIConfidenceScore, u.AIConfidenceScore != nil},
		{"p_processing_error", u.ProcessingError, u.ProcessingError != nil},
		{"p_signature", u.Signature, u.Signature != nil},
	}

	for _, o := range optional {
		if o.set {
			params = append(params, query.Param{Name: o.name, Value: o.value})
		}
	}

	return params
}
