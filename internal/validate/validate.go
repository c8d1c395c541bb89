// Package validate applies deterministic business rules to a parsed draft
// and derives whether it can be written without review.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/parse"
	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/llm"
)

// Request carries the draft to validate, possibly edited by a user.
type Request struct {
	DocumentID int64          `json:"document_id"`
	Draft      parse.Response `json:"draft"`
}

// Documents is the document access the validator needs: an ownership
// lookup and the count of live documents sharing a signature.
type Documents interface {
	Find(ctx context.Context, id int64) (*documents.Document, error)
	CountSignature(ctx context.Context, signature string, excludeID int64) (int, error)
}

// Config holds the rule thresholds.
type Config struct {
	Currencies         []string
	DefaultCurrency    string
	MaxTotal           float64
	TotalsTolerance    float64
	MaxAgeYears        int
	StrictDuplicates   bool
	ApprovalThreshold  float64
	EnableCoherence    bool
	CoherenceThreshold float64
	CoherenceTimeout   time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// System defines the validator contract.
type System interface {
	Handler() *Handler
	Validate(ctx context.Context, req Request) (*Verdict, error)
}

type validator struct {
	docs       Documents
	coherence  llm.Client
	prompts    prompts.Source
	cfg        Config
	logger     *slog.Logger
}

// New creates the validator. The coherence client may be nil; it is only
// consulted when cfg.EnableCoherence is set.
func New(
	docs Documents,
	coherence llm.Client,
	source prompts.Source,
	cfg Config,
	logger *slog.Logger,
) System {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &validator{
		docs:       docs,
		coherence:  coherence,
		prompts:    source,
		cfg:        cfg,
		logger:     logger.With("system", "validate"),
	}
}

func (v *validator) Handler() *Handler {
	return NewHandler(v, v.logger)
}

func (v *validator) Validate(ctx context.Context, req Request) (*Verdict, error) {
	if req.DocumentID <= 0 {
		return nil, fmt.Errorf("%w: document_id must be positive", handlers.ErrInvalidRequest)
	}
	if req.Draft.DocumentID != 0 && req.Draft.DocumentID != req.DocumentID {
		return nil, fmt.Errorf("%w: draft belongs to document %d", handlers.ErrInvalidRequest, req.Draft.DocumentID)
	}

	doc, err := v.docs.Find(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := documents.Authorize(ctx, doc); err != nil {
		return nil, err
	}

	draft := req.Draft
	f := draft.Fields
	signature := parse.Signature(f.Merchant.Value, f.Date.Value, f.Total.Value)

	duplicates, err := v.docs.CountSignature(ctx, signature, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}

	currency := v.cfg.DefaultCurrency
	if f.Currency.Value != nil && strings.TrimSpace(*f.Currency.Value) != "" {
		currency = strings.ToUpper(strings.TrimSpace(*f.Currency.Value))
	}

	confidence := Confidence(f)
	c := v.hardRules(f, draft.Items, currency, duplicates)
	if confidence < v.cfg.ApprovalThreshold {
		c.fail(CodeLowConfidence, "overall confidence %.2f is below %.2f", confidence, v.cfg.ApprovalThreshold)
	}
	status := derive(c)

	normalized := normalize(req.DocumentID, draft, currency, signature)
	normalized.Confidence = confidence

	if status == StatusApproved && v.cfg.EnableCoherence && confidence < v.cfg.CoherenceThreshold {
		if reason, incoherent := v.checkCoherence(ctx, normalized); incoherent {
			status = StatusNeedsReview
			c.fail(CodeIncoherent, "%s", reason)
		}
	}
	normalized.ValidationStatus = status

	reasons := c.reasons
	if reasons == nil {
		reasons = []Reason{}
	}

	v.logger.Info("draft validated",
		"document_id", req.DocumentID,
		"status", status,
		"confidence", confidence,
		"reasons", len(reasons),
	)

	return &Verdict{
		DocumentID: req.DocumentID,
		Status:     status,
		Reasons:    reasons,
		Confidence: confidence,
		Badges: map[string]string{
			"status":     statusBadge(status),
			"confidence": confidenceBadge(confidence),
		},
		NormalizedJSON: normalized,
	}, nil
}

func normalize(documentID int64, draft parse.Response, currency, signature string) Normalized {
	f := draft.Fields

	transactionType := parse.TypeExpense
	if f.TransactionType.Value != nil && *f.TransactionType.Value != "" {
		transactionType = *f.TransactionType.Value
	}

	items := draft.Items
	if items == nil {
		items = []parse.LineItem{}
	}

	return Normalized{
		DocumentID:               documentID,
		Merchant:                 trimmed(f.Merchant.Value),
		Date:                     trimmed(f.Date.Value),
		Total:                    f.Total.Value,
		Subtotal:                 f.Subtotal.Value,
		Tax:                      f.Tax.Value,
		Currency:                 currency,
		TransactionType:          transactionType,
		SuggestedCategoryID:      optionID(f.SuggestedCategoryID.Value),
		SuggestedCategoryType:    draft.SuggestedCategoryType,
		SuggestedPaymentMethodID: optionID(f.SuggestedPaymentMethodID.Value),
		PaymentMethod:            f.PaymentMethod.Value,
		Items:                    items,
		Signature:                signature,
		ParserModel:              draft.ParserModel,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func optionID(id *parse.OptionID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}
