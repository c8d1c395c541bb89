// Package parse turns extracted receipt text into structured fields with
// per-field confidences using a JSON-mode language model.
package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trackerzenith/docpipe/internal/catalog"
	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/pkg/formatting"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/llm"
	"github.com/trackerzenith/docpipe/pkg/pdftext"
)

// Model call settings.
const (
	Temperature = 0.1
	MaxTokens   = 2000
)

// Request carries the text to parse. Option lists left empty are loaded
// for the document owner.
type Request struct {
	DocumentID     int64                   `json:"document_id"`
	RawText        string                  `json:"raw_text"`
	Categories     []catalog.Category      `json:"categories,omitempty"`
	PaymentMethods []catalog.PaymentMethod `json:"payment_methods,omitempty"`
}

// Response is the structured draft of one receipt.
type Response struct {
	DocumentID            int64      `json:"document_id"`
	Fields                Fields     `json:"fields"`
	Items                 []LineItem `json:"items"`
	Notes                 *string    `json:"notes"`
	Inconsistencies       []string   `json:"inconsistencies"`
	Signature             string     `json:"signature"`
	ParserModel           string     `json:"parser_model"`
	SuggestedCategoryType *string    `json:"suggested_category_type,omitempty"`
}

type output struct {
	Fields
	Items []LineItem `json:"items"`
	Notes *string    `json:"notes"`
}

// Documents is the subset of the document system the parser needs.
type Documents interface {
	Find(ctx context.Context, id int64) (*documents.Document, error)
	Update(ctx context.Context, id int64, u documents.Update) (*documents.Document, error)
}

// Config holds the parser settings.
type Config struct {
	MinChars        int
	Timeout         time.Duration
	DefaultCurrency string
	TotalsTolerance float64
}

// System defines the parser contract.
type System interface {
	Handler() *Handler
	Parse(ctx context.Context, req Request) (*Response, error)
}

type parser struct {
	docs    Documents
	catalog catalog.System
	client  llm.Client
	prompts prompts.Source
	cfg     Config
	logger  *slog.Logger
}

// New creates the parser. A nil client fails every request with ErrParse.
func New(
	docs Documents,
	options catalog.System,
	client llm.Client,
	source prompts.Source,
	cfg Config,
	logger *slog.Logger,
) System {
	return &parser{
		docs:    docs,
		catalog: options,
		client:  client,
		prompts: source,
		cfg:     cfg,
		logger:  logger.With("system", "parse"),
	}
}

func (p *parser) Handler() *Handler {
	return NewHandler(p, p.logger)
}

func (p *parser) Parse(ctx context.Context, req Request) (*Response, error) {
	if req.DocumentID <= 0 {
		return nil, fmt.Errorf("%w: document_id must be positive", handlers.ErrInvalidRequest)
	}
	if n := pdftext.Chars(req.RawText); n < p.cfg.MinChars {
		return nil, fmt.Errorf("%w: %d characters, need %d", ErrTextTooShort, n, p.cfg.MinChars)
	}

	doc, err := p.docs.Find(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := documents.Authorize(ctx, doc); err != nil {
		return nil, err
	}

	opts, err := p.options(ctx, doc.UserID, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.parse(ctx, opts, req.RawText)
	if err != nil {
		if _, uerr := p.docs.Update(ctx, doc.ID, documents.Failure(doc.Status, err)); uerr != nil {
			p.logger.Error("record parse failure", "document_id", doc.ID, "error", uerr)
		}
		return nil, err
	}
	resp.DocumentID = doc.ID

	p.logger.Info("document parsed",
		"document_id", doc.ID,
		"model", resp.ParserModel,
		"items", len(resp.Items),
		"inconsistencies", len(resp.Inconsistencies),
	)

	return resp, nil
}

// options merges request-supplied lists with the owner's catalog.
func (p *parser) options(ctx context.Context, userID string, req Request) (*catalog.Options, error) {
	opts := &catalog.Options{Categories: req.Categories, PaymentMethods: req.PaymentMethods}
	if len(opts.Categories) > 0 && len(opts.PaymentMethods) > 0 {
		return opts, nil
	}

	stored, err := p.catalog.Options(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	if len(opts.Categories) == 0 {
		opts.Categories = stored.Categories
	}
	if len(opts.PaymentMethods) == 0 {
		opts.PaymentMethods = stored.PaymentMethods
	}
	return opts, nil
}

func (p *parser) parse(ctx context.Context, opts *catalog.Options, rawText string) (*Response, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: no parser model configured", ErrParse)
	}

	system, err := prompts.Resolve(ctx, p.prompts, prompts.StageParse, p.logger)
	if err != nil {
		return nil, err
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	completion, err := p.client.Complete(ctx, llm.Request{
		System:      system,
		Prompt:      userPrompt(opts, p.cfg.DefaultCurrency, rawText),
		JSON:        true,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	raw, err := formatting.Parse[json.RawMessage](completion.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := validateOutput(opts, raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	model := completion.Model
	if model == "" {
		model = p.client.Model()
	}

	return p.build(opts, out, model), nil
}

// build applies defaults and derives the signature and inconsistencies.
func (p *parser) build(opts *catalog.Options, out output, model string) *Response {
	f := out.Fields
	normalizeConfidences(&f)

	if f.Currency.Value == nil || strings.TrimSpace(*f.Currency.Value) == "" {
		currency := p.cfg.DefaultCurrency
		f.Currency = Field[string]{Value: &currency}
	} else {
		currency := strings.ToUpper(strings.TrimSpace(*f.Currency.Value))
		f.Currency.Value = &currency
	}

	if !f.TransactionType.Present() {
		typ := TypeExpense
		f.TransactionType.Value = &typ
	}

	items := make([]LineItem, 0, len(out.Items))
	for _, item := range out.Items {
		if item.Qty == 0 {
			item.Qty = 1
		}
		item.Confidence = clamp(item.Confidence)
		items = append(items, item)
	}

	resp := &Response{
		Fields:          f,
		Items:           items,
		Notes:           out.Notes,
		Inconsistencies: inconsistencies(f, p.cfg.TotalsTolerance),
		Signature:       Signature(f.Merchant.Value, f.Date.Value, f.Total.Value),
		ParserModel:     model,
	}

	if id := f.SuggestedCategoryID.Value; id != nil {
		if c, ok := opts.Category(int64(*id)); ok {
			resp.SuggestedCategoryType = &c.Type
		}
	}

	return resp
}

func inconsistencies(f Fields, tolerance float64) []string {
	out := []string{}
	if expected, bad := TotalsMismatch(f.Subtotal.Value, f.Tax.Value, f.Total.Value, tolerance); bad {
		out = append(out, fmt.Sprintf(
			"subtotal plus tax is %s but total is %s",
			expected.StringFixed(2),
			Amount(f.Total.Value).StringFixed(2),
		))
	}
	return out
}

func normalizeConfidences(f *Fields) {
	f.Merchant.Confidence = clamp(f.Merchant.Confidence)
	f.Date.Confidence = clamp(f.Date.Confidence)
	f.Total.Confidence = clamp(f.Total.Confidence)
	f.Subtotal.Confidence = clamp(f.Subtotal.Confidence)
	f.Tax.Confidence = clamp(f.Tax.Confidence)
	f.Currency.Confidence = clamp(f.Currency.Confidence)
	f.TransactionType.Confidence = clamp(f.TransactionType.Confidence)
	f.SuggestedCategoryID.Confidence = clamp(f.SuggestedCategoryID.Confidence)
	f.SuggestedPaymentMethodID.Confidence = clamp(f.SuggestedPaymentMethodID.Confidence)
	f.PaymentMethod.Confidence = clamp(f.PaymentMethod.Confidence)
}
