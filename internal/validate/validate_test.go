package validate_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/documents/documentstest"
	"github.com/trackerzenith/docpipe/internal/parse"
	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/internal/validate"
	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/events"
	"github.com/trackerzenith/docpipe/pkg/llm"
	"github.com/trackerzenith/docpipe/pkg/llm/llmtest"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

var today = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func config() validate.Config {
	return validate.Config{
		Currencies:         []string{"MYR", "USD", "SGD"},
		DefaultCurrency:    "MYR",
		MaxTotal:           100000,
		TotalsTolerance:    0.01,
		MaxAgeYears:        5,
		ApprovalThreshold:  0.7,
		CoherenceThreshold: 0.85,
		CoherenceTimeout:   time.Second,
		Now:                func() time.Time { return today },
	}
}

func setup(t *testing.T, cfg validate.Config, coherence llm.Client, seed ...documents.Document) validate.System {
	t.Helper()

	if len(seed) == 0 {
		seed = []documents.Document{{ID: 1, UserID: "user-1", Status: documents.StatusOCRCompleted}}
	}
	store := documentstest.New(seed...)
	db := store.DB()
	t.Cleanup(func() { db.Close() })

	docs := documents.New(db, events.Noop{}, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	return validate.New(docs, coherence, prompts.Defaults{}, cfg, discard())
}

// draft builds a clean Starbucks draft with every confidence set to conf.
func draft(conf float64) parse.Response {
	return parse.Response{
		DocumentID: 1,
		Fields: parse.Fields{
			Merchant:        parse.Field[string]{Value: ptr("Starbucks"), Confidence: conf},
			Date:            parse.Field[string]{Value: ptr("2026-10-01"), Confidence: conf},
			Total:           parse.Field[float64]{Value: ptr(12.5), Confidence: conf},
			Subtotal:        parse.Field[float64]{Value: ptr(12.5), Confidence: conf},
			Currency:        parse.Field[string]{Value: ptr("myr"), Confidence: conf},
			TransactionType: parse.Field[string]{Value: ptr(parse.TypeExpense), Confidence: conf},
		},
		Items: []parse.LineItem{
			{Name: "Caffe Latte", Qty: 1, UnitPrice: ptr(12.5), Amount: ptr(12.5), Confidence: conf},
		},
		ParserModel: "gpt-4o-mini",
	}
}

func codes(v *validate.Verdict) []validate.Code {
	out := make([]validate.Code, len(v.Reasons))
	for i, r := range v.Reasons {
		out[i] = r.Code
	}
	return out
}

func TestValidateStatuses(t *testing.T) {
	sys := setup(t, config(), nil)

	tests := []struct {
		name       string
		draft      func() parse.Response
		wantStatus validate.Status
		wantCodes  []validate.Code
	}{
		{
			name:       "clean draft is approved",
			draft:      func() parse.Response { return draft(0.85) },
			wantStatus: validate.StatusApproved,
			wantCodes:  []validate.Code{},
		},
		{
			name:       "low confidence needs review",
			draft:      func() parse.Response { return draft(0.5) },
			wantStatus: validate.StatusNeedsReview,
			wantCodes:  []validate.Code{validate.CodeLowConfidence},
		},
		{
			name: "negative total is rejected",
			draft: func() parse.Response {
				d := draft(0.9)
				d.Fields.Total.Value = ptr(-5.0)
				d.Fields.Subtotal.Value = nil
				d.Items = nil
				return d
			},
			wantStatus: validate.StatusRejected,
			wantCodes:  []validate.Code{validate.CodeInvalidTotal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: tt.draft()})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if v.Status != tt.wantStatus {
				t.Errorf("status: got %s, want %s (%v)", v.Status, tt.wantStatus, v.Reasons)
			}
			if got := codes(v); !reflect.DeepEqual(got, tt.wantCodes) {
				t.Errorf("codes: got %v, want %v", got, tt.wantCodes)
			}
			if v.NormalizedJSON.ValidationStatus != v.Status {
				t.Errorf("normalized status: got %s", v.NormalizedJSON.ValidationStatus)
			}
		})
	}
}

func TestValidateRules(t *testing.T) {
	sys := setup(t, config(), nil)

	tests := []struct {
		name  string
		edit  func(d *parse.Response)
		want  validate.Code
		wantS validate.Status
	}{
		{"missing merchant", func(d *parse.Response) { d.Fields.Merchant.Value = nil }, validate.CodeMissingField, validate.StatusNeedsReview},
		{"blank merchant", func(d *parse.Response) { d.Fields.Merchant.Value = ptr("  ") }, validate.CodeEmptyField, validate.StatusNeedsReview},
		{"missing date", func(d *parse.Response) { d.Fields.Date.Value = nil }, validate.CodeMissingField, validate.StatusNeedsReview},
		{"bad date format", func(d *parse.Response) { d.Fields.Date.Value = ptr("01/10/2026") }, validate.CodeInvalidDateFormat, validate.StatusNeedsReview},
		{"future date", func(d *parse.Response) { d.Fields.Date.Value = ptr("2026-10-16") }, validate.CodeFutureDate, validate.StatusNeedsReview},
		{"old date", func(d *parse.Response) { d.Fields.Date.Value = ptr("2021-10-14") }, validate.CodeDateTooOld, validate.StatusNeedsReview},
		{"zero total", func(d *parse.Response) { d.Fields.Total.Value = ptr(0.0); d.Fields.Subtotal.Value = nil }, validate.CodeInvalidTotal, validate.StatusRejected},
		{"total too high", func(d *parse.Response) { d.Fields.Total.Value = ptr(100000.0); d.Fields.Subtotal.Value = nil }, validate.CodeTotalTooHigh, validate.StatusNeedsReview},
		{"math error", func(d *parse.Response) {
			d.Fields.Subtotal.Value = ptr(10.0)
			d.Fields.Tax.Value = ptr(1.0)
			d.Items = nil
		}, validate.CodeMathError, validate.StatusNeedsReview},
		{"items mismatch", func(d *parse.Response) { d.Items[0].Amount = ptr(9.0) }, validate.CodeItemsMismatch, validate.StatusNeedsReview},
		{"unsupported currency", func(d *parse.Response) { d.Fields.Currency.Value = ptr("btc") }, validate.CodeUnsupportedCurrency, validate.StatusNeedsReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft(0.9)
			tt.edit(&d)

			v, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: d})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			got := codes(v)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("codes: got %v, want [%s]", got, tt.want)
			}
			if v.Status != tt.wantS {
				t.Errorf("status: got %s, want %s", v.Status, tt.wantS)
			}
		})
	}
}

func TestValidateBoundaries(t *testing.T) {
	sys := setup(t, config(), nil)

	tests := []struct {
		name string
		edit func(d *parse.Response)
	}{
		{"date is today", func(d *parse.Response) { d.Fields.Date.Value = ptr("2026-10-15") }},
		{"date exactly max age", func(d *parse.Response) { d.Fields.Date.Value = ptr("2021-10-15") }},
		{"totals within tolerance", func(d *parse.Response) {
			d.Fields.Subtotal.Value = ptr(11.5)
			d.Fields.Tax.Value = ptr(0.99)
			d.Fields.Total.Value = ptr(12.5)
			d.Items = nil
		}},
		{"decimal sums are exact", func(d *parse.Response) {
			d.Fields.Subtotal.Value = ptr(0.3)
			d.Fields.Total.Value = ptr(0.3)
			d.Items = []parse.LineItem{
				{Name: "a", Qty: 1, Amount: ptr(0.1)},
				{Name: "b", Qty: 1, Amount: ptr(0.2)},
			}
		}},
		{"items priced by quantity", func(d *parse.Response) {
			d.Items = []parse.LineItem{{Name: "Latte", Qty: 2, UnitPrice: ptr(6.25)}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft(0.9)
			tt.edit(&d)

			v, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: d})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if v.Status != validate.StatusApproved {
				t.Errorf("status: got %s, reasons %v", v.Status, v.Reasons)
			}
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	sys := setup(t, config(), nil)
	d := draft(0.5)
	d.Fields.Date.Value = ptr("2026-12-01")

	first, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: d})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	second, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: d})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("verdicts differ:\n%+v\n%+v", first, second)
	}
}

func TestValidateDuplicates(t *testing.T) {
	sig := parse.Signature(ptr("Starbucks"), ptr("2026-10-01"), ptr(12.5))
	seed := []documents.Document{
		{ID: 1, UserID: "user-1", Status: documents.StatusOCRCompleted},
		{ID: 2, UserID: "user-1", Status: documents.StatusParsed, Signature: &sig},
		{ID: 3, UserID: "user-1", Status: documents.StatusFailed, Signature: &sig},
	}

	tests := []struct {
		name       string
		strict     bool
		documentID int64
		wantStatus validate.Status
		wantCodes  []validate.Code
	}{
		{"lenient", false, 1, validate.StatusNeedsReview, []validate.Code{validate.CodePossibleDuplicate}},
		{"strict", true, 1, validate.StatusRejected, []validate.Code{validate.CodePossibleDuplicate}},
		{"own signature ignored", true, 2, validate.StatusApproved, []validate.Code{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config()
			cfg.StrictDuplicates = tt.strict
			sys := setup(t, cfg, nil, seed...)

			d := draft(0.9)
			d.DocumentID = 0
			v, err := sys.Validate(context.Background(), validate.Request{DocumentID: tt.documentID, Draft: d})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if v.Status != tt.wantStatus {
				t.Errorf("status: got %s, want %s", v.Status, tt.wantStatus)
			}
			if got := codes(v); !reflect.DeepEqual(got, tt.wantCodes) {
				t.Errorf("codes: got %v, want %v", got, tt.wantCodes)
			}
		})
	}
}

func TestValidateCoherence(t *testing.T) {
	tests := []struct {
		name       string
		client     *llmtest.Client
		conf       float64
		wantStatus validate.Status
		wantCalls  int
	}{
		{"incoherent downgrades", llmtest.Reply("coherence", `{"coherent": false, "reason": "fuel bought at a cafe"}`), 0.8, validate.StatusNeedsReview, 1},
		{"coherent keeps approval", llmtest.Reply("coherence", `{"coherent": true, "reason": ""}`), 0.8, validate.StatusApproved, 1},
		{"provider error is ignored", llmtest.Fail("coherence", errors.New("unavailable")), 0.8, validate.StatusApproved, 1},
		{"garbage is ignored", llmtest.Reply("coherence", "no idea"), 0.8, validate.StatusApproved, 1},
		{"confident drafts skip the check", llmtest.Reply("coherence", `{"coherent": false}`), 0.97, validate.StatusApproved, 0},
		{"needs review never upgrades", llmtest.Reply("coherence", `{"coherent": true}`), 0.5, validate.StatusNeedsReview, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config()
			cfg.EnableCoherence = true
			cfg.CoherenceThreshold = 0.95
			sys := setup(t, cfg, tt.client)

			v, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: draft(tt.conf)})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if v.Status != tt.wantStatus {
				t.Errorf("status: got %s, want %s", v.Status, tt.wantStatus)
			}
			if got := tt.client.Calls(); got != tt.wantCalls {
				t.Errorf("coherence calls: got %d, want %d", got, tt.wantCalls)
			}
		})
	}

	t.Run("reason is reported", func(t *testing.T) {
		cfg := config()
		cfg.EnableCoherence = true
		cfg.CoherenceThreshold = 0.95
		client := llmtest.Reply("coherence", `{"coherent": false, "reason": "fuel bought at a cafe"}`)
		sys := setup(t, cfg, client)

		v, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: draft(0.8)})
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if len(v.Reasons) != 1 || v.Reasons[0].Code != validate.CodeIncoherent || v.Reasons[0].Msg != "fuel bought at a cafe" {
			t.Errorf("reasons: got %v", v.Reasons)
		}
		if !strings.Contains(client.Requests()[0].Prompt, `"merchant": "Starbucks"`) {
			t.Error("coherence prompt should carry the normalized draft")
		}
	})
}

func TestValidateNormalized(t *testing.T) {
	sys := setup(t, config(), nil)
	d := draft(0.95)
	d.Fields.Merchant.Value = ptr("  Starbucks ")
	d.Fields.Currency.Value = nil
	d.Fields.SuggestedCategoryID = parse.Field[parse.OptionID]{Value: ptr(parse.OptionID(3)), Confidence: 0.8}
	d.SuggestedCategoryType = ptr("expense")

	v, err := sys.Validate(context.Background(), validate.Request{DocumentID: 1, Draft: d})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	n := v.NormalizedJSON
	if *n.Merchant != "Starbucks" {
		t.Errorf("merchant: got %q", *n.Merchant)
	}
	if n.Currency != "MYR" {
		t.Errorf("currency: got %s", n.Currency)
	}
	if n.SuggestedCategoryID == nil || *n.SuggestedCategoryID != 3 {
		t.Errorf("category: got %v", n.SuggestedCategoryID)
	}
	if n.Signature != parse.Signature(ptr("  Starbucks "), ptr("2026-10-01"), ptr(12.5)) {
		t.Errorf("signature: got %s", n.Signature)
	}
	if n.Confidence != 0.95 || v.Confidence != 0.95 {
		t.Errorf("confidence: got %v/%v", n.Confidence, v.Confidence)
	}
	if v.Badges["status"] != validate.BadgeAutoApproved || v.Badges["confidence"] != validate.BadgeHigh {
		t.Errorf("badges: got %v", v.Badges)
	}
}

func TestConfidence(t *testing.T) {
	f := parse.Fields{
		Merchant: parse.Field[string]{Confidence: 0.9},
		Date:     parse.Field[string]{Confidence: 0.8},
		Total:    parse.Field[float64]{Confidence: 0.7},
	}
	if got := validate.Confidence(f); got != 0.8 {
		t.Errorf("Confidence() = %v, want 0.8", got)
	}

	f.Total.Confidence = 0.75
	if got := validate.Confidence(f); got != 0.8167 {
		t.Errorf("Confidence() = %v, want 0.8167", got)
	}
}

func TestValidateInvalidRequest(t *testing.T) {
	sys := setup(t, config(), nil)

	tests := []struct {
		name string
		req  validate.Request
	}{
		{"missing document", validate.Request{Draft: draft(0.9)}},
		{"draft for another document", validate.Request{DocumentID: 2, Draft: draft(0.9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Validate(context.Background(), tt.req)
			if validate.MapHTTPStatus(err) != http.StatusBadRequest {
				t.Errorf("error = %v, want 400", err)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	sys := setup(t, config(), nil)
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	body, _ := json.Marshal(validate.Request{DocumentID: 1, Draft: draft(0.5)})
	req := httptest.NewRequest("POST", "/validate", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"document_id", "status", "reasons", "confidence", "badges", "normalized_json"} {
		if _, ok := got[key]; !ok {
			t.Errorf("response missing %s", key)
		}
	}
	if got["status"] != string(validate.StatusNeedsReview) {
		t.Errorf("status: got %v", got["status"])
	}
}

func TestValidateOwnership(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		id      int64
		wantErr error
	}{
		{"other user", auth.WithClaims(context.Background(), &auth.Claims{Subject: "user-2"}), 1, documents.ErrForbidden},
		{"unknown document", context.Background(), 9, documents.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := setup(t, config(), nil)

			d := draft(0.9)
			d.DocumentID = 0
			_, err := sys.Validate(tt.ctx, validate.Request{DocumentID: tt.id, Draft: d})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("owner", func(t *testing.T) {
		sys := setup(t, config(), nil)
		ctx := auth.WithClaims(context.Background(), &auth.Claims{Subject: "user-1"})

		if _, err := sys.Validate(ctx, validate.Request{DocumentID: 1, Draft: draft(0.9)}); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
	})

	t.Run("handler maps forbidden", func(t *testing.T) {
		if got := validate.MapHTTPStatus(documents.ErrForbidden); got != http.StatusForbidden {
			t.Errorf("status = %d, want 403", got)
		}
	})
}
