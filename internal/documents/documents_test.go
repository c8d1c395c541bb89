package documents_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/trackerzenith/docpipe/internal/documents"
	"github.com/trackerzenith/docpipe/internal/documents/documentstest"
	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/events"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		current   documents.Status
		requested documents.Status
		want      documents.Status
		wantErr   error
	}{
		{"advance", documents.StatusUploaded, documents.StatusProcessing, documents.StatusProcessing, nil},
		{"skip ahead", documents.StatusUploaded, documents.StatusParsed, documents.StatusParsed, nil},
		{"same", documents.StatusParsed, documents.StatusParsed, documents.StatusParsed, nil},
		{"no regression", documents.StatusOCRCompleted, documents.StatusProcessing, documents.StatusOCRCompleted, nil},
		{"fail from any state", documents.StatusParsed, documents.StatusFailed, documents.StatusFailed, nil},
		{"failed records errors", documents.StatusFailed, documents.StatusFailed, documents.StatusFailed, nil},
		{"failed is terminal", documents.StatusFailed, documents.StatusProcessing, "", documents.ErrTerminalStatus},
		{"finalized", documents.StatusTransactionCreated, documents.StatusParsed, "", documents.ErrFinalized},
		{"finalized rejects failure", documents.StatusTransactionCreated, documents.StatusFailed, "", documents.ErrFinalized},
		{"ledger status reserved", documents.StatusParsed, documents.StatusTransactionCreated, "", documents.ErrInvalidStatus},
		{"unknown", documents.StatusParsed, "archived", "", documents.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documents.Resolve(tt.current, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%s, %s) = %s, want %s", tt.current, tt.requested, got, tt.want)
			}
		})
	}
}

func TestStatusRank(t *testing.T) {
	statuses := documents.Statuses()
	if statuses[len(statuses)-1] != documents.StatusFailed {
		t.Errorf("failed should be listed last: %v", statuses)
	}
	for i := 1; i < len(statuses)-1; i++ {
		if statuses[i].Rank() <= statuses[i-1].Rank() {
			t.Errorf("%s should rank above %s", statuses[i], statuses[i-1])
		}
	}
	if documents.StatusFailed.Rank() != -1 {
		t.Error("failed should have no rank")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"forbidden", documents.ErrForbidden, http.StatusForbidden},
		{"finalized", fmt.Errorf("wrap: %w", documents.ErrFinalized), http.StatusConflict},
		{"terminal", documents.ErrTerminalStatus, http.StatusConflict},
		{"invalid status", documents.ErrInvalidStatus, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documents.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	f := documents.FiltersFromQuery(url.Values{
		"status":    {"parsed"},
		"user_id":   {"u-1"},
		"mime_type": {"application/pdf"},
	})
	if f.Status == nil || *f.Status != documents.StatusParsed {
		t.Errorf("status: %v", f.Status)
	}
	if f.UserID == nil || *f.UserID != "u-1" {
		t.Errorf("user_id: %v", f.UserID)
	}
	if f.MimeType == nil || *f.MimeType != "application/pdf" {
		t.Errorf("mime_type: %v", f.MimeType)
	}

	if f := documents.FiltersFromQuery(url.Values{"status": {"archived"}}); f.Status != nil {
		t.Errorf("unknown status should be ignored, got %v", *f.Status)
	}

	f = documents.FiltersFromQuery(url.Values{
		"vendor":    {"star"},
		"date_from": {"2026-01-01"},
		"date_to":   {"yesterday"},
		"min_total": {"5.5"},
		"max_total": {"lots"},
	})
	if f.Vendor == nil || *f.Vendor != "star" {
		t.Errorf("vendor: %v", f.Vendor)
	}
	if f.DateFrom == nil || *f.DateFrom != "2026-01-01" {
		t.Errorf("date_from: %v", f.DateFrom)
	}
	if f.DateTo != nil {
		t.Errorf("malformed date_to should be dropped, got %v", *f.DateTo)
	}
	if f.MinTotal == nil || *f.MinTotal != 5.5 {
		t.Errorf("min_total: %v", f.MinTotal)
	}
	if f.MaxTotal != nil {
		t.Errorf("non-numeric max_total should be dropped, got %v", *f.MaxTotal)
	}
}

func TestFiltersApply(t *testing.T) {
	projection := query.NewProjectionMap("public", "documents", "d").
		Project("status", "Status").
		Project("user_id", "UserID").
		Project("mime_type", "MimeType")

	status := documents.StatusParsed
	b := query.NewBuilder(projection)
	documents.Filters{Status: &status, UserID: ptr("u-1")}.Apply(b)

	sql, args := b.Build()
	if !strings.Contains(sql, "d.status = $1 AND d.user_id = $2") {
		t.Errorf("sql = %s", sql)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}

	projection.
		Project("vendor_name", "VendorName").
		Project("transaction_date", "TransactionDate").
		Project("total_amount", "TotalAmount")

	lo := 10.0
	b = query.NewBuilder(projection)
	documents.Filters{Vendor: ptr("star"), DateTo: ptr("2026-03-31"), MinTotal: &lo}.Apply(b)

	sql, args = b.Build()
	want := "d.vendor_name ILIKE $1 AND d.transaction_date <= $2 AND d.total_amount >= $3"
	if !strings.Contains(sql, want) {
		t.Errorf("sql = %s, want %s", sql, want)
	}
	if len(args) != 3 || args[0] != "%star%" {
		t.Errorf("args = %v", args)
	}
}

func TestFiltersValidate(t *testing.T) {
	bad := documents.Status("archived")
	hi, lo := 5.0, 10.0

	tests := []struct {
		name    string
		filters documents.Filters
		wantErr bool
	}{
		{"empty", documents.Filters{}, false},
		{"date window", documents.Filters{DateFrom: ptr("2026-01-01"), DateTo: ptr("2026-01-31")}, false},
		{"unknown status", documents.Filters{Status: &bad}, true},
		{"malformed date", documents.Filters{DateTo: ptr("31/01/2026")}, true},
		{"inverted dates", documents.Filters{DateFrom: ptr("2026-02-01"), DateTo: ptr("2026-01-01")}, true},
		{"inverted totals", documents.Filters{MinTotal: &lo, MaxTotal: &hi}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && documents.MapHTTPStatus(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", documents.MapHTTPStatus(err))
			}
		})
	}
}

func TestUpdateParams(t *testing.T) {
	u := documents.Update{
		Status:      documents.StatusParsed,
		VendorName:  ptr("Starbucks"),
		TotalAmount: ptr(12.5),
		Signature:   ptr("abc"),
	}

	params := u.Params(7, documents.StatusParsed)
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}

	want := "p_document_id,p_status,p_vendor_name,p_total_amount,p_signature"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("params = %s, want %s", got, want)
	}
	if params[1].Value != "parsed" {
		t.Errorf("status param = %v", params[1].Value)
	}
}

func seed() *documentstest.Store {
	return documentstest.New(
		documents.Document{ID: 1, UserID: "u-1", FilePath: "u-1/a.pdf", MimeType: "application/pdf", Status: documents.StatusUploaded},
		documents.Document{ID: 2, UserID: "u-1", FilePath: "u-1/b.jpg", MimeType: "image/jpeg", Status: documents.StatusOCRCompleted},
		documents.Document{ID: 3, UserID: "u-1", Status: documents.StatusTransactionCreated, Signature: ptr("sig")},
		documents.Document{ID: 4, UserID: "u-2", Status: documents.StatusFailed, Signature: ptr("sig")},
		documents.Document{ID: 5, UserID: "u-2", Status: documents.StatusParsed, Signature: ptr("sig")},
	)
}

func newSystem(store *documentstest.Store, pub events.Publisher) documents.System {
	return documents.New(store.DB(), pub, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func TestRepositoryFind(t *testing.T) {
	sys := newSystem(seed(), events.Noop{})

	doc, err := sys.Find(context.Background(), 2)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if doc.MimeType != "image/jpeg" || doc.Status != documents.StatusOCRCompleted {
		t.Errorf("unexpected document: %+v", doc)
	}

	if _, err := sys.Find(context.Background(), 99); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("missing document error = %v, want ErrNotFound", err)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	t.Run("advances and publishes", func(t *testing.T) {
		store := seed()
		pub := &recordingPublisher{}
		sys := newSystem(store, pub)

		doc, err := sys.Update(context.Background(), 1, documents.Update{Status: documents.StatusProcessing})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if doc.Status != documents.StatusProcessing {
			t.Errorf("status = %s", doc.Status)
		}
		if len(pub.events) != 1 || pub.events[0].Subject != "documents/1" {
			t.Errorf("events = %+v", pub.events)
		}
		if got := store.Procedures(); len(got) != 1 || got[0] != documents.StatusProcedure {
			t.Errorf("procedures = %v", got)
		}

		var locked bool
		for _, stmt := range store.Statements() {
			if strings.HasSuffix(stmt, "FOR UPDATE") {
				locked = true
			}
		}
		if !locked {
			t.Error("update should lock the row")
		}
	})

	t.Run("lower status keeps current but applies columns", func(t *testing.T) {
		store := seed()
		pub := &recordingPublisher{}
		sys := newSystem(store, pub)

		doc, err := sys.Update(context.Background(), 2, documents.Update{
			Status:            documents.StatusProcessing,
			RawMarkdownOutput: ptr("TOTAL 12.50"),
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if doc.Status != documents.StatusOCRCompleted {
			t.Errorf("status regressed to %s", doc.Status)
		}
		if doc.RawMarkdownOutput == nil || *doc.RawMarkdownOutput != "TOTAL 12.50" {
			t.Errorf("raw text not applied: %v", doc.RawMarkdownOutput)
		}
		if len(pub.events) != 0 {
			t.Errorf("no event expected without a status change, got %d", len(pub.events))
		}
	})

	t.Run("finalized document is untouched", func(t *testing.T) {
		store := seed()
		sys := newSystem(store, events.Noop{})

		_, err := sys.Update(context.Background(), 3, documents.Failure(documents.StatusFailed, errors.New("late")))
		if !errors.Is(err, documents.ErrFinalized) {
			t.Fatalf("error = %v, want ErrFinalized", err)
		}
		if len(store.Procedures()) != 0 {
			t.Errorf("procedure must not be called: %v", store.Procedures())
		}
	})

	t.Run("failed document is terminal", func(t *testing.T) {
		sys := newSystem(seed(), events.Noop{})

		_, err := sys.Update(context.Background(), 4, documents.Update{Status: documents.StatusProcessing})
		if !errors.Is(err, documents.ErrTerminalStatus) {
			t.Fatalf("error = %v, want ErrTerminalStatus", err)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		sys := newSystem(seed(), events.Noop{})

		_, err := sys.Update(context.Background(), 99, documents.Update{Status: documents.StatusProcessing})
		if !errors.Is(err, documents.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("procedure failure propagates", func(t *testing.T) {
		store := seed()
		store.FailCalls(errors.New("connection reset"))
		sys := newSystem(store, events.Noop{})

		_, err := sys.Update(context.Background(), 1, documents.Update{Status: documents.StatusProcessing})
		if err == nil || !strings.Contains(err.Error(), "connection reset") {
			t.Fatalf("error = %v", err)
		}
	})
}

func TestRepositoryCountSignature(t *testing.T) {
	sys := newSystem(seed(), events.Noop{})

	n, err := sys.CountSignature(context.Background(), "sig", 5)
	if err != nil {
		t.Fatalf("CountSignature() error = %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1 (failed and self excluded)", n)
	}

	n, _ = sys.CountSignature(context.Background(), "other", 0)
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestAuthorize(t *testing.T) {
	doc := &documents.Document{ID: 1, UserID: "user-1"}

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"no claims", context.Background(), nil},
		{"owner", auth.WithClaims(context.Background(), &auth.Claims{Subject: "user-1"}), nil},
		{"other user", auth.WithClaims(context.Background(), &auth.Claims{Subject: "user-2"}), documents.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := documents.Authorize(tt.ctx, doc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScope(t *testing.T) {
	f := documents.Filters{UserID: ptr("user-1")}

	if got := documents.Scope(context.Background(), f); got.UserID == nil || *got.UserID != "user-1" {
		t.Errorf("without claims: got %v", got.UserID)
	}

	ctx := auth.WithClaims(context.Background(), &auth.Claims{Subject: "user-2"})
	if got := documents.Scope(ctx, f); got.UserID == nil || *got.UserID != "user-2" {
		t.Errorf("with claims: got %v", got.UserID)
	}
}
