package prompts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

type mockSystem struct {
	listFn         func(ctx context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error)
	findFn         func(ctx context.Context, id int64) (*prompts.Prompt, error)
	instructionsFn func(ctx context.Context, stage prompts.Stage) (string, error)
	createFn       func(ctx context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error)
	updateFn       func(ctx context.Context, id int64, cmd prompts.UpdateCommand) (*prompts.Prompt, error)
	deleteFn       func(ctx context.Context, id int64) error
	activateFn     func(ctx context.Context, id int64) (*prompts.Prompt, error)
	deactivateFn   func(ctx context.Context, id int64) (*prompts.Prompt, error)
}

func (m *mockSystem) Handler() *prompts.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id int64) (*prompts.Prompt, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Instructions(ctx context.Context, stage prompts.Stage) (string, error) {
	return m.instructionsFn(ctx, stage)
}

func (m *mockSystem) Spec(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

func (m *mockSystem) Create(ctx context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id int64, cmd prompts.UpdateCommand) (*prompts.Prompt, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Activate(ctx context.Context, id int64) (*prompts.Prompt, error) {
	return m.activateFn(ctx, id)
}

func (m *mockSystem) Deactivate(ctx context.Context, id int64) (*prompts.Prompt, error) {
	return m.deactivateFn(ctx, id)
}

func newTestHandler(sys *mockSystem) *prompts.Handler {
	return prompts.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *prompts.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func samplePrompt() prompts.Prompt {
	return prompts.Prompt{
		ID:           7,
		Name:         "strict-parse",
		Stage:        prompts.StageParse,
		Instructions: "Extract only printed values.",
		Description:  ptr("Stricter parse instructions"),
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHandlerList(t *testing.T) {
	p := samplePrompt()
	var gotFilters prompts.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
			gotFilters = f
			result := pagination.NewPageResult([]prompts.Prompt{p}, 1, 1, 20)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", "/prompts?stage=parse", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[prompts.Prompt]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].ID != 7 {
		t.Errorf("unexpected result: %+v", result)
	}
	if gotFilters.Stage == nil || *gotFilters.Stage != prompts.StageParse {
		t.Errorf("stage filter not forwarded: %+v", gotFilters)
	}
}

func TestHandlerFind(t *testing.T) {
	p := samplePrompt()
	sys := &mockSystem{
		findFn: func(_ context.Context, id int64) (*prompts.Prompt, error) {
			if id != p.ID {
				return nil, prompts.ErrNotFound
			}
			return &p, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name     string
		path     string
		want     int
		wantCode string
	}{
		{"found", "/prompts/7", http.StatusOK, ""},
		{"not found", "/prompts/8", http.StatusNotFound, "not_found"},
		{"invalid id", "/prompts/abc", http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantCode != "" {
				if body := decodeError(t, rec); body.Code != tt.wantCode {
					t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestHandlerInstructions(t *testing.T) {
	sys := &mockSystem{
		instructionsFn: func(_ context.Context, stage prompts.Stage) (string, error) {
			return "override for " + string(stage), nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	t.Run("valid stage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/prompts/ocr/instructions", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body prompts.StageContent
		json.NewDecoder(rec.Body).Decode(&body)
		if body.Stage != prompts.StageOCR || body.Content != "override for ocr" {
			t.Errorf("unexpected body: %+v", body)
		}
	})

	t.Run("spec", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/prompts/parse/spec", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("invalid stage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/prompts/classify/instructions", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
			if cmd.Name == "taken" {
				return nil, prompts.ErrDuplicate
			}
			return &prompts.Prompt{ID: 1, Name: cmd.Name, Stage: cmd.Stage, Instructions: cmd.Instructions}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"name":"terse","stage":"ocr","instructions":"Transcribe."}`, http.StatusCreated},
		{"duplicate", `{"name":"taken","stage":"ocr","instructions":"Transcribe."}`, http.StatusConflict},
		{"invalid stage", `{"name":"x","stage":"classify","instructions":"y"}`, http.StatusBadRequest},
		{"malformed", `{"name":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/prompts", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerLifecycleActions(t *testing.T) {
	p := samplePrompt()
	sys := &mockSystem{
		updateFn: func(_ context.Context, id int64, cmd prompts.UpdateCommand) (*prompts.Prompt, error) {
			updated := p
			updated.Name = cmd.Name
			return &updated, nil
		},
		deleteFn: func(_ context.Context, id int64) error {
			if id != p.ID {
				return prompts.ErrNotFound
			}
			return nil
		},
		activateFn: func(_ context.Context, id int64) (*prompts.Prompt, error) {
			active := p
			active.Active = true
			return &active, nil
		},
		deactivateFn: func(_ context.Context, id int64) (*prompts.Prompt, error) {
			return &p, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"update", "PUT", "/prompts/7", `{"name":"renamed","stage":"parse","instructions":"x"}`, http.StatusOK},
		{"delete", "DELETE", "/prompts/7", "", http.StatusNoContent},
		{"delete missing", "DELETE", "/prompts/9", "", http.StatusNotFound},
		{"activate", "POST", "/prompts/7/activate", "", http.StatusOK},
		{"deactivate", "POST", "/prompts/7/deactivate", "", http.StatusOK},
		{"activate invalid id", "POST", "/prompts/0/activate", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body)))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerSearch(t *testing.T) {
	var gotPage pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, _ prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
			gotPage = page
			result := pagination.NewPageResult([]prompts.Prompt{}, 0, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"page": 2, "page_size": 500, "stage": "coherence"}`)
	setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("POST", "/prompts/search", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotPage.Page != 2 || gotPage.PageSize != 100 {
		t.Errorf("page not normalized: %+v", gotPage)
	}
}
