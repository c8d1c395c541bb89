package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trackerzenith/docpipe/pkg/auth"
	"github.com/trackerzenith/docpipe/pkg/middleware"
)

func enabled(v bool) *bool { return &v }

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	mw.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "first")
			next.ServeHTTP(w, r)
		})
	})

	mw.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "second")
			next.ServeHTTP(w, r)
		})
	})

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if len(order) != 3 {
		t.Fatalf("execution count: got %d, want 3", len(order))
	}
	if order[0] != "first" || order[1] != "second" || order[2] != "handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
}

func TestUseSkipsNil(t *testing.T) {
	mw := middleware.New()
	mw.Use(nil, middleware.RequestID(), nil)

	if mw.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", mw.Len())
	}

	rec := httptest.NewRecorder()
	mw.Apply(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         middleware.CORSConfig
		method      string
		origin      string
		preflight   bool
		wantOrigin  string
		wantStatus  int
		wantHandler bool
	}{
		{
			name:        "disabled",
			cfg:         middleware.CORSConfig{Enabled: enabled(false), Origins: []string{"http://example.com"}},
			method:      "GET",
			origin:      "http://example.com",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name: "allowed origin",
			cfg: middleware.CORSConfig{
				Enabled:        enabled(true),
				Origins:        []string{"http://example.com"},
				AllowedMethods: []string{"GET", "POST"},
				MaxAge:         3600,
			},
			method:      "GET",
			origin:      "http://example.com",
			wantOrigin:  "http://example.com",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:        "disallowed origin",
			cfg:         middleware.CORSConfig{Enabled: enabled(true), Origins: []string{"http://allowed.com"}},
			method:      "GET",
			origin:      "http://denied.com",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:       "preflight allowed",
			cfg:        middleware.CORSConfig{Enabled: enabled(true), Origins: []string{"http://example.com"}},
			method:     "OPTIONS",
			origin:     "http://example.com",
			preflight:  true,
			wantOrigin: "http://example.com",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "preflight denied",
			cfg:        middleware.CORSConfig{Enabled: enabled(true), Origins: []string{"http://example.com"}},
			method:     "OPTIONS",
			origin:     "http://evil.com",
			preflight:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:        "wildcard",
			cfg:         middleware.CORSConfig{Enabled: enabled(true), Origins: []string{"*"}},
			method:      "GET",
			origin:      "https://anywhere.dev",
			wantOrigin:  "https://anywhere.dev",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
		{
			name:       "subdomain pattern",
			cfg:        middleware.CORSConfig{Enabled: enabled(true), Origins: []string{"https://*.example.com"}},
			method:     "OPTIONS",
			origin:     "https://app.example.com",
			preflight:  true,
			wantOrigin: "https://app.example.com",
			wantStatus: http.StatusNoContent,
		},
		{
			name:        "subdomain pattern excludes apex and scheme",
			cfg:         middleware.CORSConfig{Enabled: enabled(true), Origins: []string{"https://*.example.com"}},
			method:      "GET",
			origin:      "http://app.example.com",
			wantStatus:  http.StatusOK,
			wantHandler: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := middleware.CORS(&tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin: got %q, want %q", got, tt.wantOrigin)
			}
			if called != tt.wantHandler {
				t.Errorf("handler called: got %v, want %v", called, tt.wantHandler)
			}
		})
	}
}

func TestCORSConfigFinalizeDefaults(t *testing.T) {
	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.IsEnabled() {
		t.Error("cors should default to enabled")
	}
	if len(cfg.Origins) != 1 || cfg.Origins[0] != "http://localhost:5173" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
	if len(cfg.AllowedMethods) != 3 {
		t.Errorf("allowed_methods: got %d, want 3", len(cfg.AllowedMethods))
	}
	if len(cfg.AllowedHeaders) != 3 {
		t.Errorf("allowed_headers: got %d, want 3", len(cfg.AllowedHeaders))
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max_age: got %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "false")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, http://b.com")

	env := &middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
	}

	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.IsEnabled() {
		t.Error("enabled should be false")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[0] != "http://a.com" || cfg.Origins[1] != "http://b.com" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
}

func TestCORSConfigRejectsWildcardCredentials(t *testing.T) {
	cfg := middleware.CORSConfig{Origins: []string{"*"}, AllowCredentials: true}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected validation error")
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{
		Enabled: enabled(true),
		Origins: []string{"http://base.com"},
		MaxAge:  3600,
	}

	base.Merge(&middleware.CORSConfig{Origins: []string{"http://overlay.com"}, MaxAge: 7200})

	if !base.IsEnabled() {
		t.Error("unset overlay enabled should keep base value")
	}
	if len(base.Origins) != 1 || base.Origins[0] != "http://overlay.com" {
		t.Errorf("origins: got %v", base.Origins)
	}
	if base.MaxAge != 7200 {
		t.Errorf("max_age: got %d, want 7200", base.MaxAge)
	}

	base.Merge(&middleware.CORSConfig{Enabled: enabled(false)})
	if base.IsEnabled() {
		t.Error("overlay enabled=false should apply")
	}
	if base.MaxAge != 7200 {
		t.Errorf("unset overlay max_age should keep base value, got %d", base.MaxAge)
	}
}

func TestCORSConfigRejectsSchemelessOrigin(t *testing.T) {
	cfg := middleware.CORSConfig{Origins: []string{"localhost:5173"}}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected validation error")
	}
}

func TestLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want 418", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if seen == "" {
			t.Fatal("request id not stored on context")
		}
		if got := rec.Header().Get(middleware.HeaderRequestID); got != seen {
			t.Errorf("header = %q, context = %q", got, seen)
		}
	})

	t.Run("propagates inbound id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(middleware.HeaderRequestID, "abc-123")
		handler.ServeHTTP(rec, req)

		if seen != "abc-123" {
			t.Errorf("request id = %q, want abc-123", seen)
		}
	})
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	handler := middleware.Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !hasDeadline {
		t.Fatal("request context should carry a deadline")
	}
	if time.Until(deadline) > 50*time.Millisecond {
		t.Errorf("deadline too far in the future: %v", time.Until(deadline))
	}
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) Verify(context.Context, string) (*auth.Claims, error) {
	return f.claims, f.err
}

func TestAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		verifier   auth.Verifier
		method     string
		header     string
		wantStatus int
		wantSub    string
	}{
		{"nil verifier passes through", nil, "POST", "", http.StatusOK, ""},
		{"missing header", &fakeVerifier{}, "POST", "", http.StatusUnauthorized, ""},
		{"wrong scheme", &fakeVerifier{}, "POST", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", &fakeVerifier{err: errors.New("bad sig")}, "POST", "Bearer abc", http.StatusUnauthorized, ""},
		{"valid token", &fakeVerifier{claims: &auth.Claims{Subject: "user-1"}}, "POST", "Bearer abc", http.StatusOK, "user-1"},
		{"preflight skips auth", &fakeVerifier{err: errors.New("unused")}, "OPTIONS", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sub string
			handler := middleware.Auth(tt.verifier, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if c, found := auth.FromContext(r.Context()); found {
					sub = c.Subject
				}
				ok(w, r)
			}))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if sub != tt.wantSub {
				t.Errorf("subject: got %q, want %q", sub, tt.wantSub)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["code"] != "unauthorized" {
					t.Errorf("code: got %q, want unauthorized", body["code"])
				}
			}
		})
	}
}
