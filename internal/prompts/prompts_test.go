package prompts_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", prompts.ErrNotFound, http.StatusNotFound},
		{"duplicate", prompts.ErrDuplicate, http.StatusConflict},
		{"invalid stage", prompts.ErrInvalidStage, http.StatusBadRequest},
		{"invalid prompt", prompts.ErrInvalidPrompt, http.StatusBadRequest},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", prompts.ErrNotFound), http.StatusNotFound},
		{"wrapped duplicate", fmt.Errorf("insert failed: %w", prompts.ErrDuplicate), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prompts.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestStages(t *testing.T) {
	want := []prompts.Stage{prompts.StageOCR, prompts.StageParse, prompts.StageCoherence}
	stages := prompts.Stages()

	if len(stages) != len(want) {
		t.Fatalf("len(Stages()) = %d, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if s != want[i] {
			t.Errorf("Stages()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	t.Run("valid stage in struct", func(t *testing.T) {
		var p struct {
			Stage prompts.Stage `json:"stage"`
		}
		if err := json.Unmarshal([]byte(`{"stage":"parse"}`), &p); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if p.Stage != prompts.StageParse {
			t.Errorf("Stage = %q, want parse", p.Stage)
		}
	})

	invalid := []string{`"classify"`, `"banana"`, `""`}
	for _, input := range invalid {
		t.Run("rejects "+input, func(t *testing.T) {
			var s prompts.Stage
			if err := json.Unmarshal([]byte(input), &s); !errors.Is(err, prompts.ErrInvalidStage) {
				t.Errorf("Unmarshal(%s) error = %v, want ErrInvalidStage", input, err)
			}
		})
	}

	t.Run("non-string returns error", func(t *testing.T) {
		var s prompts.Stage
		if err := json.Unmarshal([]byte(`42`), &s); err == nil {
			t.Error("Unmarshal(42) should return error")
		}
	})
}

func TestParseStage(t *testing.T) {
	for _, stage := range prompts.Stages() {
		got, err := prompts.ParseStage(string(stage))
		if err != nil || got != stage {
			t.Errorf("ParseStage(%q) = %q, %v", stage, got, err)
		}
	}

	if _, err := prompts.ParseStage("enhance"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("ParseStage(enhance) error = %v, want ErrInvalidStage", err)
	}
}

func TestInstructionsAndSpec(t *testing.T) {
	for _, stage := range prompts.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			text, err := prompts.Instructions(stage)
			if err != nil || text == "" {
				t.Errorf("Instructions(%q) = %q, %v", stage, text, err)
			}
			spec, err := prompts.Spec(stage)
			if err != nil || spec == "" {
				t.Errorf("Spec(%q) = %q, %v", stage, spec, err)
			}
		})
	}

	if _, err := prompts.Instructions("banana"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Instructions(banana) error = %v, want ErrInvalidStage", err)
	}
	if _, err := prompts.Spec("banana"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Spec(banana) error = %v, want ErrInvalidStage", err)
	}
}

func TestParseSpecNamesEveryField(t *testing.T) {
	spec, _ := prompts.Spec(prompts.StageParse)
	fields := []string{
		"merchant", "date", "total", "subtotal", "tax", "currency", "transaction_type",
		"suggested_category_id", "suggested_payment_method_id", "payment_method", "items",
	}
	for _, f := range fields {
		if !strings.Contains(spec, `"`+f+`"`) {
			t.Errorf("parse spec does not mention %s", f)
		}
	}
}

func TestCompose(t *testing.T) {
	got, err := prompts.Compose("Read the receipt.", prompts.StageCoherence)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.HasPrefix(got, "Read the receipt.\n\n") {
		t.Errorf("instructions should lead the prompt: %q", got[:30])
	}
	if !strings.Contains(got, `"coherent"`) {
		t.Error("composed prompt should include the coherence spec")
	}

	if _, err := prompts.Compose("x", "banana"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Compose(banana) error = %v, want ErrInvalidStage", err)
	}
}

func TestDefaults(t *testing.T) {
	var src prompts.Source = prompts.Defaults{}

	got, err := src.Instructions(context.Background(), prompts.StageOCR)
	if err != nil {
		t.Fatalf("Instructions() error = %v", err)
	}
	want, _ := prompts.Instructions(prompts.StageOCR)
	if got != want {
		t.Error("Defaults should return the built-in instructions")
	}
}

type failingSource struct{}

func (failingSource) Instructions(context.Context, prompts.Stage) (string, error) {
	return "", errors.New("connection refused")
}

type fixedSource string

func (s fixedSource) Instructions(context.Context, prompts.Stage) (string, error) {
	return string(s), nil
}

func TestResolve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	got, err := prompts.Resolve(ctx, fixedSource("Custom OCR."), prompts.StageOCR, logger)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.HasPrefix(got, "Custom OCR.\n\n") {
		t.Errorf("override should lead the prompt: %q", got)
	}

	got, err = prompts.Resolve(ctx, failingSource{}, prompts.StageParse, logger)
	if err != nil {
		t.Fatalf("Resolve() with failing source error = %v", err)
	}
	builtin, _ := prompts.Instructions(prompts.StageParse)
	if !strings.HasPrefix(got, builtin) {
		t.Error("failing source should fall back to built-in instructions")
	}

	if _, err := prompts.Resolve(ctx, failingSource{}, "banana", logger); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("error = %v, want ErrInvalidStage", err)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		f := prompts.FiltersFromQuery(url.Values{
			"stage":  {"ocr"},
			"name":   {"detailed"},
			"active": {"true"},
		})

		if f.Stage == nil || *f.Stage != prompts.StageOCR {
			t.Errorf("Stage = %v, want ocr", f.Stage)
		}
		if f.Name == nil || *f.Name != "detailed" {
			t.Errorf("Name = %v, want detailed", f.Name)
		}
		if f.Active == nil || !*f.Active {
			t.Errorf("Active = %v, want true", f.Active)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := prompts.FiltersFromQuery(url.Values{})
		if f.Stage != nil || f.Name != nil || f.Active != nil {
			t.Errorf("expected all nil, got %+v", f)
		}
	})

	t.Run("invalid active ignored", func(t *testing.T) {
		f := prompts.FiltersFromQuery(url.Values{"active": {"not-a-bool"}})
		if f.Active != nil {
			t.Errorf("Active = %v, want nil for invalid input", f.Active)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "prompt_overrides", "p").
		Project("stage", "Stage").
		Project("name", "Name").
		Project("active", "Active")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(projection)
		prompts.Filters{}.Apply(b)
		sql, args := b.Build()

		wantSQL := "SELECT p.stage, p.name, p.active FROM public.prompt_overrides p"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("name contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		prompts.Filters{Name: ptr("detailed")}.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%detailed%" {
			t.Errorf("args = %v, want [%%detailed%%]", args)
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		b := query.NewBuilder(projection)
		stage := prompts.StageParse
		prompts.Filters{Stage: &stage, Name: ptr("verbose"), Active: ptr(false)}.Apply(b)
		sql, args := b.Build()

		if len(args) != 3 {
			t.Errorf("args length = %d, want 3", len(args))
		}
		if strings.Count(sql, " AND ") != 2 {
			t.Errorf("sql = %q, want two AND joins", sql)
		}
	})
}
