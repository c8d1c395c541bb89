package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/pkg/llm"
	"github.com/trackerzenith/docpipe/pkg/llm/gemini"
	"github.com/trackerzenith/docpipe/pkg/llm/openai"
	"github.com/trackerzenith/docpipe/pkg/llm/vertex"
)

// Models holds one client per configured model role. A nil client means the
// role has no provider configured.
type Models struct {
	OCRPrimary  llm.Client
	OCRFallback llm.Client
	Parser      llm.Client
	Coherence   llm.Client
}

// NewModels builds the model clients described by cfg. When the coherence
// check is enabled without its own provider section it shares the parser client.
func NewModels(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Models, error) {
	m := &Models{}

	roles := []struct {
		name string
		cfg  *llm.Config
		dst  *llm.Client
	}{
		{"ocr_primary", &cfg.OCR.Primary, &m.OCRPrimary},
		{"ocr_fallback", &cfg.OCR.Fallback, &m.OCRFallback},
		{"parser", &cfg.Parser, &m.Parser},
		{"coherence", &cfg.Coherence, &m.Coherence},
	}

	for _, role := range roles {
		client, err := NewClient(ctx, role.cfg, logger.With("role", role.name))
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("%s: %w", role.name, err)
		}
		*role.dst = client
	}

	if m.Coherence == nil && cfg.Pipeline.EnableCoherence {
		m.Coherence = m.Parser
	}

	return m, nil
}

// NewClient creates the client for a single provider section.
// It returns a nil client when the section names no provider.
func NewClient(ctx context.Context, cfg *llm.Config, logger *slog.Logger) (llm.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch {
	case cfg.OpenAICompatible():
		return openai.New(cfg, logger), nil
	case cfg.Provider == llm.ProviderGemini:
		client, err := gemini.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case cfg.Provider == llm.ProviderVertex:
		client, err := vertex.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// Close releases every distinct client.
func (m *Models) Close() error {
	seen := make(map[llm.Client]bool)
	var errs []error
	for _, c := range []llm.Client{m.OCRPrimary, m.OCRFallback, m.Parser, m.Coherence} {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Features reports which model roles are available, keyed by role name.
func (m *Models) Features() map[string]bool {
	return map[string]bool{
		"ocr_primary":  m.OCRPrimary != nil,
		"ocr_fallback": m.OCRFallback != nil,
		"parser":       m.Parser != nil,
		"coherence":    m.Coherence != nil,
	}
}
