package validate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/trackerzenith/docpipe/internal/prompts"
	"github.com/trackerzenith/docpipe/pkg/formatting"
	"github.com/trackerzenith/docpipe/pkg/llm"
)

type coherenceResult struct {
	Coherent *bool  `json:"coherent"`
	Reason   string `json:"reason"`
}

// checkCoherence asks the coherence model whether n describes one real
// transaction. Every failure is logged and treated as coherent.
func (v *validator) checkCoherence(ctx context.Context, n Normalized) (string, bool) {
	if v.coherence == nil {
		v.logger.Warn("coherence check enabled without a model")
		return "", false
	}

	system, err := prompts.Resolve(ctx, v.prompts, prompts.StageCoherence, v.logger)
	if err != nil {
		v.logger.Warn("coherence prompt unavailable", "error", err)
		return "", false
	}

	payload, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		v.logger.Warn("encode coherence payload", "error", err)
		return "", false
	}

	if v.cfg.CoherenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.CoherenceTimeout)
		defer cancel()
	}

	resp, err := v.coherence.Complete(ctx, llm.Request{
		System:      system,
		Prompt:      "Extracted receipt data:\n" + string(payload),
		JSON:        true,
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		v.logger.Warn("coherence check failed", "document_id", n.DocumentID, "error", err)
		return "", false
	}

	result, err := formatting.Parse[coherenceResult](resp.Text)
	if err != nil || result.Coherent == nil {
		v.logger.Warn("coherence response unusable", "document_id", n.DocumentID, "error", err)
		return "", false
	}
	if *result.Coherent {
		return "", false
	}

	reason := strings.TrimSpace(result.Reason)
	if reason == "" {
		reason = "fields do not describe a single transaction"
	}
	return reason, true
}
