// Package gemini implements llm.Client over the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/trackerzenith/docpipe/pkg/llm"
)

// Client wraps a genai client bound to one model.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New creates a Client authenticated with cfg.APIKey.
func New(ctx context.Context, cfg *llm.Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.Model,
		logger: logger.With("provider", llm.ProviderGemini, "model", cfg.Model),
	}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	reqID := uuid.NewString()
	start := time.Now()

	model := c.client.GenerativeModel(c.model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MimeType, Data: img.Data})
	}

	c.logger.Info("llm.request", "req_id", reqID, "images", len(req.Images), "json", req.JSON)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("llm.error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: no candidates: %w", llm.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(sb.String())

	c.logger.Info("llm.response",
		"req_id", reqID,
		"finish_reason", candidate.FinishReason.String(),
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if text == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrEmptyResponse)
	}

	return &llm.Response{
		Text:         text,
		Model:        c.model,
		FinishReason: candidate.FinishReason.String(),
	}, nil
}
