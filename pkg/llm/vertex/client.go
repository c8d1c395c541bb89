// Package vertex implements llm.Client over Gemini models hosted on Vertex AI.
package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/trackerzenith/docpipe/pkg/llm"
)

// Client wraps a Vertex AI genai client bound to one model.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New creates a Client for cfg.Project in cfg.Region. Application default
// credentials are used unless cfg.CredentialsFile is set. Extra options are
// applied last.
func New(ctx context.Context, cfg *llm.Config, logger *slog.Logger, extra ...option.ClientOption) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, extra...)

	client, err := genai.NewClient(ctx, cfg.Project, cfg.Region, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.Model,
		logger: logger.With("provider", llm.ProviderVertex, "model", cfg.Model, "region", cfg.Region),
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
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = genai.Ptr(int32(req.MaxTokens))
	}
	if req.JSON {
		model.GenerationConfig.ResponseMIMEType = "application/json"
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MimeType, Data: img.Data})
	}

	c.logger.Info("llm.request", "req_id", reqID, "images", len(req.Images), "json", req.JSON)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("llm.error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("vertex generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("vertex: no candidates: %w", llm.ErrEmptyResponse)
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
		return nil, fmt.Errorf("vertex: %w", llm.ErrEmptyResponse)
	}

	return &llm.Response{
		Text:         text,
		Model:        c.model,
		FinishReason: candidate.FinishReason.String(),
	}, nil
}
