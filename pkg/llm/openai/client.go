// Package openai implements llm.Client over go-agents for the chat completions
// protocol spoken by OpenAI, OpenRouter and Mistral.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaclient "github.com/JaimeStill/go-agents/pkg/client"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/JaimeStill/go-agents/pkg/protocol"
	"github.com/JaimeStill/go-agents/pkg/providers"
	"github.com/JaimeStill/go-agents/pkg/response"
	"github.com/google/uuid"

	"github.com/trackerzenith/docpipe/pkg/llm"
)

// The go-agents ollama provider speaks the plain chat completions protocol
// with bearer auth, which is all these services need.
func init() {
	for _, name := range []string{llm.ProviderOpenAI, llm.ProviderOpenRouter, llm.ProviderMistral} {
		providers.Register(name, providers.NewOllama)
	}
}

// Client runs completions through a go-agents agent bound to one model.
type Client struct {
	provider string
	model    string
	apiKey   string
	agent    gaconfig.AgentConfig
	logger   *slog.Logger
}

// New creates a Client from cfg. The config must be finalized.
func New(cfg *llm.Config, logger *slog.Logger) *Client {
	return &Client{
		provider: cfg.Provider,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		agent:    AgentConfig(cfg),
		logger:   logger.With("provider", cfg.Provider, "model", cfg.Model),
	}
}

// AgentConfig maps a provider section onto a go-agents agent configuration.
// Retries are left to the pipeline's provider fallback.
func AgentConfig(cfg *llm.Config) gaconfig.AgentConfig {
	ac := gaconfig.DefaultAgentConfig()
	ac.Name = "docpipe-" + cfg.Provider

	ac.Client.Timeout = gaconfig.Duration(cfg.TimeoutDuration())
	ac.Client.Retry.MaxRetries = 0

	ac.Provider = &gaconfig.ProviderConfig{
		Name:    cfg.Provider,
		BaseURL: cfg.BaseURL,
		Options: map[string]any{
			"auth_type": "bearer",
			"token":     cfg.APIKey,
		},
	}

	ac.Model = &gaconfig.ModelConfig{
		Name: cfg.Model,
		Capabilities: map[string]map[string]any{
			string(protocol.Chat):   {"temperature": 0.0},
			string(protocol.Vision): {"temperature": 0.0},
		},
	}

	return ac
}

func (c *Client) Model() string { return c.model }

func (c *Client) Close() error { return nil }

func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", c.provider, llm.ErrMissingAPIKey)
	}

	cfg := c.agent
	cfg.SystemPrompt = req.System

	a, err := agent.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: create agent: %w", c.provider, err)
	}

	reqID := uuid.NewString()
	start := time.Now()

	c.logger.Info("llm.request",
		"req_id", reqID,
		"agent_id", a.ID(),
		"images", len(req.Images),
		"prompt_len", len(req.Prompt),
		"json", req.JSON,
	)

	var resp *response.ChatResponse
	if len(req.Images) > 0 {
		images := make([]string, len(req.Images))
		for i, img := range req.Images {
			images[i] = img.DataURL()
		}
		resp, err = a.Vision(ctx, req.Prompt, images, options(req))
	} else {
		resp, err = a.Chat(ctx, req.Prompt, options(req))
	}

	if err != nil {
		c.logger.Error("llm.error",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, c.wrap(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices: %w", c.provider, llm.ErrEmptyResponse)
	}

	finish := resp.Choices[0].FinishReason
	text := strings.TrimSpace(resp.Content())

	c.logger.Info("llm.response",
		"req_id", reqID,
		"finish_reason", finish,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if text == "" {
		return nil, fmt.Errorf("%s: %w", c.provider, llm.ErrEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &llm.Response{
		Text:         text,
		Model:        model,
		FinishReason: finish,
	}, nil
}

// options carries the per-request settings that override the model capabilities.
func options(req llm.Request) map[string]any {
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["max_tokens"] = req.MaxTokens
	}
	if req.JSON {
		opts["response_format"] = map[string]any{"type": "json_object"}
	}
	return opts
}

func (c *Client) wrap(err error) error {
	var statusErr *gaclient.HTTPStatusError
	if errors.As(err, &statusErr) {
		return &llm.StatusError{
			Provider:   c.provider,
			StatusCode: statusErr.StatusCode,
			Body:       string(statusErr.Body),
		}
	}
	return fmt.Errorf("%s: %w", c.provider, err)
}
