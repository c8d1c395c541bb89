// Package llmtest provides a scripted llm.Client.
package llmtest

import (
	"context"
	"sync"

	"github.com/trackerzenith/docpipe/pkg/llm"
)

// Client answers completions with Respond and records every request.
type Client struct {
	Name    string
	Respond func(ctx context.Context, req llm.Request) (*llm.Response, error)

	mu       sync.Mutex
	requests []llm.Request
}

// Reply returns a Client that always answers text.
func Reply(name, text string) *Client {
	return &Client{
		Name: name,
		Respond: func(context.Context, llm.Request) (*llm.Response, error) {
			return &llm.Response{Text: text, Model: name}, nil
		},
	}
}

// Fail returns a Client that always fails with err.
func Fail(name string, err error) *Client {
	return &Client{
		Name: name,
		Respond: func(context.Context, llm.Request) (*llm.Response, error) {
			return nil, err
		},
	}
}

func (c *Client) Model() string { return c.Name }
func (c *Client) Close() error  { return nil }

func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	return c.Respond(ctx, req)
}

// Calls returns how many completions were requested.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns a copy of every request received.
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.requests...)
}
