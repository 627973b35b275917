// Package llm wraps the completion service behind a small interface so
// generators can be tested without network access.
package llm

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// Options tunes a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float64
	// Schema, when set, requests structured JSON output.
	Schema string
}

// Completer performs one system+user prompt completion. An empty response
// string is a valid result, not an error.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// Client is the Anthropic-backed Completer.
type Client struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// NewClient creates a Client with default request settings. Per-call
// Options override the defaults when non-zero.
func NewClient(apiKey, model string, maxTokens int, temperature float64) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Complete sends one prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings := types.RequestSettings{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if opts.MaxTokens > 0 {
		settings.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		settings.Temperature = opts.Temperature
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, opts.Schema, c.apiKey, settings)
		if err != nil {
			done <- result{err: fmt.Errorf("completion request: %w", err)}
			return
		}
		if len(response.Content) == 0 {
			done <- result{text: ""}
			return
		}
		done <- result{text: response.Content[0].Text}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}
