// Package llm wraps the Gemini text-generation API behind a minimal
// prompt-in, text-out interface.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used when no model identifier is configured.
const DefaultModel = "gemini-2.0-flash"

// TextGenerator produces free-form text for a prompt. Pipeline stages depend
// on this interface so tests can substitute fakes.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("model API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Generate sends the prompt and returns the model's text response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	return text, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }
