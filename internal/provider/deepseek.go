package provider

import (
	"context"
	"net/http"
	"time"
)

// DeepSeekClient implements Client against the DeepSeek API, which is
// wire-compatible with OpenAI chat completions.
type DeepSeekClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewDeepSeekClient creates a DeepSeek client.
func NewDeepSeekClient(apiKey, model string) *DeepSeekClient {
	if model == "" {
		model = "deepseek-chat"
	}
	return &DeepSeekClient{
		apiKey:     apiKey,
		baseURL:    "https://api.deepseek.com/v1",
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Model returns the configured model name.
func (c *DeepSeekClient) Model() string { return c.model }

// Generate sends a chat completion request and returns the completion.
func (c *DeepSeekClient) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Completion, error) {
	comp, err := chatCompletion(ctx, c.httpClient, c.baseURL, c.apiKey, c.model, systemPrompt, userPrompt, maxTokens)
	if err != nil {
		return Completion{}, &ProviderError{Brain: BrainDeepSeek, Model: c.model, Err: err}
	}
	return comp, nil
}
