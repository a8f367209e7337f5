package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient implements Client against the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
		Timeout: 120 * time.Second,
	}
}

// NewOpenAIClient creates an OpenAI client with default config.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	cfg := DefaultOpenAIConfig(apiKey)
	if model != "" {
		cfg.Model = model
	}
	return NewOpenAIClientWithConfig(cfg)
}

// NewOpenAIClientWithConfig creates an OpenAI client with custom config.
func NewOpenAIClientWithConfig(cfg OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Generate sends a chat completion request and returns the completion.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Completion, error) {
	comp, err := chatCompletion(ctx, c.httpClient, c.baseURL, c.apiKey, c.model, systemPrompt, userPrompt, maxTokens)
	if err != nil {
		return Completion{}, &ProviderError{Brain: BrainOpenAI, Model: c.model, Err: err}
	}
	return comp, nil
}

// chatCompletion issues one OpenAI-compatible chat completion call.
// Shared with the DeepSeek client, whose API is wire-compatible.
func chatCompletion(ctx context.Context, hc *http.Client, baseURL, apiKey, model, systemPrompt, userPrompt string, maxTokens int) (Completion, error) {
	if apiKey == "" {
		return Completion{}, fmt.Errorf("API key not configured")
	}

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   clampMaxTokens(maxTokens),
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Retry loop for 429 errors
	maxRetries := 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s
			time.Sleep(time.Duration(1<<uint(i-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return Completion{}, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := hc.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return Completion{}, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var cr chatResponse
		if err := json.Unmarshal(body, &cr); err != nil {
			return Completion{}, fmt.Errorf("failed to parse response: %w", err)
		}
		if cr.Error != nil {
			return Completion{}, fmt.Errorf("API error: %s", cr.Error.Message)
		}
		if len(cr.Choices) == 0 {
			return Completion{}, fmt.Errorf("no completion returned")
		}

		return Completion{
			Text:         strings.TrimSpace(cr.Choices[0].Message.Content),
			InputTokens:  cr.Usage.PromptTokens,
			OutputTokens: cr.Usage.CompletionTokens,
			Cost:         estimateCost(model, cr.Usage.PromptTokens, cr.Usage.CompletionTokens),
		}, nil
	}

	return Completion{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}
