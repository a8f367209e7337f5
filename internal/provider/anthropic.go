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

// AnthropicClient implements Client against the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    "https://api.anthropic.com/v1",
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string { return c.model }

// Generate sends a messages request and returns the completion.
func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Completion, error) {
	comp, err := c.generate(ctx, systemPrompt, userPrompt, maxTokens)
	if err != nil {
		return Completion{}, &ProviderError{Brain: BrainClaude, Model: c.model, Err: err}
	}
	return comp, nil
}

func (c *AnthropicClient) generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Completion, error) {
	if c.apiKey == "" {
		return Completion{}, fmt.Errorf("API key not configured")
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: clampMaxTokens(maxTokens),
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Completion{}, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ar anthropicResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return Completion{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if ar.Error != nil {
		return Completion{}, fmt.Errorf("API error: %s", ar.Error.Message)
	}
	if len(ar.Content) == 0 {
		return Completion{}, fmt.Errorf("no completion returned")
	}

	var result strings.Builder
	for _, content := range ar.Content {
		if content.Type == "text" {
			result.WriteString(content.Text)
		}
	}

	return Completion{
		Text:         strings.TrimSpace(result.String()),
		InputTokens:  ar.Usage.InputTokens,
		OutputTokens: ar.Usage.OutputTokens,
		Cost:         estimateCost(c.model, ar.Usage.InputTokens, ar.Usage.OutputTokens),
	}, nil
}
