package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements Client using the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// Generate sends a generation request and returns the completion.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Completion, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(clampMaxTokens(maxTokens)),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return Completion{}, &ProviderError{Brain: BrainGemini, Model: c.model, Err: err}
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return Completion{}, &ProviderError{Brain: BrainGemini, Model: c.model, Err: fmt.Errorf("no completion returned")}
	}

	var inTok, outTok int
	if result.UsageMetadata != nil {
		inTok = int(result.UsageMetadata.PromptTokenCount)
		outTok = int(result.UsageMetadata.CandidatesTokenCount)
	}

	return Completion{
		Text:         text,
		InputTokens:  inTok,
		OutputTokens: outTok,
		Cost:         estimateCost(c.model, inTok, outTok),
	}, nil
}
