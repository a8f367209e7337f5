// Package provider implements the text generation port: HTTP/SDK clients
// for the supported model providers, credential resolution per brain, and
// bounded failover between brains.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// Brain identifies the logical provider backing a participant's speech.
type Brain string

const (
	BrainGemini   Brain = "gemini"
	BrainOpenAI   Brain = "openai"
	BrainDeepSeek Brain = "deepseek"
	BrainClaude   Brain = "claude"
)

// Brains lists every known brain in a stable order.
func Brains() []Brain {
	return []Brain{BrainGemini, BrainOpenAI, BrainDeepSeek, BrainClaude}
}

// ParseBrain resolves a brain from a case-insensitive name or value.
// Accepts dotted enum dumps like "BrainType.GEMINI" from legacy configs.
func ParseBrain(s string) (Brain, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(v, "."); i >= 0 {
		v = v[i+1:]
	}
	for _, b := range Brains() {
		if string(b) == v {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown brain %q", s)
}

// Completion is the result of one generation call.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Client is the minimal contract a provider client satisfies.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Completion, error)
	Model() string
}

// ProviderError wraps a transport, auth, or quota failure from a provider.
type ProviderError struct {
	Brain Brain
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %v", e.Brain, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// modelPrice holds USD cost per million tokens.
type modelPrice struct {
	input  float64
	output float64
}

// Rough published list prices; matched by substring so versioned model
// names still resolve.
var priceTable = map[string]modelPrice{
	"gemini-1.5-flash": {0.075, 0.30},
	"gemini-2.0-flash": {0.10, 0.40},
	"gemini":           {0.10, 0.40},
	"gpt-4o-mini":      {0.15, 0.60},
	"gpt-4o":           {2.50, 10.00},
	"deepseek-chat":    {0.27, 1.10},
	"deepseek":         {0.27, 1.10},
	"haiku":            {0.80, 4.00},
	"sonnet":           {3.00, 15.00},
	"opus":             {15.00, 75.00},
	"claude":           {3.00, 15.00},
}

var defaultPrice = modelPrice{0.50, 1.50}

// estimateCost approximates the USD cost of a call from token counts.
func estimateCost(model string, inputTokens, outputTokens int) float64 {
	price := defaultPrice
	lower := strings.ToLower(model)
	best := -1
	for key, p := range priceTable {
		if strings.Contains(lower, key) && len(key) > best {
			price = p
			best = len(key)
		}
	}
	return float64(inputTokens)*price.input/1e6 + float64(outputTokens)*price.output/1e6
}

// clampMaxTokens bounds a caller-supplied token budget to what the
// providers accept.
func clampMaxTokens(maxTokens int) int {
	if maxTokens <= 0 || maxTokens > 4096 {
		return 4096
	}
	return maxTokens
}
