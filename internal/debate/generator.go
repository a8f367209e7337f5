package debate

import (
	"context"

	"debaite/internal/provider"
)

// Generator produces LLM completions for debate participants. The
// returned brain may differ from the requested one when the generator
// had to fail over to another provider; callers persist the switch so
// later turns keep using the working brain.
type Generator interface {
	Generate(ctx context.Context, brain provider.Brain, systemPrompt, userPrompt string, maxTokens int) (provider.Completion, provider.Brain, error)

	// Candidates lists brains with working credentials, in stable order.
	Candidates() []provider.Brain

	// AllowedBrains lists brains eligible for roster assignment.
	AllowedBrains() []provider.Brain
}
