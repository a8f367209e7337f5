package provider

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"debaite/internal/config"
)

// mockText is returned when no brain anywhere has usable credentials.
// The call is treated as successful but free, so a debate can still run
// end to end in a dry environment.
const mockText = "Mock Response (No Valid Key Found)"

// maxBrainSwitches bounds the failover loop.
const maxBrainSwitches = 3

// Pool resolves brains to clients and fails over between them.
// Clients are built lazily and cached; the pool is safe for use from
// multiple debates at once.
type Pool struct {
	cfg    *config.Config
	logger *zap.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	clients map[string]Client
}

// NewPool creates a Pool over the configured providers. rng drives the
// random alternate-brain pick on failover and may be seeded for tests.
func NewPool(cfg *config.Config, rng *rand.Rand, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:     cfg,
		rng:     rng,
		logger:  logger,
		clients: make(map[string]Client),
	}
}

// Resolve returns the model name and API key for a brain.
// Priority: per-brain config (which already absorbed environment
// overrides at load time), then a deterministic default model.
func (p *Pool) Resolve(brain Brain) (model, apiKey string) {
	var pc config.ProviderConfig
	switch brain {
	case BrainGemini:
		pc = p.cfg.Providers.Gemini
		if pc.Model == "" {
			pc.Model = "gemini-1.5-flash"
		}
	case BrainOpenAI:
		pc = p.cfg.Providers.OpenAI
		if pc.Model == "" {
			pc.Model = "gpt-4o"
		}
	case BrainDeepSeek:
		pc = p.cfg.Providers.DeepSeek
		if pc.Model == "" {
			pc.Model = "deepseek-chat"
		}
	case BrainClaude:
		pc = p.cfg.Providers.Claude
		if pc.Model == "" {
			pc.Model = "claude-3-5-sonnet-latest"
		}
	}
	return pc.Model, pc.APIKey
}

// hasKey reports whether a brain has a usable credential.
func (p *Pool) hasKey(brain Brain) bool {
	_, key := p.Resolve(brain)
	return key != "" && key != "CHANGE-ME"
}

// AllowedBrains returns the brains participants may use, honoring the
// configured allowlist. Falls back to every brain when the allowlist
// matches nothing.
func (p *Pool) AllowedBrains() []Brain {
	allow := p.cfg.AvailableBrains()
	if allow == nil {
		return Brains()
	}
	var out []Brain
	for _, b := range Brains() {
		for _, a := range allow {
			if string(b) == a {
				out = append(out, b)
				break
			}
		}
	}
	if len(out) == 0 {
		return Brains()
	}
	return out
}

// Candidates returns the brains that currently hold credentials, in
// stable order. Used for first-success-wins calls such as history
// compression.
func (p *Pool) Candidates() []Brain {
	var out []Brain
	for _, b := range p.AllowedBrains() {
		if p.hasKey(b) {
			out = append(out, b)
		}
	}
	return out
}

// client returns (building if needed) the cached client for a brain.
func (p *Pool) client(ctx context.Context, brain Brain) (Client, error) {
	model, key := p.Resolve(brain)

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[string(brain)]; ok {
		return c, nil
	}

	var (
		c   Client
		err error
	)
	switch brain {
	case BrainGemini:
		c, err = NewGeminiClient(ctx, key, model)
	case BrainOpenAI:
		c = NewOpenAIClient(key, model)
	case BrainDeepSeek:
		c = NewDeepSeekClient(key, model)
	case BrainClaude:
		c = NewAnthropicClient(key, model)
	}
	if err != nil {
		return nil, &ProviderError{Brain: brain, Model: model, Err: err}
	}
	p.clients[string(brain)] = c
	return c, nil
}

// switchBrain picks a random alternate brain with credentials.
// Returns the old brain and false when nothing else is available.
func (p *Pool) switchBrain(current Brain, reason string) (Brain, bool) {
	var candidates []Brain
	for _, b := range p.AllowedBrains() {
		if b != current && p.hasKey(b) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return current, false
	}

	p.mu.Lock()
	next := candidates[p.rng.Intn(len(candidates))]
	p.mu.Unlock()

	p.logger.Warn("brain switch",
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.String("reason", reason))
	return next, true
}

// Generate runs one generation call on the given brain, failing over to
// alternate brains on error up to maxBrainSwitches attempts. It returns
// the brain that actually served the call so callers can record a
// permanent switch. When no brain anywhere has credentials, a zero-cost
// placeholder completion is returned instead of an error.
func (p *Pool) Generate(ctx context.Context, brain Brain, systemPrompt, userPrompt string, maxTokens int) (Completion, Brain, error) {
	attempts := 0
	current := brain
	for {
		if !p.hasKey(current) {
			if attempts < maxBrainSwitches {
				if next, ok := p.switchBrain(current, "no key or invalid key"); ok {
					current = next
					attempts++
					continue
				}
			}
			return Completion{Text: mockText}, current, nil
		}

		c, err := p.client(ctx, current)
		if err == nil {
			var comp Completion
			comp, err = c.Generate(ctx, systemPrompt, userPrompt, maxTokens)
			if err == nil {
				return comp, current, nil
			}
		}

		if attempts < maxBrainSwitches {
			if next, ok := p.switchBrain(current, err.Error()); ok {
				current = next
				attempts++
				continue
			}
		}
		return Completion{}, current, err
	}
}
