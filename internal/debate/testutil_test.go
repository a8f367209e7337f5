package debate

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"debaite/internal/config"
	"debaite/internal/provider"
)

// mockGenerator satisfies Generator with function fields so each test
// scripts exactly the completions it needs.
type mockGenerator struct {
	generateFunc func(ctx context.Context, brain provider.Brain, systemPrompt, userPrompt string, maxTokens int) (provider.Completion, provider.Brain, error)
	candidates   []provider.Brain
	allowed      []provider.Brain
}

func (m *mockGenerator) Generate(ctx context.Context, brain provider.Brain, systemPrompt, userPrompt string, maxTokens int) (provider.Completion, provider.Brain, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, brain, systemPrompt, userPrompt, maxTokens)
	}
	return provider.Completion{Text: "ok"}, brain, nil
}

func (m *mockGenerator) Candidates() []provider.Brain { return m.candidates }

func (m *mockGenerator) AllowedBrains() []provider.Brain {
	if m.allowed != nil {
		return m.allowed
	}
	return provider.Brains()
}

func textCompletion(text string) (provider.Completion, provider.Brain, error) {
	return provider.Completion{Text: text}, provider.BrainGemini, nil
}

// testDebate builds a deterministic two-sided debate without the random
// roster path.
func testDebate(gen Generator, names ...string) *Debate {
	cfg := config.Default()
	d := &Debate{
		Topic:            "Test Topic",
		Description:      "A test debate",
		AllowedPositions: []string{"For", "Against"},
		SessionID:        "session_test",
		DebateID:         "debate_test",
		TotalRounds:      1,
		TotalTurns:       1,
		MaxLetters:       1000,
		cfg:              cfg.Debate,
		gen:              gen,
		rng:              rand.New(rand.NewSource(42)),
		log:              zap.NewNop(),
		topicLog:         zap.NewNop(),
	}
	for i, name := range names {
		pos := "For"
		if i%2 == 1 {
			pos = "Against"
		}
		d.Participants = append(d.Participants, &Debater{
			Participant: Participant{
				Name:             name,
				Role:             RoleGeneralKnowledge,
				Attitude:         AttitudeCalm,
				Mindset:          MindsetNeutral,
				Brain:            provider.BrainGemini,
				InitialBrain:     provider.BrainGemini,
				OriginalPosition: pos,
				Gender:           GenderFemale,
				Ethnicity:        EthnicityMixed,
				ConfidenceScore:  0.8,
				OrderInDebate:    i + 1,
			},
		})
	}
	return d
}

func testModerator(name string) *Moderator {
	return &Moderator{
		Participant: Participant{
			Name:            name,
			Role:            RoleExpert,
			Attitude:        AttitudeStrict,
			Mindset:         MindsetNeutral,
			Brain:           provider.BrainGemini,
			InitialBrain:    provider.BrainGemini,
			Gender:          GenderMale,
			Ethnicity:       EthnicityAsian,
			Tolerant:        true,
			ConfidenceScore: 1.0,
		},
		Caps: Capabilities{Intervene: true, SkipTurn: true, StopDebate: true, Veto: true},
	}
}
