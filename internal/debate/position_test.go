package debate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debaite/internal/provider"
)

func TestCheckChangePositionClampsConfidence(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion("DELTA|+5.0\nREASON|Everyone agreed with me.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]
	p.ConfidenceScore = 0.8

	res := p.CheckChangePosition(context.Background(), d)

	assert.False(t, res.HasChanged)
	assert.Equal(t, 1.0, p.ConfidenceScore)
	require.Len(t, p.ConfidenceHistory, 1)
	assert.Equal(t, 1.0, p.ConfidenceHistory[0])
}

func TestCheckChangePositionNegativeClampWithoutAlternative(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion("DELTA|-5.0\nREASON|Completely destroyed.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	d.AllowedPositions = []string{"For"}
	p := d.Participants[0]

	res := p.CheckChangePosition(context.Background(), d)

	// Confidence collapsed to zero but there is nowhere to flip to.
	assert.False(t, res.HasChanged)
	assert.Equal(t, 0.0, p.ConfidenceScore)
	assert.Equal(t, "For", p.CurrentPosition())
}

func TestCheckChangePositionMindsetMultipliers(t *testing.T) {
	tests := []struct {
		name    string
		mindset Mindset
		want    float64
	}{
		{"open minded amplifies losses", MindsetOpenMinded, 0.8 - 0.1*1.2},
		{"close minded dampens losses", MindsetCloseMinded, 0.8 - 0.1*0.8},
		{"neutral unmodified", MindsetNeutral, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{
				generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
					return textCompletion("DELTA|-0.10\nREASON|Solid counterpoints.")
				},
			}
			d := testDebate(gen, "Alice", "Bob")
			p := d.Participants[0]
			p.Mindset = tt.mindset
			p.ConfidenceScore = 0.8

			p.CheckChangePosition(context.Background(), d)
			assert.InDelta(t, tt.want, p.ConfidenceScore, 1e-9)
		})
	}
}

func TestCheckChangePositionPositiveDeltaNotAmplified(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion("DELTA|+0.10\nREASON|Their logic was weak.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]
	p.Mindset = MindsetOpenMinded
	p.ConfidenceScore = 0.5

	p.CheckChangePosition(context.Background(), d)
	assert.InDelta(t, 0.6, p.ConfidenceScore, 1e-9)
}

func TestCheckChangePositionFlipsToOnlyAlternative(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion("DELTA|-0.9\nREASON|I was wrong all along.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]
	p.ConfidenceScore = 0.8

	res := p.CheckChangePosition(context.Background(), d)

	require.True(t, res.HasChanged)
	assert.Equal(t, "Against", res.NewPosition)
	assert.Equal(t, "Against", p.CurrentPosition())
	assert.Equal(t, "For", p.OriginalPosition)
	// Post-flip confidence is reset above the collapse.
	assert.InDelta(t, d.cfg.ConfidenceAfterFlip, p.ConfidenceScore, 1e-9)
	require.Len(t, p.ConfidenceHistory, 2)
	assert.Equal(t, 0.0, p.ConfidenceHistory[0])
	assert.InDelta(t, d.cfg.ConfidenceAfterFlip, p.ConfidenceHistory[1], 1e-9)
}

func TestCheckChangePositionFlipPicksNamedAlternative(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, user string, _ int) (provider.Completion, provider.Brain, error) {
			if strings.Contains(user, "MUST switch") {
				return textCompletion("I choose Maybe, it convinced me.")
			}
			return textCompletion("DELTA|-0.9\nREASON|Overwhelmed.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	d.AllowedPositions = []string{"For", "Against", "Maybe"}
	p := d.Participants[0]

	res := p.CheckChangePosition(context.Background(), d)

	require.True(t, res.HasChanged)
	assert.Equal(t, "Maybe", p.CurrentPosition())
	assert.Contains(t, res.Reasoning, "Overwhelmed")
}

func TestCheckChangePositionFlipUnparseableChoiceForcedRandom(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, user string, _ int) (provider.Completion, provider.Brain, error) {
			if strings.Contains(user, "MUST switch") {
				return textCompletion("I refuse to answer.")
			}
			return textCompletion("DELTA|-0.9\nREASON|Overwhelmed.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	d.AllowedPositions = []string{"For", "Against", "Maybe"}
	p := d.Participants[0]

	res := p.CheckChangePosition(context.Background(), d)

	require.True(t, res.HasChanged)
	assert.NotEqual(t, "For", p.CurrentPosition())
	assert.Contains(t, []string{"Against", "Maybe"}, p.CurrentPosition())
}

func TestCheckChangePositionMalformedOutputKeepsPosition(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion("I am not sure what you want from me.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]
	p.ConfidenceScore = 0.8

	res := p.CheckChangePosition(context.Background(), d)

	assert.False(t, res.HasChanged)
	assert.Equal(t, 0.8, p.ConfidenceScore)
	assert.Contains(t, res.Reasoning, "No reason parsed")
}

func TestCheckChangePositionColonFormatAccepted(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion("DELTA: -0.05\nREASON: Minor doubts.")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]
	p.ConfidenceScore = 0.8

	res := p.CheckChangePosition(context.Background(), d)
	assert.InDelta(t, 0.75, p.ConfidenceScore, 1e-9)
	assert.Contains(t, res.Reasoning, "Minor doubts")
}

func TestGenerateRecordsBrainSwitch(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return provider.Completion{Text: "ok", Cost: 0.002}, provider.BrainClaude, nil
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]
	require.Equal(t, provider.BrainGemini, p.Brain)

	_, err := p.generate(context.Background(), d.gen, "sys", "user", 100)
	require.NoError(t, err)
	assert.Equal(t, provider.BrainClaude, p.Brain)
	assert.Equal(t, provider.BrainGemini, p.InitialBrain)
	assert.InDelta(t, 0.002, p.TotalCost, 1e-9)
}

func TestGenerateFailureLeavesStateUntouched(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, b provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return provider.Completion{}, b, fmt.Errorf("all providers down")
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	p := d.Participants[0]

	_, err := p.generate(context.Background(), d.gen, "sys", "user", 100)
	require.Error(t, err)
	assert.Equal(t, provider.BrainGemini, p.Brain)
	assert.Zero(t, p.TotalCost)
}
