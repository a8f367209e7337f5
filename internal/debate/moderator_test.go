package debate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debaite/internal/provider"
)

// seedHistory records an opening line plus one turn from speaker so the
// moderator has something to rule on.
func seedHistory(d *Debate, speaker *Debater) {
	d.recordIntervention(&Intervention{Answer: "SYSTEM: Debate Starts.", SnapshotPosition: "System"})
	d.recordIntervention(&Intervention{
		Participant:      &speaker.Participant,
		Answer:           "You are all wrong and I can prove it.",
		SnapshotPosition: speaker.CurrentPosition(),
	})
}

func decisionMock(response string) *mockGenerator {
	return &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return textCompletion(response)
		},
	}
}

func TestDecideInterventionShortHistoryIsNone(t *testing.T) {
	d := testDebate(decisionMock("VETO|bad|out"), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	d.recordIntervention(&Intervention{Answer: "SYSTEM: Debate Starts.", SnapshotPosition: "System"})

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[0])
	assert.Equal(t, ActionNone, dec.Action)
	assert.Nil(t, dec.Message)
}

func TestDecideInterventionIgnoresSystemAndSelf(t *testing.T) {
	d := testDebate(decisionMock("VETO|bad|out"), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])
	d.recordIntervention(&Intervention{Answer: "[SYSTEM] Alice SKIPPED.", SnapshotPosition: "System"})

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionNone, dec.Action)

	d.recordIntervention(&Intervention{
		Participant:      &d.Moderator.Participant,
		Answer:           "Settle down.",
		SnapshotPosition: "Moderator",
	})
	dec = d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionNone, dec.Action)
}

func TestDecideInterventionParsesThreePartFormat(t *testing.T) {
	d := testDebate(decisionMock("SANCTION|Repeated insults|That is your first strike."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])

	assert.Equal(t, ActionSanction, dec.Action)
	assert.Equal(t, "Alice", dec.Target)
	assert.Equal(t, "Repeated insults", dec.Reason)
	require.NotNil(t, dec.Message)
	assert.Contains(t, dec.Message.Answer, "That is your first strike.")
	assert.Contains(t, dec.Message.Answer, "[MODERATOR ACTION: SANCTION | REASON: Repeated insults]")
}

func TestDecideInterventionStripsLabelPrefixes(t *testing.T) {
	d := testDebate(decisionMock("ACTION: INTERVENE|REASON: Too heated|MESSAGE: Calm down everyone."),
		"Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])

	assert.Equal(t, ActionIntervene, dec.Action)
	assert.Equal(t, "Too heated", dec.Reason)
	assert.Contains(t, dec.Message.Answer, "Calm down everyone.")
}

func TestDecideInterventionMalformedResponseIsNone(t *testing.T) {
	d := testDebate(decisionMock("I think everything is fine."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionNone, dec.Action)
	assert.Nil(t, dec.Message)
}

func TestDecideInterventionCapabilityDowngrades(t *testing.T) {
	tests := []struct {
		name     string
		response string
		caps     Capabilities
		want     Action
	}{
		{"veto without cap becomes sanction",
			"VETO|bad|out", Capabilities{Intervene: true, SkipTurn: true, StopDebate: true}, ActionSanction},
		{"veto then sanction without skip cap becomes intervene",
			"VETO|bad|out", Capabilities{Intervene: true, StopDebate: true}, ActionIntervene},
		{"stop without cap becomes intervene",
			"STOP|done|enough", Capabilities{Intervene: true, SkipTurn: true, Veto: true}, ActionIntervene},
		{"skip without cap becomes intervene",
			"SKIP|annoying|wait", Capabilities{Intervene: true, StopDebate: true, Veto: true}, ActionIntervene},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDebate(decisionMock(tt.response), "Alice", "Bob", "Carol")
			d.Moderator = testModerator("Mona")
			d.Moderator.Caps = tt.caps
			seedHistory(d, d.Participants[0])

			dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
			assert.Equal(t, tt.want, dec.Action)
		})
	}
}

func TestDecideInterventionStopAllowed(t *testing.T) {
	d := testDebate(decisionMock("STOP|We are done here|This debate is over."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionStop, dec.Action)
}

func TestDecideInterventionInterveneWithoutCapIsSilent(t *testing.T) {
	d := testDebate(decisionMock("INTERVENE|hm|listen"), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	d.Moderator.Caps = Capabilities{SkipTurn: true, StopDebate: true, Veto: true}
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionNone, dec.Action)
	assert.Nil(t, dec.Message)
}

func TestDecideInterventionSkipTargetsNextSpeaker(t *testing.T) {
	d := testDebate(decisionMock("SKIP|I do not like them|You sit this one out."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionSkip, dec.Action)
	assert.Equal(t, "Bob", dec.Target)
}

func TestDecideInterventionVetoDowngradesWithTwoActive(t *testing.T) {
	d := testDebate(decisionMock("VETO|Unbearable|You are banned."), "Alice", "Bob")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])

	assert.Equal(t, ActionIntervene, dec.Action)
	require.NotNil(t, dec.Message)
	assert.Contains(t, dec.Message.Answer, "[I wanted to ban you, but we need people]")
	assert.False(t, d.Participants[0].IsVetoed)
}

func TestDecideInterventionVetoAllowedWithThreeActive(t *testing.T) {
	d := testDebate(decisionMock("VETO|Unbearable|You are banned."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, ActionVeto, dec.Action)
	assert.Equal(t, "Alice", dec.Target)
}

func TestDecideInterventionLimitSetsPenalty(t *testing.T) {
	d := testDebate(decisionMock("LIMIT|Way too long|Keep it short."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	d.MaxLetters = 2000
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])

	assert.Equal(t, ActionLimit, dec.Action)
	assert.Equal(t, 1000, d.Participants[0].NextTurnCharLimit)
	assert.Contains(t, dec.Message.Answer, "[PENALTY: Next turn limited to 1000 chars]")
}

func TestDecideInterventionLimitFloorsAt500(t *testing.T) {
	d := testDebate(decisionMock("LIMIT|Too long|Short."), "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	d.MaxLetters = 600
	seedHistory(d, d.Participants[0])

	d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])
	assert.Equal(t, 500, d.Participants[0].NextTurnCharLimit)
}

func TestDecideInterventionCostRidesOnMessage(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return provider.Completion{Text: "INTERVENE|Too heated|Settle down.", Cost: 0.02}, provider.BrainGemini, nil
		},
	}
	d := testDebate(gen, "Alice", "Bob", "Carol")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	dec := d.Moderator.DecideIntervention(context.Background(), d, d.Participants[1])

	require.NotNil(t, dec.Message)
	assert.Equal(t, 0.02, dec.Message.Cost)
	assert.Zero(t, d.Moderator.TotalCost)
}

func TestModeratorJudgeAccruesCost(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, _ string, _ int) (provider.Completion, provider.Brain, error) {
			return provider.Completion{
				Text: `{"scores": {}, "technical_winner": "Alice", "critique": "fine"}`,
				Cost: 0.05,
			}, provider.BrainGemini, nil
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	_, err := d.Moderator.Judge(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 0.05, d.Moderator.TotalCost)
}

func TestModeratorJudgeParsesVerdict(t *testing.T) {
	response := "```json\n{\"scores\": {\"Alice\": {\"logic\": 8, \"rhetoric\": 7, \"civility\": 9}}, \"technical_winner\": \"Alice\", \"critique\": \"Lively.\"}\n```"
	d := testDebate(decisionMock(response), "Alice", "Bob")
	d.Moderator = testModerator("Mona")
	seedHistory(d, d.Participants[0])

	verdict, err := d.Moderator.Judge(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "Alice", verdict.TechnicalWinner)
	assert.Equal(t, 8.0, verdict.Scores["Alice"].Logic)
	assert.Equal(t, "Lively.", verdict.Critique)
}

func TestModeratorPersonality(t *testing.T) {
	m := testModerator("Mona")
	m.Tolerant = false
	m.InsultsAllowed = true

	p := m.personality()
	assert.Contains(t, p, "BIASED and INTOLERANT")
	assert.Contains(t, p, "Rude and aggressive")
}
