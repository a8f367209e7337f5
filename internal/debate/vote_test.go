package debate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debaite/internal/provider"
)

func TestParseBallot(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		b, err := parseBallot(`{"winner": "Bob", "best_turn": 3, "worst_turn": 1, "scores": {"Bob": 8.5}}`)
		require.NoError(t, err)
		assert.Equal(t, "Bob", b.Winner)
		require.NotNil(t, b.BestTurn)
		assert.Equal(t, 3, *b.BestTurn)
		require.NotNil(t, b.WorstTurn)
		assert.Equal(t, 1, *b.WorstTurn)
		assert.Equal(t, 8.5, b.Scores["Bob"])
	})

	t.Run("fenced JSON with prose", func(t *testing.T) {
		text := "Sure, here is my vote:\n```json\n{\"winner\": \"Ada\", \"scores\": {}}\n```\nHope that helps."
		b, err := parseBallot(text)
		require.NoError(t, err)
		assert.Equal(t, "Ada", b.Winner)
		assert.Nil(t, b.BestTurn)
	})

	t.Run("fractional turn IDs truncated", func(t *testing.T) {
		b, err := parseBallot(`{"winner": "Bob", "best_turn": 2.0, "worst_turn": 12.5, "scores": {"Bob": 7.0}}`)
		require.NoError(t, err)
		assert.Equal(t, "Bob", b.Winner)
		require.NotNil(t, b.BestTurn)
		assert.Equal(t, 2, *b.BestTurn)
		require.NotNil(t, b.WorstTurn)
		assert.Equal(t, 12, *b.WorstTurn)
	})

	t.Run("missing fields tolerated", func(t *testing.T) {
		b, err := parseBallot(`{"best_turn": 2}`)
		require.NoError(t, err)
		assert.Empty(t, b.Winner)
		assert.NotNil(t, b.Scores)
	})

	t.Run("no JSON object", func(t *testing.T) {
		_, err := parseBallot("I will not vote.")
		assert.Error(t, err)
	})

	t.Run("broken JSON", func(t *testing.T) {
		_, err := parseBallot(`{"winner": "Bob",}`)
		assert.Error(t, err)
	})
}

func TestEvaluatePerformanceSoloParticipantAbstains(t *testing.T) {
	d := testDebate(&mockGenerator{}, "Alice")
	ballot, err := d.Participants[0].EvaluatePerformance(context.Background(), d)
	require.NoError(t, err)
	assert.Nil(t, ballot)
}

func TestEvaluatePerformanceTruncatesTranscript(t *testing.T) {
	long := make([]rune, 400)
	for i := range long {
		long[i] = 'x'
	}
	var seenUser string
	gen := &mockGenerator{
		generateFunc: func(_ context.Context, _ provider.Brain, _, user string, _ int) (provider.Completion, provider.Brain, error) {
			seenUser = user
			return textCompletion(`{"winner": "Bob", "scores": {}}`)
		},
	}
	d := testDebate(gen, "Alice", "Bob")
	d.recordIntervention(&Intervention{Answer: string(long), SnapshotPosition: "System"})

	_, err := d.Participants[0].EvaluatePerformance(context.Background(), d)
	require.NoError(t, err)
	assert.NotContains(t, seenUser, string(long))
	assert.Contains(t, seenUser, string(long[:150]))
}
