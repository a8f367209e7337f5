package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"debaite/internal/results"
)

func writeResult(t *testing.T, dir string, res *results.DebateResult) string {
	t.Helper()
	path, err := res.Save(dir)
	require.NoError(t, err)
	return path
}

func sampleResult(id, winnerName, winnerPos string) *results.DebateResult {
	return &results.DebateResult{
		Metadata: results.DebateMetadata{
			ID:                    id,
			SessionID:             "session",
			Topic:                 "Sample Topic",
			TotalRoundsConfigured: 2,
			TotalEstimatedCostUSD: 0.5,
		},
		Participants: []results.ParticipantEntry{
			{Name: "Alice", OriginalPosition: "Yes", ConfidenceHistory: []float64{0.8}, FinalConfidence: 0.7},
			{Name: "Bob", OriginalPosition: "No", ConfidenceHistory: []float64{0.6}, FinalConfidence: 0.9},
		},
		ModeratorStats: results.ModeratorStats{Interventions: 1, Vetos: 1},
		PositionChanges: []results.PositionChangeEntry{
			{Name: "Alice", FromPosition: "Yes", ToPosition: "No", RoundWhenChanged: 2},
		},
		Evaluation: results.EvaluationSection{
			GlobalOutcome: &results.GlobalOutcome{
				WinnerName:       winnerName,
				WinnerPosition:   winnerPos,
				VoteDistribution: map[string]int{winnerName: 2},
				AverageScores:    map[string]float64{"Alice": 7.0, "Bob": 8.0},
				BestIntervention: &results.InterventionReference{
					ID: 3, Participant: "Bob", Text: "a very good point",
				},
			},
		},
	}
}

func TestSummarizeAggregatesSession(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeResult(t, dir, sampleResult("d1", "Alice", "Yes")),
		writeResult(t, dir, sampleResult("d2", "Bob", "No")),
	}

	summary, path, err := Summarize(paths, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SessionSummary.TotalDebates)
	assert.InDelta(t, 1.0, summary.SessionSummary.TotalCostUSD, 1e-9)
	assert.Equal(t, 4, summary.SessionSummary.TotalParticipants)
	assert.Equal(t, 4, summary.SessionSummary.TotalRounds)
	assert.InDelta(t, 7.5, summary.SessionSummary.GlobalAvgScore, 1e-9)

	assert.Equal(t, map[string]int{"Yes": 1, "No": 1}, summary.WinnersByPosition)
	assert.Len(t, summary.WinnersDetails, 2)
	assert.Equal(t, "Alice", summary.WinnersDetails[0].WinnerName)

	assert.Equal(t, 2, summary.ModeratorSummary["total_interventions"])
	assert.Equal(t, 2, summary.ModeratorSummary["total_vetos"])
	assert.Equal(t, 0, summary.ModeratorSummary["total_stops"])

	require.Len(t, summary.PositionChanges, 2)
	assert.Equal(t, "d1", summary.PositionChanges[0].DebateID)
	assert.Equal(t, "d2", summary.PositionChanges[1].DebateID)

	yes := summary.FinalPositionDistribution["Yes"]
	assert.Equal(t, 2, yes.Count)
	assert.InDelta(t, 50.0, yes.Percentage, 1e-9)
	assert.InDelta(t, 0.8, yes.MeanInitialConfidence, 1e-9)
	assert.InDelta(t, 0.7, yes.MeanFinalConfidence, 1e-9)

	noScores := summary.MeanScores["No"]
	assert.Equal(t, 2, noScores.Count)
	assert.InDelta(t, 8.0, noScores.Mean, 1e-9)

	require.Len(t, summary.HighlightTurns, 2)
	assert.Equal(t, "BEST", summary.HighlightTurns[0].Type)
	assert.Equal(t, "Bob", summary.HighlightTurns[0].ParticipantName)
	assert.Equal(t, "No", summary.HighlightTurns[0].ParticipantPosition)

	// Written next to the per-debate files.
	assert.Equal(t, filepath.Join(filepath.Dir(paths[0]), "final_summary.json"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSummarizeSkipsUnreadableResults(t *testing.T) {
	dir := t.TempDir()
	good := writeResult(t, dir, sampleResult("d1", "Alice", "Yes"))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{broken"), 0o644))

	summary, _, err := Summarize([]string{good, bad}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SessionSummary.TotalDebates)
}

func TestSummarizeAllUnreadableFails(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))

	_, _, err := Summarize([]string{bad}, zap.NewNop())
	require.Error(t, err)
}

func TestSummarizeNoPaths(t *testing.T) {
	_, _, err := Summarize(nil, zap.NewNop())
	require.Error(t, err)
}
