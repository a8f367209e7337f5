package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"debaite/internal/config"
	"debaite/internal/debate"
	"debaite/internal/provider"
	"debaite/internal/results"
)

// sessionGenerator answers every prompt kind a full debate produces.
type sessionGenerator struct{}

func (sessionGenerator) Generate(_ context.Context, brain provider.Brain, sys, user string, _ int) (provider.Completion, provider.Brain, error) {
	var text string
	switch {
	case strings.Contains(sys, "the MODERATOR"):
		text = "nothing to report"
	case strings.Contains(sys, "Moderator and Judge"):
		text = `{"scores": {"Ada": {"logic": 8, "rhetoric": 7, "civility": 9}}, "technical_winner": "Ada", "critique": "solid"}`
	case strings.Contains(user, "Respond in EXACT format"):
		text = "DELTA|+0.0\nREASON|unmoved"
	case strings.Contains(user, "VALID JSON format ONLY"):
		text = `{"winner": "Ada", "best_turn": 0, "worst_turn": 1, "scores": {"Ada": 8, "Lin": 6}}`
	default:
		text = "As Ada said, I see it differently."
	}
	return provider.Completion{Text: text, InputTokens: 5, OutputTokens: 5, Cost: 0.0001}, brain, nil
}

func (sessionGenerator) Candidates() []provider.Brain { return nil }

func (sessionGenerator) AllowedBrains() []provider.Brain { return provider.Brains() }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Debate.MinRounds, cfg.Debate.MaxRounds = 1, 1
	cfg.Debate.MinTurns, cfg.Debate.MaxTurns = 1, 1
	cfg.Debate.ResultsDir = filepath.Join(t.TempDir(), "results")
	cfg.Debate.LogsDir = filepath.Join(t.TempDir(), "logs")
	return cfg
}

func pinnedRoster() *debate.Overrides {
	return &debate.Overrides{
		Moderator: debate.TraitOverrides{Brain: "gemini"},
		Participants: []debate.ManualParticipant{
			{Name: "Ada", Position: "Yes"},
			{Name: "Lin", Position: "No"},
		},
	}
}

func TestRunnerRunProducesResults(t *testing.T) {
	r := &Runner{
		Config:    smallConfig(t),
		Generator: sessionGenerator{},
		Overrides: pinnedRoster(),
		Logger:    zap.NewNop(),
	}
	topic := &TopicConfig{
		TopicName:        "Runner Topic",
		Description:      "batch runner test",
		AllowedPositions: []string{"Yes", "No"},
	}

	paths, sessionID, err := r.Run(context.Background(), topic)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.NotEmpty(t, sessionID)
	assert.Contains(t, paths[0], "runner_topic")
	assert.Contains(t, paths[0], sessionID)

	res, err := results.Load(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "Runner Topic", res.Metadata.Topic)
	assert.Equal(t, sessionID, res.Metadata.SessionID)
	require.Len(t, res.Participants, 2)
	require.NotNil(t, res.Evaluation.GlobalOutcome)
	assert.Equal(t, "Ada", res.Evaluation.GlobalOutcome.WinnerName)
	assert.Equal(t, "Yes", res.Evaluation.GlobalOutcome.WinnerPosition)
	require.NotNil(t, res.Moderator)
}

func TestRunnerRepetitions(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Batch.Repetitions = 3
	r := &Runner{
		Config:    cfg,
		Generator: sessionGenerator{},
		Overrides: pinnedRoster(),
		Logger:    zap.NewNop(),
	}
	topic := &TopicConfig{TopicName: "Reps", AllowedPositions: []string{"Yes", "No"}}

	paths, _, err := r.Run(context.Background(), topic)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

func TestRunnerParallel(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Batch.Repetitions = 4
	cfg.Batch.Parallel = true
	cfg.Batch.Workers = 2
	r := &Runner{
		Config:    cfg,
		Generator: sessionGenerator{},
		Overrides: pinnedRoster(),
		Logger:    zap.NewNop(),
	}
	topic := &TopicConfig{TopicName: "Parallel", AllowedPositions: []string{"Yes", "No"}}

	paths, _, err := r.Run(context.Background(), topic)
	require.NoError(t, err)
	assert.Len(t, paths, 4)
}

func TestLoadTopicConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topic.json")
	writeFile(t, path, `{"topic_name": "T", "description": "d", "allowed_positions": ["A", "B"]}`)

	tc, err := LoadTopicConfig(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "T", tc.TopicName)
	assert.Equal(t, []string{"A", "B"}, tc.AllowedPositions)
}

func TestLoadTopicConfigMissing(t *testing.T) {
	_, err := LoadTopicConfig(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	require.Error(t, err)
}

func TestLoadTopicConfigRequiresPositions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topic.json")
	writeFile(t, path, `{"topic_name": "T"}`)

	_, err := LoadTopicConfig(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed_positions")
}
