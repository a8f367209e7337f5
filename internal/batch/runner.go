// Package batch runs repeated debates over a topic configuration and
// folds their results into a session summary.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"debaite/internal/config"
	"debaite/internal/debate"
	"debaite/internal/logging"
)

// configSearchDir is checked when the topic config path does not
// resolve as given.
const configSearchDir = "debate_configurations"

// TopicConfig is the JSON file describing what is being debated.
type TopicConfig struct {
	TopicName        string   `json:"topic_name"`
	Description      string   `json:"description"`
	AllowedPositions []string `json:"allowed_positions"`
}

// LoadTopicConfig reads a topic configuration, also trying the
// debate_configurations directory when the path does not exist as given.
func LoadTopicConfig(path string, logger *zap.Logger) (*TopicConfig, error) {
	resolved := path
	if _, err := os.Stat(resolved); err != nil {
		alt := filepath.Join(configSearchDir, path)
		if _, altErr := os.Stat(alt); altErr != nil {
			return nil, fmt.Errorf("topic config not found: %s", path)
		}
		logger.Info("topic config found in default directory", zap.String("path", alt))
		resolved = alt
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read topic config: %w", err)
	}
	var tc TopicConfig
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("invalid topic config %s: %w", resolved, err)
	}
	if tc.TopicName == "" || len(tc.AllowedPositions) == 0 {
		return nil, fmt.Errorf("topic config %s missing topic_name or allowed_positions", resolved)
	}
	return &tc, nil
}

// Runner executes a session of repeated debates.
type Runner struct {
	Config    *config.Config
	Generator debate.Generator
	Overrides *debate.Overrides
	Logger    *zap.Logger
}

// Run executes the configured repetitions and returns the result paths
// of the debates that finished. Failed runs are logged and omitted.
func (r *Runner) Run(ctx context.Context, topic *TopicConfig) ([]string, string, error) {
	sessionID := time.Now().Format("20060102_150405")
	reps := r.Config.Batch.Repetitions
	if reps < 1 {
		reps = 1
	}

	workers := 1
	if r.Config.Batch.Parallel {
		workers = r.Config.Batch.Workers
	}
	r.Logger.Info("starting session",
		zap.String("session_id", sessionID),
		zap.Int("repetitions", reps),
		zap.Int("workers", workers))

	var mu sync.Mutex
	var paths []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < reps; i++ {
		run := i + 1
		g.Go(func() error {
			path, err := r.runOne(gctx, topic, sessionID, run)
			if err != nil {
				r.Logger.Error("run failed", zap.Int("run", run), zap.Error(err))
				return nil
			}
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, sessionID, err
	}
	return paths, sessionID, nil
}

func (r *Runner) runOne(ctx context.Context, topic *TopicConfig, sessionID string, run int) (string, error) {
	r.Logger.Info("starting run", zap.Int("run", run))

	d := debate.New(debate.Params{
		Config:           r.Config,
		Generator:        r.Generator,
		Topic:            topic.TopicName,
		Description:      topic.Description,
		AllowedPositions: topic.AllowedPositions,
		SessionID:        sessionID,
		Overrides:        r.Overrides,
		Logger:           r.Logger,
	})

	debateLog, closeLog, err := logging.ForDebate(
		r.Config.Debate.LogsDir, topic.TopicName, sessionID, d.DebateID)
	if err != nil {
		return "", err
	}
	defer closeLog()
	d.SetDebateLogger(debateLog)

	return d.Run(ctx)
}
