package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debaite/internal/config"
)

func TestNewProcessLevels(t *testing.T) {
	logger, err := NewProcess(config.LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0)) // info disabled at warn

	logger, err = NewProcess(config.LoggingConfig{Level: "warn", Debug: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1)) // debug wins over level
}

func TestNewProcessInvalidLevel(t *testing.T) {
	_, err := NewProcess(config.LoggingConfig{Level: "shout"})
	require.Error(t, err)
}

func TestForDebateWritesTranscriptFile(t *testing.T) {
	dir := t.TempDir()
	logger, closeFn, err := ForDebate(dir, "Big Topic!", "session_1", "debate_1")
	require.NoError(t, err)

	logger.Info("ROUND 1 BEGINS")
	closeFn()

	path := filepath.Join(dir, "big_topic", "session_1", "debate_1.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ROUND 1 BEGINS")
	// Transcript lines carry no level tag.
	assert.NotContains(t, string(data), "INFO")
}
