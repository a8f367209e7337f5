// Package logging builds the process logger and the per-debate
// transcript log files under the configured logs directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"debaite/internal/config"
	"debaite/internal/results"
)

// NewProcess builds the structured process logger.
func NewProcess(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ForDebate opens a human-readable transcript log at
// logsDir/<safe-topic>/<session>/<debate-id>.log. The returned close
// function flushes and releases the file.
func ForDebate(logsDir, topic, sessionID, debateID string) (*zap.Logger, func(), error) {
	dir := filepath.Join(logsDir, results.SafeTopic(topic), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create logs dir: %w", err)
	}

	path := filepath.Join(dir, debateID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open debate log: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = nil
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(f),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}
