// Package config holds all debaite configuration: provider credentials,
// debate tuning knobs, batch execution, and logging. Values come from an
// optional YAML file, overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all debaite configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Provider credentials and model selection per brain
	Providers ProvidersConfig `yaml:"providers"`

	// Debate tuning
	Debate DebateConfig `yaml:"debate"`

	// Batch execution
	Batch BatchConfig `yaml:"batch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ProviderConfig configures a single brain's backing provider.
type ProviderConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
}

// ProvidersConfig maps each brain to its provider settings.
type ProvidersConfig struct {
	Gemini   ProviderConfig `yaml:"gemini"`
	OpenAI   ProviderConfig `yaml:"openai"`
	DeepSeek ProviderConfig `yaml:"deepseek"`
	Claude   ProviderConfig `yaml:"claude"`

	// Available restricts which brains participants may roll.
	// "all" or a comma-separated subset of brain names.
	Available string `yaml:"available"`
}

// DebateConfig tunes roster generation and the orchestration loop.
type DebateConfig struct {
	MinParticipants int `yaml:"min_participants"`
	MaxParticipants int `yaml:"max_participants"`

	MinRounds int `yaml:"min_rounds"`
	MaxRounds int `yaml:"max_rounds"`
	MinTurns  int `yaml:"min_turns"`
	MaxTurns  int `yaml:"max_turns"`

	MinLettersPerTurn int `yaml:"min_letters_per_turn"`
	MaxLettersPerTurn int `yaml:"max_letters_per_turn"`

	MaxStrikesForVeto      int `yaml:"max_strikes_for_veto"`
	MemoryCompressionTurns int `yaml:"memory_compression_turns"`

	ConfidenceFlipThreshold float64 `yaml:"confidence_flip_threshold"`
	ConfidenceAfterFlip     float64 `yaml:"confidence_after_flip"`
	OpenMindedImpact        float64 `yaml:"open_minded_impact"`
	CloseMindedImpact       float64 `yaml:"close_minded_impact"`

	Language   string `yaml:"language"`
	ResultsDir string `yaml:"results_dir"`
	LogsDir    string `yaml:"logs_dir"`
}

// BatchConfig configures multi-debate execution.
type BatchConfig struct {
	Repetitions int  `yaml:"repetitions"`
	Workers     int  `yaml:"workers"`
	Parallel    bool `yaml:"parallel"`
}

// LoggingConfig configures process and per-debate logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// Default returns a Config with the stock tuning values.
func Default() *Config {
	return &Config{
		Name:    "debaite",
		Version: "1.0",
		Providers: ProvidersConfig{
			Available: "all",
		},
		Debate: DebateConfig{
			MinParticipants:         2,
			MaxParticipants:         5,
			MinRounds:               1,
			MaxRounds:               3,
			MinTurns:                5,
			MaxTurns:                10,
			MinLettersPerTurn:       1000,
			MaxLettersPerTurn:       2000,
			MaxStrikesForVeto:       3,
			MemoryCompressionTurns:  10,
			ConfidenceFlipThreshold: 0.3,
			ConfidenceAfterFlip:     0.6,
			OpenMindedImpact:        1.2,
			CloseMindedImpact:       0.8,
			Language:                "English",
			ResultsDir:              "debate_results",
			LogsDir:                 "debate_logs",
		},
		Batch: BatchConfig{
			Repetitions: 1,
			Workers:     2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML config at path (missing file is not an error),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// applyEnvOverrides maps the environment variables onto the config.
func (c *Config) applyEnvOverrides() {
	envStr(&c.Providers.Gemini.APIKey, "GEMINI_API_KEY")
	envStr(&c.Providers.Gemini.Model, "GEMINI_MODEL")
	envStr(&c.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	envStr(&c.Providers.OpenAI.Model, "OPENAI_MODEL")
	envStr(&c.Providers.DeepSeek.APIKey, "DEEPSEEK_API_KEY")
	envStr(&c.Providers.DeepSeek.Model, "DEEPSEEK_MODEL")
	envStr(&c.Providers.Claude.APIKey, "ANTHROPIC_API_KEY")
	envStr(&c.Providers.Claude.Model, "ANTHROPIC_MODEL")
	envStr(&c.Providers.Available, "AVAILABLE_BRAINS")

	envInt(&c.Debate.MinParticipants, "MIN_PARTICIPANTS")
	envInt(&c.Debate.MaxParticipants, "MAX_PARTICIPANTS")
	envInt(&c.Debate.MinRounds, "MIN_TOTAL_ROUNDS")
	envInt(&c.Debate.MaxRounds, "MAX_TOTAL_ROUNDS")
	envInt(&c.Debate.MinTurns, "MIN_TOTAL_TURNS")
	envInt(&c.Debate.MaxTurns, "MAX_TOTAL_TURNS")
	envInt(&c.Debate.MinLettersPerTurn, "MIN_MAX_LETTERS_PER_PARTICIPANT_PER_TURN")
	envInt(&c.Debate.MaxLettersPerTurn, "MAX_MAX_LETTERS_PER_PARTICIPANT_PER_TURN")
	envInt(&c.Debate.MaxStrikesForVeto, "MAX_STRIKES_FOR_VETO")
	envInt(&c.Debate.MemoryCompressionTurns, "MEMORY_COMPRESSION_TURNS")

	envFloat(&c.Debate.ConfidenceFlipThreshold, "CONFIDENCE_FLIP_THRESHOLD")
	envFloat(&c.Debate.ConfidenceAfterFlip, "CONFIDENCE_AFTER_FLIP")
	envFloat(&c.Debate.OpenMindedImpact, "OPEN_MINDED_IMPACT_MULTIPLIER")
	envFloat(&c.Debate.CloseMindedImpact, "CLOSE_MINDED_IMPACT_MULTIPLIER")

	envStr(&c.Debate.Language, "LANGUAGE")
	envInt(&c.Batch.Repetitions, "DEBATE_REPETITIONS")
}

// normalize repairs inverted or degenerate bounds.
func (c *Config) normalize() {
	if c.Debate.MinLettersPerTurn > c.Debate.MaxLettersPerTurn {
		c.Debate.MinLettersPerTurn, c.Debate.MaxLettersPerTurn = c.Debate.MaxLettersPerTurn, c.Debate.MinLettersPerTurn
	}
	if c.Debate.MinParticipants < 1 {
		c.Debate.MinParticipants = 1
	}
	if c.Debate.MaxParticipants < c.Debate.MinParticipants {
		c.Debate.MaxParticipants = c.Debate.MinParticipants
	}
	if c.Batch.Workers < 1 {
		c.Batch.Workers = 1
	}
}

// AvailableBrains returns the configured brain allowlist, lowercased.
// Empty or "all" means no restriction.
func (c *Config) AvailableBrains() []string {
	raw := strings.ToLower(strings.TrimSpace(c.Providers.Available))
	if raw == "" || raw == "all" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
