// debaite runs LLM-driven debate simulations: randomized rosters argue
// a configured topic, optionally moderated, with results persisted as
// JSON and summarized across batch sessions.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"debaite/internal/batch"
	"debaite/internal/config"
	"debaite/internal/debate"
	"debaite/internal/logging"
	"debaite/internal/provider"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger

	// Batch flags
	repetitions    int
	parallel       bool
	workers        int
	maxTurnLetters int

	// Trait override flags; empty means unset.
	partRole, partBrain, partAttitude, partMindset string
	partInsults, partLies                          string
	modRole, modBrain, modAttitude, modMindset     string
	modInsults, modLies                            string
)

var rootCmd = &cobra.Command{
	Use:   "debaite",
	Short: "debaite - Multi-agent LLM debate simulator",
	Long: `debaite simulates structured debates between LLM-driven participants.

Each debate rolls a random roster of debaters with distinct roles,
attitudes, mindsets, and provider brains, optionally presided over by a
moderator who can intervene, sanction, skip, limit, or veto. Debaters
re-evaluate their confidence each round and may flip position; the
finished debate is scored by peer vote and saved as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Debug = true
		}

		logger, err = logging.NewProcess(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [topic-config.json]",
	Short: "Run a single debate",
	Long: `Runs one debate over the given topic configuration and prints the
path of the saved result. The topic config is looked up as given, then
under debate_configurations/.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Batch.Repetitions = 1
		cfg.Batch.Parallel = false
		return runSession(cmd, args[0])
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [topic-config.json]",
	Short: "Run repeated debates and summarize the session",
	Long: `Runs the configured number of repetitions over one topic, optionally
in parallel, then folds the per-debate results into final_summary.json
inside the session folder.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if repetitions > 0 {
			cfg.Batch.Repetitions = repetitions
		}
		if parallel {
			cfg.Batch.Parallel = true
		}
		if workers > 0 {
			cfg.Batch.Workers = workers
		}
		return runSession(cmd, args[0])
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [session-dir]",
	Short: "Rebuild the batch summary from saved results",
	Long: `Reads every per-debate result JSON in the given session directory and
regenerates final_summary.json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := filepath.Glob(filepath.Join(args[0], "*.json"))
		if err != nil {
			return err
		}
		var resultPaths []string
		for _, p := range paths {
			if filepath.Base(p) != "final_summary.json" {
				resultPaths = append(resultPaths, p)
			}
		}
		if len(resultPaths) == 0 {
			return fmt.Errorf("no result files in %s", args[0])
		}
		_, path, err := batch.Summarize(resultPaths, logger)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func runSession(cmd *cobra.Command, topicPath string) error {
	topic, err := batch.LoadTopicConfig(topicPath, logger)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	runner := &batch.Runner{
		Config:    cfg,
		Generator: provider.NewPool(cfg, rng, logger),
		Overrides: buildOverrides(),
		Logger:    logger,
	}

	paths, sessionID, err := runner.Run(cmd.Context(), topic)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("session %s produced no results", sessionID)
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}

	if cfg.Batch.Repetitions > 1 || len(paths) > 1 {
		if _, _, err := batch.Summarize(paths, logger); err != nil {
			logger.Error("summary generation failed", zap.Error(err))
		}
	}
	return nil
}

// buildOverrides folds CLI flags and their environment fallbacks into
// the debate trait overrides.
func buildOverrides() *debate.Overrides {
	ov := &debate.Overrides{
		Participant: debate.TraitOverrides{
			Role:     flagOrEnv(partRole, "PARTICIPANT_ROLE"),
			Brain:    flagOrEnv(partBrain, "PARTICIPANT_BRAIN"),
			Attitude: flagOrEnv(partAttitude, "PARTICIPANT_ATTITUDE"),
			Mindset:  flagOrEnv(partMindset, "PARTICIPANT_MINDSET"),
			Gender:   flagOrEnv("", "PARTICIPANT_GENDER"),
			Tolerant: parseBoolFlag(flagOrEnv("", "PARTICIPANT_TOLERANT")),
			Insults:  parseBoolFlag(flagOrEnv(partInsults, "PARTICIPANT_INSULTS")),
			Lies:     parseBoolFlag(flagOrEnv(partLies, "PARTICIPANT_LIES")),
		},
		Moderator: debate.TraitOverrides{
			Role:     flagOrEnv(modRole, "MODERATOR_ROLE"),
			Brain:    flagOrEnv(modBrain, "MODERATOR_BRAIN"),
			Attitude: flagOrEnv(modAttitude, "MODERATOR_ATTITUDE"),
			Mindset:  flagOrEnv(modMindset, "MODERATOR_MINDSET"),
			Gender:   flagOrEnv("", "MODERATOR_GENDER"),
			Tolerant: parseBoolFlag(flagOrEnv("", "MODERATOR_TOLERANT")),
			Insults:  parseBoolFlag(flagOrEnv(modInsults, "MODERATOR_INSULTS")),
			Lies:     parseBoolFlag(flagOrEnv(modLies, "MODERATOR_LIES")),
		},
		MaxLetters: maxTurnLetters,
	}
	return ov
}

func flagOrEnv(flagVal, envVar string) string {
	if strings.TrimSpace(flagVal) != "" {
		return flagVal
	}
	return strings.TrimSpace(os.Getenv(envVar))
}

// parseBoolFlag maps "true"/"false" to a pin, anything else to unset.
func parseBoolFlag(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "debaite.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, cmd := range []*cobra.Command{runCmd, batchCmd} {
		cmd.Flags().IntVar(&maxTurnLetters, "max-turn-letters", 0, "Override max letters per turn (fixed value)")
		cmd.Flags().StringVar(&partRole, "part-role", "", "Force role for all participants")
		cmd.Flags().StringVar(&partBrain, "part-brain", "", "Force brain for all participants")
		cmd.Flags().StringVar(&partAttitude, "part-attitude", "", "Force attitude for all participants")
		cmd.Flags().StringVar(&partMindset, "part-mindset", "", "Force mindset for all participants")
		cmd.Flags().StringVar(&partInsults, "part-insults", "", "Allow insults for all participants (true/false)")
		cmd.Flags().StringVar(&partLies, "part-lies", "", "Allow lies for all participants (true/false)")
		cmd.Flags().StringVar(&modRole, "mod-role", "", "Force role for moderator")
		cmd.Flags().StringVar(&modBrain, "mod-brain", "", "Force brain for moderator")
		cmd.Flags().StringVar(&modAttitude, "mod-attitude", "", "Force attitude for moderator")
		cmd.Flags().StringVar(&modMindset, "mod-mindset", "", "Force mindset for moderator")
		cmd.Flags().StringVar(&modInsults, "mod-insults", "", "Allow insults for moderator (true/false)")
		cmd.Flags().StringVar(&modLies, "mod-lies", "", "Allow lies for moderator (true/false)")
	}

	batchCmd.Flags().IntVar(&repetitions, "repetitions", 0, "Override repetitions")
	batchCmd.Flags().BoolVar(&parallel, "parallel", false, "Enable parallel execution")
	batchCmd.Flags().IntVar(&workers, "workers", 0,
		"Worker goroutines (0 uses the configured default)")

	rootCmd.AddCommand(runCmd, batchCmd, summarizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
