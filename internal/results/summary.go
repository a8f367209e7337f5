package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SessionSummary totals an entire batch session.
type SessionSummary struct {
	TotalDebates      int     `json:"total_debates"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	TotalRounds       int     `json:"total_rounds"`
	TotalParticipants int     `json:"total_participants"`
	GlobalAvgScore    float64 `json:"global_avg_score"`
	DateGenerated     string  `json:"date_generated"`
}

// WinnerDetail names the winner of one debate in the batch.
type WinnerDetail struct {
	DebateID       string `json:"debate_id"`
	WinnerName     string `json:"winner_name"`
	WinnerPosition string `json:"winner_position"`
}

// PositionStat describes how one final position fared across the batch.
type PositionStat struct {
	Count                 int     `json:"count"`
	MeanInitialConfidence float64 `json:"mean_initial_confidence"`
	MeanFinalConfidence   float64 `json:"mean_final_confidence"`
	Percentage            float64 `json:"percentage"`
}

// ScoreStat summarizes the score distribution for one debater name.
type ScoreStat struct {
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Count int     `json:"count"`
}

// HighlightTurn is a best- or worst-rated turn pulled from a debate.
type HighlightTurn struct {
	DebateID              string  `json:"debate_id"`
	Type                  string  `json:"type"`
	Text                  string  `json:"text"`
	ParticipantName       string  `json:"participant_name"`
	ParticipantPosition   string  `json:"participant_position"`
	ParticipantConfidence float64 `json:"participant_confidence"`
}

// FinalSummary is the batch-level artifact written next to the per-debate
// results.
type FinalSummary struct {
	SessionSummary            SessionSummary          `json:"session_summary"`
	ModeratorSummary          map[string]int          `json:"moderator_summary"`
	WinnersByPosition         map[string]int          `json:"winners_by_position"`
	WinnersDetails            []WinnerDetail          `json:"winners_details"`
	PositionChanges           []PositionChangeEntry   `json:"position_changes"`
	FinalPositionDistribution map[string]PositionStat `json:"final_position_distribution"`
	MeanScores                map[string]ScoreStat    `json:"mean_scores"`
	HighlightTurns            []HighlightTurn         `json:"highlight_turns"`
}

// Save writes the summary as final_summary.json inside dir.
func (s *FinalSummary) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}
	path := filepath.Join(dir, "final_summary.json")
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
