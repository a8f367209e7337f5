// Package results defines the persisted JSON schema for finished
// debates and batch summaries, plus the disk layout they are saved to.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// UsageStats carries per-call token counts and the estimated USD cost.
type UsageStats struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// TranscriptEntry is one spoken turn, moderator ruling, or system note.
type TranscriptEntry struct {
	ParticipantName     string     `json:"participant_name"`
	ParticipantPosition string     `json:"participant_position"`
	Confidence          float64    `json:"confidence"`
	Text                string     `json:"text"`
	Usage               UsageStats `json:"usage"`
}

// PositionChangeEntry records a debater abandoning their original stance.
type PositionChangeEntry struct {
	Name             string `json:"name"`
	FromPosition     string `json:"from"`
	ToPosition       string `json:"to"`
	RoundWhenChanged int    `json:"round_when_changed"`
	DebateID         string `json:"debate_id,omitempty"`
}

// InterventionReference points at a transcript turn singled out by a voter.
type InterventionReference struct {
	ID          int    `json:"id"`
	Participant string `json:"participant"`
	Text        string `json:"text"`
}

// ParticipantScore is one voter's ballot.
type ParticipantScore struct {
	Voter             string                 `json:"voter"`
	Winner            string                 `json:"winner,omitempty"`
	BestIntervention  *InterventionReference `json:"best_intervention,omitempty"`
	WorstIntervention *InterventionReference `json:"worst_intervention,omitempty"`
	Scores            map[string]float64     `json:"scores"`
}

// GlobalOutcome aggregates every ballot into a single verdict.
type GlobalOutcome struct {
	WinnerName        string                 `json:"winner_name"`
	WinnerPosition    string                 `json:"winner_position"`
	VoteDistribution  map[string]int         `json:"vote_distribution"`
	AverageScores     map[string]float64     `json:"average_scores"`
	BestIntervention  *InterventionReference `json:"best_intervention,omitempty"`
	WorstIntervention *InterventionReference `json:"worst_intervention,omitempty"`
}

// ModeratorStats counts each kind of moderator action taken.
type ModeratorStats struct {
	Interventions int `json:"interventions"`
	Sanctions     int `json:"sanctions"`
	Skips         int `json:"skips"`
	Vetos         int `json:"vetos"`
	Stops         int `json:"stops"`
	Limits        int `json:"limits"`
}

// DebateMetadata identifies a single run and its configured shape.
type DebateMetadata struct {
	ID                    string   `json:"id"`
	SessionID             string   `json:"session_id"`
	Topic                 string   `json:"topic"`
	Description           string   `json:"description"`
	Date                  string   `json:"date"`
	TotalRoundsConfigured int      `json:"total_rounds_configured"`
	TotalTurnsConfigured  int      `json:"total_turns_configured"`
	AllowedPositions      []string `json:"allowed_positions"`
	TotalEstimatedCostUSD float64  `json:"total_estimated_cost_usd"`
}

// ParticipantEntry is the final state of one debater.
type ParticipantEntry struct {
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	AttitudeType      string    `json:"attitude_type"`
	Brain             string    `json:"brain"`
	InitialBrain      string    `json:"initial_brain"`
	OriginalPosition  string    `json:"original_position"`
	FinalPosition     string    `json:"final_position"`
	Gender            string    `json:"gender"`
	EthnicGroup       string    `json:"ethnic_group"`
	Tolerant          bool      `json:"tolerant"`
	InsultsAllowed    bool      `json:"insults_allowed"`
	LiesAllowed       bool      `json:"lies_allowed"`
	IsVetoed          bool      `json:"is_vetoed"`
	VetoReason        string    `json:"veto_reason,omitempty"`
	Strikes           int       `json:"strikes"`
	SkipNextTurn      bool      `json:"skip_next_turn"`
	TotalCost         float64   `json:"total_cost"`
	OrderInDebate     int       `json:"order_in_debate"`
	ConfidenceHistory []float64 `json:"confidence_history"`
	FinalConfidence   float64   `json:"final_confidence"`
}

// ModeratorEntry is the final state of the moderator, when one presided.
type ModeratorEntry struct {
	Name         string          `json:"name"`
	Brain        string          `json:"brain"`
	InitialBrain string          `json:"initial_brain"`
	Gender       string          `json:"gender"`
	EthnicGroup  string          `json:"ethnic_group"`
	Capabilities map[string]bool `json:"capabilities"`
	TotalCost    float64         `json:"total_cost"`
}

// CategoryScores is a per-debater rubric from the moderator's judgement.
type CategoryScores struct {
	Logic    float64 `json:"logic"`
	Rhetoric float64 `json:"rhetoric"`
	Civility float64 `json:"civility"`
}

// ModeratorVerdict is the moderator's own judgement of the debate.
type ModeratorVerdict struct {
	Scores          map[string]CategoryScores `json:"scores"`
	TechnicalWinner string                    `json:"technical_winner"`
	Critique        string                    `json:"critique"`
}

// EvaluationSection groups every ballot with the aggregated outcome.
type EvaluationSection struct {
	Participants  []ParticipantScore `json:"participants"`
	Moderator     *ModeratorVerdict  `json:"moderator,omitempty"`
	GlobalOutcome *GlobalOutcome     `json:"global_outcome,omitempty"`
}

// DebateResult is the complete artifact persisted per debate.
type DebateResult struct {
	Metadata        DebateMetadata        `json:"metadata"`
	Participants    []ParticipantEntry    `json:"participants"`
	Moderator       *ModeratorEntry       `json:"moderator"`
	ModeratorStats  ModeratorStats        `json:"moderator_stats"`
	PositionChanges []PositionChangeEntry `json:"position_changes"`
	Transcript      []TranscriptEntry     `json:"transcript"`
	Evaluation      EvaluationSection     `json:"evaluation"`
}

var (
	topicStrip    = regexp.MustCompile(`[^\w\s-]`)
	topicCollapse = regexp.MustCompile(`[-\s]+`)
)

// SafeTopic folds a free-form topic into a filesystem-friendly slug.
func SafeTopic(topic string) string {
	s := topicStrip.ReplaceAllString(strings.ToLower(topic), "")
	s = strings.TrimSpace(s)
	return topicCollapse.ReplaceAllString(s, "_")
}

// Save writes the result under dir/<safe-topic>/<session>/<id>.json and
// returns the file path.
func (r *DebateResult) Save(dir string) (string, error) {
	folder := filepath.Join(dir, SafeTopic(r.Metadata.Topic), r.Metadata.SessionID)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(folder, r.Metadata.ID+".json")
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

// Load reads a previously saved debate result.
func Load(path string) (*DebateResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	var r DebateResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}
