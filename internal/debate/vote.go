package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Ballot is one voter's parsed evaluation of the debate. BestTurn and
// WorstTurn are nil when the voter named none.
type Ballot struct {
	Winner    string             `json:"winner"`
	BestTurn  *int               `json:"best_turn"`
	WorstTurn *int               `json:"worst_turn"`
	Scores    map[string]float64 `json:"scores"`
}

// EvaluatePerformance asks this debater to vote on the finished debate.
// An unparseable response returns a nil ballot; the vote is excluded.
func (p *Debater) EvaluatePerformance(ctx context.Context, d *Debate) (*Ballot, error) {
	var candidates []string
	for _, other := range d.Participants {
		if other.Name != p.Name {
			candidates = append(candidates, other.Name)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	for idx, iv := range d.interventions {
		fmt.Fprintf(&sb, "[%d] %s: %s...\n", idx, iv.SpeakerName(), truncate(iv.Answer, 150))
	}

	systemPrompt := fmt.Sprintf("You are %s. Evaluate the debate performances objectively.", p.Name)
	userPrompt := fmt.Sprintf(
		"TRANSCRIPT:\n%s\n\nCandidates to evaluate: %s\n\n"+
			"INSTRUCTION: You must pick a winner, identify the best and worst turn ID from the transcript, and score each opponent (0-10).\n"+
			"Do not vote for yourself.\n\n"+
			"Respond in VALID JSON format ONLY:\n"+
			"{\n  \"winner\": \"Name of Winner\",\n  \"best_turn\": 12,\n  \"worst_turn\": 5,\n  \"scores\": { \"Opponent1\": 8.5, \"Opponent2\": 4.0 }\n}",
		sb.String(), strings.Join(candidates, ", "))

	comp, err := p.generate(ctx, d.gen, systemPrompt, userPrompt, 1000)
	if err != nil {
		return nil, fmt.Errorf("%s vote failed: %w", p.Name, err)
	}

	ballot, err := parseBallot(comp.Text)
	if err != nil {
		d.log.Error("evaluation unparseable",
			zap.String("name", p.Name), zap.String("brain", string(p.Brain)), zap.Error(err))
		return nil, nil
	}
	return ballot, nil
}

// parseBallot extracts the JSON object from a possibly fenced response.
func parseBallot(text string) (*Ballot, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	// Models sometimes emit turn IDs as floats ("best_turn": 2.0); decode
	// them as numbers and truncate rather than dropping the ballot.
	var raw struct {
		Winner    string             `json:"winner"`
		BestTurn  *float64           `json:"best_turn"`
		WorstTurn *float64           `json:"worst_turn"`
		Scores    map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(clean[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode ballot: %w", err)
	}

	b := Ballot{Winner: raw.Winner, Scores: raw.Scores}
	if raw.BestTurn != nil {
		n := int(*raw.BestTurn)
		b.BestTurn = &n
	}
	if raw.WorstTurn != nil {
		n := int(*raw.WorstTurn)
		b.WorstTurn = &n
	}
	if b.Scores == nil {
		b.Scores = map[string]float64{}
	}
	return &b, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
