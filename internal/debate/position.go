package debate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// PositionChangeCheck is the outcome of one end-of-round confidence
// re-evaluation.
type PositionChangeCheck struct {
	HasChanged  bool
	NewPosition string
	Reasoning   string
}

var (
	deltaRe  = regexp.MustCompile(`(?i)DELTA\s*[:|]\s*([+\-]?\d*\.?\d+)`)
	reasonRe = regexp.MustCompile(`(?i)REASON\s*[:|]\s*(.+)`)
)

// CheckChangePosition asks the debater to reassess its confidence
// against the transcript. Negative deltas are scaled by the mindset
// multiplier; a confidence collapse below the flip threshold forces a
// switch to an alternative position.
func (p *Debater) CheckChangePosition(ctx context.Context, d *Debate) PositionChangeCheck {
	d.log.Info("checking position change", zap.String("name", p.Name))

	modifier := 1.0
	switch p.Mindset {
	case MindsetOpenMinded:
		modifier = d.cfg.OpenMindedImpact
	case MindsetCloseMinded:
		modifier = d.cfg.CloseMindedImpact
	}

	systemPrompt := fmt.Sprintf(
		"You are %s, debating for '%s'.\nCurrent Confidence: %.2f (0.0 to 1.0).\nPersonality: %s.\nMindset: %s.\nRespond in %s.",
		p.Name, p.CurrentPosition(), p.ConfidenceScore, p.Attitude, p.Mindset, d.cfg.Language)

	userPrompt := fmt.Sprintf(
		"%s\n\nINSTRUCTION: Analyze the arguments against your position.\n"+
			"Determine if your confidence has increased, decreased, or stayed the same.\n"+
			"Allowed Positions to switch to: %v\n\n"+
			"Respond in EXACT format:\nDELTA|Value\nREASON|Text\n"+
			"Examples:\nDELTA|-0.15\nREASON|Arguments were good.\nDELTA|+0.05\nREASON|Their logic was weak.\n",
		formatHistory(d.interventions), d.AllowedPositions)

	comp, err := p.generate(ctx, d.gen, systemPrompt, userPrompt, 1000)
	if err != nil {
		d.log.Error("position check failed", zap.String("name", p.Name), zap.Error(err))
		return PositionChangeCheck{NewPosition: p.CurrentPosition(), Reasoning: err.Error()}
	}

	delta := 0.0
	reason := "No reason parsed"
	if m := deltaRe.FindStringSubmatch(comp.Text); m != nil {
		if v, perr := strconv.ParseFloat(m[1], 64); perr == nil {
			delta = v
		}
	}
	if m := reasonRe.FindStringSubmatch(comp.Text); m != nil {
		reason = strings.TrimSpace(m[1])
	}
	if delta == 0 && !strings.Contains(strings.ToUpper(comp.Text), "DELTA") {
		d.log.Warn("malformed confidence output", zap.String("name", p.Name))
	}

	if delta < 0 {
		delta *= modifier
	}

	p.ConfidenceScore = clamp01(p.ConfidenceScore + delta)
	p.ConfidenceHistory = append(p.ConfidenceHistory, p.ConfidenceScore)
	newConfidence := p.ConfidenceScore

	postFlip := d.cfg.ConfidenceAfterFlip
	if postFlip <= d.cfg.ConfidenceFlipThreshold {
		postFlip = min(1.0, d.cfg.ConfidenceFlipThreshold+0.15)
	}

	hasChanged := false
	newPos := p.CurrentPosition()

	if p.ConfidenceScore < d.cfg.ConfidenceFlipThreshold {
		var alternatives []string
		for _, pos := range d.AllowedPositions {
			if pos != p.CurrentPosition() {
				alternatives = append(alternatives, pos)
			}
		}

		switch {
		case len(alternatives) == 0:
			// Nowhere to go; keep arguing the collapsed position.
		case len(alternatives) == 1:
			newPos = alternatives[0]
			hasChanged = true
		default:
			newPos, hasChanged = p.pickAlternative(ctx, d, systemPrompt, alternatives)
		}
	}

	if hasChanged {
		p.FinalPosition = newPos
		p.ConfidenceScore = postFlip
		p.ConfidenceHistory = append(p.ConfidenceHistory, postFlip)
		d.log.Info("position flipped",
			zap.String("name", p.Name),
			zap.String("from", p.OriginalPosition),
			zap.String("to", newPos),
			zap.String("reason", reason))
	}

	return PositionChangeCheck{
		HasChanged:  hasChanged,
		NewPosition: newPos,
		Reasoning:   fmt.Sprintf("[Conf: %.2f -> %.2f] %s", newConfidence, p.ConfidenceScore, reason),
	}
}

// pickAlternative asks the LLM which alternative is most convincing,
// falling back to a random pick when the choice cannot be matched.
func (p *Debater) pickAlternative(ctx context.Context, d *Debate, systemPrompt string, alternatives []string) (string, bool) {
	pickPrompt := fmt.Sprintf(
		"Your confidence in '%s' has collapsed (%.2f).\nYou MUST switch to one of these: %v.\n"+
			"Which one is most convincing based on the transcript?\nRespond ONLY with the position name.",
		p.CurrentPosition(), p.ConfidenceScore, alternatives)

	comp, err := p.generate(ctx, d.gen, systemPrompt, pickPrompt, 200)
	if err == nil {
		candidate := strings.ToLower(strings.TrimSpace(comp.Text))
		for _, pos := range alternatives {
			if strings.Contains(candidate, strings.ToLower(pos)) {
				return pos, true
			}
		}
	}

	forced := alternatives[d.rng.Intn(len(alternatives))]
	d.log.Warn("flip choice unparseable, forcing random flip",
		zap.String("name", p.Name), zap.String("to", forced))
	return forced, true
}
