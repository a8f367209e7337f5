package debate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// answerTokenHeadroom pads the character budget so structured-thinking
// preambles do not starve the spoken reply.
const answerTokenHeadroom = 500

// Answer generates this debater's next turn. Expert and scholar roles
// think out loud in a THOUGHTS:/RESPONSE: structure; only the response
// is recorded.
func (p *Debater) Answer(ctx context.Context, d *Debate) (*Intervention, error) {
	effectiveLimit := d.MaxLetters
	if p.NextTurnCharLimit > 0 {
		effectiveLimit = p.NextTurnCharLimit
	}

	d.log.Info("participant turn",
		zap.String("name", p.Name),
		zap.String("brain", string(p.Brain)),
		zap.String("stance", p.CurrentPosition()),
		zap.Int("char_limit", effectiveLimit))

	useCoT := p.Role == RoleExpert || p.Role == RoleScholar

	instruction := "Respond directly. You MUST explicitly mention the person you are replying to."
	if useCoT {
		instruction = "FORMAT REQUIREMENT: Use Structured Thinking.\n" +
			"1. First, write 'THOUGHTS:' and analyze the opponent's logic, fallacies, and your strategy.\n" +
			"2. Then, write 'RESPONSE:' and provide your actual spoken reply.\n" +
			"3. You MUST explicitly mention the person you are replying to.\n" +
			"Constraint: Only the RESPONSE part counts towards the character limit."
	}

	userPrompt := fmt.Sprintf("%s\n\n%s\nConstraint: Max %d chars.",
		formatHistory(d.interventions), instruction, effectiveLimit)

	comp, err := p.generate(ctx, d.gen, p.systemPrompt(d.cfg.Language), userPrompt, effectiveLimit+answerTokenHeadroom)
	if err != nil {
		return nil, fmt.Errorf("%s turn failed: %w", p.Name, err)
	}

	finalAnswer := comp.Text
	if useCoT && strings.Contains(comp.Text, "RESPONSE:") {
		parts := strings.SplitN(comp.Text, "RESPONSE:", 2)
		thoughts := strings.TrimSpace(strings.ReplaceAll(parts[0], "THOUGHTS:", ""))
		response := strings.TrimSpace(parts[1])
		if response != "" {
			finalAnswer = response
			d.log.Debug("participant thoughts", zap.String("name", p.Name), zap.String("thoughts", thoughts))
		} else {
			d.log.Warn("empty structured response, keeping monologue", zap.String("name", p.Name))
			finalAnswer = "[Internal Monologue]: " + thoughts
		}
	}

	if strings.TrimSpace(finalAnswer) == "" {
		d.log.Warn("empty answer, inserting silence placeholder", zap.String("name", p.Name))
		finalAnswer = "(...remains silent and contemplative...)"
	}

	return &Intervention{
		Participant:      &p.Participant,
		Answer:           finalAnswer,
		InputTokens:      comp.InputTokens,
		OutputTokens:     comp.OutputTokens,
		Cost:             comp.Cost,
		SnapshotPosition: p.CurrentPosition(),
	}, nil
}
