package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"debaite/internal/results"
)

// Decision is the moderator's ruling before the next speaker's turn.
// Message is nil when the ruling is NONE.
type Decision struct {
	Action  Action
	Target  string
	Reason  string
	Message *Intervention
}

var none = Decision{Action: ActionNone}

var (
	actionPrefixRe  = regexp.MustCompile(`^(ACTION|DECISION)[:\s]*`)
	reasonPrefixRe  = regexp.MustCompile(`^(REASON)[:\s]*`)
	messagePrefixRe = regexp.MustCompile(`^(MESSAGE)[:\s]*`)
)

// lengthGrace is how far past the global budget a turn may run before
// the LIMIT tool is offered.
const lengthGrace = 100

// minTurnCharLimit floors the LIMIT penalty.
const minTurnCharLimit = 500

// DecideIntervention evaluates the last speaker's turn and decides
// whether to act. Disallowed actions downgrade along the capability
// chain; a VETO with only two active debaters becomes an INTERVENE.
func (m *Moderator) DecideIntervention(ctx context.Context, d *Debate, nextSpeaker *Debater) Decision {
	history := d.interventions
	if len(history) <= 1 {
		return none
	}

	last := history[len(history)-1]
	lastSpeaker := last.SpeakerName()
	if lastSpeaker == "SYSTEM" || lastSpeaker == m.Name {
		return none
	}

	d.log.Info("moderator evaluating",
		zap.String("moderator", m.Name), zap.String("last_speaker", lastSpeaker))

	lastLength := len([]rune(last.Answer))
	isTooLong := lastLength > d.MaxLetters+lengthGrace

	strikes := 0
	if target := d.findParticipant(lastSpeaker); target != nil {
		strikes = target.Strikes
	}

	var tools []string
	if m.Caps.Veto {
		tools = append(tools, fmt.Sprintf("%s (Ban LAST speaker permanently)", ActionVeto))
	}
	if m.Caps.SkipTurn {
		tools = append(tools,
			fmt.Sprintf("%s (Give a Strike to %s. %d Strikes = Veto. Also skips their NEXT turn)",
				ActionSanction, lastSpeaker, d.cfg.MaxStrikesForVeto),
			fmt.Sprintf("%s (Skip the UPCOMING speaker, usually only if you hate them specifically)", ActionSkip))
	}
	if m.Caps.StopDebate {
		tools = append(tools, fmt.Sprintf("%s (End debate now)", ActionStop))
	}
	if m.Caps.Intervene {
		tools = append(tools, fmt.Sprintf("%s (Speak your mind/scold without penalty)", ActionIntervene))
	}
	if isTooLong {
		tools = append(tools,
			fmt.Sprintf("%s (REDUCE next turn length for %s because they spoke too much)", ActionLimit, lastSpeaker))
	}
	tools = append(tools, fmt.Sprintf("%s (Let them continue)", ActionNone))

	systemPrompt := fmt.Sprintf(
		"You are %s, the MODERATOR.\nRole: %s, Attitude: %s.\nTOOLS: [%s]\n%s\nRespond in %s.",
		m.Name, m.Role, m.Attitude, strings.Join(tools, ", "), m.personality(), d.cfg.Language)

	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	violation := ""
	if isTooLong {
		violation = fmt.Sprintf("WARNING: %s used %d chars (Limit: %d). You can use %s to penalize them.",
			lastSpeaker, lastLength, d.MaxLetters, ActionLimit)
	}

	userPrompt := fmt.Sprintf(
		"%s\n\nANALYSIS TASK:\nLAST speaker: %s (Strikes: %d/%d).\nNEXT speaker: %s.\n%s\n\n"+
			"RULES:\n- %s: For bad behavior (insults, lies).\n- %s: For length violations (reduces next turn to 50%%).\n- %s: Scold/Comment.\n\n"+
			"Format:\nACTION|REASON|MESSAGE_TEXT",
		formatHistory(recent), lastSpeaker, strikes, d.cfg.MaxStrikesForVeto,
		nextSpeaker.Name, violation, ActionSanction, ActionLimit, ActionIntervene)

	// Decision calls bill their cost to the resulting message, not to
	// the moderator's running total. Only the verdict call accrues.
	comp, used, err := d.gen.Generate(ctx, m.Brain, systemPrompt, userPrompt, 1000)
	if err != nil {
		d.log.Error("moderator decision failed", zap.Error(err))
		return none
	}
	m.Brain = used

	parts := strings.Split(strings.TrimSpace(comp.Text), "|")
	if len(parts) < 3 {
		return none
	}

	rawAction := actionPrefixRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(parts[0])), "")
	action := ParseAction(strings.TrimSpace(rawAction))
	reason := strings.TrimSpace(reasonPrefixRe.ReplaceAllString(strings.TrimSpace(parts[1]), ""))
	message := strings.TrimSpace(messagePrefixRe.ReplaceAllString(strings.TrimSpace(parts[2]), ""))

	target := lastSpeaker

	if action == ActionVeto && !m.Caps.Veto {
		action = ActionSanction
	}
	if action == ActionSanction && !m.Caps.SkipTurn {
		action = ActionIntervene
	}
	if action == ActionSkip {
		if !m.Caps.SkipTurn {
			action = ActionIntervene
		}
		target = nextSpeaker.Name
	}
	if action == ActionStop && !m.Caps.StopDebate {
		action = ActionIntervene
	}
	if action == ActionIntervene && !m.Caps.Intervene {
		action = ActionNone
	}

	if action == ActionLimit {
		if speaker := d.findParticipant(lastSpeaker); speaker != nil {
			newLimit := max(minTurnCharLimit, d.MaxLetters/2)
			speaker.NextTurnCharLimit = newLimit
			message += fmt.Sprintf(" [PENALTY: Next turn limited to %d chars]", newLimit)
		}
	}

	if action == ActionVeto && d.activeCount() <= 2 {
		action = ActionIntervene
		message = "[I wanted to ban you, but we need people] " + message
	}

	d.log.Info("moderator decision",
		zap.String("action", string(action)),
		zap.String("target", target),
		zap.String("reason", reason))

	if action == ActionNone {
		return none
	}

	return Decision{
		Action: action,
		Target: target,
		Reason: reason,
		Message: &Intervention{
			Participant:      &m.Participant,
			Answer:           fmt.Sprintf("%s\n\n[MODERATOR ACTION: %s | REASON: %s]", message, action, reason),
			Cost:             comp.Cost,
			SnapshotPosition: "Moderator",
		},
	}
}

// Judge evaluates the finished debate on logic, rhetoric, and civility.
func (m *Moderator) Judge(ctx context.Context, d *Debate) (*results.ModeratorVerdict, error) {
	d.log.Info("moderator judging debate", zap.String("moderator", m.Name))

	var sb strings.Builder
	for _, iv := range d.interventions {
		fmt.Fprintf(&sb, "%s: %s...\n", iv.SpeakerName(), truncate(iv.Answer, 300))
	}

	var candidates []string
	for _, p := range d.Participants {
		if p.Name != m.Name {
			candidates = append(candidates, p.Name)
		}
	}

	systemPrompt := fmt.Sprintf(
		"You are %s, the Moderator and Judge.\nYour Role: %s, Attitude: %s.\n"+
			"Task: Evaluate the debate objectively based on Logic, Rhetoric, and Civility.",
		m.Name, m.Role, m.Attitude)

	userPrompt := fmt.Sprintf(
		"TOPIC: %s\nTRANSCRIPT:\n%s\n\nEvaluate participants: %s\n"+
			"Respond in VALID JSON format.\nIMPORTANT: The content of the 'critique' field MUST be written in %s.\n"+
			"Format:\n{\n  \"scores\": { \"Name\": { \"logic\": 8, \"rhetoric\": 7, \"civility\": 9 } },\n"+
			"  \"technical_winner\": \"Name\",\n  \"critique\": \"Overall brief critique of the debate in %s.\"\n}",
		d.Topic, sb.String(), strings.Join(candidates, ", "), d.cfg.Language, d.cfg.Language)

	comp, err := m.generate(ctx, d.gen, systemPrompt, userPrompt, 2000)
	if err != nil {
		return nil, fmt.Errorf("moderator judgement failed: %w", err)
	}

	clean := strings.ReplaceAll(comp.Text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in judgement")
	}

	var verdict results.ModeratorVerdict
	if err := json.Unmarshal([]byte(clean[start:end+1]), &verdict); err != nil {
		return nil, fmt.Errorf("decode judgement: %w", err)
	}
	return &verdict, nil
}

// personality renders the moderator's behavioral system prompt block.
func (m *Moderator) personality() string {
	var sb strings.Builder

	switch m.Role {
	case RoleIlliterate:
		sb.WriteString("STYLE: Uneducated moderator. Simple words. Emotional.")
	case RoleGeneralKnowledge:
		sb.WriteString("STYLE: Regular person. Common sense. Clear language.")
	case RoleScholar, RoleExpert:
		sb.WriteString("STYLE: Academic moderator. Pedantic. Logical. Strict vocabulary.")
	}

	switch m.Mindset {
	case MindsetOpenMinded:
		sb.WriteString("\nMINDSET: Willing to listen to all sides.")
	case MindsetCloseMinded:
		sb.WriteString("\nMINDSET: Stubborn. You have your favorites.")
	}

	if !m.Tolerant {
		fmt.Fprintf(&sb, "\nBEHAVIOR: BIASED and INTOLERANT. Silence opposition using %s.", ActionSanction)
	} else {
		sb.WriteString("\nBEHAVIOR: Fair but firm.")
	}

	if m.InsultsAllowed {
		sb.WriteString("\nTONE: Rude and aggressive.")
	}

	return sb.String()
}
