package debate

import (
	"context"
	"fmt"

	"debaite/internal/provider"
)

// Participant holds the attribute set shared by debaters and the
// moderator. Mutated only by the orchestrator, the moderator policy
// (targeting a participant) and the position evaluator (targeting
// itself).
type Participant struct {
	Name     string
	Role     Role
	Attitude Attitude
	Mindset  Mindset

	Brain        provider.Brain
	InitialBrain provider.Brain

	OriginalPosition string
	FinalPosition    string // set only by a recorded flip

	Gender    Gender
	Ethnicity Ethnicity
	Tolerant  bool

	InsultsAllowed bool
	LiesAllowed    bool

	ConfidenceScore   float64
	ConfidenceHistory []float64

	TotalCost     float64
	OrderInDebate int
}

// Debater is a debating participant with sanction state.
type Debater struct {
	Participant

	IsVetoed   bool
	VetoReason string

	Strikes      int
	SkipNextTurn bool

	// One-shot character limit override; 0 means unset.
	NextTurnCharLimit int
}

// Capabilities is the moderator's granted action set.
type Capabilities struct {
	Intervene  bool
	SkipTurn   bool
	StopDebate bool
	Veto       bool
}

// Moderator is a participant with moderation capabilities.
type Moderator struct {
	Participant
	Caps Capabilities
}

// CurrentPosition returns the argued position: the flipped-to position
// if a flip happened, else the original, else "Undecided".
func (p *Participant) CurrentPosition() string {
	if p.FinalPosition != "" {
		return p.FinalPosition
	}
	if p.OriginalPosition != "" {
		return p.OriginalPosition
	}
	return "Undecided"
}

// FullDescription renders the participant's roster line.
func (p *Participant) FullDescription() string {
	return fmt.Sprintf("%s (%s, %s, %s, %s, %s, %s, insults:%t, lies:%t, tolerant:%t) [%s] [Conf: %.2f]",
		p.Name, p.Brain, p.Role, p.Attitude, p.Mindset, p.Gender, p.Ethnicity,
		p.InsultsAllowed, p.LiesAllowed, p.Tolerant,
		p.CurrentPosition(), p.ConfidenceScore)
}

// generate runs one port call on this participant's brain, recording a
// permanent brain switch and accumulating cost.
func (p *Participant) generate(ctx context.Context, gen Generator, systemPrompt, userPrompt string, maxTokens int) (provider.Completion, error) {
	comp, used, err := gen.Generate(ctx, p.Brain, systemPrompt, userPrompt, maxTokens)
	if err != nil {
		return provider.Completion{}, err
	}
	p.Brain = used
	p.TotalCost += comp.Cost
	return comp, nil
}

// roleInstructions returns the speaking-style persona line.
func (p *Participant) roleInstructions() string {
	switch p.Role {
	case RoleIlliterate:
		return "SPEAKING STYLE: Low education. Simple sentences. Street slang. Never use big words. Rely on anecdotes and feelings. Suspicious of experts."
	case RoleScholar, RoleExpert:
		return "SPEAKING STYLE: Academic elite. Sophisticated, technical vocabulary. Cite theories/papers. Logical structure. Authoritative tone."
	case RoleGeneralKnowledge:
		return "SPEAKING STYLE: Average person. Natural language. Common sense logic. Clear and relatable."
	default:
		return "SPEAKING STYLE: Natural."
	}
}

func (p *Participant) attitudeInstructions() string {
	base := fmt.Sprintf("Personality: %s.", p.Attitude)
	if !p.Tolerant {
		return base + " You are INTOLERANT and biased."
	}
	return base + " You are tolerant."
}

func (p *Participant) mindsetInstructions() string {
	switch p.Mindset {
	case MindsetOpenMinded:
		return "MINDSET: Open-minded. Willing to change opinion if presented with good logic."
	case MindsetCloseMinded:
		return "MINDSET: Close-minded. Stubborn. Very hard to convince."
	default:
		return "MINDSET: Neutral."
	}
}

// confidenceInstruction maps the confidence score onto a tone band.
func (p *Participant) confidenceInstruction() string {
	score := p.ConfidenceScore
	switch {
	case score >= 0.90:
		return "CONFIDENCE: EXTREME (0.9-1.0). You are dogmatic, unshakeable, and perhaps arrogant. Your truth is the ONLY truth."
	case score >= 0.75:
		return "CONFIDENCE: HIGH (0.75-0.9). You are very sure of your position. Speak with authority and strong conviction."
	case score >= 0.60:
		return "CONFIDENCE: MODERATE (0.6-0.75). You believe you are right, but you are less aggressive. You rely on logic rather than passion."
	case score >= 0.50:
		return "CONFIDENCE: SHAKY (0.5-0.6). You are defensive. You feel your arguments are being challenged effectively. Show some hesitation."
	default:
		return "CONFIDENCE: CRISIS (<0.5). You are doubting everything. You sound confused, weak, or on the verge of changing your mind."
	}
}

// systemPrompt builds the persona system prompt for answer generation.
func (p *Participant) systemPrompt(language string) string {
	aggression := "LOW AGGRESSION."
	if p.InsultsAllowed {
		aggression = "HIGH AGGRESSION. Insults encouraged."
	}
	truth := "Truthful."
	if p.LiesAllowed {
		truth = "LIAR. Make up facts."
	}

	return fmt.Sprintf(
		"You are a participant in a debate.\n"+
			"Name: %s\n"+
			"Role: %s\n"+
			"Gender: %s\n"+
			"Ethnicity: %s\n"+
			"Current Stance: '%s' (Confidence Score: %.2f)\n"+
			"--- GUIDELINES ---\n"+
			"1. %s\n"+
			"2. %s\n"+
			"3. %s\n"+
			"4. %s\n"+
			"5. %s\n"+
			"6. %s\n"+
			"7. IMPORTANT: When replying, EXPLICITLY mention the name of the person you are addressing (e.g., 'As [Name] said...').\n"+
			"Respond in %s.",
		p.Name, p.Role, p.Gender, p.Ethnicity, p.CurrentPosition(), p.ConfidenceScore,
		p.roleInstructions(), p.attitudeInstructions(), p.mindsetInstructions(),
		aggression, truth, p.confidenceInstruction(), language)
}
