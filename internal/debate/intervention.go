package debate

import (
	"fmt"
	"strings"
)

// Intervention is one recorded unit of speech in the transcript.
// A nil Participant means the System spoke (or a compressed summary).
// Immutable once recorded.
type Intervention struct {
	Participant *Participant
	Answer      string

	InputTokens  int
	OutputTokens int
	Cost         float64

	// Speaker's position at emission time.
	SnapshotPosition string
}

// SpeakerName returns the display name of the speaker, "SYSTEM" for
// system lines.
func (iv *Intervention) SpeakerName() string {
	if iv.Participant == nil {
		return "SYSTEM"
	}
	return iv.Participant.Name
}

// formatHistory renders a transcript for LLM-facing prompts, with
// stable per-entry indices used by best/worst turn votes.
func formatHistory(history []*Intervention) string {
	if len(history) == 0 {
		return "No interventions yet."
	}
	var sb strings.Builder
	sb.WriteString("--- TRANSCRIPT ---\n")
	for idx, iv := range history {
		fmt.Fprintf(&sb, "[%d] %s: %s\n", idx, iv.SpeakerName(), iv.Answer)
	}
	sb.WriteString("--- END ---\n")
	return sb.String()
}
