package debate

import (
	"fmt"
)

// TraitOverrides pins participant traits that would otherwise be rolled
// randomly. Empty strings and nil booleans mean "roll it".
type TraitOverrides struct {
	Role     string `json:"role,omitempty"`
	Attitude string `json:"attitude,omitempty"`
	Mindset  string `json:"mindset,omitempty"`
	Brain    string `json:"brain,omitempty"`
	Gender   string `json:"gender,omitempty"`

	Tolerant *bool `json:"tolerant,omitempty"`
	Insults  *bool `json:"insults,omitempty"`
	Lies     *bool `json:"lies,omitempty"`
}

// IsZero reports whether no trait is pinned.
func (t TraitOverrides) IsZero() bool {
	return t.Role == "" && t.Attitude == "" && t.Mindset == "" && t.Brain == "" &&
		t.Gender == "" && t.Tolerant == nil && t.Insults == nil && t.Lies == nil
}

// ManualParticipant describes one hand-configured roster entry.
type ManualParticipant struct {
	Name       string   `json:"name,omitempty"`
	Position   string   `json:"position,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Ethnicity  string   `json:"ethnicity,omitempty"`
	TraitOverrides
}

// Overrides collects every session-level customization.
type Overrides struct {
	// Defaults applied to every generated debater.
	Participant TraitOverrides `json:"participant,omitempty"`

	// Moderator trait pins; any pin forces a moderator to exist.
	Moderator TraitOverrides `json:"moderator,omitempty"`

	// Manual roster; replaces random generation when non-empty.
	Participants []ManualParticipant `json:"participants,omitempty"`

	// Fixed per-turn character budget; 0 keeps the rolled value.
	MaxLetters int `json:"max_letters,omitempty"`
}

// ValidationError reports a malformed manual participant entry. The
// entry is dropped and the debate continues with the remaining roster.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("participant %d: invalid %s: %s", e.Index, e.Field, e.Reason)
}
