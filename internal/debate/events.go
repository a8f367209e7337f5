package debate

// EventType discriminates the payload of a streamed debate event.
type EventType string

const (
	EventInitialState   EventType = "initial_state"
	EventIntervention   EventType = "intervention"
	EventRoundStart     EventType = "round_start"
	EventTurnStart      EventType = "turn_start"
	EventVeto           EventType = "veto"
	EventSanction       EventType = "sanction"
	EventPositionChange EventType = "position_change"
	EventFinished       EventType = "debate_finished"
)

// EventParticipant is a participant snapshot carried by the
// initial-state event.
type EventParticipant struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Attitude string `json:"attitude"`
	Position string `json:"position"`
}

// Event is one observable step of a running debate. Only the fields
// relevant to the Type are populated.
type Event struct {
	Type EventType `json:"type"`

	DebateID     string             `json:"debate_id,omitempty"`
	Topic        string             `json:"topic,omitempty"`
	Description  string             `json:"description,omitempty"`
	TotalRounds  int                `json:"total_rounds,omitempty"`
	TotalTurns   int                `json:"total_turns,omitempty"`
	Roster       []string           `json:"roster,omitempty"`
	Participants []EventParticipant `json:"participants,omitempty"`
	Moderator    string             `json:"moderator,omitempty"`
	Round        int                `json:"round,omitempty"`
	Turn         int                `json:"turn,omitempty"`
	Participant  string             `json:"participant,omitempty"`
	Text         string             `json:"text,omitempty"`
	Cost         float64            `json:"cost,omitempty"`
	Role         string             `json:"role,omitempty"`
	Action       string             `json:"action,omitempty"`
	Target       string             `json:"target,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	Strikes      int                `json:"strikes,omitempty"`
	FromPosition string             `json:"from,omitempty"`
	ToPosition   string             `json:"to,omitempty"`
	Winner       string             `json:"winner,omitempty"`
	ResultPath   string             `json:"result_path,omitempty"`
}
