package debate

import (
	"fmt"
	"strings"
)

// Role shapes a participant's speaking register.
type Role string

const (
	RoleExpert           Role = "expert"
	RoleScholar          Role = "scholar"
	RoleGeneralKnowledge Role = "general_knowledge"
	RoleIlliterate       Role = "illiterate"
)

// Attitude shapes a participant's temperament.
type Attitude string

const (
	AttitudeCalm       Attitude = "calm"
	AttitudeStrict     Attitude = "strict"
	AttitudeFair       Attitude = "fair"
	AttitudeAggressive Attitude = "aggressive"
	AttitudePassive    Attitude = "passive"
	AttitudeSarcastic  Attitude = "sarcastic"
)

// Mindset controls how strongly counter-arguments move confidence.
type Mindset string

const (
	MindsetOpenMinded  Mindset = "open_minded"
	MindsetNeutral     Mindset = "neutral"
	MindsetCloseMinded Mindset = "close_minded"
)

// Gender is a flavor attribute with no orchestration weight.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non_binary"
)

// Ethnicity is a flavor attribute with no orchestration weight.
type Ethnicity string

const (
	EthnicityWhite      Ethnicity = "white"
	EthnicityBlack      Ethnicity = "black"
	EthnicityAsian      Ethnicity = "asian"
	EthnicityIndian     Ethnicity = "indian"
	EthnicityLatino     Ethnicity = "latino"
	EthnicityIndigenous Ethnicity = "indigenous"
	EthnicityMixed      Ethnicity = "mixed"
	EthnicityOther      Ethnicity = "other"
)

// Action is a moderator decision.
type Action string

const (
	ActionNone      Action = "NONE"
	ActionIntervene Action = "INTERVENE"
	ActionSkip      Action = "SKIP"
	ActionVeto      Action = "VETO"
	ActionStop      Action = "STOP"
	ActionSanction  Action = "SANCTION"
	ActionLimit     Action = "LIMIT"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleExpert, RoleScholar, RoleGeneralKnowledge, RoleIlliterate}
}

// Attitudes lists every attitude in a stable order.
func Attitudes() []Attitude {
	return []Attitude{AttitudeCalm, AttitudeStrict, AttitudeFair, AttitudeAggressive, AttitudePassive, AttitudeSarcastic}
}

// Mindsets lists every mindset in a stable order.
func Mindsets() []Mindset {
	return []Mindset{MindsetOpenMinded, MindsetNeutral, MindsetCloseMinded}
}

// Genders lists every gender in a stable order.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale, GenderNonBinary}
}

// Ethnicities lists every ethnicity in a stable order.
func Ethnicities() []Ethnicity {
	return []Ethnicity{EthnicityWhite, EthnicityBlack, EthnicityAsian, EthnicityIndian, EthnicityLatino, EthnicityIndigenous, EthnicityMixed, EthnicityOther}
}

// normEnum lowercases an incoming enum string and strips a dotted
// prefix such as "RoleType.EXPERT" produced by legacy config dumps.
func normEnum(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(v, "."); i >= 0 {
		v = v[i+1:]
	}
	return v
}

// ParseRole resolves a role case-insensitively by name or value.
func ParseRole(s string) (Role, error) {
	v := normEnum(s)
	for _, r := range Roles() {
		if string(r) == v {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ParseAttitude resolves an attitude case-insensitively by name or value.
func ParseAttitude(s string) (Attitude, error) {
	v := normEnum(s)
	for _, a := range Attitudes() {
		if string(a) == v {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown attitude %q", s)
}

// ParseMindset resolves a mindset case-insensitively by name or value.
func ParseMindset(s string) (Mindset, error) {
	v := normEnum(s)
	for _, m := range Mindsets() {
		if string(m) == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mindset %q", s)
}

// ParseGender resolves a gender case-insensitively by name or value.
func ParseGender(s string) (Gender, error) {
	v := normEnum(s)
	for _, g := range Genders() {
		if string(g) == v {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// ParseEthnicity resolves an ethnicity case-insensitively by name or value.
func ParseEthnicity(s string) (Ethnicity, error) {
	v := normEnum(s)
	for _, e := range Ethnicities() {
		if string(e) == v {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown ethnicity %q", s)
}

// ParseAction resolves a moderator action token. Unrecognized tokens
// fall back to keyword sniffing; anything still unmatched is NONE.
func ParseAction(s string) Action {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch Action(v) {
	case ActionNone, ActionIntervene, ActionSkip, ActionVeto, ActionStop, ActionSanction, ActionLimit:
		return Action(v)
	}
	switch {
	case strings.Contains(v, "INTERVENE"):
		return ActionIntervene
	case strings.Contains(v, "SANCTION"):
		return ActionSanction
	case strings.Contains(v, "LIMIT"):
		return ActionLimit
	default:
		return ActionNone
	}
}
