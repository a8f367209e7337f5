// Package debate implements the multi-participant debate engine:
// roster generation, the turn orchestration loop, moderator policy,
// confidence-driven position changes, and the final evaluation vote.
package debate

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"debaite/internal/config"
	"debaite/internal/provider"
	"debaite/internal/results"
)

// firstNames seeds random participant naming.
var firstNames = []string{
	"Alice", "Amara", "Ben", "Bianca", "Carlos", "Chen", "Diego", "Elena",
	"Emma", "Farid", "Grace", "Hana", "Henry", "Imani", "Ivan", "Jack",
	"Kavya", "Leila", "Liam", "Lucia", "Marcus", "Maya", "Mei", "Nadia",
	"Noah", "Olga", "Omar", "Priya", "Quinn", "Ravi", "Rosa", "Sam",
	"Sofia", "Tariq", "Thea", "Tomás", "Uma", "Victor", "Wei", "Yuki",
}

// Params configures a single debate.
type Params struct {
	Config    *config.Config
	Generator Generator

	Topic            string
	Description      string
	AllowedPositions []string
	SessionID        string

	Overrides *Overrides

	// Rand drives roster and shape generation. Nil means time-seeded.
	Rand *rand.Rand

	// Logger is the process logger. DebateLogger receives the
	// transcript-style per-debate log. Either may be nil.
	Logger       *zap.Logger
	DebateLogger *zap.Logger
}

// Debate is one debate instance. Not safe for concurrent use; the batch
// runner gives each worker its own instance.
type Debate struct {
	Topic            string
	Description      string
	AllowedPositions []string
	SessionID        string
	DebateID         string

	Participants []*Debater
	Moderator    *Moderator

	TotalRounds        int
	TotalTurns         int
	MaxLetters         int
	ReferencesRequired bool

	// interventions is the working memory fed to prompts; it shrinks
	// when compressed. fullTranscript never shrinks.
	interventions  []*Intervention
	fullTranscript []*Intervention

	positionChanges       []results.PositionChangeEntry
	stats                 results.ModeratorStats
	evaluation            results.EvaluationSection
	accumulatedSystemCost float64

	cfg      config.DebateConfig
	gen      Generator
	rng      *rand.Rand
	log      *zap.Logger
	topicLog *zap.Logger

	run *runState
}

// New builds a debate with a generated (or manually configured) roster
// and randomly established shape. Malformed manual participants are
// dropped with a logged ValidationError.
func New(p Params) *Debate {
	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topicLog := p.DebateLogger
	if topicLog == nil {
		topicLog = zap.NewNop()
	}
	ov := p.Overrides
	if ov == nil {
		ov = &Overrides{}
	}

	now := time.Now()
	d := &Debate{
		Topic:            p.Topic,
		Description:      p.Description,
		AllowedPositions: p.AllowedPositions,
		SessionID:        p.SessionID,
		DebateID:         fmt.Sprintf("%s_%06d", now.Format("20060102_150405"), now.Nanosecond()/1000),
		cfg:              p.Config.Debate,
		gen:              p.Generator,
		rng:              rng,
		log:              logger,
		topicLog:         topicLog,
	}

	d.generateParticipants(ov)
	d.TotalTurns = d.randBetween(d.cfg.MinTurns, d.cfg.MaxTurns)
	d.TotalRounds = d.randBetween(d.cfg.MinRounds, d.cfg.MaxRounds)
	d.establishMaxLetters(ov)
	d.ReferencesRequired = rng.Intn(2) == 0
	d.establishModerator(ov)
	return d
}

// randBetween returns a uniform int in [lo, hi], tolerating swapped bounds.
func (d *Debate) randBetween(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + d.rng.Intn(hi-lo+1)
}

func (d *Debate) coinFlip() bool { return d.rng.Intn(2) == 0 }

func pickOne[T any](rng *rand.Rand, opts []T) T {
	return opts[rng.Intn(len(opts))]
}

// baseProfile rolls the common attribute set, honoring trait pins.
func (d *Debate) baseProfile(ov TraitOverrides) Participant {
	p := Participant{
		Name:            pickOne(d.rng, firstNames),
		Role:            resolveTrait(d, ov.Role, ParseRole, Roles()),
		Attitude:        resolveTrait(d, ov.Attitude, ParseAttitude, Attitudes()),
		Mindset:         resolveTrait(d, ov.Mindset, ParseMindset, Mindsets()),
		Gender:          resolveTrait(d, ov.Gender, ParseGender, Genders()),
		Ethnicity:       pickOne(d.rng, Ethnicities()),
		Tolerant:        resolveBool(d, ov.Tolerant),
		InsultsAllowed:  resolveBool(d, ov.Insults),
		LiesAllowed:     resolveBool(d, ov.Lies),
		ConfidenceScore: 0.6 + d.rng.Float64()*0.4,
	}

	allowed := d.gen.AllowedBrains()
	if len(allowed) == 0 {
		allowed = provider.Brains()
	}
	p.Brain = resolveTrait(d, ov.Brain, provider.ParseBrain, allowed)
	p.InitialBrain = p.Brain
	return p
}

// resolveTrait returns the pinned value when it parses, otherwise a
// random pick. A pin that fails to parse is logged and re-rolled.
func resolveTrait[T comparable](d *Debate, pin string, parse func(string) (T, error), opts []T) T {
	if pin != "" {
		v, err := parse(pin)
		if err == nil {
			return v
		}
		d.log.Warn("ignoring invalid trait override", zap.String("value", pin), zap.Error(err))
	}
	return pickOne(d.rng, opts)
}

func resolveBool(d *Debate, pin *bool) bool {
	if pin != nil {
		return *pin
	}
	return d.coinFlip()
}

func (d *Debate) generateParticipants(ov *Overrides) {
	if len(ov.Participants) > 0 {
		d.log.Info("using manual participant configuration",
			zap.Int("count", len(ov.Participants)))
		order := 1
		for i, mp := range ov.Participants {
			deb, err := d.buildManualParticipant(i, mp, ov.Participant)
			if err != nil {
				d.log.Error("dropping participant", zap.Error(err))
				continue
			}
			deb.OrderInDebate = order
			order++
			d.Participants = append(d.Participants, deb)
		}
		return
	}

	count := d.randBetween(d.cfg.MinParticipants, d.cfg.MaxParticipants)
	needed := len(d.AllowedPositions)
	if count < needed && d.cfg.MaxParticipants >= needed {
		d.log.Info("raising participant count to cover all positions",
			zap.Int("from", count), zap.Int("to", needed))
		count = needed
	}

	// Deal positions round-robin from reshuffled pools so every
	// position is covered before any repeats.
	var assignments []string
	var pool []string
	for len(assignments) < count {
		if len(pool) == 0 {
			pool = append([]string(nil), d.AllowedPositions...)
			d.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		}
		assignments = append(assignments, pool[0])
		pool = pool[1:]
	}
	d.rng.Shuffle(len(assignments), func(i, j int) {
		assignments[i], assignments[j] = assignments[j], assignments[i]
	})

	for i := 0; i < count; i++ {
		deb := &Debater{Participant: d.baseProfile(ov.Participant)}
		deb.OriginalPosition = assignments[i]
		deb.OrderInDebate = i + 1
		d.Participants = append(d.Participants, deb)
	}
}

// buildManualParticipant merges a manual entry over a rolled base
// profile. Unparseable enum fields invalidate the whole entry.
func (d *Debate) buildManualParticipant(idx int, mp ManualParticipant, defaults TraitOverrides) (*Debater, error) {
	merged := defaults
	if mp.Role != "" {
		merged.Role = mp.Role
	}
	if mp.Attitude != "" {
		merged.Attitude = mp.Attitude
	}
	if mp.Mindset != "" {
		merged.Mindset = mp.Mindset
	}
	if mp.Brain != "" {
		merged.Brain = mp.Brain
	}
	if mp.Gender != "" {
		merged.Gender = mp.Gender
	}
	if mp.Tolerant != nil {
		merged.Tolerant = mp.Tolerant
	}
	if mp.Insults != nil {
		merged.Insults = mp.Insults
	}
	if mp.Lies != nil {
		merged.Lies = mp.Lies
	}

	if err := validatePins(idx, merged); err != nil {
		return nil, err
	}

	deb := &Debater{Participant: d.baseProfile(merged)}
	if mp.Name != "" {
		deb.Name = mp.Name
	}
	if mp.Position != "" {
		deb.OriginalPosition = mp.Position
	}
	if mp.Confidence != nil {
		deb.ConfidenceScore = clamp01(*mp.Confidence)
	}
	if mp.Ethnicity != "" {
		eth, err := ParseEthnicity(mp.Ethnicity)
		if err != nil {
			return nil, &ValidationError{Index: idx, Field: "ethnicity", Reason: err.Error()}
		}
		deb.Ethnicity = eth
	}
	deb.InitialBrain = deb.Brain
	return deb, nil
}

// validatePins rejects manual trait pins that do not parse; unpinned
// fields pass.
func validatePins(idx int, t TraitOverrides) error {
	if t.Role != "" {
		if _, err := ParseRole(t.Role); err != nil {
			return &ValidationError{Index: idx, Field: "role", Reason: err.Error()}
		}
	}
	if t.Attitude != "" {
		if _, err := ParseAttitude(t.Attitude); err != nil {
			return &ValidationError{Index: idx, Field: "attitude", Reason: err.Error()}
		}
	}
	if t.Mindset != "" {
		if _, err := ParseMindset(t.Mindset); err != nil {
			return &ValidationError{Index: idx, Field: "mindset", Reason: err.Error()}
		}
	}
	if t.Brain != "" {
		if _, err := provider.ParseBrain(t.Brain); err != nil {
			return &ValidationError{Index: idx, Field: "brain", Reason: err.Error()}
		}
	}
	if t.Gender != "" {
		if _, err := ParseGender(t.Gender); err != nil {
			return &ValidationError{Index: idx, Field: "gender", Reason: err.Error()}
		}
	}
	return nil
}

func (d *Debate) establishMaxLetters(ov *Overrides) {
	if ov.MaxLetters > 0 {
		d.MaxLetters = ov.MaxLetters
		return
	}
	d.MaxLetters = d.randBetween(d.cfg.MinLettersPerTurn, d.cfg.MaxLettersPerTurn)
}

func (d *Debate) establishModerator(ov *Overrides) {
	if ov.Moderator.IsZero() && !d.coinFlip() {
		return
	}
	mod := &Moderator{
		Participant: d.baseProfile(ov.Moderator),
		Caps: Capabilities{
			Intervene:  true,
			SkipTurn:   true,
			StopDebate: true,
			Veto:       true,
		},
	}
	mod.OrderInDebate = 0
	d.Moderator = mod
}

// SetDebateLogger replaces the per-debate transcript logger. The
// debate ID is generated during construction, so callers open the log
// file afterwards.
func (d *Debate) SetDebateLogger(l *zap.Logger) {
	if l != nil {
		d.topicLog = l
	}
}

// Prompt renders the opening framing shared with every participant.
func (d *Debate) Prompt() string {
	roster := ""
	for _, p := range d.Participants {
		roster += fmt.Sprintf("- %s (%s): %s\n", p.Name, p.Role, p.OriginalPosition)
	}
	modText := "No Moderator"
	if d.Moderator != nil {
		modText = "Moderator: " + d.Moderator.Name
	}
	return fmt.Sprintf("Topic: %s\nContext: %s\nRoster:\n%s%s",
		d.Topic, d.Description, roster, modText)
}

// Transcript returns the immutable full transcript recorded so far.
func (d *Debate) Transcript() []*Intervention { return d.fullTranscript }

// PositionChanges returns flips recorded so far.
func (d *Debate) PositionChanges() []results.PositionChangeEntry { return d.positionChanges }

// Stats returns the moderator action counters.
func (d *Debate) Stats() results.ModeratorStats { return d.stats }

// Evaluation returns the final ballots; empty until the debate finishes.
func (d *Debate) Evaluation() results.EvaluationSection { return d.evaluation }

func (d *Debate) recordIntervention(iv *Intervention) {
	d.interventions = append(d.interventions, iv)
	d.fullTranscript = append(d.fullTranscript, iv)
}

// activeCount counts debaters still allowed to speak.
func (d *Debate) activeCount() int {
	n := 0
	for _, p := range d.Participants {
		if !p.IsVetoed {
			n++
		}
	}
	return n
}

func (d *Debate) findParticipant(name string) *Debater {
	for _, p := range d.Participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (d *Debate) logInitialState() {
	partList := ""
	for _, p := range d.Participants {
		partList += "- " + p.FullDescription() + "\n"
	}
	modDesc := "None"
	if d.Moderator != nil {
		modDesc = d.Moderator.FullDescription()
	}
	d.topicLog.Info(fmt.Sprintf(
		"=== DEBATE STARTED ===\nID: %s\nPROMPT: This is a debate named '%s'.\nThe description is: %s\nThe Participants are:\n%sModerator: %s\nThere will be a total of %d rounds. Each round consists of %d turns per participant.\nEach turn will have a maximum of %d letters.",
		d.DebateID, d.Topic, d.Description, partList, modDesc,
		d.TotalRounds, d.TotalTurns, d.MaxLetters))
	d.log.Info("starting debate",
		zap.String("debate_id", d.DebateID), zap.String("topic", d.Topic))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
