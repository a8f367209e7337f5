package debate

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"debaite/internal/results"
)

type phase int

const (
	phaseInit phase = iota
	phaseRound
	phaseTurn
	phaseSpeaker
	phaseEvaluate
	phaseDone
)

// runState tracks orchestration progress between Step calls.
type runState struct {
	phase   phase
	round   int
	turn    int
	speaker int
	active  bool
	queue   []Event
}

func (r *runState) emit(ev Event) { r.queue = append(r.queue, ev) }

// Step advances the debate and returns the next observable event, nil
// once the debate has finished. A single step may execute several LLM
// calls (a moderator ruling plus the speaker's answer).
func (d *Debate) Step(ctx context.Context) (*Event, error) {
	if d.run == nil {
		d.run = &runState{phase: phaseInit, active: true}
	}
	r := d.run

	for {
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue = r.queue[1:]
			return &ev, nil
		}

		switch r.phase {
		case phaseInit:
			d.stepInit()
		case phaseRound:
			d.stepRound()
		case phaseTurn:
			d.stepTurn(ctx)
		case phaseSpeaker:
			d.stepSpeaker(ctx)
		case phaseEvaluate:
			if err := d.stepEvaluate(ctx); err != nil {
				return nil, err
			}
		case phaseDone:
			return nil, nil
		}
	}
}

// Run drives the debate to completion and returns the saved result path.
func (d *Debate) Run(ctx context.Context) (string, error) {
	path := ""
	for {
		ev, err := d.Step(ctx)
		if err != nil {
			return "", err
		}
		if ev == nil {
			return path, nil
		}
		if ev.Type == EventFinished {
			path = ev.ResultPath
		}
	}
}

func (d *Debate) stepInit() {
	r := d.run
	d.logInitialState()

	var roster []string
	var snapshots []EventParticipant
	for _, p := range d.Participants {
		roster = append(roster, p.Name)
		snapshots = append(snapshots, EventParticipant{
			Name:     p.Name,
			Role:     string(p.Role),
			Attitude: string(p.Attitude),
			Position: p.CurrentPosition(),
		})
	}
	modName := ""
	if d.Moderator != nil {
		modName = d.Moderator.Name
	}
	r.emit(Event{
		Type:         EventInitialState,
		DebateID:     d.DebateID,
		Topic:        d.Topic,
		Description:  d.Description,
		Roster:       roster,
		Participants: snapshots,
		Moderator:    modName,
		TotalRounds:  d.TotalRounds,
		TotalTurns:   d.TotalTurns,
	})

	var opening *Intervention
	if d.Moderator != nil {
		opening = &Intervention{
			Participant:      &d.Moderator.Participant,
			Answer:           "WELCOME.\n" + d.Prompt(),
			SnapshotPosition: "Moderator",
		}
	} else {
		opening = &Intervention{
			Answer:           "SYSTEM: Debate Starts.\n" + d.Prompt(),
			SnapshotPosition: "System",
		}
	}
	d.recordIntervention(opening)
	r.emit(Event{
		Type:        EventIntervention,
		Participant: opening.SpeakerName(),
		Text:        opening.Answer,
	})

	r.round = 1
	r.phase = phaseRound
}

func (d *Debate) stepRound() {
	r := d.run
	if !r.active || r.round > d.TotalRounds {
		r.phase = phaseEvaluate
		return
	}
	d.topicLog.Info(fmt.Sprintf("--- ROUND %d ---", r.round))
	r.emit(Event{Type: EventRoundStart, Round: r.round})
	r.turn = 1
	r.phase = phaseTurn
}

func (d *Debate) stepTurn(ctx context.Context) {
	r := d.run
	if !r.active || r.turn > d.TotalTurns {
		d.endOfRound(ctx, r.round)
		r.round++
		r.phase = phaseRound
		return
	}
	d.log.Info("turn starting",
		zap.Int("round", r.round), zap.Int("total_rounds", d.TotalRounds),
		zap.Int("turn", r.turn), zap.Int("total_turns", d.TotalTurns))
	r.emit(Event{Type: EventTurnStart, Round: r.round, Turn: r.turn})

	d.summarizeHistory(ctx)

	r.speaker = 0
	r.phase = phaseSpeaker
}

// stepSpeaker runs one roster slot: the moderator's ruling on the last
// turn, then the speaker's answer.
func (d *Debate) stepSpeaker(ctx context.Context) {
	r := d.run
	if r.speaker >= len(d.Participants) {
		r.turn++
		r.phase = phaseTurn
		return
	}
	p := d.Participants[r.speaker]
	r.speaker++

	if p.IsVetoed {
		return
	}
	if p.SkipNextTurn {
		msg := fmt.Sprintf("[SYSTEM] %s SKIPPED (Sanction).", p.Name)
		d.recordSystemLine(msg)
		p.SkipNextTurn = false
		return
	}

	if d.activeCount() <= 1 {
		d.stopDebate(ctx)
		return
	}

	if d.Moderator != nil && !d.applyModeration(ctx, p) {
		return
	}

	iv, err := p.Answer(ctx, d)
	p.NextTurnCharLimit = 0
	if err != nil {
		d.log.Warn("turn skipped", zap.String("name", p.Name), zap.Error(err))
		return
	}
	d.recordIntervention(iv)
	d.topicLog.Info(fmt.Sprintf("%s: %s", p.FullDescription(), iv.Answer))
	d.log.Info("turn cost", zap.String("name", p.Name), zap.Float64("cost", iv.Cost))

	r.emit(Event{
		Type:        EventIntervention,
		Participant: p.Name,
		Text:        iv.Answer,
		Cost:        iv.Cost,
		Role:        string(p.Role),
	})
}

// applyModeration executes a moderator ruling against the upcoming
// speaker p. It reports whether p still gets to speak.
func (d *Debate) applyModeration(ctx context.Context, p *Debater) bool {
	r := d.run
	dec := d.Moderator.DecideIntervention(ctx, d, p)

	if dec.Message != nil {
		d.recordIntervention(dec.Message)
		switch dec.Action {
		case ActionIntervene:
			d.stats.Interventions++
		case ActionStop:
			d.stats.Stops++
		}

		d.topicLog.Info(fmt.Sprintf("MODERATOR (%s) [ACTION: %s -> %s]: %s",
			d.Moderator.Name, dec.Action, dec.Target, dec.Message.Answer))
		r.emit(Event{
			Type:        EventIntervention,
			Participant: d.Moderator.Name,
			Text:        dec.Message.Answer,
			Cost:        dec.Message.Cost,
			Action:      string(dec.Action),
			Target:      dec.Target,
		})
	}

	target := d.findParticipant(dec.Target)

	switch dec.Action {
	case ActionStop:
		d.stopDebate(ctx)
		return false

	case ActionVeto:
		if target == nil {
			return true
		}
		target.IsVetoed = true
		target.VetoReason = dec.Reason
		d.stats.Vetos++
		d.topicLog.Info(fmt.Sprintf("!!! %s HAS BEEN VETOED (BANNED) !!!", target.Name))
		r.emit(Event{Type: EventVeto, Participant: target.Name, Reason: dec.Reason})
		return target != p

	case ActionSanction:
		if target == nil {
			return true
		}
		target.Strikes++
		target.SkipNextTurn = true
		d.stats.Sanctions++
		d.topicLog.Info(fmt.Sprintf("! %s RECEIVED A STRIKE (%d/%d) !",
			target.Name, target.Strikes, d.cfg.MaxStrikesForVeto))
		r.emit(Event{Type: EventSanction, Participant: target.Name, Strikes: target.Strikes})

		if target.Strikes >= d.cfg.MaxStrikesForVeto {
			target.IsVetoed = true
			target.VetoReason = fmt.Sprintf("Max Strikes (%d) reached. Last: %s",
				d.cfg.MaxStrikesForVeto, dec.Reason)
			d.stats.Vetos++
			d.topicLog.Info(fmt.Sprintf("!!! %s HAS BEEN VETOED FOR ACCUMULATED STRIKES !!!", target.Name))
			r.emit(Event{Type: EventVeto, Participant: target.Name, Reason: target.VetoReason})
			return target != p
		}
		return true

	case ActionSkip:
		d.stats.Skips++
		if target == p {
			d.recordSystemLine(fmt.Sprintf("[SYSTEM] %s SKIPPED by Moderator.", p.Name))
			return false
		}
		if target != nil {
			target.SkipNextTurn = true
		}
		return true

	case ActionLimit:
		d.stats.Limits++
		if target != nil {
			d.topicLog.Info(fmt.Sprintf("! %s PENALIZED: Next turn limited to %d chars !",
				target.Name, target.NextTurnCharLimit))
		}
		return true
	}

	return true
}

// stopDebate ends the turn loop, closing out the current round's
// position check before final evaluation.
func (d *Debate) stopDebate(ctx context.Context) {
	r := d.run
	r.active = false
	d.endOfRound(ctx, r.round)
	r.phase = phaseEvaluate
}

func (d *Debate) recordSystemLine(msg string) {
	iv := &Intervention{Answer: msg, SnapshotPosition: "System"}
	d.recordIntervention(iv)
	d.topicLog.Info(msg)
	d.run.emit(Event{Type: EventIntervention, Participant: "SYSTEM", Text: msg})
}

// endOfRound re-evaluates every active debater's confidence and records
// position flips.
func (d *Debate) endOfRound(ctx context.Context, round int) {
	d.log.Info("end of round, evaluating positions", zap.Int("round", round))
	for _, p := range d.Participants {
		if p.IsVetoed {
			continue
		}
		oldPos := p.CurrentPosition()
		res := p.CheckChangePosition(ctx, d)
		if !res.HasChanged {
			continue
		}
		d.positionChanges = append(d.positionChanges, results.PositionChangeEntry{
			Name:             p.Name,
			FromPosition:     oldPos,
			ToPosition:       res.NewPosition,
			RoundWhenChanged: round,
		})
		msg := fmt.Sprintf("!!! POSITION CHANGE: %s flipped from %s to %s", p.Name, oldPos, res.NewPosition)
		d.topicLog.Info(msg)
		d.log.Info(msg)
		d.run.emit(Event{
			Type:         EventPositionChange,
			Participant:  p.Name,
			FromPosition: oldPos,
			ToPosition:   res.NewPosition,
			Round:        round,
		})
	}
}

func (d *Debate) stepEvaluate(ctx context.Context) error {
	r := d.run
	d.evaluate(ctx)

	d.topicLog.Info("=== DEBATE FINISHED ===")
	winner := ""
	if d.evaluation.GlobalOutcome != nil {
		winner = d.evaluation.GlobalOutcome.WinnerName
		d.topicLog.Info("CONSENSUS WINNER: " + winner)
	}

	path, err := d.saveResults()
	if err != nil {
		r.phase = phaseDone
		return err
	}

	r.emit(Event{Type: EventFinished, Winner: winner, ResultPath: path})
	r.phase = phaseDone
	return nil
}

// evaluate collects every active debater's ballot, aggregates the votes,
// and asks the moderator for an independent judgement.
func (d *Debate) evaluate(ctx context.Context) {
	d.log.Info("starting final evaluation")

	var ballots []results.ParticipantScore
	var votes []string
	var bestVotes, worstVotes []int
	scoresMap := map[string][]float64{}

	for _, p := range d.Participants {
		if p.IsVetoed {
			continue
		}
		d.log.Info("processing vote", zap.String("voter", p.Name))
		ballot, err := p.EvaluatePerformance(ctx, d)
		if err != nil {
			d.log.Error("vote failed", zap.String("voter", p.Name), zap.Error(err))
			continue
		}
		if ballot == nil {
			continue
		}

		score := results.ParticipantScore{
			Voter:  p.Name,
			Winner: ballot.Winner,
			Scores: ballot.Scores,
		}
		if ref := d.turnRef(ballot.BestTurn); ref != nil {
			score.BestIntervention = ref
			bestVotes = append(bestVotes, ref.ID)
		}
		if ref := d.turnRef(ballot.WorstTurn); ref != nil {
			score.WorstIntervention = ref
			worstVotes = append(worstVotes, ref.ID)
		}
		ballots = append(ballots, score)

		if score.Winner != "" {
			votes = append(votes, score.Winner)
		}
		for name, v := range score.Scores {
			scoresMap[name] = append(scoresMap[name], v)
		}
	}

	var outcome *results.GlobalOutcome
	if len(votes) > 0 {
		winner, dist := majority(votes)
		winnerPos := "Unknown"
		if wp := d.findParticipant(winner); wp != nil {
			winnerPos = wp.CurrentPosition()
		}

		avg := map[string]float64{}
		for name, vs := range scoresMap {
			sum := 0.0
			for _, v := range vs {
				sum += v
			}
			avg[name] = math.Round(sum/float64(len(vs))*100) / 100
		}

		outcome = &results.GlobalOutcome{
			WinnerName:        winner,
			WinnerPosition:    winnerPos,
			VoteDistribution:  dist,
			AverageScores:     avg,
			BestIntervention:  d.turnRef(majorityInt(bestVotes)),
			WorstIntervention: d.turnRef(majorityInt(worstVotes)),
		}
	}

	var verdict *results.ModeratorVerdict
	if d.Moderator != nil {
		d.log.Info("processing moderator judgement")
		v, err := d.Moderator.Judge(ctx, d)
		if err != nil {
			d.log.Error("moderator judgement failed", zap.Error(err))
		} else {
			verdict = v
		}
	}

	d.evaluation = results.EvaluationSection{
		Participants:  ballots,
		Moderator:     verdict,
		GlobalOutcome: outcome,
	}
}

// turnRef resolves a voted turn index into an intervention reference,
// nil when out of range.
func (d *Debate) turnRef(idx *int) *results.InterventionReference {
	if idx == nil || *idx < 0 || *idx >= len(d.interventions) {
		return nil
	}
	iv := d.interventions[*idx]
	return &results.InterventionReference{
		ID:          *idx,
		Participant: iv.SpeakerName(),
		Text:        iv.Answer,
	}
}

// majority returns the most frequent vote and the full distribution.
// Ties resolve to the earliest-seen candidate.
func majority(votes []string) (string, map[string]int) {
	counts := map[string]int{}
	var order []string
	for _, v := range votes {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	winner, best := "", 0
	for _, name := range order {
		if counts[name] > best {
			winner, best = name, counts[name]
		}
	}
	return winner, counts
}

// majorityInt returns the most voted turn index, nil on no votes. Ties
// resolve to the earliest-seen index.
func majorityInt(votes []int) *int {
	if len(votes) == 0 {
		return nil
	}
	counts := map[int]int{}
	var order []int
	for _, v := range votes {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	winner, best := 0, 0
	for _, id := range order {
		if counts[id] > best {
			winner, best = id, counts[id]
		}
	}
	return &winner
}

// saveResults assembles and persists the debate artifact.
func (d *Debate) saveResults() (string, error) {
	totalCost := d.accumulatedSystemCost

	var transcript []results.TranscriptEntry
	for _, iv := range d.fullTranscript {
		totalCost += iv.Cost
		confidence := 1.0
		if iv.Participant != nil {
			confidence = iv.Participant.ConfidenceScore
		}
		transcript = append(transcript, results.TranscriptEntry{
			ParticipantName:     iv.SpeakerName(),
			ParticipantPosition: iv.SnapshotPosition,
			Confidence:          confidence,
			Text:                iv.Answer,
			Usage: results.UsageStats{
				InputTokens:  iv.InputTokens,
				OutputTokens: iv.OutputTokens,
				Cost:         iv.Cost,
			},
		})
	}

	var participants []results.ParticipantEntry
	for _, p := range d.Participants {
		origPos := p.OriginalPosition
		if origPos == "" {
			origPos = "N/A"
		}
		participants = append(participants, results.ParticipantEntry{
			Name:              p.Name,
			Role:              string(p.Role),
			AttitudeType:      string(p.Attitude),
			Brain:             string(p.Brain),
			InitialBrain:      string(p.InitialBrain),
			OriginalPosition:  origPos,
			FinalPosition:     p.CurrentPosition(),
			Gender:            string(p.Gender),
			EthnicGroup:       string(p.Ethnicity),
			Tolerant:          p.Tolerant,
			InsultsAllowed:    p.InsultsAllowed,
			LiesAllowed:       p.LiesAllowed,
			IsVetoed:          p.IsVetoed,
			VetoReason:        p.VetoReason,
			Strikes:           p.Strikes,
			SkipNextTurn:      p.SkipNextTurn,
			TotalCost:         p.TotalCost,
			OrderInDebate:     p.OrderInDebate,
			ConfidenceHistory: p.ConfidenceHistory,
			FinalConfidence:   p.ConfidenceScore,
		})
		totalCost += p.TotalCost
	}

	var modEntry *results.ModeratorEntry
	if d.Moderator != nil {
		totalCost += d.Moderator.TotalCost
		modEntry = &results.ModeratorEntry{
			Name:         d.Moderator.Name,
			Brain:        string(d.Moderator.Brain),
			InitialBrain: string(d.Moderator.InitialBrain),
			Gender:       string(d.Moderator.Gender),
			EthnicGroup:  string(d.Moderator.Ethnicity),
			Capabilities: map[string]bool{
				"intervene":   d.Moderator.Caps.Intervene,
				"skip_turn":   d.Moderator.Caps.SkipTurn,
				"stop_debate": d.Moderator.Caps.StopDebate,
				"veto":        d.Moderator.Caps.Veto,
			},
			TotalCost: d.Moderator.TotalCost,
		}
	}

	result := &results.DebateResult{
		Metadata: results.DebateMetadata{
			ID:                    d.DebateID,
			SessionID:             d.SessionID,
			Topic:                 d.Topic,
			Description:           d.Description,
			Date:                  time.Now().Format(time.RFC3339),
			TotalRoundsConfigured: d.TotalRounds,
			TotalTurnsConfigured:  d.TotalTurns,
			AllowedPositions:      d.AllowedPositions,
			TotalEstimatedCostUSD: totalCost,
		},
		Participants:    participants,
		Moderator:       modEntry,
		ModeratorStats:  d.stats,
		PositionChanges: d.positionChanges,
		Transcript:      transcript,
		Evaluation:      d.evaluation,
	}
	return result.Save(d.cfg.ResultsDir)
}
