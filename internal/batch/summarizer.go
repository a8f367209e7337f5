package batch

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"debaite/internal/results"
)

// highlightTextLimit truncates highlight turn quotes.
const highlightTextLimit = 300

// maxLoggedChanges caps the position changes rendered to the log.
const maxLoggedChanges = 10

// Summarize folds the per-debate result files of one session into a
// FinalSummary and writes it as final_summary.json next to them.
// Unreadable files are logged and skipped.
func Summarize(paths []string, logger *zap.Logger) (*results.FinalSummary, string, error) {
	if len(paths) == 0 {
		return nil, "", fmt.Errorf("no result paths provided")
	}
	logger.Info("starting global summary analysis", zap.Int("debates", len(paths)))

	agg := newAggregator()
	loaded := 0
	for _, path := range paths {
		res, err := results.Load(path)
		if err != nil {
			logger.Error("skipping unreadable result", zap.String("path", path), zap.Error(err))
			continue
		}
		agg.add(res)
		loaded++
	}
	if loaded == 0 {
		return nil, "", fmt.Errorf("no readable results among %d paths", len(paths))
	}

	summary := agg.build(loaded)
	renderSummary(summary, logger)

	sessionDir := filepath.Dir(paths[0])
	path, err := summary.Save(sessionDir)
	if err != nil {
		return nil, "", err
	}
	logger.Info("global summary saved", zap.String("path", path))
	return summary, path, nil
}

type positionConfidences struct {
	initial []float64
	final   []float64
}

type aggregator struct {
	totalCost         float64
	totalRounds       int
	totalParticipants int
	globalScores      []float64

	modStats map[string]int

	winnersByPos    []string
	winnersDetails  []results.WinnerDetail
	positionChanges []results.PositionChangeEntry
	highlights      []results.HighlightTurn

	posStats    map[string]*positionConfidences
	scoresByPos map[string][]float64
}

func newAggregator() *aggregator {
	return &aggregator{
		modStats: map[string]int{
			"total_interventions": 0,
			"total_sanctions":     0,
			"total_skips":         0,
			"total_vetos":         0,
			"total_stops":         0,
			"total_limits":        0,
		},
		posStats:    map[string]*positionConfidences{},
		scoresByPos: map[string][]float64{},
	}
}

func (a *aggregator) add(res *results.DebateResult) {
	a.totalCost += res.Metadata.TotalEstimatedCostUSD
	a.totalRounds += res.Metadata.TotalRoundsConfigured
	a.totalParticipants += len(res.Participants)

	partsByName := map[string]*results.ParticipantEntry{}
	for i := range res.Participants {
		partsByName[res.Participants[i].Name] = &res.Participants[i]
	}

	a.modStats["total_interventions"] += res.ModeratorStats.Interventions
	a.modStats["total_sanctions"] += res.ModeratorStats.Sanctions
	a.modStats["total_skips"] += res.ModeratorStats.Skips
	a.modStats["total_vetos"] += res.ModeratorStats.Vetos
	a.modStats["total_stops"] += res.ModeratorStats.Stops
	a.modStats["total_limits"] += res.ModeratorStats.Limits

	for _, change := range res.PositionChanges {
		change.DebateID = res.Metadata.ID
		a.positionChanges = append(a.positionChanges, change)
	}

	if outcome := res.Evaluation.GlobalOutcome; outcome != nil {
		a.winnersByPos = append(a.winnersByPos, outcome.WinnerPosition)
		a.winnersDetails = append(a.winnersDetails, results.WinnerDetail{
			DebateID:       res.Metadata.ID,
			WinnerName:     outcome.WinnerName,
			WinnerPosition: outcome.WinnerPosition,
		})

		for name, score := range outcome.AverageScores {
			a.globalScores = append(a.globalScores, score)
			if p := partsByName[name]; p != nil {
				pos := p.FinalPosition
				if pos == "" {
					pos = p.OriginalPosition
				}
				a.scoresByPos[pos] = append(a.scoresByPos[pos], score)
			}
		}

		a.addHighlight(res.Metadata.ID, "BEST", outcome.BestIntervention, partsByName)
		a.addHighlight(res.Metadata.ID, "WORST", outcome.WorstIntervention, partsByName)
	}

	for _, p := range res.Participants {
		pos := p.OriginalPosition
		if pos == "" {
			pos = "Unknown"
		}
		pc := a.posStats[pos]
		if pc == nil {
			pc = &positionConfidences{}
			a.posStats[pos] = pc
		}
		initial := 1.0
		if len(p.ConfidenceHistory) > 0 {
			initial = p.ConfidenceHistory[0]
		}
		pc.initial = append(pc.initial, initial)
		pc.final = append(pc.final, p.FinalConfidence)
	}
}

func (a *aggregator) addHighlight(debateID, kind string, ref *results.InterventionReference, parts map[string]*results.ParticipantEntry) {
	if ref == nil {
		return
	}
	pos := "Unknown"
	conf := 0.0
	if p := parts[ref.Participant]; p != nil {
		conf = p.FinalConfidence
		pos = p.FinalPosition
		if pos == "" {
			pos = p.OriginalPosition
		}
	}
	a.highlights = append(a.highlights, results.HighlightTurn{
		DebateID:              debateID,
		Type:                  kind,
		Text:                  truncate(ref.Text, highlightTextLimit) + "...",
		ParticipantName:       ref.Participant,
		ParticipantPosition:   pos,
		ParticipantConfidence: conf,
	})
}

func (a *aggregator) build(debates int) *results.FinalSummary {
	avgScore := 0.0
	if len(a.globalScores) > 0 {
		sum := 0.0
		for _, s := range a.globalScores {
			sum += s
		}
		avgScore = sum / float64(len(a.globalScores))
	}

	totalP := 0
	for _, pc := range a.posStats {
		totalP += len(pc.initial)
	}

	posDist := map[string]results.PositionStat{}
	for pos, pc := range a.posStats {
		count := len(pc.initial)
		perc := 0.0
		if totalP > 0 {
			perc = float64(count) / float64(totalP) * 100
		}
		posDist[pos] = results.PositionStat{
			Count:                 count,
			MeanInitialConfidence: mean(pc.initial),
			MeanFinalConfidence:   mean(pc.final),
			Percentage:            round2(perc),
		}
	}

	meanScores := map[string]results.ScoreStat{}
	for pos, scores := range a.scoresByPos {
		if len(scores) == 0 {
			continue
		}
		mn, mx := scores[0], scores[0]
		for _, s := range scores[1:] {
			mn = math.Min(mn, s)
			mx = math.Max(mx, s)
		}
		meanScores[pos] = results.ScoreStat{
			Mean:  round2(mean(scores)),
			Max:   mx,
			Min:   mn,
			Count: len(scores),
		}
	}

	winnersByPosition := map[string]int{}
	for _, pos := range a.winnersByPos {
		winnersByPosition[pos]++
	}

	return &results.FinalSummary{
		SessionSummary: results.SessionSummary{
			TotalDebates:      debates,
			TotalCostUSD:      a.totalCost,
			TotalRounds:       a.totalRounds,
			TotalParticipants: a.totalParticipants,
			GlobalAvgScore:    round2(avgScore),
			DateGenerated:     time.Now().Format(time.RFC3339),
		},
		ModeratorSummary:          a.modStats,
		WinnersByPosition:         winnersByPosition,
		WinnersDetails:            a.winnersDetails,
		PositionChanges:           a.positionChanges,
		FinalPositionDistribution: posDist,
		MeanScores:                meanScores,
		HighlightTurns:            a.highlights,
	}
}

func renderSummary(s *results.FinalSummary, logger *zap.Logger) {
	logger.Info("global debate summary",
		zap.Int("total_debates", s.SessionSummary.TotalDebates),
		zap.Float64("total_cost_usd", s.SessionSummary.TotalCostUSD),
		zap.Int("total_participants", s.SessionSummary.TotalParticipants),
		zap.Float64("global_avg_score", s.SessionSummary.GlobalAvgScore))

	logger.Info("moderator activity",
		zap.Int("interventions", s.ModeratorSummary["total_interventions"]),
		zap.Int("sanctions", s.ModeratorSummary["total_sanctions"]),
		zap.Int("vetos", s.ModeratorSummary["total_vetos"]),
		zap.Int("stops", s.ModeratorSummary["total_stops"]),
		zap.Int("limits", s.ModeratorSummary["total_limits"]),
		zap.Int("skips", s.ModeratorSummary["total_skips"]))

	for _, pos := range sortedByCount(s.WinnersByPosition) {
		logger.Info("winners by position",
			zap.String("position", pos), zap.Int("wins", s.WinnersByPosition[pos]))
	}

	logger.Info("position changes", zap.Int("total_swaps", len(s.PositionChanges)))
	for i, change := range s.PositionChanges {
		if i >= maxLoggedChanges {
			logger.Info("more position changes omitted",
				zap.Int("omitted", len(s.PositionChanges)-maxLoggedChanges))
			break
		}
		logger.Info("position change",
			zap.String("name", change.Name),
			zap.String("from", change.FromPosition),
			zap.String("to", change.ToPosition),
			zap.Int("round", change.RoundWhenChanged))
	}

	for pos, stat := range s.FinalPositionDistribution {
		logger.Info("final position distribution",
			zap.String("position", pos),
			zap.Int("participants", stat.Count),
			zap.Float64("percentage", stat.Percentage))
	}
}

func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
