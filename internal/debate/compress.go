package debate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// compressionKeepLast is how many recent entries survive a compression
// verbatim; everything older folds into a single summary line.
const compressionKeepLast = 5

// summarizeHistory compresses the working memory once it exceeds the
// configured turn limit. The full transcript is never touched. Without
// a credentialed provider the memory is left uncompressed.
func (d *Debate) summarizeHistory(ctx context.Context) {
	limit := d.cfg.MemoryCompressionTurns
	if limit <= 0 || len(d.interventions) <= limit {
		return
	}

	toCompress := d.interventions[:len(d.interventions)-compressionKeepLast]
	var sb strings.Builder
	for _, iv := range toCompress {
		fmt.Fprintf(&sb, "%s: %s\n", iv.SpeakerName(), iv.Answer)
	}

	for _, brain := range d.gen.Candidates() {
		comp, _, err := d.gen.Generate(ctx, brain,
			"Summarize the debate progress concisely.", sb.String(), 1000)
		if err != nil {
			d.log.Warn("compression failed, trying next provider",
				zap.String("brain", string(brain)), zap.Error(err))
			continue
		}
		d.accumulatedSystemCost += comp.Cost

		summary := &Intervention{
			Answer:           "[PREVIOUS SUMMARY]: " + comp.Text,
			SnapshotPosition: "System",
		}
		kept := d.interventions[len(d.interventions)-compressionKeepLast:]
		d.interventions = append([]*Intervention{summary}, kept...)
		d.log.Info("memory compressed", zap.String("brain", string(brain)))
		return
	}
}
