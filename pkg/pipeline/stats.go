package pipeline

import (
	"github.com/ultrai/orchestrator/pkg/models"
)

// WriteStats aggregates the three response artifacts into stats.json. It is
// best-effort by contract: missing or malformed artifacts yield zeros, and
// the component never fails a run.
func (p *Pipeline) WriteStats(runID string) models.Stats {
	stats := models.Stats{
		Initial: roundStats(p.readResponses(runID, models.ArtifactInitial)),
		Meta:    roundStats(p.readResponses(runID, models.ArtifactMeta)),
	}

	var synthesis models.SynthesisArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactSynthesis, &synthesis); err == nil && synthesis.Model != "" {
		stats.UltrAI = models.FinalStats{Count: 1, Ms: synthesis.Ms}
	}

	if err := p.store.WriteJSON(runID, models.ArtifactStats, stats); err != nil {
		p.logger.Warn("failed to write stats", "run_id", runID, "error", err)
	}
	return stats
}

func (p *Pipeline) readResponses(runID, name string) []models.Response {
	var responses []models.Response
	if err := p.store.ReadJSON(runID, name, &responses); err != nil {
		return nil
	}
	return responses
}

func roundStats(responses []models.Response) models.RoundStats {
	rs := models.RoundStats{Count: len(responses)}
	var sum, n int64
	for _, r := range responses {
		if r.Error {
			continue
		}
		sum += r.Ms
		n++
	}
	if n > 0 {
		rs.AvgMs = sum / n
	}
	return rs
}
