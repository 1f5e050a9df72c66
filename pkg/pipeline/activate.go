package pipeline

import (
	"fmt"

	"github.com/ultrai/orchestrator/pkg/config"
	"github.com/ultrai/orchestrator/pkg/models"
)

// Activate resolves the cocktail's slots against 00_ready.json and writes
// 02_activate.json. Each slot prefers its aligned PRIMARY, then its aligned
// FALLBACK, then any other READY member of the cocktail's union; a slot left
// unfilled fails the run.
func (p *Pipeline) Activate(runID string, cocktail *config.Cocktail) (*models.ActivateArtifact, error) {
	var ready models.ReadyArtifact
	if err := p.store.ReadJSON(runID, models.ArtifactReady, &ready); err != nil {
		return nil, err
	}
	isReady := make(map[string]bool, len(ready.ReadyList))
	for _, id := range ready.ReadyList {
		isReady[id] = true
	}

	active := make([]string, 0, config.SlotCount)
	chosen := make(map[string]bool, config.SlotCount)
	reasons := make(map[string]string, config.SlotCount)

	for i := 0; i < config.SlotCount; i++ {
		primary := cocktail.Primary[i]
		fallback := cocktail.Fallback[i]
		switch {
		case isReady[primary] && !chosen[primary]:
			active = append(active, primary)
			chosen[primary] = true
			reasons[primary] = models.ReasonPrimaryReady
		case isReady[fallback] && !chosen[fallback]:
			active = append(active, fallback)
			chosen[fallback] = true
			reasons[primary] = models.ReplacedFallback(fallback)
		default:
			if alt := firstReadyAlt(cocktail, isReady, chosen); alt != "" {
				active = append(active, alt)
				chosen[alt] = true
				reasons[primary] = models.ReplacedAlt(alt)
			} else {
				reasons[primary] = models.ReasonNotReady
			}
		}
	}

	if len(active) < config.SlotCount {
		return nil, fmt.Errorf("%w: cocktail %s filled %d of %d slots",
			ErrCocktailUnsatisfiable, cocktail.Name, len(active), config.SlotCount)
	}
	if len(active) < config.Quorum {
		return nil, fmt.Errorf("%w: %d active, quorum %d",
			ErrInsufficientActive, len(active), config.Quorum)
	}

	// Aligned backup lane for R1: the slot's FALLBACK when it is READY and
	// was not consumed as a replacement, empty otherwise.
	backups := make([]string, config.SlotCount)
	for i, fb := range cocktail.Fallback {
		if isReady[fb] && !chosen[fb] {
			backups[i] = fb
		}
	}

	art := &models.ActivateArtifact{
		ActiveList: active,
		BackupList: backups,
		Quorum:     config.Quorum,
		Cocktail:   cocktail.Name,
		Reasons:    reasons,
		Metadata:   p.metadata(runID, "02_activate"),
	}
	if err := p.store.WriteJSON(runID, models.ArtifactActivate, art); err != nil {
		return nil, err
	}
	p.logger.Info("activation resolved", "run_id", runID, "cocktail", cocktail.Name, "active", active)
	return art, nil
}

func firstReadyAlt(cocktail *config.Cocktail, isReady, chosen map[string]bool) string {
	for _, id := range cocktail.Union() {
		if isReady[id] && !chosen[id] {
			return id
		}
	}
	return ""
}
