package pipeline

import (
	"strings"

	"github.com/ultrai/orchestrator/pkg/models"
)

// analysisMode is the only analysis the engine performs.
const analysisMode = "Synthesis"

// WriteInputs persists the validated user request as 01_inputs.json.
func (p *Pipeline) WriteInputs(runID, query, cocktail string) (*models.InputsArtifact, error) {
	in := &models.InputsArtifact{
		Query:    strings.TrimSpace(query),
		Analysis: analysisMode,
		Cocktail: cocktail,
		Metadata: p.metadata(runID, "01_inputs"),
	}
	if err := p.store.WriteJSON(runID, models.ArtifactInputs, in); err != nil {
		return nil, err
	}
	return in, nil
}
