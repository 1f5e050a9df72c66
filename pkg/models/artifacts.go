package models

// Artifact file names within a run directory. The numeric prefix is the
// pipeline order; presence of a file marks its stage complete.
const (
	ArtifactReady           = "00_ready.json"
	ArtifactInputs          = "01_inputs.json"
	ArtifactActivate        = "02_activate.json"
	ArtifactInitial         = "03_initial.json"
	ArtifactInitialStatus   = "03_initial_status.json"
	ArtifactMeta            = "04_meta.json"
	ArtifactMetaStatus      = "04_meta_status.json"
	ArtifactSynthesis       = "05_ultrai.json"
	ArtifactSynthesisStatus = "05_ultrai_status.json"
	ArtifactStats           = "stats.json"

	// EventLogName is the per-run NDJSON event log (not a JSON artifact).
	EventLogName = "events.log"

	// ErrorFileName marks a failed run; its presence is terminal.
	ErrorFileName = "error.txt"
)

// OrderedArtifacts lists the stage artifacts in pipeline order.
// The status endpoint reports the highest-numbered artifact present as
// the current phase.
var OrderedArtifacts = []string{
	ArtifactReady,
	ArtifactInputs,
	ArtifactActivate,
	ArtifactInitial,
	ArtifactMeta,
	ArtifactSynthesis,
}

// Metadata is attached to every artifact for auditability.
type Metadata struct {
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
	Phase     string `json:"phase,omitempty"`
}

// ReadyArtifact is 00_ready.json: the gateway's available-model snapshot.
type ReadyArtifact struct {
	RunID     string   `json:"run_id"`
	ReadyList []string `json:"readyList"`
	Timestamp string   `json:"timestamp"`
	Status    string   `json:"status"`
	LLMCount  int      `json:"llm_count"`
}

// InputsArtifact is 01_inputs.json: the validated user request.
type InputsArtifact struct {
	Query    string   `json:"QUERY"`
	Analysis string   `json:"ANALYSIS"`
	Cocktail string   `json:"COCKTAIL"`
	Metadata Metadata `json:"metadata"`
}

// ActivateArtifact is 02_activate.json: the realized slot assignment.
//
// ActiveList holds exactly the slot-resolved model IDs in slot order.
// BackupList holds READY fallbacks not consumed as replacements, aligned by
// slot index with ActiveList (empty string where no backup remains).
// Reasons has one entry per original PRIMARY slot.
type ActivateArtifact struct {
	ActiveList []string          `json:"activeList"`
	BackupList []string          `json:"backupList"`
	Quorum     int               `json:"quorum"`
	Cocktail   string            `json:"cocktail"`
	Reasons    map[string]string `json:"reasons"`
	Metadata   Metadata          `json:"metadata"`
}

// StageStatus is the sibling status document for R1 and R2 artifacts.
type StageStatus struct {
	Status   string       `json:"status"`
	Round    string       `json:"round"`
	Details  StageDetails `json:"details"`
	Metadata Metadata     `json:"metadata"`
}

// StageDetails summarizes a fan-out stage.
type StageDetails struct {
	Count            int      `json:"count"`
	Models           []string `json:"models"`
	FailedModels     []string `json:"failed_models,omitempty"`
	ConcurrencyLimit int      `json:"concurrency_limit"`
}

// SynthesisArtifact is 05_ultrai.json: the single R3 merge record.
type SynthesisArtifact struct {
	Round         Round          `json:"round"`
	Model         string         `json:"model"`
	NeutralChosen string         `json:"neutralChosen"`
	Text          string         `json:"text"`
	Ms            int64          `json:"ms"`
	Stats         SynthesisStats `json:"stats"`
}

// SynthesisStats records the realized membership counts feeding R3.
type SynthesisStats struct {
	ActiveCount int `json:"active_count"`
	MetaCount   int `json:"meta_count"`
}

// SynthesisStatus is the sibling status document for 05_ultrai.json.
type SynthesisStatus struct {
	Status   string           `json:"status"`
	Round    string           `json:"round"`
	Details  SynthesisDetails `json:"details"`
	Metadata Metadata         `json:"metadata"`
}

// SynthesisDetails records the dynamic-timeout decision made for R3.
// TimeoutSeconds is the stage deadline; MaxCharsPerDraft the truncation cap
// derived from it.
type SynthesisDetails struct {
	Model               string  `json:"model"`
	Neutral             bool    `json:"neutral"`
	ConcurrencyFromMeta *int    `json:"concurrency_from_meta"`
	TimeoutSeconds      float64 `json:"timeout"`
	ContextLength       int     `json:"context_length"`
	NumMetaDrafts       int     `json:"num_meta_drafts"`
	MaxCharsPerDraft    int     `json:"max_chars_per_draft"`
}

// Stats is stats.json: best-effort per-round timing aggregates.
type Stats struct {
	Initial RoundStats `json:"INITIAL"`
	Meta    RoundStats `json:"META"`
	UltrAI  FinalStats `json:"ULTRAI"`
}

// RoundStats aggregates a fan-out round. AvgMs is the integer mean over
// non-error entries, 0 when there are none.
type RoundStats struct {
	Count int   `json:"count"`
	AvgMs int64 `json:"avg_ms"`
}

// FinalStats aggregates the single synthesis record.
type FinalStats struct {
	Count int   `json:"count"`
	Ms    int64 `json:"ms"`
}
