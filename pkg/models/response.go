// Package models defines the data model shared by the pipeline stages,
// the artifact store, and the API layer: response records, stage artifacts,
// and their sibling status documents.
package models

// Round identifies which pipeline round produced a response.
type Round string

const (
	// RoundInitial is R1: each active model answers the query independently.
	RoundInitial Round = "INITIAL"

	// RoundMeta is R2: each surviving model revises against peer drafts.
	RoundMeta Round = "META"

	// RoundUltrAI is R3: one neutral model merges the META drafts.
	RoundUltrAI Round = "ULTRAI"
)

// Response is one model's output for one round. On failure Text carries an
// "ERROR: ..." diagnostic, Ms is 0, and Error is true. Model is the only
// identity in a stage artifact — list order is completion order.
type Response struct {
	Round Round  `json:"round"`
	Model string `json:"model"`
	Text  string `json:"text"`
	Ms    int64  `json:"ms"`
	Error bool   `json:"error,omitempty"`
}

// Slot-resolution reasons recorded per original PRIMARY slot in 02_activate.json.
const (
	// ReasonPrimaryReady: the aligned primary was READY and took its slot.
	ReasonPrimaryReady = "PRIMARY_READY"

	// ReasonNotReady: neither the primary, its aligned fallback, nor any
	// pool member could fill the slot.
	ReasonNotReady = "NOT_READY_NO_REPLACEMENT"

	// Prefixes for replacement reasons; the replacing model ID follows.
	ReasonReplacedFallbackPrefix = "REPLACED_FALLBACK:"
	ReasonReplacedAltPrefix      = "REPLACED_ALT:"
)

// ReplacedFallback formats the reason for an aligned-fallback replacement.
func ReplacedFallback(model string) string {
	return ReasonReplacedFallbackPrefix + model
}

// ReplacedAlt formats the reason for a pool replacement.
func ReplacedAlt(model string) string {
	return ReasonReplacedAltPrefix + model
}
