package config

import "time"

// SynthesisConfig holds the R3 dynamic timeout and context-truncation policy.
//
// The stage deadline grows with the amount of META context the neutral model
// must read, and the per-draft character cap grows with the deadline: a run
// that is allowed more time is also allowed more context.
type SynthesisConfig struct {
	// BaseTimeout is the floor of the dynamic timeout (also the clamp minimum).
	BaseTimeout time.Duration `yaml:"base_timeout"`

	// MaxTimeout is the clamp maximum for the dynamic timeout.
	MaxTimeout time.Duration `yaml:"max_timeout"`

	// ManyDraftsThreshold is the draft count at which the multiplier applies.
	ManyDraftsThreshold int `yaml:"many_drafts_threshold"`

	// ManyDraftsFactor is the multiplier applied at the threshold.
	ManyDraftsFactor float64 `yaml:"many_drafts_factor"`
}

// DefaultSynthesisConfig returns the built-in synthesis defaults.
func DefaultSynthesisConfig() *SynthesisConfig {
	return &SynthesisConfig{
		BaseTimeout:         60 * time.Second,
		MaxTimeout:          300 * time.Second,
		ManyDraftsThreshold: 4,
		ManyDraftsFactor:    1.2,
	}
}

// Timeout computes the stage-scoped synthesis deadline for a META context of
// contextLen characters across numDrafts drafts.
//
// Buckets: <1000 chars → 60s, <3000 → 90s, <5000 → 120s, otherwise 180s.
// With ManyDraftsThreshold or more drafts the value is multiplied by
// ManyDraftsFactor. The result is clamped to [BaseTimeout, MaxTimeout].
// Monotone non-decreasing in contextLen.
func (s *SynthesisConfig) Timeout(contextLen, numDrafts int) time.Duration {
	var factor float64
	switch {
	case contextLen < 1000:
		factor = 1.0 // 60s
	case contextLen < 3000:
		factor = 1.5 // 90s
	case contextLen < 5000:
		factor = 2.0 // 120s
	default:
		factor = 3.0 // 180s
	}

	if numDrafts >= s.ManyDraftsThreshold {
		factor *= s.ManyDraftsFactor
	}

	timeout := time.Duration(float64(s.BaseTimeout) * factor)
	if timeout < s.BaseTimeout {
		timeout = s.BaseTimeout
	}
	if timeout > s.MaxTimeout {
		timeout = s.MaxTimeout
	}
	return timeout
}

// MaxCharsPerDraft maps a synthesis timeout to the per-draft character cap
// used when building the META context. Longer deadlines tolerate more input.
func (s *SynthesisConfig) MaxCharsPerDraft(timeout time.Duration) int {
	switch {
	case timeout >= 180*time.Second:
		return 2000
	case timeout >= 120*time.Second:
		return 1200
	case timeout >= 90*time.Second:
		return 800
	default:
		return 500
	}
}

// Validate checks synthesis configuration bounds.
func (s *SynthesisConfig) Validate() error {
	if s == nil || s.BaseTimeout <= 0 || s.MaxTimeout < s.BaseTimeout {
		return &ValidationError{Component: "synthesis", ID: "synthesis", Field: "timeouts", Err: ErrValidationFailed}
	}
	if s.ManyDraftsThreshold < 1 || s.ManyDraftsFactor < 1.0 {
		return &ValidationError{Component: "synthesis", ID: "synthesis", Field: "many_drafts", Err: ErrValidationFailed}
	}
	return nil
}
