package pipeline

import "errors"

// Precondition and configuration errors. Each one aborts the run; the
// orchestrator records it in error.txt and the run is reported failed.
var (
	// ErrMissingCredential: no API key in the environment. The HTTP layer
	// refuses such requests synchronously before scheduling a run.
	ErrMissingCredential = errors.New("missing gateway credential")

	// ErrLowPluralism: the gateway reported fewer than the quorum of models.
	ErrLowPluralism = errors.New("fewer than 2 models available")

	// ErrCocktailUnsatisfiable: slot resolution could not fill every slot.
	ErrCocktailUnsatisfiable = errors.New("cocktail cannot be satisfied from ready models")

	// ErrInsufficientActive: fewer active models than the quorum.
	ErrInsufficientActive = errors.New("fewer active models than quorum")

	// ErrInsufficientPeers: fewer than 2 models survived R1, so the META
	// round has nothing to cross-review.
	ErrInsufficientPeers = errors.New("fewer than 2 surviving models for META round")
)
