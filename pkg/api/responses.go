package api

// StartRunResponse is returned by POST /runs.
type StartRunResponse struct {
	RunID string `json:"run_id"`
}

// ArtifactListResponse is returned by GET /runs/:id/artifacts.
type ArtifactListResponse struct {
	RunID string   `json:"run_id"`
	Files []string `json:"files"`
}

// ErrorResponse is returned by GET /runs/:id/error.
type ErrorResponse struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}
