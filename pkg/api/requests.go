package api

// StartRunRequest is the body of POST /runs.
type StartRunRequest struct {
	Query    string `json:"query"`
	Cocktail string `json:"cocktail"`
}
