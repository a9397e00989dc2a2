package http

// AnalyzeRequest is the request body for POST /summarize and POST /api/v1/digest.
type AnalyzeRequest struct {
	GitHubURL string `json:"github_url"`
}

// SummaryResponse is the response body for POST /summarize.
type SummaryResponse struct {
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// DigestResponse is the response body for POST /api/v1/digest.
type DigestResponse struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Digest     string `json:"digest"`
	Chars      int    `json:"chars"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
