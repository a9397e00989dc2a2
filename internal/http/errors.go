package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fyrsmithlabs/repodigest/internal/analyzer"
	"github.com/fyrsmithlabs/repodigest/internal/digest"
	"github.com/fyrsmithlabs/repodigest/internal/summarizer"
)

// errorStatus maps an analysis error to a status code and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, analyzer.ErrInvalidURL):
		return http.StatusUnprocessableEntity, "github_url must look like https://github.com/owner/repo"
	case errors.Is(err, digest.ErrNotFound):
		return http.StatusNotFound, "Repository not found or not public."
	case errors.Is(err, digest.ErrEmptyRepository):
		return http.StatusBadRequest, "Repository appears to be empty."
	case errors.Is(err, digest.ErrRateLimited):
		return http.StatusBadGateway, "GitHub API rate limit exceeded. Set GITHUB_TOKEN or retry later."
	case errors.Is(err, summarizer.ErrMissingAPIKey):
		return http.StatusInternalServerError, "LLM API key is not configured. Set LLM_API_KEY or NEBIUS_API_KEY."
	case errors.Is(err, summarizer.ErrLLM):
		return http.StatusBadGateway, fmt.Sprintf("LLM processing failed: %v", err)
	default:
		return http.StatusBadGateway, fmt.Sprintf("Failed to fetch repository data: %v", err)
	}
}
