package summarizer

import "errors"

var (
	// ErrMissingAPIKey indicates the summarizer was configured without a key.
	ErrMissingAPIKey = errors.New("llm api key is not configured")

	// ErrLLM wraps every failure talking to or parsing the model.
	ErrLLM = errors.New("llm request failed")
)
