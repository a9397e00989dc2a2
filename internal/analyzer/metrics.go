package analyzer

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
	"github.com/fyrsmithlabs/repodigest/internal/summarizer"
)

var (
	// AnalysesTotal counts analyses.
	// Labels: operation (digest, summarize), outcome (ok, invalid_url,
	// not_found, empty, rate_limited, llm_error, missing_key, error)
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repodigest",
			Subsystem: "analyzer",
			Name:      "analyses_total",
			Help:      "Total number of repository analyses by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// AnalysisDuration tracks end-to-end analysis latency.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "repodigest",
			Subsystem: "analyzer",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of repository analyses in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"operation"},
	)

	// DigestChars tracks the size of assembled digests.
	DigestChars = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "repodigest",
			Subsystem: "analyzer",
			Name:      "digest_chars",
			Help:      "Size of assembled digests in characters",
			Buckets:   prometheus.LinearBuckets(10000, 10000, 8),
		},
	)
)

// Operation labels.
const (
	opDigest    = "digest"
	opSummarize = "summarize"
)

// Outcome maps an analysis error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, digest.ErrNotFound):
		return "not_found"
	case errors.Is(err, digest.ErrEmptyRepository):
		return "empty"
	case errors.Is(err, digest.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, summarizer.ErrMissingAPIKey):
		return "missing_key"
	case errors.Is(err, summarizer.ErrLLM):
		return "llm_error"
	default:
		return "error"
	}
}
