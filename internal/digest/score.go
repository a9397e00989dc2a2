package digest

import (
	"path"
	"strings"
)

// Tier is a priority class. Only the best matching tier contributes to a score.
type Tier int

// Tiers in ascending priority.
const (
	TierNone Tier = iota
	TierSource
	TierConfig
	TierSecondary
	TierManifest
	TierReadme
)

func (t Tier) String() string {
	switch t {
	case TierSource:
		return "source"
	case TierConfig:
		return "config"
	case TierSecondary:
		return "secondary"
	case TierManifest:
		return "manifest"
	case TierReadme:
		return "readme"
	default:
		return "none"
	}
}

// Scorer maps a file to an integer relevance score. Higher is more relevant.
type Scorer struct {
	rules Rules
}

// NewScorer returns a Scorer over the given rules.
func NewScorer(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// Tier returns the single best matching tier for p.
func (s *Scorer) Tier(p string) Tier {
	base := path.Base(p)
	ext := strings.ToLower(path.Ext(base))

	switch {
	case strings.HasPrefix(strings.ToLower(base), "readme"):
		return TierReadme
	case s.rules.Manifests[base]:
		return TierManifest
	case s.rules.Secondary[base] || s.underSecondaryDir(p):
		return TierSecondary
	case s.rules.ConfigExts[ext]:
		return TierConfig
	case s.rules.SourceExts[ext]:
		return TierSource
	default:
		return TierNone
	}
}

// Score computes the relevance of the file at p with the given size.
func (s *Scorer) Score(p string, size int64) int {
	w := s.rules.Weights
	tier := s.Tier(p)

	score := 0
	switch tier {
	case TierReadme:
		score = w.Readme
	case TierManifest:
		score = w.Manifest
	case TierSecondary:
		score = w.Secondary
	case TierConfig:
		score = w.Config
	case TierSource:
		score = w.Source
		if isTestName(path.Base(p)) {
			score += w.TestFile
		}
	}

	score -= w.DepthPenalty * Depth(p)

	switch {
	case size < w.SmallFileSize:
		score += w.SmallFileBonus
	case size < w.MediumFileSize:
		score += w.MediumFileBonus
	case size > w.LargeFileSize:
		score -= w.LargeFilePenalty
	}

	if s.rules.EntryStems[stem(p)] {
		score += w.EntryPoint
	}
	return score
}

func (s *Scorer) underSecondaryDir(p string) bool {
	for _, prefix := range s.rules.SecondaryDirs {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Depth returns the number of directories above the file at p.
func Depth(p string) int {
	return strings.Count(p, "/")
}

// stem returns the lowercased base name without its final extension.
func stem(p string) string {
	base := path.Base(p)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}

// isTestName reports whether a base name follows a common test naming convention.
func isTestName(base string) bool {
	b := strings.ToLower(base)
	return strings.Contains(b, ".test.") ||
		strings.Contains(b, ".spec.") ||
		strings.Contains(b, "_test.") ||
		strings.Contains(b, "-test.") ||
		strings.Contains(b, "_spec.") ||
		strings.HasPrefix(b, "test_")
}
