package secrets

import (
	"fmt"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// GitleaksDetector runs the gitleaks default rule set. It is safe for
// concurrent use: string scans only read the loaded rules and never add to
// the detector's own finding list.
type GitleaksDetector struct {
	detector *detect.Detector
}

// NewGitleaksDetector loads the gitleaks default configuration.
func NewGitleaksDetector() (*GitleaksDetector, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	return &GitleaksDetector{detector: d}, nil
}

// Detect returns a finding for every occurrence of each reported secret.
// Gitleaks reports values rather than byte offsets, so offsets are recovered
// by searching content.
func (g *GitleaksDetector) Detect(content string) []Finding {
	reported := g.detector.DetectString(content)

	var out []Finding
	seen := make(map[string]bool, len(reported))
	for _, f := range reported {
		if f.Secret == "" || seen[f.Secret] {
			continue
		}
		seen[f.Secret] = true
		for from := 0; ; {
			i := strings.Index(content[from:], f.Secret)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(f.Secret)
			out = append(out, Finding{RuleID: "gitleaks:" + f.RuleID, Start: start, End: end})
			from = end
		}
	}
	return out
}
