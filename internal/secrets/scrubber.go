package secrets

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
)

// Detector finds secret spans in content.
type Detector interface {
	Detect(content string) []Finding
}

// Finding is one detected secret. The matched value is never retained.
type Finding struct {
	RuleID string
	Start  int
	End    int
	Line   int
}

// Result is the outcome of scrubbing one piece of content.
type Result struct {
	Text     string
	Findings []Finding
}

// RuleIDs returns the distinct rule IDs that matched, sorted.
func (r Result) RuleIDs() []string {
	seen := make(map[string]bool, len(r.Findings))
	ids := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			ids = append(ids, f.RuleID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Scrubber redacts secrets found by its detectors.
type Scrubber struct {
	enabled     bool
	replacement string
	detectors   []Detector
	allow       []*regexp.Regexp
	logger      *zap.Logger
}

var _ digest.Redactor = (*Scrubber)(nil)

// New builds a Scrubber. With cfg.Gitleaks set, the gitleaks rule set is
// loaded once here.
func New(cfg Config, logger *zap.Logger) (*Scrubber, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scrubber{
		enabled:     cfg.Enabled,
		replacement: cfg.Replacement,
		logger:      logger,
	}
	if s.replacement == "" {
		s.replacement = DefaultReplacement
	}
	if !cfg.Enabled {
		return s, nil
	}

	rules, allow, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	s.allow = allow
	s.detectors = append(s.detectors, &regexDetector{rules: rules})

	if cfg.Gitleaks {
		gl, err := NewGitleaksDetector()
		if err != nil {
			return nil, err
		}
		s.detectors = append(s.detectors, gl)
	}
	return s, nil
}

// Enabled reports whether the scrubber redacts anything.
func (s *Scrubber) Enabled() bool {
	return s.enabled
}

// Scrub detects and redacts secrets in content.
func (s *Scrubber) Scrub(content string) Result {
	if !s.enabled || content == "" {
		return Result{Text: content}
	}

	var findings []Finding
	for _, d := range s.detectors {
		for _, f := range d.Detect(content) {
			if f.Start < 0 || f.End > len(content) || f.Start >= f.End {
				continue
			}
			if s.allowed(content[f.Start:f.End]) {
				continue
			}
			f.Line = strings.Count(content[:f.Start], "\n") + 1
			findings = append(findings, f)
		}
	}
	if len(findings) == 0 {
		return Result{Text: content}
	}

	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Start < findings[j].Start })
	return Result{Text: s.apply(content, findings), Findings: findings}
}

// Redact returns content with secrets replaced.
func (s *Scrubber) Redact(content string) string {
	res := s.Scrub(content)
	if len(res.Findings) > 0 {
		s.logger.Debug("redacted secrets",
			zap.Int("findings", len(res.Findings)),
			zap.Strings("rules", res.RuleIDs()))
	}
	return res.Text
}

func (s *Scrubber) allowed(match string) bool {
	for _, re := range s.allow {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}

// apply replaces the union of the sorted finding spans. Overlapping and
// adjacent spans collapse into one replacement.
func (s *Scrubber) apply(content string, sorted []Finding) string {
	type span struct{ start, end int }
	merged := []span{{sorted[0].Start, sorted[0].End}}
	for _, f := range sorted[1:] {
		last := &merged[len(merged)-1]
		if f.Start <= last.end {
			if f.End > last.end {
				last.end = f.End
			}
			continue
		}
		merged = append(merged, span{f.Start, f.End})
	}

	var b strings.Builder
	b.Grow(len(content))
	pos := 0
	for _, sp := range merged {
		b.WriteString(content[pos:sp.start])
		b.WriteString(s.replacement)
		pos = sp.end
	}
	b.WriteString(content[pos:])
	return b.String()
}

type regexDetector struct {
	rules []compiledRule
}

func (d *regexDetector) Detect(content string) []Finding {
	var out []Finding
	for _, r := range d.rules {
		if !r.applies(content) {
			continue
		}
		for _, m := range r.pattern.FindAllStringIndex(content, -1) {
			out = append(out, Finding{RuleID: r.id, Start: m[0], End: m[1]})
		}
	}
	return out
}

func (r compiledRule) applies(content string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, kw := range r.keywords {
		if kw.MatchString(content) {
			return true
		}
	}
	return false
}
