package secrets

import (
	"fmt"
	"regexp"
)

// DefaultReplacement replaces every detected secret.
const DefaultReplacement = "[REDACTED]"

// Config configures a Scrubber.
type Config struct {
	Enabled bool

	// Gitleaks adds the gitleaks default rule set.
	Gitleaks bool

	Rules       []Rule
	Replacement string

	// AllowList patterns exempt a matched value from redaction.
	AllowList []string
}

// Rule is one regular expression detection rule.
type Rule struct {
	ID          string
	Description string
	Pattern     string
	// Keywords gate the rule: it runs only when one appears in the content.
	Keywords []string
}

// DefaultConfig returns the built-in rules with redaction enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Rules:       DefaultRules(),
		Replacement: DefaultReplacement,
	}
}

type compiledRule struct {
	id       string
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

func (c Config) compile() ([]compiledRule, []*regexp.Regexp, error) {
	rules := make([]compiledRule, 0, len(c.Rules))
	for i, r := range c.Rules {
		if r.ID == "" {
			return nil, nil, fmt.Errorf("rule %d: id is required", i)
		}
		if r.Pattern == "" {
			return nil, nil, fmt.Errorf("rule %s: pattern is required", r.ID)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %s: invalid pattern: %w", r.ID, err)
		}
		cr := compiledRule{id: r.ID, pattern: re}
		for _, kw := range r.Keywords {
			cr.keywords = append(cr.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		rules = append(rules, cr)
	}

	allow := make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, p := range c.AllowList {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("allow list %d: invalid pattern: %w", i, err)
		}
		allow = append(allow, re)
	}
	return rules, allow, nil
}
