package secrets

// DefaultRules returns detection rules for credentials commonly committed
// to source repositories.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "aws-access-key-id", Description: "AWS access key ID",
			Pattern: `\b(?:A3T[A-Z0-9]|AKIA|ASIA|AGPA|AIDA|AROA)[A-Z0-9]{16}\b`},
		{ID: "aws-secret-access-key", Description: "AWS secret access key",
			Pattern:  `(?i)(?:aws_secret_access_key|secret_access_key)\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}['"]?`,
			Keywords: []string{"secret_access_key"}},
		{ID: "github-token", Description: "GitHub token",
			Pattern: `\bgh[pousr]_[A-Za-z0-9]{36,}\b`},
		{ID: "github-fine-grained", Description: "GitHub fine-grained token",
			Pattern: `\bgithub_pat_[A-Za-z0-9_]{22,}\b`},
		{ID: "gitlab-token", Description: "GitLab personal access token",
			Pattern: `\bglpat-[A-Za-z0-9_\-]{20,}\b`},
		{ID: "slack-token", Description: "Slack token",
			Pattern: `\bxox[baprs]-[A-Za-z0-9\-]{10,}\b`},
		{ID: "stripe-key", Description: "Stripe secret key",
			Pattern: `\b(?:sk|rk)_live_[A-Za-z0-9]{24,}\b`},
		{ID: "openai-api-key", Description: "OpenAI-style API key",
			Pattern: `\bsk-(?:proj-)?[A-Za-z0-9_\-]{32,}\b`},
		{ID: "google-api-key", Description: "Google API key",
			Pattern: `\bAIza[A-Za-z0-9_\-]{35}\b`},
		{ID: "npm-token", Description: "npm access token",
			Pattern: `\bnpm_[A-Za-z0-9]{36}\b`},
		{ID: "jwt", Description: "JSON web token",
			Pattern: `\beyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`},
		{ID: "private-key", Description: "PEM private key block",
			Pattern: `(?s)-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----.*?-----END (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`},
		{ID: "connection-string", Description: "URL with embedded credentials",
			Pattern:  `(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqps?)://[^\s:/@]+:[^\s@/]+@[^\s'"]+`,
			Keywords: []string{"://"}},
		{ID: "assigned-secret", Description: "Credential assigned to a sensitive name",
			Pattern:  `(?i)\b(?:password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token)\b\s*[:=]\s*['"][^'"\s]{8,}['"]`,
			Keywords: []string{"pass", "secret", "key", "token"}},
	}
}
