// Package secrets redacts credentials from repository file content before
// it is placed into a digest.
//
// The built-in engine matches a set of regular expression rules, most of
// which key off self-identifying prefixes (ghp_, AKIA, xoxb-, ...). The
// gitleaks engine can be layered on top for its much larger rule set at the
// cost of startup time.
//
// A *Scrubber satisfies digest.Redactor.
package secrets
