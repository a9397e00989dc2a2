// Package analyzer ties repository providers, the digest builder and the
// summarizer together behind two operations: Digest returns the assembled
// context for a GitHub URL and Summarize additionally asks the model for a
// structured summary of it.
package analyzer
