// Package services wires repodigest's components from configuration.
//
// New builds the repository provider, secret scrubber, digest builder and
// summarizer from a config.Config and returns them behind a Registry. Both
// the repodigest daemon and the rdctl CLI construct their services here.
package services
