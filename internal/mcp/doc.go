// Package mcp exposes repository analysis as Model Context Protocol tools.
//
// The server is built on github.com/modelcontextprotocol/go-sdk/mcp and serves
// over stdio. It registers two tools: summarize_repository returns the
// structured summary of a public GitHub repository and repository_digest
// returns the assembled context without calling the model.
package mcp
