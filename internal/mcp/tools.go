package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Tool names.
const (
	toolSummarize = "summarize_repository"
	toolDigest    = "repository_digest"
)

type repositoryInput struct {
	GitHubURL string `json:"github_url" jsonschema:"URL of a public GitHub repository, e.g. https://github.com/owner/repo"`
}

type summarizeOutput struct {
	Repository   string   `json:"repository" jsonschema:"Repository as owner/name"`
	Branch       string   `json:"branch" jsonschema:"Default branch that was analyzed"`
	Summary      string   `json:"summary" jsonschema:"What the project does and who it is for"`
	Technologies []string `json:"technologies" jsonschema:"Main languages, frameworks and tools, most important first"`
	Structure    string   `json:"structure" jsonschema:"How the project is organized"`
}

type digestOutput struct {
	Repository string `json:"repository" jsonschema:"Repository as owner/name"`
	Branch     string `json:"branch" jsonschema:"Default branch that was analyzed"`
	Chars      int    `json:"chars" jsonschema:"Length of the digest in characters"`
	Files      int    `json:"files" jsonschema:"Number of files in the repository tree"`
	Sections   int    `json:"sections" jsonschema:"Number of file sections in the digest"`
	Digest     string `json:"digest" jsonschema:"Directory tree followed by the most relevant files"`
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolSummarize,
		Description: "Summarize a public GitHub repository: what it does, the technologies it uses and how it is organized",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args repositoryInput) (*mcp.CallToolResult, summarizeOutput, error) {
		var out summarizeOutput
		err := s.instrument(ctx, toolSummarize, func() error {
			res, err := s.analyzer.Summarize(ctx, args.GitHubURL)
			if err != nil {
				return err
			}
			techs := res.Technologies
			if techs == nil {
				techs = []string{}
			}
			out = summarizeOutput{
				Repository:   res.Repository,
				Branch:       res.Branch,
				Summary:      res.Summary.Summary,
				Technologies: techs,
				Structure:    res.Structure,
			}
			return nil
		})
		if err != nil {
			return nil, summarizeOutput{}, err
		}

		text := fmt.Sprintf("%s\n\nTechnologies: %s\n\nStructure: %s",
			out.Summary, strings.Join(out.Technologies, ", "), out.Structure)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: text},
			},
		}, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolDigest,
		Description: "Build a size-bounded context digest of a public GitHub repository: its directory tree and the most relevant files with commit metadata",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args repositoryInput) (*mcp.CallToolResult, digestOutput, error) {
		var out digestOutput
		err := s.instrument(ctx, toolDigest, func() error {
			res, err := s.analyzer.Digest(ctx, args.GitHubURL)
			if err != nil {
				return err
			}
			out = digestOutput{
				Repository: res.Repository,
				Branch:     res.Branch,
				Chars:      res.Chars,
				Files:      res.Files,
				Sections:   res.Sections,
				Digest:     res.Digest,
			}
			s.metrics.RecordDigest(ctx, res.Sections)
			return nil
		})
		if err != nil {
			return nil, digestOutput{}, err
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: out.Digest},
			},
		}, out, nil
	})
}

// instrument runs fn with metrics and logging for tool.
func (s *Server) instrument(ctx context.Context, tool string, fn func() error) error {
	start := time.Now()
	done := s.metrics.Start(ctx, tool)
	err := fn()
	done(err)

	if err != nil {
		s.logger.Warn("tool call failed",
			zap.String("tool", tool),
			zap.String("outcome", callOutcome(err)),
			zap.Error(err))
		return fmt.Errorf("%s failed: %w", tool, err)
	}
	s.logger.Debug("tool call completed",
		zap.String("tool", tool),
		zap.Duration("duration", time.Since(start)))
	return nil
}
