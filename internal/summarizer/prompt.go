package summarizer

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a software project analyst. You receive the contents of a GitHub repository: a directory tree followed by selected files. Each file section may carry "Last commit" and "Commits" lines. Produce a JSON analysis with exactly three fields.

When files contradict each other, trust the one with the more recent last commit.

1. "summary": 2-4 sentences on what the project does, its purpose and its audience. Be specific.

2. "technologies": a JSON array of strings naming the main languages, frameworks, libraries and tools, most important first. Leave out transitive dependencies.

3. "structure": 2-3 sentences on how the project is organized: where the core logic lives, where tests are, how it is built and any notable architecture (plugin system, monorepo, library plus CLI).

Respond only with valid JSON. No markdown, no code fences, no extra text.`

// Request is the input to Summarize.
type Request struct {
	// Repository is "owner/name".
	Repository string
	// Context is the assembled digest.
	Context string
	// Hints is an optional line describing declared manifests.
	Hints string
}

func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Analyze the following GitHub repository and produce a JSON summary.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n\n", req.Repository)
	if req.Hints != "" {
		b.WriteString(req.Hints)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Context)
	b.WriteString("\n\nRespond with a JSON object containing \"summary\", \"technologies\", and \"structure\" fields.")
	return b.String()
}
