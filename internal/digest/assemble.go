package digest

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Section markers.
const (
	TreeHeading      = "## Directory Structure"
	FileHeading      = "## File: "
	TruncationMarker = "... [truncated]"

	fence = "```"
)

// AssembleOptions controls Assemble. Sizes are counted in runes.
type AssembleOptions struct {
	// MaxChars is the hard upper bound on the digest.
	MaxChars int

	// MaxFileChars caps each file's content before the global budget applies.
	MaxFileChars int

	// PartialThreshold is the remaining budget above which a section that
	// does not fit is emitted in part instead of dropped.
	PartialThreshold int

	// PartialMargin is left unused at the end of a partial section.
	PartialMargin int

	Tree TreeOptions
}

// DefaultAssembleOptions returns the standard budget: 80000 chars overall,
// 15000 per file, partial sections above 500 remaining.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{
		MaxChars:         80000,
		MaxFileChars:     15000,
		PartialThreshold: 500,
		PartialMargin:    100,
		Tree:             DefaultTreeOptions(),
	}
}

// budget counts remaining characters. It never goes negative.
type budget struct {
	remaining int
}

func (b *budget) fits(n int) bool {
	return n <= b.remaining
}

func (b *budget) spend(n int) {
	b.remaining -= n
}

// assembly is the digest plus what went into it.
type assembly struct {
	text      string
	chars     int
	sections  int
	truncated int
	partial   bool
}

// Assemble renders the directory tree over all and packs candidate sections
// after it in order until the budget runs out. Candidates without content are
// skipped.
func Assemble(all []File, candidates []EnrichedFile, opts AssembleOptions) string {
	return assemble(all, candidates, opts).text
}

func assemble(all []File, candidates []EnrichedFile, opts AssembleOptions) assembly {
	var pinned []string
	for _, c := range candidates {
		if c.Content != nil {
			pinned = append(pinned, c.Path)
		}
	}
	treeOpts := opts.Tree
	treeOpts.Pinned = pinned

	b := budget{remaining: opts.MaxChars}
	treeSection := TreeHeading + "\n" + fence + "\n" + RenderTree(all, treeOpts) + "\n" + fence + "\n"
	n := utf8.RuneCountInString(treeSection)
	if !b.fits(n) {
		text, _ := truncateRunes(treeSection, b.remaining)
		return assembly{text: text, chars: utf8.RuneCountInString(text), partial: true}
	}

	var sb strings.Builder
	sb.WriteString(treeSection)
	b.spend(n)

	a := assembly{}
	for _, c := range candidates {
		if c.Content == nil {
			continue
		}
		content, cut := truncateRunes(*c.Content, opts.MaxFileChars)
		if cut {
			content += "\n\n" + TruncationMarker
		}

		header := sectionHeader(c)
		section := header + fence + "\n" + content + "\n" + fence + "\n"
		cost := 1 + utf8.RuneCountInString(section)
		if b.fits(cost) {
			sb.WriteString("\n")
			sb.WriteString(section)
			b.spend(cost)
			a.sections++
			if cut {
				a.truncated++
			}
			continue
		}

		if b.remaining > opts.PartialThreshold {
			tail := "\n" + TruncationMarker + "\n" + fence + "\n"
			overhead := 1 + utf8.RuneCountInString(header+fence+"\n"+tail)
			if avail := b.remaining - overhead - opts.PartialMargin; avail > 0 {
				part, _ := truncateRunes(content, avail)
				partial := "\n" + header + fence + "\n" + part + tail
				sb.WriteString(partial)
				b.spend(utf8.RuneCountInString(partial))
				a.sections++
				a.truncated++
				a.partial = true
			}
		}
		break
	}

	a.text = sb.String()
	a.chars = opts.MaxChars - b.remaining
	return a
}

func sectionHeader(c EnrichedFile) string {
	var sb strings.Builder
	sb.WriteString(FileHeading)
	sb.WriteString(c.Path)
	sb.WriteString("\n")
	if c.Revision != nil {
		if !c.Revision.LastCommit.IsZero() {
			fmt.Fprintf(&sb, "Last commit: %s\n", c.Revision.LastCommit.UTC().Format(time.RFC3339))
		}
		if c.Revision.CommitCount > 0 {
			fmt.Fprintf(&sb, "Commits: %d\n", c.Revision.CommitCount)
		}
	}
	return sb.String()
}

// truncateRunes returns the first n runes of s and whether anything was cut.
func truncateRunes(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	if len(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
