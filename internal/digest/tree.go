package digest

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// EmptyTreeMarker is rendered when the inventory is empty.
const EmptyTreeMarker = "(empty repository)"

// SelectedFilesHeading introduces the pinned paths that the tree body did not show.
const SelectedFilesHeading = "Selected files:"

const (
	summarySampleDirs = 5
	summaryTopExts    = 5
	summaryLooseFiles = 30
	noExtensionLabel  = "(none)"
)

// TreeOptions controls RenderTree.
type TreeOptions struct {
	// MaxLines caps the tree body. Zero means unlimited.
	MaxLines int

	// SummaryThreshold switches to summary mode when the number of distinct
	// directories is strictly greater than this value.
	SummaryThreshold int

	// Pinned paths are always listed in full under SelectedFilesHeading when
	// the tree body does not show them as leaves.
	Pinned []string
}

// DefaultTreeOptions returns MaxLines 150 and SummaryThreshold 100.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{MaxLines: 150, SummaryThreshold: 100}
}

// treeIndex is the structural view over a file list.
type treeIndex struct {
	files []string
	dirs  map[string]bool
}

func newTreeIndex(files []File) treeIndex {
	idx := treeIndex{dirs: make(map[string]bool)}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Path == "" || seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		idx.files = append(idx.files, f.Path)
		parts := strings.Split(f.Path, "/")
		for i := 1; i < len(parts); i++ {
			idx.dirs[strings.Join(parts[:i], "/")+"/"] = true
		}
	}
	sort.Strings(idx.files)
	return idx
}

// DirectoryCount returns the number of distinct directory prefixes implied by files.
func DirectoryCount(files []File) int {
	return len(newTreeIndex(files).dirs)
}

// RenderTree renders a directory overview of files. Repositories with more
// than opts.SummaryThreshold directories are rendered as a per-directory
// summary instead of an indented tree.
func RenderTree(files []File, opts TreeOptions) string {
	idx := newTreeIndex(files)
	if len(idx.files) == 0 {
		return EmptyTreeMarker
	}

	var (
		lines []string
		shown map[string]bool
	)
	if len(idx.dirs) > opts.SummaryThreshold {
		lines, shown = renderSummary(idx, opts.MaxLines)
	} else {
		lines, shown = renderFull(idx, opts.MaxLines)
	}

	var missing []string
	for _, p := range opts.Pinned {
		if !shown[p] {
			missing = append(missing, p)
			shown[p] = true
		}
	}
	if len(missing) > 0 {
		lines = append(lines, SelectedFilesHeading)
		for _, p := range missing {
			lines = append(lines, "  "+p)
		}
	}
	return strings.Join(lines, "\n")
}

func renderFull(idx treeIndex, maxLines int) ([]string, map[string]bool) {
	entries := make([]string, 0, len(idx.dirs)+len(idx.files))
	for d := range idx.dirs {
		entries = append(entries, d)
	}
	entries = append(entries, idx.files...)
	sort.Strings(entries)

	shown := make(map[string]bool)
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		if maxLines > 0 && i >= maxLines {
			lines = append(lines, fmt.Sprintf("  ... (%d more entries)", len(entries)-i))
			break
		}
		isDir := strings.HasSuffix(e, "/")
		trimmed := strings.TrimSuffix(e, "/")
		name := path.Base(trimmed)
		if isDir {
			name += "/"
		} else {
			shown[e] = true
		}
		lines = append(lines, strings.Repeat("  ", strings.Count(trimmed, "/"))+name)
	}
	return lines, shown
}

type dirSummary struct {
	name     string
	files    int
	subdirs  int
	children []string
	exts     map[string]int
}

func renderSummary(idx treeIndex, maxLines int) ([]string, map[string]bool) {
	tops := make(map[string]*dirSummary)
	var loose []string
	for _, p := range idx.files {
		top, _, nested := strings.Cut(p, "/")
		if !nested {
			loose = append(loose, p)
			continue
		}
		ds, ok := tops[top]
		if !ok {
			ds = &dirSummary{name: top, exts: make(map[string]int)}
			tops[top] = ds
		}
		ds.files++
		ds.exts[extLabel(p)]++
	}
	for d := range idx.dirs {
		top, rest, _ := strings.Cut(strings.TrimSuffix(d, "/"), "/")
		ds, ok := tops[top]
		if !ok || rest == "" {
			continue
		}
		ds.subdirs++
		if !strings.Contains(rest, "/") {
			ds.children = append(ds.children, rest+"/")
		}
	}

	names := make([]string, 0, len(tops))
	for name := range tops {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{fmt.Sprintf("Repository overview: %d files in %d directories (summarized)",
		len(idx.files), len(idx.dirs))}
	for _, name := range names {
		ds := tops[name]
		sort.Strings(ds.children)
		sample := ""
		if len(ds.children) > 0 {
			n := min(len(ds.children), summarySampleDirs)
			sample = ": " + strings.Join(ds.children[:n], ", ")
			if len(ds.children) > n {
				sample += ", ..."
			}
		}
		lines = append(lines,
			fmt.Sprintf("%s/ (%d files, %d subdirectories%s)", name, ds.files, ds.subdirs, sample),
			"  "+histogram(ds.exts, summaryTopExts))
	}

	looseAt := make(map[string]int)
	for i, p := range loose {
		if i >= summaryLooseFiles {
			rest := make(map[string]int)
			for _, q := range loose[i:] {
				rest[extLabel(q)]++
			}
			lines = append(lines, fmt.Sprintf("... %d more files: %s", len(loose)-i, histogram(rest, summaryTopExts)))
			break
		}
		looseAt[p] = len(lines)
		lines = append(lines, p)
	}

	if maxLines > 0 && len(lines) > maxLines {
		omitted := len(lines) - maxLines
		lines = append(lines[:maxLines:maxLines], fmt.Sprintf("  ... (%d more entries)", omitted))
	}

	shown := make(map[string]bool, len(looseAt))
	for p, at := range looseAt {
		if maxLines <= 0 || at < maxLines {
			shown[p] = true
		}
	}
	return lines, shown
}

func extLabel(p string) string {
	ext := strings.ToLower(path.Ext(path.Base(p)))
	if ext == "" {
		return noExtensionLabel
	}
	return ext
}

// histogram renders the top n extensions by count followed by the combined rest.
func histogram(counts map[string]int, n int) string {
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if counts[exts[i]] != counts[exts[j]] {
			return counts[exts[i]] > counts[exts[j]]
		}
		return exts[i] < exts[j]
	})

	parts := make([]string, 0, n+1)
	other := 0
	for i, ext := range exts {
		if i < n {
			parts = append(parts, fmt.Sprintf("%s: %d", ext, counts[ext]))
			continue
		}
		other += counts[ext]
	}
	if other > 0 {
		parts = append(parts, fmt.Sprintf("other: %d", other))
	}
	return strings.Join(parts, ", ")
}
