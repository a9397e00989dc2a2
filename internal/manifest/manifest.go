// Package manifest extracts project hints from dependency manifests so the
// summarizer can be told what a repository declares about itself.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
)

// maxDeps bounds how many dependencies a hint lists.
const maxDeps = 8

// Hint is what one manifest declares.
type Hint struct {
	Path      string
	Ecosystem string
	Name      string
	// Version is the language or toolchain version when declared.
	Version string
	Deps    []string
}

// String renders the hint as "ecosystem name (deps)".
func (h Hint) String() string {
	var b strings.Builder
	b.WriteString(h.Ecosystem)
	if h.Name != "" {
		b.WriteString(" " + h.Name)
	}
	if h.Version != "" {
		b.WriteString(" " + h.Version)
	}
	if len(h.Deps) > 0 {
		deps := h.Deps
		more := 0
		if len(deps) > maxDeps {
			more = len(deps) - maxDeps
			deps = deps[:maxDeps]
		}
		b.WriteString(" (" + strings.Join(deps, ", "))
		if more > 0 {
			fmt.Fprintf(&b, ", +%d more", more)
		}
		b.WriteString(")")
	}
	return b.String()
}

type parser func(content []byte) (Hint, error)

var parsers = map[string]parser{
	"package.json":     parsePackageJSON,
	"pyproject.toml":   parsePyproject,
	"cargo.toml":       parseCargo,
	"go.mod":           parseGoMod,
	"requirements.txt": parseRequirements,
}

// Detect parses every recognized manifest that has content. Unparseable
// manifests are skipped.
func Detect(files []digest.EnrichedFile) []Hint {
	var hints []Hint
	for _, f := range files {
		if f.Content == nil {
			continue
		}
		parse, ok := parsers[strings.ToLower(path.Base(f.Path))]
		if !ok {
			continue
		}
		h, err := parse([]byte(*f.Content))
		if err != nil {
			continue
		}
		h.Path = f.Path
		hints = append(hints, h)
	}
	return hints
}

// Line renders hints as a single prompt line, or "" when there are none.
func Line(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = h.String()
	}
	return "Detected from manifests: " + strings.Join(parts, "; ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parsePackageJSON(content []byte) (Hint, error) {
	var pkg struct {
		Name            string            `json:"name"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
		Engines         map[string]string `json:"engines"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return Hint{}, err
	}
	h := Hint{Ecosystem: "npm", Name: pkg.Name, Deps: sortedKeys(pkg.Dependencies)}
	h.Deps = append(h.Deps, sortedKeys(pkg.DevDependencies)...)
	if node := pkg.Engines["node"]; node != "" {
		h.Version = "node " + node
	}
	return h, nil
}

func parsePyproject(content []byte) (Hint, error) {
	var doc struct {
		Project struct {
			Name           string   `toml:"name"`
			RequiresPython string   `toml:"requires-python"`
			Dependencies   []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name         string                 `toml:"name"`
				Dependencies map[string]interface{} `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return Hint{}, err
	}

	h := Hint{Ecosystem: "python", Name: doc.Project.Name}
	if doc.Project.RequiresPython != "" {
		h.Version = "python " + doc.Project.RequiresPython
	}
	for _, req := range doc.Project.Dependencies {
		if name := requirementName(req); name != "" {
			h.Deps = append(h.Deps, name)
		}
	}
	if h.Name == "" {
		h.Name = doc.Tool.Poetry.Name
	}
	for _, name := range sortedKeys(doc.Tool.Poetry.Dependencies) {
		if name == "python" {
			if v, ok := doc.Tool.Poetry.Dependencies[name].(string); ok && h.Version == "" {
				h.Version = "python " + v
			}
			continue
		}
		h.Deps = append(h.Deps, name)
	}
	return h, nil
}

func parseCargo(content []byte) (Hint, error) {
	var doc struct {
		Package struct {
			Name    string `toml:"name"`
			Edition string `toml:"edition"`
		} `toml:"package"`
		Dependencies map[string]interface{} `toml:"dependencies"`
	}
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return Hint{}, err
	}
	h := Hint{Ecosystem: "cargo", Name: doc.Package.Name, Deps: sortedKeys(doc.Dependencies)}
	if doc.Package.Edition != "" {
		h.Version = "edition " + doc.Package.Edition
	}
	return h, nil
}

func parseGoMod(content []byte) (Hint, error) {
	f, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return Hint{}, err
	}
	h := Hint{Ecosystem: "go"}
	if f.Module != nil {
		h.Name = f.Module.Mod.Path
	}
	if f.Go != nil {
		h.Version = "go " + f.Go.Version
	}
	for _, r := range f.Require {
		if !r.Indirect {
			h.Deps = append(h.Deps, r.Mod.Path)
		}
	}
	return h, nil
}

func parseRequirements(content []byte) (Hint, error) {
	h := Hint{Ecosystem: "pip"}
	sc := bufio.NewScanner(strings.NewReader(string(content)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if name := requirementName(line); name != "" {
			h.Deps = append(h.Deps, name)
		}
	}
	return h, sc.Err()
}

// requirementName returns the distribution name of a PEP 508 requirement.
func requirementName(req string) string {
	req = strings.TrimSpace(req)
	end := strings.IndexAny(req, " <>=!~;[@")
	if end >= 0 {
		req = req[:end]
	}
	return strings.TrimSpace(req)
}
