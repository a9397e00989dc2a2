package manifest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repodigest/internal/digest"
)

func enriched(path, content string) digest.EnrichedFile {
	return digest.EnrichedFile{File: digest.File{Path: path, Size: int64(len(content))}, Content: &content}
}

func TestDetect(t *testing.T) {
	files := []digest.EnrichedFile{
		enriched("README.md", "# hello"),
		enriched("package.json", `{"name":"web","dependencies":{"react":"^18","express":"^4"},"devDependencies":{"vitest":"1"},"engines":{"node":">=20"}}`),
		enriched("go.mod", "module github.com/octo/hello\n\ngo 1.22\n\nrequire (\n\tgithub.com/spf13/cobra v1.8.0\n\tgolang.org/x/sys v0.1.0 // indirect\n)\n"),
		enriched("api/requirements.txt", "# pinned\nfastapi==0.110\nhttpx>=0.27\n-r dev.txt\nuvicorn[standard]\n"),
		enriched("Cargo.toml", "[package]\nname = \"cli\"\nedition = \"2021\"\n\n[dependencies]\nserde = { version = \"1\" }\nclap = \"4\"\n"),
		enriched("pyproject.toml", "[project]\nname = \"tool\"\nrequires-python = \">=3.11\"\ndependencies = [\"httpx>=0.27\", \"rich\"]\n"),
		{File: digest.File{Path: "setup.py"}},
	}

	hints := Detect(files)
	require.Len(t, hints, 5)

	byPath := make(map[string]Hint, len(hints))
	for _, h := range hints {
		byPath[h.Path] = h
	}

	assert.Equal(t, Hint{Path: "package.json", Ecosystem: "npm", Name: "web", Version: "node >=20",
		Deps: []string{"express", "react", "vitest"}}, byPath["package.json"])
	assert.Equal(t, Hint{Path: "go.mod", Ecosystem: "go", Name: "github.com/octo/hello", Version: "go 1.22",
		Deps: []string{"github.com/spf13/cobra"}}, byPath["go.mod"])
	assert.Equal(t, []string{"fastapi", "httpx", "uvicorn"}, byPath["api/requirements.txt"].Deps)
	assert.Equal(t, []string{"clap", "serde"}, byPath["Cargo.toml"].Deps)
	assert.Equal(t, "edition 2021", byPath["Cargo.toml"].Version)
	assert.Equal(t, "tool", byPath["pyproject.toml"].Name)
	assert.Equal(t, []string{"httpx", "rich"}, byPath["pyproject.toml"].Deps)
}

func TestDetect_PoetryProject(t *testing.T) {
	content := "[tool.poetry]\nname = \"svc\"\n\n[tool.poetry.dependencies]\npython = \"^3.10\"\nflask = \"^3\"\n"
	hints := Detect([]digest.EnrichedFile{enriched("pyproject.toml", content)})

	require.Len(t, hints, 1)
	assert.Equal(t, "svc", hints[0].Name)
	assert.Equal(t, "python ^3.10", hints[0].Version)
	assert.Equal(t, []string{"flask"}, hints[0].Deps)
}

func TestDetect_SkipsMalformed(t *testing.T) {
	hints := Detect([]digest.EnrichedFile{
		enriched("package.json", "{not json"),
		enriched("Cargo.toml", "[package\n"),
	})
	assert.Empty(t, hints)
}

func TestHint_String(t *testing.T) {
	deps := make([]string, 10)
	for i := range deps {
		deps[i] = fmt.Sprintf("d%d", i)
	}
	h := Hint{Ecosystem: "npm", Name: "web", Deps: deps}
	assert.Equal(t, "npm web (d0, d1, d2, d3, d4, d5, d6, d7, +2 more)", h.String())
	assert.Equal(t, "pip", Hint{Ecosystem: "pip"}.String())
}

func ExampleLine() {
	hints := []Hint{
		{Ecosystem: "go", Name: "github.com/octo/hello", Version: "go 1.22", Deps: []string{"github.com/spf13/cobra"}},
		{Ecosystem: "pip", Deps: []string{"fastapi"}},
	}
	fmt.Println(Line(hints))
	// Output: Detected from manifests: go github.com/octo/hello go 1.22 (github.com/spf13/cobra); pip (fastapi)
}
