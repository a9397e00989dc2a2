package digest

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Tier(t *testing.T) {
	s := NewScorer(DefaultRules())

	tests := []struct {
		path string
		want Tier
	}{
		{"README.md", TierReadme},
		{"docs/readme.rst", TierReadme},
		{"README", TierReadme},
		{"README.json", TierReadme},
		{"package.json", TierManifest},
		{"services/api/go.mod", TierManifest},
		{"Dockerfile", TierManifest},
		{".env.example", TierManifest},
		{"LICENSE", TierSecondary},
		{"tsconfig.json", TierSecondary},
		{".github/workflows/ci.yml", TierSecondary},
		{"config/settings.yaml", TierConfig},
		{"data.json", TierConfig},
		{"src/main.py", TierSource},
		{"web/App.TSX", TierSource},
		{"notes.txt", TierNone},
		{"Procfile.dev", TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Tier(tt.path))
		})
	}
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer(DefaultRules())

	tests := []struct {
		name string
		path string
		size int64
		want int
	}{
		{"root readme small", "README.md", 500, 1000 + 30},
		{"root readme large", "README.md", 60000, 1000 - 50},
		{"exclusive tier for readme-named config", "README.json", 3000, 1000 + 15},
		{"manifest medium size", "package.json", 3000, 800 + 15},
		{"nested entry point", "src/main.py", 1200, 100 - 2000 + 30 + 300},
		{"test file bonus", "pkg/util_test.go", 10000, 100 + 10 - 2000},
		{"no tier mid size", "notes.txt", 10000, 0},
		{"app.yaml stacks entry bonus", "app.yaml", 100, 500 + 30 + 300},
		{"deep config", "a/b/c/x.toml", 100, 200 - 3*2000 + 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.path, tt.size))
		})
	}
}

func TestScorer_RootReadmeBeatsEverythingAtSameDepth(t *testing.T) {
	rules := DefaultRules()
	s := NewScorer(rules)
	sizes := []int64{0, 1, 1999, 2000, 4999, 5000, 50000, 50001, 250000, 500000}

	var names []string
	for name := range rules.Manifests {
		names = append(names, name)
	}
	for name := range rules.Secondary {
		names = append(names, name)
	}
	for stem := range rules.EntryStems {
		for ext := range rules.SourceExts {
			names = append(names, stem+ext)
		}
		for ext := range rules.ConfigExts {
			names = append(names, stem+ext)
		}
	}
	names = append(names, "main_test.go", "notes.txt", "LICENSE")
	sort.Strings(names)

	for _, readmeSize := range sizes {
		readme := s.Score("README.md", readmeSize)
		for _, name := range names {
			for _, size := range sizes {
				assert.Greater(t, readme, s.Score(name, size),
					"README.md (%d bytes) vs %s (%d bytes)", readmeSize, name, size)
			}
		}
	}
}

func TestScorer_ShallowBeatsDeep(t *testing.T) {
	s := NewScorer(DefaultRules())

	// The weakest possible root file still beats the strongest nested one.
	assert.Greater(t, s.Score("notes.txt", 400000), s.Score("docs/README.md", 10))
	assert.Greater(t, s.Score("src/x.txt", 400000), s.Score("src/pkg/main.go", 10))
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(DefaultRules())
	for i := 0; i < 10; i++ {
		assert.Equal(t, s.Score("cmd/server/main.go", 4096), s.Score("cmd/server/main.go", 4096))
	}
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "readme", TierReadme.String())
	assert.Equal(t, "manifest", TierManifest.String())
	assert.Equal(t, "secondary", TierSecondary.String())
	assert.Equal(t, "config", TierConfig.String())
	assert.Equal(t, "source", TierSource.String())
	assert.Equal(t, "none", TierNone.String())
}
