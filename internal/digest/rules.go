package digest

// Weights are the points used by Scorer.
type Weights struct {
	Readme    int
	Manifest  int
	Secondary int
	Config    int
	Source    int
	TestFile  int

	// DepthPenalty is subtracted once per directory above the file. It must
	// exceed the widest score spread within a single depth level so that
	// shallow files always outrank deeper ones.
	DepthPenalty int

	// Size adjustments: files below SmallFileSize get SmallFileBonus, below
	// MediumFileSize get MediumFileBonus, above LargeFileSize lose LargeFilePenalty.
	SmallFileBonus   int
	MediumFileBonus  int
	LargeFilePenalty int
	SmallFileSize    int64
	MediumFileSize   int64
	LargeFileSize    int64

	EntryPoint int
}

// Rules is the immutable data driving Classifier and Scorer.
//
// All name lookups are exact unless noted. Rules values are never mutated
// after construction; build a new one to change behavior.
type Rules struct {
	// SkipDirs excludes a file when any path segment matches.
	SkipDirs map[string]bool

	// SkipSuffixes excludes a file when its lowercased path ends with one.
	SkipSuffixes []string

	// SkipFilenames excludes a file by exact base name.
	SkipFilenames map[string]bool

	// MaxFileSize excludes files larger than this many bytes.
	MaxFileSize int64

	Manifests map[string]bool
	Secondary map[string]bool

	// SecondaryDirs promote every file below these prefixes to the secondary tier.
	SecondaryDirs []string

	ConfigExts map[string]bool
	SourceExts map[string]bool
	EntryStems map[string]bool

	Weights Weights
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Readme:           1000,
		Manifest:         800,
		Secondary:        500,
		Config:           200,
		Source:           100,
		TestFile:         10,
		DepthPenalty:     2000,
		SmallFileBonus:   30,
		MediumFileBonus:  15,
		LargeFilePenalty: 50,
		SmallFileSize:    2000,
		MediumFileSize:   5000,
		LargeFileSize:    50000,
		EntryPoint:       300,
	}
}

// DefaultRules returns the standard skip lists and priority sets.
func DefaultRules() Rules {
	return Rules{
		SkipDirs: setOf(
			"node_modules", ".git", "vendor", "dist", "build", "__pycache__",
			".next", ".nuxt", ".tox", ".mypy_cache", ".pytest_cache", ".ruff_cache",
			"venv", ".venv", "env", ".env", "eggs", ".eggs",
			"bower_components", "jspm_packages", ".gradle", ".idea", ".vscode", ".vs",
			"target", "out", "coverage", ".nyc_output", ".cache", "tmp", "temp",
		),
		SkipSuffixes: []string{
			// images
			".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".svg", ".webp", ".tiff",
			// media
			".mp3", ".mp4", ".wav", ".avi", ".mov", ".mkv", ".flac", ".ogg", ".webm",
			// archives
			".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar", ".jar", ".war",
			// fonts
			".woff", ".woff2", ".ttf", ".eot", ".otf",
			// documents
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
			// binaries
			".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a", ".class", ".pyc", ".pyo", ".wasm",
			// generated
			".map", ".lock", ".sum", ".min.js", ".min.css", ".bundle.js", ".ds_store",
		},
		SkipFilenames: setOf(
			"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Pipfile.lock",
			"poetry.lock", "composer.lock", "Gemfile.lock", "Cargo.lock", "go.sum",
			"bun.lockb", ".DS_Store", "Thumbs.db", ".gitattributes",
		),
		MaxFileSize: 500000,
		Manifests: setOf(
			"package.json", "pyproject.toml", "setup.py", "setup.cfg", "Cargo.toml",
			"go.mod", "Gemfile", "build.gradle", "pom.xml", "composer.json", "mix.exs",
			"Makefile", "CMakeLists.txt", "Dockerfile", "docker-compose.yml",
			"docker-compose.yaml", ".env.example", "requirements.txt",
		),
		Secondary: setOf(
			"tsconfig.json", "webpack.config.js", "vite.config.js", "vite.config.ts",
			"rollup.config.js", "babel.config.js", ".babelrc", "jest.config.js",
			"jest.config.ts", "vitest.config.ts", "tox.ini", "pytest.ini", "conftest.py",
			"Procfile", "app.yaml", "vercel.json", "netlify.toml", "fly.toml",
			"CONTRIBUTING.md", "CHANGELOG.md", "LICENSE", ".eslintrc", ".eslintrc.js",
			".eslintrc.json", ".prettierrc", ".golangci.yml", ".gitlab-ci.yml", ".travis.yml",
		),
		SecondaryDirs: []string{".github/workflows/"},
		ConfigExts:    setOf(".toml", ".yaml", ".yml", ".json", ".ini", ".cfg", ".conf"),
		SourceExts: setOf(
			".py", ".js", ".ts", ".jsx", ".tsx", ".go", ".rs", ".rb", ".java", ".kt",
			".cs", ".cpp", ".c", ".h", ".hpp", ".swift", ".m", ".php", ".ex", ".exs",
			".erl", ".hs", ".lua", ".r", ".scala", ".clj", ".sh", ".bash", ".zsh",
			".sql", ".graphql", ".proto", ".vue", ".svelte", ".astro", ".html",
			".css", ".scss", ".less",
		),
		EntryStems: setOf("main", "app", "index", "server", "cli", "__main__", "mod", "lib"),
		Weights:    DefaultWeights(),
	}
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
