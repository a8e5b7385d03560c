package commitsplit

import (
	"path"
	"strings"
)

// ChangeCategory groups files by the kind of concern they belong to.
type ChangeCategory int

// Change categories.
const (
	CategoryOther ChangeCategory = iota
	CategorySource
	CategoryTest
	CategoryDocumentation
	CategoryConfiguration
	CategoryBuildOrCI
	CategoryStyle
)

// Categories lists every category in declaration order.
var Categories = []ChangeCategory{
	CategoryOther,
	CategorySource,
	CategoryTest,
	CategoryDocumentation,
	CategoryConfiguration,
	CategoryBuildOrCI,
	CategoryStyle,
}

func (c ChangeCategory) String() string {
	switch c {
	case CategorySource:
		return "source"
	case CategoryTest:
		return "test"
	case CategoryDocumentation:
		return "docs"
	case CategoryConfiguration:
		return "config"
	case CategoryBuildOrCI:
		return "build/ci"
	case CategoryStyle:
		return "style"
	default:
		return "other"
	}
}

// Noun returns the category name used in group descriptions ("12 source files").
func (c ChangeCategory) Noun() string {
	switch c {
	case CategoryDocumentation:
		return "documentation"
	case CategoryConfiguration:
		return "configuration"
	case CategoryBuildOrCI:
		return "build/CI"
	default:
		return c.String()
	}
}

var testDirs = setOf(
	"test", "tests", "spec", "specs", "__tests__", "testdata",
)

var docDirs = setOf(
	"doc", "docs",
)

var docExts = setOf(
	".md", ".rst", ".adoc", ".txt",
)

var docNames = setOf(
	"readme", "changelog", "license", "contributing", "authors",
)

// ciRoots are path prefixes owned by CI systems.
var ciRoots = []string{
	".github/workflows/",
	".github/actions/",
	".circleci/",
	".buildkite/",
	".gitlab/ci/",
}

var ciFiles = setOf(
	".gitlab-ci.yml", ".travis.yml", "jenkinsfile", "azure-pipelines.yml", ".drone.yml",
	"bitbucket-pipelines.yml",
)

var buildFiles = setOf(
	"dockerfile", "makefile", "go.mod", "go.sum", "package.json", "package-lock.json",
	"yarn.lock", "pnpm-lock.yaml", "pyproject.toml", "setup.py", "setup.cfg",
	"requirements.txt", "pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle",
	"cargo.toml", "cargo.lock", "cmakelists.txt", "docker-compose.yml",
	"docker-compose.yaml", ".goreleaser.yml", ".goreleaser.yaml",
)

var buildExts = setOf(
	".gradle", ".mk", ".cmake",
)

var styleFiles = setOf(
	".editorconfig", ".prettierrc", ".prettierrc.json", ".prettierrc.yaml",
	".prettierrc.yml", ".prettierignore", ".eslintrc", ".eslintrc.js", ".eslintrc.json",
	".eslintrc.yml", ".eslintrc.yaml", "eslint.config.js", ".stylelintrc",
	".stylelintrc.json", ".golangci.yml", ".golangci.yaml", ".flake8", ".pylintrc",
	".rubocop.yml", ".clang-format", "rustfmt.toml", ".rustfmt.toml", ".markdownlint.json",
	".markdownlint.yaml",
)

var configDirs = setOf(
	"config", "configs", "conf", "settings", ".config",
)

var configExts = setOf(
	".yaml", ".yml", ".json", ".toml", ".ini", ".cfg", ".conf", ".env", ".properties",
)

var sourceExts = setOf(
	".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".kt", ".kts", ".scala", ".rb",
	".php", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".rs", ".swift", ".m", ".mm", ".dart",
	".lua", ".sh", ".bash", ".zsh", ".ps1", ".sql", ".r", ".ex", ".exs", ".erl", ".hs",
	".clj", ".vue", ".svelte", ".html", ".css", ".scss", ".sass", ".less", ".proto",
	".graphql", ".tf", ".mjs", ".cjs",
)

// Classify returns the category of a file path. It is a pure function: every
// path maps to exactly one category, checked in precedence order test, docs,
// build/CI, style, config, source, other.
func Classify(p string) ChangeCategory {
	p = normalizePath(p)
	lower := strings.ToLower(p)
	base := path.Base(lower)
	ext := path.Ext(base)
	dirs := dirSegments(lower)

	switch {
	case isTestPath(base, path.Base(p), dirs):
		return CategoryTest
	case isDocPath(base, ext, dirs):
		return CategoryDocumentation
	case isBuildOrCIPath(lower, base, ext):
		return CategoryBuildOrCI
	case styleFiles[base]:
		return CategoryStyle
	case isConfigPath(base, ext, dirs):
		return CategoryConfiguration
	case sourceExts[ext]:
		return CategorySource
	default:
		return CategoryOther
	}
}

// IsCIPath reports whether a path belongs to a CI system rather than the build.
func IsCIPath(p string) bool {
	lower := strings.ToLower(normalizePath(p))
	for _, root := range ciRoots {
		if strings.HasPrefix(lower, root) {
			return true
		}
	}
	return ciFiles[path.Base(lower)]
}

// isTestPath matches lower-cased test conventions on base and the
// case-sensitive FooTest/FooTests convention of JVM and .NET names on
// original.
func isTestPath(base, original string, dirs []string) bool {
	for _, d := range dirs {
		if testDirs[d] {
			return true
		}
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	switch {
	case strings.HasSuffix(stem, "_test"), strings.HasSuffix(stem, "_spec"):
		return true
	case strings.HasSuffix(stem, ".test"), strings.HasSuffix(stem, ".spec"):
		return true
	case strings.HasPrefix(stem, "test_") && sourceExts[path.Ext(base)]:
		return true
	}
	ext := path.Ext(original)
	if !classTestExts[strings.ToLower(ext)] {
		return false
	}
	stem = strings.TrimSuffix(original, ext)
	for _, suffix := range []string{"Test", "Tests"} {
		if len(stem) > len(suffix) && strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// classTestExts are languages naming test classes FooTest or FooTests.
var classTestExts = setOf(".java", ".kt", ".scala", ".cs")

func isDocPath(base, ext string, dirs []string) bool {
	if len(dirs) > 0 && docDirs[dirs[0]] {
		return true
	}
	if ext == ".md" || ext == ".rst" || ext == ".adoc" {
		return true
	}
	stem := strings.TrimSuffix(base, ext)
	return docNames[stem] && (ext == "" || docExts[ext])
}

func isBuildOrCIPath(lower, base, ext string) bool {
	for _, root := range ciRoots {
		if strings.HasPrefix(lower, root) {
			return true
		}
	}
	if ciFiles[base] || buildFiles[base] || buildExts[ext] {
		return true
	}
	return strings.HasPrefix(base, "dockerfile.") || strings.HasSuffix(base, ".dockerfile")
}

func isConfigPath(base, ext string, dirs []string) bool {
	if configExts[ext] {
		return true
	}
	if strings.HasPrefix(base, ".env") {
		return true
	}
	for _, d := range dirs {
		if configDirs[d] {
			return true
		}
	}
	return false
}

func setOf(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// normalizePath strips leading "./" and "/" and converts separators.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

// dirSegments returns the directory components of a path, excluding the file name.
func dirSegments(p string) []string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(dir, "/")
}
