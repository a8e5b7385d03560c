package commitsplit

import (
	"strings"
	"unicode"
)

// CommitType is a conventional commit type.
type CommitType int

// Conventional commit types.
const (
	TypeChore CommitType = iota
	TypeFeat
	TypeFix
	TypeDocs
	TypeStyle
	TypeRefactor
	TypePerf
	TypeTest
	TypeBuild
	TypeCI
	TypeRevert
)

// CommitTypes lists every type in declaration order.
var CommitTypes = []CommitType{
	TypeChore, TypeFeat, TypeFix, TypeDocs, TypeStyle, TypeRefactor,
	TypePerf, TypeTest, TypeBuild, TypeCI, TypeRevert,
}

var typeNames = map[CommitType]string{
	TypeChore:    "chore",
	TypeFeat:     "feat",
	TypeFix:      "fix",
	TypeDocs:     "docs",
	TypeStyle:    "style",
	TypeRefactor: "refactor",
	TypePerf:     "perf",
	TypeTest:     "test",
	TypeBuild:    "build",
	TypeCI:       "ci",
	TypeRevert:   "revert",
}

// typeAliases maps common misspellings to canonical types.
var typeAliases = map[string]CommitType{
	"feature":       TypeFeat,
	"features":      TypeFeat,
	"bugfix":        TypeFix,
	"bug":           TypeFix,
	"hotfix":        TypeFix,
	"fixes":         TypeFix,
	"doc":           TypeDocs,
	"document":      TypeDocs,
	"documentation": TypeDocs,
	"tests":         TypeTest,
	"testing":       TypeTest,
	"styles":        TypeStyle,
	"styling":       TypeStyle,
	"performance":   TypePerf,
	"refactoring":   TypeRefactor,
	"building":      TypeBuild,
	"chores":        TypeChore,
	"maintenance":   TypeChore,
}

// Name returns the canonical type name used verbatim in message headers.
func (t CommitType) Name() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return typeNames[TypeChore]
}

func (t CommitType) String() string { return t.Name() }

// ParseCommitType returns the type with the given canonical name.
func ParseCommitType(name string) (CommitType, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return TypeChore, false
}

// normalizeCommitType resolves case differences and common misspellings.
func normalizeCommitType(name string) (CommitType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if t, ok := ParseCommitType(name); ok {
		return t, true
	}
	t, ok := typeAliases[name]
	return t, ok
}

// TypeHints carries optional signals that refine type inference.
type TypeHints struct {
	Paths     []string // File paths of the change
	Context   string   // Free text such as diff excerpts or a branch name
	Additions int
	Deletions int
}

var fixKeywords = setOf(
	"fix", "fixes", "fixed", "fixing", "bug", "bugs", "bugfix", "hotfix",
	"regression", "workaround", "crash",
)

// InferType maps a category and the status mix of its files to a
// conventional commit type. It always returns a valid type.
func InferType(category ChangeCategory, statuses []FileStatus) CommitType {
	return InferTypeWithHints(category, statuses, TypeHints{})
}

// InferTypeWithHints is InferType with path, context and line-count signals.
// Category is the primary signal; the status mix breaks ties for source files.
func InferTypeWithHints(category ChangeCategory, statuses []FileStatus, hints TypeHints) CommitType {
	switch category {
	case CategoryTest:
		return TypeTest
	case CategoryDocumentation:
		return TypeDocs
	case CategoryStyle:
		return TypeStyle
	case CategoryConfiguration, CategoryOther:
		return TypeChore
	case CategoryBuildOrCI:
		return buildOrCI(hints.Paths)
	}
	return inferSourceType(statuses, hints)
}

func buildOrCI(paths []string) CommitType {
	var ci, build int
	for _, p := range paths {
		if IsCIPath(p) {
			ci++
		} else {
			build++
		}
	}
	if ci > build {
		return TypeCI
	}
	return TypeBuild
}

func inferSourceType(statuses []FileStatus, hints TypeHints) CommitType {
	var added, modified, deleted int
	for _, s := range statuses {
		switch s {
		case StatusAdded:
			added++
		case StatusDeleted:
			deleted++
		default:
			// Renames count as modifications.
			modified++
		}
	}
	total := added + modified + deleted
	switch {
	case total == 0:
		return TypeChore
	case deleted*2 > total:
		return TypeChore
	case added == total:
		return TypeFeat
	case added > 0 && deleted == 0:
		if hints.Additions > hints.Deletions {
			return TypeFeat
		}
		return TypeRefactor
	case hasFixKeyword(hints):
		return TypeFix
	default:
		return TypeRefactor
	}
}

func hasFixKeyword(hints TypeHints) bool {
	for _, p := range hints.Paths {
		if containsKeyword(p, fixKeywords) {
			return true
		}
	}
	return containsKeyword(hints.Context, fixKeywords)
}

// containsKeyword reports whether any word of s is in keywords.
func containsKeyword(s string, keywords map[string]bool) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if keywords[w] {
			return true
		}
	}
	return false
}
