package commitsplit

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// SourceKind identifies where a changeset comes from.
type SourceKind int

// Change source kinds.
const (
	SourceStaged SourceKind = iota
	SourceUnstaged
	SourceAll
	SourceLastCommit
	SourceCommit
	SourceRange
)

// ChangeSource selects the changes a Repository reports.
type ChangeSource struct {
	Kind SourceKind
	Rev  string // Commit hash for SourceCommit, start for SourceRange
	To   string // End of a SourceRange
}

// Staged returns the source for the index.
func Staged() ChangeSource { return ChangeSource{Kind: SourceStaged} }

// Unstaged returns the source for working tree changes not in the index.
func Unstaged() ChangeSource { return ChangeSource{Kind: SourceUnstaged} }

// AllChanges returns the source for staged and unstaged changes against HEAD.
func AllChanges() ChangeSource { return ChangeSource{Kind: SourceAll} }

// LastCommit returns the source for the changes introduced by HEAD.
func LastCommit() ChangeSource { return ChangeSource{Kind: SourceLastCommit} }

var shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// CommitAt returns the source for the changes introduced by a commit. The
// hash must be at least seven hexadecimal characters.
func CommitAt(sha string) (ChangeSource, error) {
	sha = strings.TrimSpace(sha)
	if !shaPattern.MatchString(sha) {
		return ChangeSource{}, errors.WithHint(
			errors.Newf("invalid commit hash %q", sha),
			"use at least 7 hexadecimal characters",
		)
	}
	return ChangeSource{Kind: SourceCommit, Rev: strings.ToLower(sha)}, nil
}

// Range returns the source for the changes between two revisions.
func Range(from, to string) ChangeSource {
	return ChangeSource{Kind: SourceRange, Rev: from, To: to}
}

// ParseChangeSource parses the textual forms accepted on the command line:
// staged, unstaged, all, last, a commit hash, or from..to.
func ParseChangeSource(s string) (ChangeSource, error) {
	switch s = strings.TrimSpace(s); s {
	case "", "staged":
		return Staged(), nil
	case "unstaged":
		return Unstaged(), nil
	case "all":
		return AllChanges(), nil
	case "last", "head", "HEAD":
		return LastCommit(), nil
	}
	if from, to, ok := strings.Cut(s, ".."); ok {
		if from == "" || to == "" {
			return ChangeSource{}, errors.Newf("invalid range %q", s)
		}
		return Range(from, to), nil
	}
	return CommitAt(s)
}

func (s ChangeSource) String() string {
	switch s.Kind {
	case SourceUnstaged:
		return "unstaged"
	case SourceAll:
		return "all"
	case SourceLastCommit:
		return "last"
	case SourceCommit:
		return s.Rev
	case SourceRange:
		return s.Rev + ".." + s.To
	default:
		return "staged"
	}
}

// Committable reports whether a message for this source can be used to create
// a commit. Other sources only produce a reference message.
func (s ChangeSource) Committable() bool {
	return s.Kind == SourceStaged
}

// RepositoryInfo identifies a local repository.
type RepositoryInfo struct {
	Name   string
	Root   string
	Branch string
}

// CommitResult describes a commit created by a Repository.
type CommitResult struct {
	SHA     string
	Branch  string
	Summary string
}

// ShortSHA returns the abbreviated commit hash.
func (r CommitResult) ShortSHA() string {
	if len(r.SHA) > 7 {
		return r.SHA[:7]
	}
	return r.SHA
}

// Repository is the version-control collaborator.
type Repository interface {
	// Info returns the repository name, root and current branch.
	Info(ctx context.Context) (RepositoryInfo, error)

	// Diff returns the unified diff for a change source.
	Diff(ctx context.Context, src ChangeSource) (string, error)

	// Listing returns `--numstat` and `--name-status` output for a change source.
	Listing(ctx context.Context, src ChangeSource) (numstat, nameStatus string, err error)

	// Commit creates a commit from the index with message.
	Commit(ctx context.Context, message string) (*CommitResult, error)

	// UnstagedFiles returns modified tracked files that are not staged.
	UnstagedFiles(ctx context.Context) ([]string, error)

	// UntrackedFiles returns files not tracked and not ignored.
	UntrackedFiles(ctx context.Context) ([]string, error)

	// RecentMessages returns up to n commit messages reachable from HEAD,
	// newest first.
	RecentMessages(ctx context.Context, n int) ([]string, error)
}

// RemoteRepository is a repository on a hosting platform.
type RemoteRepository struct {
	ID            string // Numeric project id on GitLab, owner/name on GitHub
	FullName      string
	Description   string
	DefaultBranch string
	Language      string
	Private       bool
	UpdatedAt     time.Time
}

// Branch is a branch on a hosting platform.
type Branch struct {
	Name      string
	SHA       string
	Protected bool
}

// RemoteCommit is a commit listed by a hosting platform.
type RemoteCommit struct {
	SHA     string
	Message string
	Author  string
	Date    time.Time
}

// Title returns the first line of the commit message.
func (c RemoteCommit) Title() string {
	title, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(title)
}

// CommitDiff is a commit with its patch and per-file counts.
type CommitDiff struct {
	SHA       string
	Message   string
	Patch     string
	Files     []FileChange
	Additions int
	Deletions int
}

// HostingPlatform is a remote hosting collaborator such as GitHub or GitLab.
type HostingPlatform interface {
	// Name returns the platform name used as project type in generation
	// context.
	Name() string

	ListRepositories(ctx context.Context) ([]RemoteRepository, error)
	ListBranches(ctx context.Context, repo string) ([]Branch, error)

	// ListCommits returns up to limit commits of branch, newest first.
	ListCommits(ctx context.Context, repo, branch string, limit int) ([]RemoteCommit, error)

	// GetCommitDiffs returns the diffs of the given commits in the same order.
	GetCommitDiffs(ctx context.Context, repo string, shas []string) ([]CommitDiff, error)
}

// AggregateCommitDiffs combines commit diffs, oldest first, into a single
// changeset. Files touched by several commits appear once, at their first
// position, with counts summed. A file added by an earlier commit stays
// added; otherwise the latest status wins.
func AggregateCommitDiffs(diffs []CommitDiff) *StagedChanges {
	var files []FileChange
	index := make(map[string]int)
	patches := make([]string, 0, len(diffs))
	for _, d := range diffs {
		if p := strings.TrimSpace(d.Patch); p != "" {
			patches = append(patches, p)
		}
		for _, f := range d.Files {
			i, ok := index[f.Path]
			if !ok {
				index[f.Path] = len(files)
				files = append(files, f)
				continue
			}
			prev := &files[i]
			prev.Additions += f.Additions
			prev.Deletions += f.Deletions
			prev.Binary = prev.Binary || f.Binary
			if prev.Status != StatusAdded {
				prev.Status = f.Status
				if f.OldPath != "" {
					prev.OldPath = f.OldPath
				}
			}
		}
	}
	diff := strings.Join(patches, "\n")
	if diff != "" {
		diff += "\n"
	}
	return NewStagedChanges(files, diff)
}
